// Package rest executes JSON requests against the vector database HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/vectordb/internal/version"
)

// ErrEncode signals that a request body could not be serialized.
// Nothing was sent to the server when it is returned.
var ErrEncode = errors.New("encode request body")

const contentType = "application/json"

// Request is a single call against the API. Path must already be escaped.
type Request struct {
	Method string
	Path   string
	Body   any // nil means no body
}

// Response is the raw outcome of a call: status code and unparsed body.
type Response struct {
	StatusCode int
	Body       []byte
}

// Config holds transport settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration // 0 disables the per-request timeout
	Headers    map[string]string
	HTTPClient *http.Client
}

// Client performs HTTP calls. It holds no per-call state and is safe for concurrent use.
type Client struct {
	baseURL string
	timeout time.Duration
	headers map[string]string
	http    *http.Client
}

// New creates a transport client.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		headers: headers,
		http:    hc,
	}
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends req and returns the status code and body. Any status is a successful
// round trip; errors are returned only when no response was received.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	body := io.Reader(http.NoBody)
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return Response{}, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		body = bytes.NewReader(data)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", contentType)
	httpReq.Header.Set("User-Agent", version.UserAgent())
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	// Custom headers may replace Accept and User-Agent but never the content type.
	httpReq.Header.Set("Content-type", contentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response body: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// PathParam escapes value as a simple-style path parameter, the way generated
// OpenAPI clients do.
func PathParam(name, value string) (string, error) {
	s, err := runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
	if err != nil {
		return "", fmt.Errorf("path parameter %s: %w", name, err)
	}
	return s, nil
}
