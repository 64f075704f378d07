package vectordb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	cacheRedis "github.com/kailas-cloud/vectordb/internal/cache/redis"
	"github.com/kailas-cloud/vectordb/internal/embcache"
	"github.com/kailas-cloud/vectordb/internal/embedding"
	"github.com/kailas-cloud/vectordb/internal/metrics"
	"github.com/kailas-cloud/vectordb/internal/transport/rest"
)

// transport executes one HTTP call.
type transport interface {
	Do(ctx context.Context, req rest.Request) (rest.Response, error)
}

// Client is a session against one vector database server.
//
// The selected database is plain mutable state without locking: a Client is
// meant for one caller at a time. Use separate clients, or synchronize
// externally, when several goroutines need different databases.
type Client struct {
	transport transport
	baseURL   string

	// session state
	database string
	selected bool

	embedder   embedding.Embedder // nil when not configured
	cacheStore EmbeddingStore     // nil when not configured
	closers    []func()

	obs    *observer
	logger *zap.Logger
}

// New creates a Client. It does not contact the server; use Ping or Dial for that.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.protocol != "http" && cfg.protocol != "https" {
		return nil, fmt.Errorf("%w: protocol must be \"http\" or \"https\", got %q", ErrInvalidArgument, cfg.protocol)
	}
	if cfg.port <= 0 || cfg.port > 65535 {
		return nil, fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalidArgument, cfg.port)
	}
	if cfg.host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidArgument)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	obs, err := newObserver(logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.protocol + "://" + net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port))
	c := &Client{
		baseURL: baseURL,
		obs:     obs,
		logger:  logger,
	}

	c.transport = cfg.transport
	if c.transport == nil {
		c.transport = rest.New(rest.Config{
			BaseURL:    baseURL,
			Timeout:    cfg.timeout,
			Headers:    cfg.headers,
			HTTPClient: cfg.httpClient,
		})
	}

	if err := c.wireEmbedder(cfg); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// Dial creates a Client and verifies the server answers the connectivity probe.
func Dial(ctx context.Context, opts ...Option) (*Client, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// wireEmbedder assembles the embedder chain: provider -> cache.
func (c *Client) wireEmbedder(cfg *clientConfig) error {
	if cfg.embedder == nil {
		return nil
	}
	var emb embedding.Embedder = &embedderAdapter{inner: cfg.embedder}

	if cfg.metricsReg != nil {
		if err := metrics.RegisterEmbeddingMetrics(cfg.metricsReg); err != nil {
			return fmt.Errorf("vectordb: %w", err)
		}
	}

	store := cfg.cacheStore
	if store == nil && cfg.cacheRedis != nil {
		rs, err := cacheRedis.NewStore(cacheRedis.Config{
			Addrs:    cfg.cacheRedis.addrs,
			Password: cfg.cacheRedis.password,
		})
		if err != nil {
			return fmt.Errorf("vectordb: create embedding cache: %w", err)
		}
		c.closers = append(c.closers, rs.Close)
		store = rs
	}

	if store != nil {
		ttl := cfg.cacheTTL
		if ttl <= 0 {
			ttl = DefaultEmbeddingCacheTTL
		}
		emb = embcache.New(emb, store, embedderNamespace(cfg.embedder), ttl, metrics.EmbeddingCacheTotal, c.logger)
		c.cacheStore = store
	}

	c.embedder = emb
	return nil
}

// Close releases resources opened by New. The Client must not be used afterwards.
func (c *Client) Close() {
	for _, fn := range c.closers {
		fn()
	}
	c.closers = nil
}

// BaseURL returns the server root, e.g. http://localhost:8888.
func (c *Client) BaseURL() string { return c.baseURL }

// UseDB selects the database scoped operations target. It is purely local and
// overwrites any previous selection. An empty name clears the selection.
func (c *Client) UseDB(name string) {
	c.database = name
	c.selected = name != ""
}

// CurrentDB returns the selected database and whether one is selected.
func (c *Client) CurrentDB() (string, bool) {
	return c.database, c.selected
}

// requireDB returns the selected database or ErrNoDatabaseSelected.
func (c *Client) requireDB(op string) (string, error) {
	if !c.selected {
		return "", fmt.Errorf("%s: %w", op, ErrNoDatabaseSelected)
	}
	return c.database, nil
}

// dbPath builds /api/{db}/<suffix> with the database name escaped.
func dbPath(db, suffix string) (string, error) {
	seg, err := rest.PathParam("db", db)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return "/api/" + seg + suffix, nil
}

// call sends one request and records the outcome.
func (c *Client) call(ctx context.Context, op, method, path string, body any) (*Response, error) {
	start := time.Now()
	resp, err := c.send(ctx, op, method, path, body)
	c.obs.observe(ctx, op, start, resp, err)
	return resp, err
}

func (c *Client) send(ctx context.Context, op, method, path string, body any) (*Response, error) {
	res, err := c.transport.Do(ctx, rest.Request{Method: method, Path: path, Body: body})
	if err != nil {
		if errors.Is(err, rest.ErrEncode) {
			return nil, fmt.Errorf("vectordb: %s: %w: %w", op, ErrInvalidArgument, err)
		}
		return nil, &ConnectivityError{Op: op, URL: c.baseURL + path, Err: err}
	}
	return &Response{StatusCode: res.StatusCode, Body: res.Body}, nil
}
