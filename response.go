package vectordb

import (
	"encoding/json"
	"fmt"
)

// Response is the outcome of one request: HTTP status and raw JSON body.
type Response struct {
	StatusCode int
	Body       []byte
}

// Envelope is the body shape the server uses for every endpoint.
type Envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("vectordb: decode response: %w", err)
	}
	return nil
}

// Envelope decodes the {statusCode, message, result} body.
func (r *Response) Envelope() (Envelope, error) {
	var env Envelope
	if err := r.Decode(&env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Records decodes the envelope result as a list of records, as returned by
// query and get.
func (r *Response) Records() ([]Record, error) {
	env, err := r.Envelope()
	if err != nil {
		return nil, err
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return []Record{}, nil
	}
	var recs []Record
	if err := json.Unmarshal(env.Result, &recs); err != nil {
		return nil, fmt.Errorf("vectordb: decode records: %w", err)
	}
	return recs, nil
}

// Err returns nil for 2xx responses and a *StatusError otherwise.
func (r *Response) Err() error {
	if r == nil || r.OK() {
		return nil
	}
	se := &StatusError{StatusCode: r.StatusCode, Body: r.Body}
	var env Envelope
	if json.Unmarshal(r.Body, &env) == nil {
		se.Message = env.Message
	}
	return se
}
