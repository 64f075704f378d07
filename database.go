package vectordb

import (
	"context"
	"net/http"
)

// Operation names used in logs, metrics and errors.
const (
	opPing        = "ping"
	opWelcome     = "welcome"
	opState       = "state"
	opLoadDB      = "load_db"
	opUnloadDB    = "unload_db"
	opDropDB      = "drop_db"
	opCreateTable = "create_table"
	opDropTable   = "drop_table"
	opListTables  = "list_tables"
	opInsert      = "insert"
	opUpsert      = "upsert"
	opQuery       = "query"
	opQueryText   = "query_text"
	opGet         = "get"
	opDelete      = "delete"
)

// Ping probes the server root. It returns nil only for HTTP 200, a
// *StatusError for any other status and a *ConnectivityError when the server
// cannot be reached.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.call(ctx, opPing, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		if se, ok := resp.Err().(*StatusError); ok {
			return se
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return nil
}

// Welcome returns the server greeting (GET /).
func (c *Client) Welcome(ctx context.Context) (*Response, error) {
	return c.call(ctx, opWelcome, http.MethodGet, "/", nil)
}

// State returns the server state (GET /state).
func (c *Client) State(ctx context.Context) (*Response, error) {
	return c.call(ctx, opState, http.MethodGet, "/state", nil)
}

// loadRequest is the body of POST /api/load. Absent options are omitted.
type loadRequest struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	VectorScale *int   `json:"vectorScale,omitempty"`
	WALEnabled  *bool  `json:"walEnabled,omitempty"`
}

// LoadOption sets an optional LoadDB parameter.
type LoadOption func(*loadRequest)

// WithVectorScale sets the initial vector capacity of the loaded database.
func WithVectorScale(n int) LoadOption {
	return func(r *loadRequest) { r.VectorScale = &n }
}

// WithWAL enables or disables the write-ahead log.
func WithWAL(enabled bool) LoadOption {
	return func(r *loadRequest) { r.WALEnabled = &enabled }
}

// LoadDB asks the server to load the database stored at path under name.
// It does not select the database; call UseDB for that.
func (c *Client) LoadDB(ctx context.Context, name, path string, opts ...LoadOption) (*Response, error) {
	req := &loadRequest{Name: name, Path: path}
	for _, o := range opts {
		o(req)
	}
	return c.call(ctx, opLoadDB, http.MethodPost, "/api/load", req)
}

// UnloadDB unloads the named database. The session selection is left untouched.
func (c *Client) UnloadDB(ctx context.Context, name string) (*Response, error) {
	path, err := dbPath(name, "/unload")
	if err != nil {
		return nil, err
	}
	return c.call(ctx, opUnloadDB, http.MethodPost, path, nil)
}

// DropDB deletes the named database and all its tables. The session selection
// is left untouched.
func (c *Client) DropDB(ctx context.Context, name string) (*Response, error) {
	path, err := dbPath(name, "/drop")
	if err != nil {
		return nil, err
	}
	return c.call(ctx, opDropDB, http.MethodDelete, path, nil)
}
