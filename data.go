package vectordb

import (
	"context"
	"fmt"
	"net/http"
)

// Facet requests server-side aggregation alongside query or get results.
// Aggregate is required.
type Facet struct {
	Group     []string `json:"group,omitempty"`
	Aggregate []string `json:"aggregate"`
}

type insertRequest struct {
	Table  string   `json:"table"`
	Data   []Record `json:"data"`
	Upsert bool     `json:"upsert,omitempty"`
}

// Insert adds records to a table of the selected database.
func (c *Client) Insert(ctx context.Context, table string, records []Record) (*Response, error) {
	return c.insert(ctx, opInsert, table, records, false)
}

// Upsert inserts records, replacing existing ones with the same primary key.
func (c *Client) Upsert(ctx context.Context, table string, records []Record) (*Response, error) {
	return c.insert(ctx, opUpsert, table, records, true)
}

func (c *Client) insert(ctx context.Context, op, table string, records []Record, upsert bool) (*Response, error) {
	db, err := c.requireDB(op)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	path, err := dbPath(db, "/data/insert")
	if err != nil {
		return nil, err
	}
	return c.call(ctx, op, http.MethodPost, path, &insertRequest{Table: table, Data: records, Upsert: upsert})
}

// QueryRequest is a nearest-neighbor query.
type QueryRequest struct {
	Table        string
	QueryField   string    // vector field to search; may be empty when Query/QueryIndex is used
	QueryVector  []float32 // query vector; may be empty when Query/QueryIndex is used
	Response     []string  // fields to return; empty returns all
	Limit        int
	WithDistance bool

	// QueryVectorDouble is sent instead of QueryVector at full precision, for
	// VECTOR_DOUBLE fields. Setting both is an error.
	QueryVectorDouble []float64

	Filter     string  // optional server-side filter expression
	Query      string  // optional text, embedded by the server through QueryIndex
	QueryIndex string  // optional index used to embed Query
	Facets     []Facet // optional aggregations
}

// queryBody is the wire form of QueryRequest. table, response, limit and
// withDistance are always sent.
type queryBody struct {
	Table        string   `json:"table"`
	QueryField   string   `json:"queryField,omitempty"`
	QueryVector  any      `json:"queryVector,omitempty"` // []float32, []float64 or nil
	Response     []string `json:"response"`
	Limit        int      `json:"limit"`
	WithDistance bool     `json:"withDistance"`
	Filter       string   `json:"filter,omitempty"`
	Query        string   `json:"query,omitempty"`
	QueryIndex   string   `json:"queryIndex,omitempty"`
	Facets       []Facet  `json:"facets,omitempty"`
}

// Query runs a nearest-neighbor search in the selected database.
func (c *Client) Query(ctx context.Context, q QueryRequest) (*Response, error) {
	return c.query(ctx, opQuery, q)
}

func (c *Client) query(ctx context.Context, op string, q QueryRequest) (*Response, error) {
	db, err := c.requireDB(op)
	if err != nil {
		return nil, err
	}
	if err := validateFacets(op, q.Facets); err != nil {
		return nil, err
	}
	if len(q.QueryVector) > 0 && len(q.QueryVectorDouble) > 0 {
		return nil, fmt.Errorf("%s: %w: QueryVector and QueryVectorDouble are mutually exclusive", op, ErrInvalidArgument)
	}
	path, err := dbPath(db, "/data/query")
	if err != nil {
		return nil, err
	}
	body := &queryBody{
		Table:        q.Table,
		QueryField:   q.QueryField,
		Response:     nonNil(q.Response),
		Limit:        q.Limit,
		WithDistance: q.WithDistance,
		Filter:       q.Filter,
		Query:        q.Query,
		QueryIndex:   q.QueryIndex,
		Facets:       q.Facets,
	}
	switch {
	case len(q.QueryVectorDouble) > 0:
		body.QueryVector = q.QueryVectorDouble
	case len(q.QueryVector) > 0:
		body.QueryVector = q.QueryVector
	}
	return c.call(ctx, op, http.MethodPost, path, body)
}

// GetRequest retrieves records without a similarity search.
type GetRequest struct {
	Table       string
	Response    []string // fields to return; empty returns all
	PrimaryKeys []any    // optional point lookup
	Filter      string   // optional
	Skip        int      // 0 means no skip
	Limit       int      // 0 means no limit
	Facets      []Facet  // optional
}

type getBody struct {
	Table       string   `json:"table"`
	Response    []string `json:"response"`
	PrimaryKeys []any    `json:"primaryKeys,omitempty"`
	Filter      string   `json:"filter,omitempty"`
	Skip        int      `json:"skip,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Facets      []Facet  `json:"facets,omitempty"`
}

// Get retrieves records from a table of the selected database.
func (c *Client) Get(ctx context.Context, g GetRequest) (*Response, error) {
	db, err := c.requireDB(opGet)
	if err != nil {
		return nil, err
	}
	if err := validateFacets(opGet, g.Facets); err != nil {
		return nil, err
	}
	path, err := dbPath(db, "/data/get")
	if err != nil {
		return nil, err
	}
	body := &getBody{
		Table:       g.Table,
		Response:    nonNil(g.Response),
		PrimaryKeys: g.PrimaryKeys,
		Filter:      g.Filter,
		Skip:        g.Skip,
		Limit:       g.Limit,
		Facets:      g.Facets,
	}
	return c.call(ctx, opGet, http.MethodPost, path, body)
}

// DeleteRequest removes records by primary key or filter. At least one is required.
type DeleteRequest struct {
	Table       string
	PrimaryKeys []any
	Filter      string
}

type deleteBody struct {
	Table       string `json:"table"`
	PrimaryKeys []any  `json:"primaryKeys,omitempty"`
	Filter      string `json:"filter,omitempty"`
}

// Delete removes records from a table of the selected database.
func (c *Client) Delete(ctx context.Context, d DeleteRequest) (*Response, error) {
	db, err := c.requireDB(opDelete)
	if err != nil {
		return nil, err
	}
	if len(d.PrimaryKeys) == 0 && d.Filter == "" {
		return nil, fmt.Errorf("%s: %w: primary keys or filter required", opDelete, ErrInvalidArgument)
	}
	path, err := dbPath(db, "/data/delete")
	if err != nil {
		return nil, err
	}
	return c.call(ctx, opDelete, http.MethodPost, path, &deleteBody{
		Table:       d.Table,
		PrimaryKeys: d.PrimaryKeys,
		Filter:      d.Filter,
	})
}

func validateFacets(op string, facets []Facet) error {
	for i, f := range facets {
		if len(f.Aggregate) == 0 {
			return fmt.Errorf("%s: %w: facet %d has no aggregate", op, ErrInvalidArgument, i)
		}
	}
	return nil
}

// nonNil keeps empty lists on the wire as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
