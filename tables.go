package vectordb

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/vectordb/internal/transport/rest"
)

// Index declares a server-side embedding index over a text field.
type Index struct {
	Name       string `json:"name"`
	Field      string `json:"field"`
	Model      string `json:"model,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type createTableRequest struct {
	Name    string  `json:"name"`
	Fields  []Field `json:"fields"`
	Indices []Index `json:"indices,omitempty"`
}

// TableOption sets an optional CreateTable parameter.
type TableOption func(*createTableRequest)

// WithIndices adds server-side embedding indices to the table.
func WithIndices(indices ...Index) TableOption {
	return func(r *createTableRequest) { r.Indices = append(r.Indices, indices...) }
}

// CreateTable creates a table in the selected database. Fields are sent in order.
func (c *Client) CreateTable(ctx context.Context, name string, fields []Field, opts ...TableOption) (*Response, error) {
	db, err := c.requireDB(opCreateTable)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = []Field{}
	}
	req := &createTableRequest{Name: name, Fields: fields}
	for _, o := range opts {
		o(req)
	}
	path, err := dbPath(db, "/schema/tables")
	if err != nil {
		return nil, err
	}
	return c.call(ctx, opCreateTable, http.MethodPost, path, req)
}

// DropTable deletes a table of the selected database.
func (c *Client) DropTable(ctx context.Context, name string) (*Response, error) {
	db, err := c.requireDB(opDropTable)
	if err != nil {
		return nil, err
	}
	table, err := rest.PathParam("table", name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	path, err := dbPath(db, "/schema/tables/"+table)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, opDropTable, http.MethodDelete, path, nil)
}

// ListTables lists the table names of the selected database.
func (c *Client) ListTables(ctx context.Context) (*Response, error) {
	db, err := c.requireDB(opListTables)
	if err != nil {
		return nil, err
	}
	path, err := dbPath(db, "/schema/tables/show")
	if err != nil {
		return nil, err
	}
	return c.call(ctx, opListTables, http.MethodGet, path, nil)
}
