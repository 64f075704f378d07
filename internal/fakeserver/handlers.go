package fakeserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/vectordb/internal/logger"
)

type loadRequest struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	VectorScale *int   `json:"vectorScale,omitempty"`
	WALEnabled  *bool  `json:"walEnabled,omitempty"`
}

type createTableRequest struct {
	Name    string            `json:"name"`
	Fields  []fieldDecl       `json:"fields"`
	Indices []json.RawMessage `json:"indices,omitempty"`
}

type insertRequest struct {
	Table  string           `json:"table"`
	Data   []map[string]any `json:"data"`
	Upsert bool             `json:"upsert,omitempty"`
}

type queryRequest struct {
	Table        string    `json:"table"`
	QueryField   string    `json:"queryField"`
	QueryVector  []float64 `json:"queryVector"`
	Query        string    `json:"query"`
	QueryIndex   string    `json:"queryIndex"`
	Response     []string  `json:"response"`
	Limit        int       `json:"limit"`
	WithDistance bool      `json:"withDistance"`
	Filter       string    `json:"filter"`
	Facets       []any     `json:"facets"`
}

type getRequest struct {
	Table       string   `json:"table"`
	Response    []string `json:"response"`
	PrimaryKeys []any    `json:"primaryKeys"`
	Filter      string   `json:"filter"`
	Skip        int      `json:"skip"`
	Limit       *int     `json:"limit"`
	Facets      []any    `json:"facets"`
}

type deleteRequest struct {
	Table       string `json:"table"`
	PrimaryKeys []any  `json:"primaryKeys"`
	Filter      string `json:"filter"`
}

const distanceKey = "@distance"

func (s *Server) welcome(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, WelcomeMessage, nil)
}

func (s *Server) state(w http.ResponseWriter, _ *http.Request) {
	type dbState struct {
		Name        string   `json:"name"`
		Path        string   `json:"path"`
		VectorScale *int     `json:"vectorScale,omitempty"`
		WALEnabled  *bool    `json:"walEnabled,omitempty"`
		Tables      []string `json:"tables"`
	}

	s.mu.Lock()
	dbs := make([]dbState, 0, len(s.loaded))
	for name, db := range s.loaded {
		dbs = append(dbs, dbState{
			Name:        name,
			Path:        db.path,
			VectorScale: db.vectorScale,
			WALEnabled:  db.walEnabled,
			Tables:      append([]string{}, db.tableOrder...),
		})
	}
	s.mu.Unlock()
	sort.Slice(dbs, func(i, j int) bool { return dbs[i].Name < dbs[j].Name })

	writeResult(w, "Server is running.", map[string]any{"loadedDatabases": dbs})
}

func (s *Server) loadDB(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Path == "" {
		writeError(w, http.StatusBadRequest, "name and path are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loaded[req.Name]; ok {
		writeError(w, http.StatusConflict, "Database already loaded: "+req.Name)
		return
	}
	db, ok := s.stored[req.Path]
	if !ok {
		db = newDatabase(req.Name, req.Path)
		s.stored[req.Path] = db
	}
	db.name = req.Name
	db.vectorScale = req.VectorScale
	db.walEnabled = req.WALEnabled
	s.loaded[req.Name] = db

	logpkg.FromContext(r.Context(), s.logger).Info("Database loaded",
		zap.String("db", req.Name), zap.String("path", req.Path))
	writeResult(w, "Load "+req.Name+" successfully.", nil)
}

func (s *Server) unloadDB(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "db")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loaded[name]; !ok {
		writeError(w, http.StatusNotFound, "Database not found: "+name)
		return
	}
	delete(s.loaded, name)
	writeResult(w, "Unload "+name+" successfully.", nil)
}

func (s *Server) dropDB(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "db")

	s.mu.Lock()
	defer s.mu.Unlock()

	db, ok := s.loaded[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Database not found: "+name)
		return
	}
	delete(s.loaded, name)
	delete(s.stored, db.path)
	writeResult(w, "Drop "+name+" successfully.", nil)
}

// pathParam returns the decoded value of a route parameter. chi matches on
// RawPath when it is set, so escaped separators such as %2F arrive still encoded.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// lookupDB resolves the {db} path parameter. Callers hold s.mu.
func (s *Server) lookupDB(w http.ResponseWriter, r *http.Request) (*database, bool) {
	name := pathParam(r, "db")
	db, ok := s.loaded[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Database not found: "+name)
		return nil, false
	}
	return db, true
}

// lookupTable resolves a table of the {db} database. Callers hold s.mu.
func (s *Server) lookupTable(w http.ResponseWriter, r *http.Request, name string) (*table, bool) {
	db, ok := s.lookupDB(w, r)
	if !ok {
		return nil, false
	}
	t, ok := db.tables[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Table not found: "+name)
		return nil, false
	}
	return t, true
}

func (s *Server) createTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Table name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, ok := s.lookupDB(w, r)
	if !ok {
		return
	}
	if _, exists := db.tables[req.Name]; exists {
		writeError(w, http.StatusConflict, "Table already exists: "+req.Name)
		return
	}
	t, err := newTable(req.Name, req.Fields, req.Indices)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	db.addTable(t)
	writeResult(w, "Create "+req.Name+" successfully.", nil)
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, ok := s.lookupDB(w, r)
	if !ok {
		return
	}
	names := append([]string{}, db.tableOrder...)
	writeResult(w, "Get all table names successfully.", names)
}

func (s *Server) dropTable(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "table")

	s.mu.Lock()
	defer s.mu.Unlock()

	db, ok := s.lookupDB(w, r)
	if !ok {
		return
	}
	if _, exists := db.tables[name]; !exists {
		writeError(w, http.StatusNotFound, "Table not found: "+name)
		return
	}
	db.removeTable(name)
	writeResult(w, "Drop "+name+" successfully.", nil)
}

func (s *Server) insert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.lookupTable(w, r, req.Table)
	if !ok {
		return
	}
	if err := t.put(req.Data, req.Upsert); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errDuplicateKey) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeResult(w, "Insert data successfully.", map[string]any{"inserted": len(req.Data)})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Filter != "" {
		writeError(w, http.StatusBadRequest, "filter expressions are not supported")
		return
	}
	if req.Query != "" || req.QueryIndex != "" {
		writeError(w, http.StatusBadRequest, "server-side embedding is not supported")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.lookupTable(w, r, req.Table)
	if !ok {
		return
	}

	col, ok := t.vectorColumn(req.QueryField)
	if !ok {
		writeError(w, http.StatusBadRequest, "Query field is not a vector field: "+req.QueryField)
		return
	}
	if len(req.QueryVector) != col.dimensions {
		writeError(w, http.StatusBadRequest, "Query vector dimension mismatch")
		return
	}

	type hit struct {
		row  map[string]any
		dist float64
	}
	hits := make([]hit, 0, len(t.rows))
	for _, row := range t.rows {
		vec, err := toVector(row[col.name])
		if err != nil {
			continue
		}
		hits = append(hits, hit{row: row, dist: cosineDistance(req.QueryVector, vec)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	if req.Limit >= 0 && len(hits) > req.Limit {
		hits = hits[:req.Limit]
	}

	out := make([]map[string]any, len(hits))
	for i, h := range hits {
		rec := t.project(h.row, req.Response)
		if req.WithDistance {
			rec[distanceKey] = h.dist
		}
		out[i] = rec
	}
	writeResult(w, "Query search successfully.", out)
}

// vectorColumn resolves the column to search. An empty name selects the only vector column.
func (t *table) vectorColumn(name string) (column, bool) {
	if name != "" {
		c, ok := t.byName[name]
		return c, ok && c.isVector()
	}
	var found column
	n := 0
	for _, c := range t.columns {
		if c.isVector() {
			found = c
			n++
		}
	}
	return found, n == 1
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	var req getRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Filter != "" {
		writeError(w, http.StatusBadRequest, "filter expressions are not supported")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.lookupTable(w, r, req.Table)
	if !ok {
		return
	}

	rows := t.rows
	if req.PrimaryKeys != nil {
		rows = nil
		for _, k := range req.PrimaryKeys {
			if i := t.indexOf(keyOf(k)); i >= 0 {
				rows = append(rows, t.rows[i])
			}
		}
	}

	if req.Skip > 0 {
		if req.Skip >= len(rows) {
			rows = nil
		} else {
			rows = rows[req.Skip:]
		}
	}
	if req.Limit != nil && *req.Limit >= 0 && len(rows) > *req.Limit {
		rows = rows[:*req.Limit]
	}

	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = t.project(row, req.Response)
	}
	writeResult(w, "Query search successfully.", out)
}

func (s *Server) deleteRecords(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Filter != "" {
		writeError(w, http.StatusBadRequest, "filter expressions are not supported")
		return
	}
	if len(req.PrimaryKeys) == 0 {
		writeError(w, http.StatusBadRequest, "primaryKeys are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.lookupTable(w, r, req.Table)
	if !ok {
		return
	}
	if t.pk == "" {
		writeError(w, http.StatusBadRequest, "Table has no primary key: "+req.Table)
		return
	}
	removed := t.remove(req.PrimaryKeys)
	writeResult(w, "Delete data successfully.", map[string]any{"deleted": removed})
}
