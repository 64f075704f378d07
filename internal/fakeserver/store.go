package fakeserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	typeVectorFloat  = 40
	typeVectorDouble = 41
	typeUnknown      = 999
)

var typeNames = map[string]int{
	"INT1": 1, "INT2": 2, "INT4": 3, "INT": 3, "INT8": 4,
	"FLOAT": 10, "DOUBLE": 11, "STRING": 20, "BOOL": 30,
	"VECTOR_FLOAT": typeVectorFloat, "VECTOR_DOUBLE": typeVectorDouble,
}

type database struct {
	name        string
	path        string
	vectorScale *int
	walEnabled  *bool
	tables      map[string]*table
	tableOrder  []string
}

func newDatabase(name, path string) *database {
	return &database{name: name, path: path, tables: make(map[string]*table)}
}

func (d *database) addTable(t *table) {
	d.tables[t.name] = t
	d.tableOrder = append(d.tableOrder, t.name)
}

func (d *database) removeTable(name string) {
	delete(d.tables, name)
	for i, n := range d.tableOrder {
		if n == name {
			d.tableOrder = append(d.tableOrder[:i], d.tableOrder[i+1:]...)
			return
		}
	}
}

type column struct {
	name       string
	dataType   int
	primaryKey bool
	dimensions int
}

func (c column) isVector() bool {
	return c.dataType == typeVectorFloat || c.dataType == typeVectorDouble
}

type table struct {
	name    string
	columns []column
	byName  map[string]column
	pk      string
	indices []json.RawMessage
	rows    []map[string]any
}

// fieldDecl is the wire shape of a column declaration.
type fieldDecl struct {
	Name       string          `json:"name"`
	DataType   json.RawMessage `json:"dataType"`
	PrimaryKey bool            `json:"primaryKey"`
	Dimensions int             `json:"dimensions,omitempty"`
}

var (
	errNoFields        = errors.New("table must declare at least one field")
	errDuplicateField  = errors.New("duplicate field name")
	errMultiplePK      = errors.New("at most one field can be the primary key")
	errMissingDims     = errors.New("vector field requires positive dimensions")
	errUnknownDataType = errors.New("unknown data type")
)

func newTable(name string, decls []fieldDecl, indices []json.RawMessage) (*table, error) {
	if len(decls) == 0 {
		return nil, errNoFields
	}
	t := &table{name: name, byName: make(map[string]column, len(decls)), indices: indices}
	for _, d := range decls {
		if d.Name == "" {
			return nil, errors.New("field name is required")
		}
		if _, dup := t.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", errDuplicateField, d.Name)
		}
		dt := parseDataType(d.DataType)
		if dt == typeUnknown {
			return nil, fmt.Errorf("%w for field %s: %s", errUnknownDataType, d.Name, string(d.DataType))
		}
		c := column{name: d.Name, dataType: dt, primaryKey: d.PrimaryKey, dimensions: d.Dimensions}
		if c.isVector() && c.dimensions <= 0 {
			return nil, fmt.Errorf("%w: %s", errMissingDims, d.Name)
		}
		if c.primaryKey {
			if t.pk != "" {
				return nil, errMultiplePK
			}
			t.pk = c.name
		}
		t.columns = append(t.columns, c)
		t.byName[c.name] = c
	}
	return t, nil
}

// parseDataType accepts the numeric code or the type name.
func parseDataType(raw json.RawMessage) int {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		for _, v := range typeNames {
			if v == n {
				return n
			}
		}
		return typeUnknown
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, ok := typeNames[s]; ok {
			return v
		}
	}
	return typeUnknown
}

// normalize validates a record against the schema and keeps only declared columns.
func (t *table) normalize(rec map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(t.columns))
	for k := range rec {
		if _, ok := t.byName[k]; !ok {
			return nil, fmt.Errorf("unknown field %q", k)
		}
	}
	for _, c := range t.columns {
		v, ok := rec[c.name]
		if !ok || v == nil {
			if c.primaryKey || c.isVector() {
				return nil, fmt.Errorf("missing required field %q", c.name)
			}
			continue
		}
		if c.isVector() {
			vec, err := toVector(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", c.name, err)
			}
			if len(vec) != c.dimensions {
				return nil, fmt.Errorf("field %q: expected %d dimensions, got %d", c.name, c.dimensions, len(vec))
			}
		}
		out[c.name] = v
	}
	return out, nil
}

func (t *table) indexOf(key string) int {
	if t.pk == "" {
		return -1
	}
	for i, row := range t.rows {
		if keyOf(row[t.pk]) == key {
			return i
		}
	}
	return -1
}

// put stores rows. Without upsert an existing primary key rejects the whole batch.
func (t *table) put(rows []map[string]any, upsert bool) error {
	normalized := make([]map[string]any, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i, rec := range rows {
		n, err := t.normalize(rec)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if t.pk != "" && !upsert {
			k := keyOf(n[t.pk])
			if _, dup := seen[k]; dup || t.indexOf(k) >= 0 {
				return fmt.Errorf("%w: %v", errDuplicateKey, n[t.pk])
			}
			seen[k] = struct{}{}
		}
		normalized = append(normalized, n)
	}

	for _, n := range normalized {
		if t.pk != "" && upsert {
			if i := t.indexOf(keyOf(n[t.pk])); i >= 0 {
				t.rows[i] = n
				continue
			}
		}
		t.rows = append(t.rows, n)
	}
	return nil
}

var errDuplicateKey = errors.New("duplicate primary key")

func (t *table) remove(keys []any) int {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[keyOf(k)] = struct{}{}
	}
	kept := t.rows[:0]
	removed := 0
	for _, row := range t.rows {
		if _, ok := want[keyOf(row[t.pk])]; ok {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return removed
}

// project copies the requested columns of row; an empty list selects every column.
func (t *table) project(row map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		out := make(map[string]any, len(row))
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := row[f]; ok {
			out[f] = v
		}
	}
	return out
}

func keyOf(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func toVector(v any) ([]float64, error) {
	switch x := v.(type) {
	case []float64:
		return x, nil
	case []any:
		out := make([]float64, len(x))
		for i, e := range x {
			f, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("vector element %d is not a number", i)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a vector, got %T", v)
	}
}

// cosineDistance returns 1 - cos(a, b). Zero vectors are at distance 1.
func cosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
