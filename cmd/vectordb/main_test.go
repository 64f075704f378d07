package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vectordb"
	"github.com/kailas-cloud/vectordb/internal/config"
	"github.com/kailas-cloud/vectordb/internal/fakeserver"
)

func newTestApp(t *testing.T, apiKeys ...string) (*app, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(fakeserver.New(fakeserver.WithAPIKeys(apiKeys...)).Handler())
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())

	cfg, err := config.Parse([]byte("server:\n  host: " + u.Hostname() + "\n  port: " + strconv.Itoa(port) + "\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Database.Name = "db"
	cfg.Database.Path = "/tmp/db"
	if len(apiKeys) > 0 {
		cfg.Server.Headers = map[string]string{"X-API-Key": apiKeys[0]}
	}

	out := &bytes.Buffer{}
	return &app{cfg: cfg, logger: zap.NewNop(), out: out, reg: prometheus.NewRegistry()}, out
}

func TestParseSchemaFile(t *testing.T) {
	fields, indices, err := parseSchemaFile([]byte(`
fields:
  - name: ID
    type: INT
    primary_key: true
  - name: Doc
    type: string
  - name: Embedding
    type: VECTOR_FLOAT
    dimensions: 4
indices:
  - name: DocIndex
    field: Doc
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 3 || len(indices) != 1 {
		t.Fatalf("got %d fields, %d indices", len(fields), len(indices))
	}
	if fields[0].DataType() != vectordb.FieldInt4 || !fields[0].PrimaryKey() {
		t.Errorf("unexpected pk field: %v", fields[0])
	}
	if fields[2].Dimensions() != 4 {
		t.Errorf("dimensions = %d", fields[2].Dimensions())
	}
	if indices[0].Field != "Doc" {
		t.Errorf("index field = %q", indices[0].Field)
	}
}

func TestParseSchemaFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "fields: []", "at least one field"},
		{"unknown type", "fields:\n  - name: A\n    type: BLOB", "unknown type"},
		{"vector without dims", "fields:\n  - name: V\n    type: VECTOR_FLOAT", "dimensions"},
		{"missing name", "fields:\n  - type: INT", "name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseSchemaFile([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseKeys(t *testing.T) {
	keys := parseKeys("1, abc,3")
	if len(keys) != 3 {
		t.Fatalf("got %v", keys)
	}
	if keys[0] != int64(1) || keys[1] != "abc" || keys[2] != int64(3) {
		t.Errorf("unexpected keys: %#v", keys)
	}
	if parseKeys("") != nil {
		t.Error("expected nil for empty input")
	}
}

func TestParseVector(t *testing.T) {
	vec, err := parseVector("0.5,1,-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 || vec[2] != -2 {
		t.Errorf("got %v", vec)
	}
	vec, err = parseVector("0.123456789012345")
	if err != nil || vec[0] != 0.123456789012345 {
		t.Errorf("full precision lost: %v (%v)", vec, err)
	}
	if _, err := parseVector("1,x"); err == nil {
		t.Error("expected error for non-numeric element")
	}
}

func TestCommands_Flow(t *testing.T) {
	a, out := newTestApp(t, "secret")
	ctx := context.Background()

	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	if err := os.WriteFile(schema, []byte("fields:\n  - name: ID\n    type: INT\n    primary_key: true\n  - name: V\n    type: VECTOR_FLOAT\n    dimensions: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	records := filepath.Join(dir, "records.json")
	if err := os.WriteFile(records, []byte(`[{"ID":1,"V":[1,0]},{"ID":2,"V":[0,1]}]`), 0o600); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		name string
		run  func(context.Context, *app, []string) error
		args []string
	}{
		{"ping", runPing, nil},
		{"load", runLoad, nil},
		{"create-table", runCreateTable, []string{"-name", "T", "-schema", schema}},
		{"insert", runInsert, []string{"-table", "T", "-file", records}},
		{"query", runQuery, []string{"-table", "T", "-field", "V", "-vector", "1,0", "-limit", "1"}},
		{"get", runGet, []string{"-table", "T", "-keys", "2"}},
		{"list-tables", runListTables, nil},
		{"delete", runDelete, []string{"-table", "T", "-keys", "1"}},
		{"drop-table", runDropTable, []string{"-name", "T"}},
		{"drop-db", runDropDB, nil},
	}
	for _, s := range steps {
		if err := s.run(ctx, a, s.args); err != nil {
			t.Fatalf("%s: %v\noutput:\n%s", s.name, err, out)
		}
	}
	if !strings.Contains(out.String(), `"T"`) {
		t.Errorf("list-tables output missing table name:\n%s", out)
	}
}

func TestCommands_NonSuccessStatusFails(t *testing.T) {
	a, out := newTestApp(t)
	err := runUnload(context.Background(), a, []string{"-name", "missing"})
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.HasPrefix(out.String(), "404") {
		t.Errorf("expected status line, got %q", out)
	}
}

func TestCommands_Unauthorized(t *testing.T) {
	a, _ := newTestApp(t, "secret")
	a.cfg.Server.Headers = nil
	if err := runState(context.Background(), a, nil); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if code := run([]string{"nope"}); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if code := run(nil); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}
