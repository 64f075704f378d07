package vectordb

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestQuery_Body(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")

	_, err := c.Query(context.Background(), QueryRequest{
		Table:        "docs",
		QueryField:   "embedding",
		QueryVector:  []float32{0.1, 0.2},
		Response:     []string{"id", "title"},
		Limit:        5,
		WithDistance: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := mt.last(t)
	if req.Method != "POST" || req.Path != "/api/shop/data/query" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	want := map[string]any{
		"table":        "docs",
		"queryField":   "embedding",
		"queryVector":  []any{0.1, 0.2},
		"response":     []any{"id", "title"},
		"limit":        float64(5),
		"withDistance": true,
	}
	if got := bodyMap(t, req); !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}
}

func TestQuery_DoubleVectorKeepsPrecision(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")

	_, err := c.Query(context.Background(), QueryRequest{
		Table:             "docs",
		QueryField:        "embedding",
		QueryVectorDouble: []float64{0.123456789012345, -1},
		Limit:             1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := json.Marshal(mt.last(t).Body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	if !strings.Contains(string(data), `"queryVector":[0.123456789012345,-1]`) {
		t.Errorf("query vector lost precision: %s", data)
	}

	var sent struct {
		QueryVector []float64 `json:"queryVector"`
	}
	if err := json.Unmarshal(data, &sent); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if sent.QueryVector[0] != 0.123456789012345 {
		t.Errorf("queryVector[0] = %v", sent.QueryVector[0])
	}
}

func TestQuery_BothVectorsRejected(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")

	_, err := c.Query(context.Background(), QueryRequest{
		Table:             "docs",
		QueryVector:       []float32{1},
		QueryVectorDouble: []float64{1},
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(mt.calls) != 0 {
		t.Errorf("expected no request, got %d", len(mt.calls))
	}
}

func TestQuery_OptionalMembers(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")

	_, err := c.Query(context.Background(), QueryRequest{
		Table:      "docs",
		Query:      "red shoes",
		QueryIndex: "idx",
		Filter:     "price < 100",
		Facets:     []Facet{{Group: []string{"brand"}, Aggregate: []string{"COUNT(*)"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := bodyMap(t, mt.last(t))
	for _, k := range []string{"queryField", "queryVector"} {
		if _, ok := got[k]; ok {
			t.Errorf("%s must be omitted when empty", k)
		}
	}
	if got["query"] != "red shoes" || got["queryIndex"] != "idx" || got["filter"] != "price < 100" {
		t.Errorf("unexpected body: %v", got)
	}
	if !reflect.DeepEqual(got["response"], []any{}) {
		t.Errorf("response = %v, want []", got["response"])
	}
	if _, ok := got["facets"]; !ok {
		t.Error("facets missing")
	}
}

func TestFacetsRequireAggregate(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")
	facets := []Facet{{Group: []string{"brand"}}}

	if _, err := c.Query(context.Background(), QueryRequest{Table: "t", Facets: facets}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("query: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := c.Get(context.Background(), GetRequest{Table: "t", Facets: facets}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("get: expected ErrInvalidArgument, got %v", err)
	}
	if len(mt.calls) != 0 {
		t.Errorf("expected zero requests, got %d", len(mt.calls))
	}
}

func TestInsertAndUpsert_Body(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")
	records := []Record{{"id": 1, "title": "a"}}

	if _, err := c.Insert(context.Background(), "docs", records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{
		"table": "docs",
		"data":  []any{map[string]any{"id": float64(1), "title": "a"}},
	}
	if got := bodyMap(t, mt.last(t)); !reflect.DeepEqual(got, want) {
		t.Errorf("insert body = %v, want %v", got, want)
	}

	if _, err := c.Upsert(context.Background(), "docs", records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := mt.last(t)
	if req.Path != "/api/shop/data/insert" {
		t.Errorf("upsert path = %q", req.Path)
	}
	if got := bodyMap(t, req)["upsert"]; got != true {
		t.Errorf("upsert flag = %v", got)
	}
}

func TestInsert_NilRecordsSentAsEmptyList(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")

	if _, err := c.Insert(context.Background(), "docs", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := bodyMap(t, mt.last(t))["data"]; !reflect.DeepEqual(got, []any{}) {
		t.Errorf("data = %v, want []", got)
	}
}

func TestGet_Body(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")

	if _, err := c.Get(context.Background(), GetRequest{Table: "docs", Response: []string{"id"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"table": "docs", "response": []any{"id"}}
	if got := bodyMap(t, mt.last(t)); !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}

	_, err := c.Get(context.Background(), GetRequest{
		Table: "docs", PrimaryKeys: []any{1, "b"}, Skip: 10, Limit: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := bodyMap(t, mt.last(t))
	if got["skip"] != float64(10) || got["limit"] != float64(5) {
		t.Errorf("paging = %v/%v", got["skip"], got["limit"])
	}
	if !reflect.DeepEqual(got["primaryKeys"], []any{float64(1), "b"}) {
		t.Errorf("primaryKeys = %v", got["primaryKeys"])
	}
}

func TestDelete(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")

	if _, err := c.Delete(context.Background(), DeleteRequest{Table: "docs"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if len(mt.calls) != 0 {
		t.Fatalf("expected zero requests, got %d", len(mt.calls))
	}

	if _, err := c.Delete(context.Background(), DeleteRequest{Table: "docs", PrimaryKeys: []any{1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := mt.last(t)
	if req.Path != "/api/shop/data/delete" {
		t.Errorf("path = %q", req.Path)
	}
	want := map[string]any{"table": "docs", "primaryKeys": []any{float64(1)}}
	if got := bodyMap(t, req); !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}
}

func TestCreateTable_Body(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")

	fields := []Field{
		PrimaryKeyField("id", FieldInt4),
		ScalarField("doc", FieldString),
		VectorField("embedding", FieldVectorFloat, 4),
	}
	if _, err := c.CreateTable(context.Background(), "docs", fields, WithIndices(Index{Name: "idx", Field: "doc"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := mt.last(t)
	if req.Method != "POST" || req.Path != "/api/shop/schema/tables" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	want := map[string]any{
		"name": "docs",
		"fields": []any{
			map[string]any{"name": "id", "dataType": float64(3), "primaryKey": true},
			map[string]any{"name": "doc", "dataType": float64(20), "primaryKey": false},
			map[string]any{"name": "embedding", "dataType": float64(40), "primaryKey": false, "dimensions": float64(4)},
		},
		"indices": []any{map[string]any{"name": "idx", "field": "doc"}},
	}
	if got := bodyMap(t, req); !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}
}

func TestListTables(t *testing.T) {
	c, mt := newMockClient(t)
	c.UseDB("shop")

	if _, err := c.ListTables(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req := mt.last(t); req.Method != "GET" || req.Path != "/api/shop/schema/tables/show" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
}

func TestResponse_Records(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte(`{"statusCode":200,"message":"ok","result":[{"id":1},{"id":2}]}`)}
	recs, err := resp.Records()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[1]["id"] != float64(2) {
		t.Errorf("records = %v", recs)
	}

	empty := &Response{StatusCode: 200, Body: []byte(`{"statusCode":200,"message":"ok"}`)}
	recs, err = empty.Records()
	if err != nil || len(recs) != 0 {
		t.Errorf("expected no records, got %v, %v", recs, err)
	}

	if _, err := (&Response{Body: []byte("not json")}).Envelope(); err == nil {
		t.Error("expected decode error")
	}
}
