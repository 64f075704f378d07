package vectordb

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/kailas-cloud/vectordb/internal/transport/rest"
)

func TestHealth_ServerOnly(t *testing.T) {
	c := newFakeClient(t)
	h := c.Health(context.Background())

	if h.Status != "ok" {
		t.Errorf("status = %q, want ok", h.Status)
	}
	if h.Checks["server"] != "ok" {
		t.Errorf("server = %q", h.Checks["server"])
	}
	if _, ok := h.Checks["embedding"]; ok {
		t.Error("embedding must not be checked when not configured")
	}
}

func TestHealth_Degraded(t *testing.T) {
	emb := &healthyEmbedder{err: errors.New("provider down")}
	store := newMemStore()
	c := newFakeClient(t, WithEmbedder(emb), WithEmbeddingCache(store, 0))

	h := c.Health(context.Background())
	if h.Status != "degraded" {
		t.Errorf("status = %q, want degraded", h.Status)
	}
	if h.Checks["embedding"] != "error" || h.Errors["embedding"] == nil {
		t.Errorf("embedding check = %q, err %v", h.Checks["embedding"], h.Errors["embedding"])
	}
	if h.Checks["cache"] != "ok" {
		t.Errorf("cache check = %q", h.Checks["cache"])
	}
}

func TestHealth_AllDown(t *testing.T) {
	store := newMemStore()
	store.pingErr = errors.New("redis down")
	emb := &healthyEmbedder{err: errors.New("provider down")}
	c, mt := newMockClient(t, WithEmbedder(emb), WithEmbeddingCache(store, 0))
	mt.fn = func(rest.Request) (rest.Response, error) {
		return rest.Response{StatusCode: http.StatusServiceUnavailable}, nil
	}

	h := c.Health(context.Background())
	if h.Status != "error" {
		t.Errorf("status = %q, want error", h.Status)
	}
	for _, name := range []string{"server", "embedding", "cache"} {
		if h.Checks[name] != "error" {
			t.Errorf("%s check = %q, want error", name, h.Checks[name])
		}
	}
	var se *StatusError
	if !errors.As(h.Errors["server"], &se) || se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("server error = %v", h.Errors["server"])
	}
}
