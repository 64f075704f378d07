package vectordb

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/vectordb/internal/cache"
	"github.com/kailas-cloud/vectordb/internal/transport/rest"
)

// mockTransport records requests and answers with fn, or 200 {} when fn is nil.
type mockTransport struct {
	calls []rest.Request
	fn    func(req rest.Request) (rest.Response, error)
}

func (m *mockTransport) Do(_ context.Context, req rest.Request) (rest.Response, error) {
	m.calls = append(m.calls, req)
	if m.fn != nil {
		return m.fn(req)
	}
	return rest.Response{StatusCode: 200, Body: []byte(`{"statusCode":200,"message":"ok"}`)}, nil
}

func (m *mockTransport) last(t *testing.T) rest.Request {
	t.Helper()
	if len(m.calls) == 0 {
		t.Fatal("expected a request, got none")
	}
	return m.calls[len(m.calls)-1]
}

// bodyMap renders a request body the way it goes on the wire.
func bodyMap(t *testing.T, req rest.Request) map[string]any {
	t.Helper()
	data, err := json.Marshal(req.Body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal body %s: %v", data, err)
	}
	return m
}

func newMockClient(t *testing.T, opts ...Option) (*Client, *mockTransport) {
	t.Helper()
	mt := &mockTransport{}
	c, err := New(append([]Option{withTransport(mt)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, mt
}

type mockEmbedder struct {
	fn    func(ctx context.Context, text string) (EmbeddingResult, error)
	calls int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	m.calls++
	return m.fn(ctx, text)
}

type healthyEmbedder struct {
	mockEmbedder
	err error
}

func (h *healthyEmbedder) HealthCheck(_ context.Context) error { return h.err }

// memStore is an in-memory EmbeddingStore.
type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	pingErr error
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, cache.ErrKeyNotFound
	}
	return v, nil
}

func (s *memStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Ping(_ context.Context) error { return s.pingErr }
