package vectordb

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/kailas-cloud/vectordb/internal/cache"
)

// Sentinel errors. Use errors.Is() to check.
var (
	// ErrNoDatabaseSelected is returned by database-scoped calls before UseDB.
	// No request is sent.
	ErrNoDatabaseSelected = errors.New("vectordb: no database selected")
	// ErrInvalidArgument is returned when a request fails local validation.
	ErrInvalidArgument = errors.New("vectordb: invalid argument")
	// ErrEmbedderNotConfigured is returned by text queries that need a client-side embedder.
	ErrEmbedderNotConfigured = errors.New("vectordb: embedder not configured (use WithEmbedder)")
	// ErrConnectivity matches every *ConnectivityError.
	ErrConnectivity = errors.New("vectordb: connectivity failure")
	// ErrCacheMiss must be returned by EmbeddingStore.Get for absent keys.
	ErrCacheMiss = cache.ErrKeyNotFound
)

// ConnectivityError reports that no response was received: DNS failure,
// refused connection, timeout.
type ConnectivityError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("vectordb: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConnectivity) hold.
func (e *ConnectivityError) Is(target error) bool { return target == ErrConnectivity }

// Timeout reports whether the request ran out of time.
func (e *ConnectivityError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// StatusError is a non-2xx server response converted to an error.
type StatusError struct {
	StatusCode int
	Message    string // server message from the response envelope, may be empty
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("vectordb: server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("vectordb: server returned %d", e.StatusCode)
}
