// Package fakeserver is an in-memory implementation of the vector database
// HTTP contract. It backs the client tests and the `vectordb serve-fake` command.
//
// Storage, indexing and filtering semantics are deliberately minimal: queries are
// brute-force scans and filter expressions are rejected.
package fakeserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vectordb/internal/metrics"
)

// WelcomeMessage is returned by GET /.
const WelcomeMessage = "Welcome to vectordb."

// Server holds the in-memory databases.
type Server struct {
	mu sync.Mutex
	// loaded databases by name
	loaded map[string]*database
	// persisted databases by path; unload keeps them, drop removes them
	stored map[string]*database

	apiKeys  []string
	registry *prometheus.Registry
	logger   *zap.Logger
}

// Option configures a Server.
type Option interface {
	apply(*Server)
}

type optionFunc func(*Server)

func (f optionFunc) apply(s *Server) { f(s) }

// WithLogger sets the request logger. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(s *Server) { s.logger = l })
}

// WithAPIKeys enables X-API-Key authentication.
func WithAPIKeys(keys ...string) Option {
	return optionFunc(func(s *Server) { s.apiKeys = keys })
}

// WithRegistry exposes HTTP metrics from reg on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return optionFunc(func(s *Server) { s.registry = reg })
}

// New creates an empty server.
func New(opts ...Option) *Server {
	s := &Server{
		loaded: make(map[string]*database),
		stored: make(map[string]*database),
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(s)
	}
	return s
}

// Handler builds the chi router serving the endpoint contract.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogMiddleware(s.logger))
	r.Use(APIKeyMiddleware(s.apiKeys))

	if s.registry != nil {
		if err := metrics.RegisterHTTPMetrics(s.registry); err != nil {
			s.logger.Warn("Failed to register HTTP metrics", zap.Error(err))
		}
		r.Use(metrics.Middleware())
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Get("/", s.welcome)
	r.Get("/state", s.state)
	r.Post("/api/load", s.loadDB)

	r.Route("/api/{db}", func(r chi.Router) {
		r.Post("/unload", s.unloadDB)
		r.Delete("/drop", s.dropDB)

		r.Post("/schema/tables", s.createTable)
		r.Get("/schema/tables/show", s.listTables)
		r.Delete("/schema/tables/{table}", s.dropTable)

		r.Post("/data/insert", s.insert)
		r.Post("/data/query", s.query)
		r.Post("/data/get", s.get)
		r.Post("/data/delete", s.deleteRecords)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// envelope is the response body shape of every endpoint.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Result     any    `json:"result,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeResult(w http.ResponseWriter, message string, result any) {
	writeJSON(w, http.StatusOK, envelope{StatusCode: http.StatusOK, Message: message, Result: result})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{StatusCode: status, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
