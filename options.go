package vectordb

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Defaults applied by New.
const (
	DefaultProtocol = "http"
	DefaultHost     = "localhost"
	DefaultPort     = 8888
	DefaultTimeout  = 10 * time.Second

	// DefaultEmbeddingCacheTTL is used when a cache option is given a non-positive TTL.
	DefaultEmbeddingCacheTTL = 24 * time.Hour
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	protocol   string
	host       string
	port       int
	timeout    time.Duration
	headers    map[string]string
	httpClient *http.Client

	embedder Embedder

	cacheStore EmbeddingStore
	cacheRedis *redisCacheConfig
	cacheTTL   time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer

	transport transport // tests only
}

type redisCacheConfig struct {
	addrs    []string
	password string
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		protocol: DefaultProtocol,
		host:     DefaultHost,
		port:     DefaultPort,
		timeout:  DefaultTimeout,
		headers:  make(map[string]string),
	}
}

// WithProtocol sets the URL scheme: "http" or "https".
func WithProtocol(protocol string) Option {
	return optionFunc(func(c *clientConfig) { c.protocol = protocol })
}

// WithHost sets the server host name or address.
func WithHost(host string) Option {
	return optionFunc(func(c *clientConfig) { c.host = host })
}

// WithPort sets the server port.
func WithPort(port int) Option {
	return optionFunc(func(c *clientConfig) { c.port = port })
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) { c.timeout = d })
}

// WithHeader adds a header sent with every request.
// A Content-Type header is ignored: requests always carry application/json.
func WithHeader(key, value string) Option {
	return optionFunc(func(c *clientConfig) { c.headers[key] = value })
}

// WithAPIKey sends key in the X-API-Key header.
func WithAPIKey(key string) Option {
	return WithHeader("X-API-Key", key)
}

// WithHTTPClient replaces the underlying *http.Client (proxies, TLS, keep-alive tuning).
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) { c.httpClient = hc })
}

// WithEmbedder sets the text embedding provider used by QueryText and SearchEngine.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) { c.embedder = e })
}

// WithEmbeddingCache caches query embeddings in store for ttl.
func WithEmbeddingCache(store EmbeddingStore, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheStore = store
		c.cacheTTL = ttl
	})
}

// WithRedisEmbeddingCache caches query embeddings in Redis or Valkey.
// The connection is opened by New and released by Close.
func WithRedisEmbeddingCache(addrs []string, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheRedis = &redisCacheConfig{addrs: addrs, password: password}
		c.cacheTTL = ttl
	})
}

// WithLogger sets a zap logger for operation logging.
// A logger stored in the call context takes precedence.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) { c.logger = l })
}

// WithPrometheus registers client metrics with the given registerer.
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) { c.metricsReg = reg })
}

// withTransport substitutes the HTTP transport.
func withTransport(t transport) Option {
	return optionFunc(func(c *clientConfig) { c.transport = t })
}
