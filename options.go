package homescout

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	gatewayBaseURL string
	gatewayAPIKey  string
	gatewayTimeout time.Duration
	maxPages       int

	keyPrefix string
	cacheTTL  time.Duration

	lockTTL  time.Duration
	lockWait time.Duration
	lockPoll time.Duration

	minResults    int
	targetResults int

	defaultPageSize int
	maxPageSize     int
	staleOnBusy     bool

	logger *zap.Logger
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithGateway sets the upstream listings gateway endpoint and API key.
// Required: every search resolves against this service.
func WithGateway(baseURL, apiKey string) Option {
	return func(c *clientConfig) {
		c.gatewayBaseURL = baseURL
		c.gatewayAPIKey = apiKey
	}
}

// WithGatewayTimeout sets the per-request timeout for gateway calls.
// Default: 10s.
func WithGatewayTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.gatewayTimeout = d
	}
}

// WithMaxPages caps how many gateway pages a single relaxation level may fetch.
// Default: 20.
func WithMaxPages(n int) Option {
	return func(c *clientConfig) {
		c.maxPages = n
	}
}

// WithKeyPrefix namespaces all database keys (cache entries and session locks).
// Default: "homescout:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithCacheTTL sets how long cached result sets stay valid. Default: 5m.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheTTL = ttl
	}
}

// WithLockTimings tunes session lock behaviour: lock TTL, how long an
// arriving turn waits for a busy session, and the polling interval.
// Defaults: 30s / 5s / 100ms.
func WithLockTimings(ttl, waitTimeout, pollInterval time.Duration) Option {
	return func(c *clientConfig) {
		c.lockTTL = ttl
		c.lockWait = waitTimeout
		c.lockPoll = pollInterval
	}
}

// WithResultThresholds sets when relaxation stops descending: minResults is
// the floor below which the next level is tried, targetResults the point at
// which a level is considered satisfying. Defaults: 1 / 10.
func WithResultThresholds(minResults, targetResults int) Option {
	return func(c *clientConfig) {
		c.minResults = minResults
		c.targetResults = targetResults
	}
}

// WithPagination sets the default and maximum page sizes for search responses.
// Defaults: 20 / 100.
func WithPagination(defaultSize, maxSize int) Option {
	return func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	}
}

// WithStaleResults serves the previously cached result set (marked stale)
// when a session is busy with another turn, instead of failing.
func WithStaleResults() Option {
	return func(c *clientConfig) {
		c.staleOnBusy = true
	}
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
