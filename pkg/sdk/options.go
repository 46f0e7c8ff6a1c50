package dinewise

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dinewise/internal/domain/score"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "redis" or "memory"
	addrs    []string
	password string

	placesKey      string
	placesEndpoint string
	costPerCall    float64
	requestsPerSec float64
	burst          int

	windowLimit    int
	window         time.Duration
	dailyCostLimit float64
	resetHour      int
	location       *time.Location

	cacheTTL   time.Duration
	cacheSize  int
	weights    score.Weights
	minResults int
	topN       int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis or Valkey instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedisCluster configures several seed addresses.
func WithRedisCluster(addrs []string, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = addrs
		c.password = password
	})
}

// WithInMemoryStore keeps all state in process. Nothing survives Close.
func WithInMemoryStore() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.addrs = nil
	})
}

// WithPlacesKey sets the places provider API key. Required.
func WithPlacesKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.placesKey = key
	})
}

// WithPlacesEndpoint overrides the provider base URL.
func WithPlacesEndpoint(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.placesEndpoint = url
	})
}

// WithCostPerCall sets the estimated cost charged for one live search.
// Default: 0.032.
func WithCostPerCall(cost float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.costPerCall = cost
	})
}

// WithProviderRate limits outbound provider calls per second.
func WithProviderRate(perSecond float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.requestsPerSec = perSecond
		c.burst = burst
	})
}

// WithRequestWindow sets the live-fetch admission window.
// Default: 60 requests per minute.
func WithRequestWindow(limit int, window time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.windowLimit = limit
		c.window = window
	})
}

// WithDailyCostLimit sets the daily provider budget. Zero means every
// discovery is served from cache.
func WithDailyCostLimit(limit float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyCostLimit = limit
	})
}

// WithDailyReset sets when the daily budget resets.
// Default: midnight UTC.
func WithDailyReset(hour int, loc *time.Location) Option {
	return optionFunc(func(c *clientConfig) {
		c.resetHour = hour
		c.location = loc
	})
}

// WithCache sets the candidate cache TTL and in-process entry limit.
// Zero values keep the defaults (24h, 1024).
func WithCache(ttl time.Duration, maxEntries int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
		c.cacheSize = maxEntries
	})
}

// WithWeights overrides the scoring weights. They are normalized to sum to 1.
func WithWeights(dietary, cuisine, proximity, price float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.weights = score.Weights{Dietary: dietary, Cuisine: cuisine, Proximity: proximity, Price: price}
	})
}

// WithResultCount sets how many items a discovery returns and the minimum
// below which filters are relaxed. Defaults: 3 and 3.
func WithResultCount(minResults, topN int) Option {
	return optionFunc(func(c *clientConfig) {
		c.minResults = minResults
		c.topN = topN
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
