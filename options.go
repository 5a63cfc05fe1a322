package glycomeal

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/glycomeal/internal/transport/predictor"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	predictorURL string
	linear       *predictor.LinearModel

	maxAttempts  int
	topK         int
	seed         uint64
	maxBatchSize int

	feedbackLog string
	logger      *zap.Logger
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

// WithPredictorURL sends glucose predictions to an HTTP sidecar instead of the linear model.
func WithPredictorURL(url string) Option {
	return func(c *clientConfig) { c.predictorURL = url }
}

// WithLinearCoefficients replaces the built-in linear glucose model.
func WithLinearCoefficients(m predictor.LinearModel) Option {
	return func(c *clientConfig) { c.linear = &m }
}

// WithMaxAttempts bounds the number of combinations one search evaluates.
func WithMaxAttempts(n int) Option {
	return func(c *clientConfig) { c.maxAttempts = n }
}

// WithTopK sets how many top recipes of each ranking are sampled.
func WithTopK(k int) Option {
	return func(c *clientConfig) { c.topK = k }
}

// WithSeed makes recommendation sampling reproducible.
func WithSeed(seed uint64) Option {
	return func(c *clientConfig) { c.seed = seed }
}

// WithMaxBatchSize caps the number of recipes per catalog import.
func WithMaxBatchSize(n int) Option {
	return func(c *clientConfig) { c.maxBatchSize = n }
}

// WithFeedbackLog enables the SQLite glucose log at path.
func WithFeedbackLog(path string) Option {
	return func(c *clientConfig) { c.feedbackLog = path }
}

// WithLogger sets the logger used by the client's services.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
