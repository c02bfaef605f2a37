package gamerec

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/gamerec/internal/artifact/gcs"
	"github.com/kailas-cloud/gamerec/internal/artifact/redis"
	"github.com/kailas-cloud/gamerec/internal/artifact/source"
	"github.com/kailas-cloud/gamerec/internal/engine"
	"github.com/kailas-cloud/gamerec/internal/modelstore"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	primary  source.Config
	fallback source.Config
	names    modelstore.Names

	engine      engine.Config
	defaultTopK int
	maxTopK     int
	preview     int

	searchLimit    int
	maxSearchLimit int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		names:       modelstore.DefaultNames(),
		engine:      engine.DefaultConfig(),
		defaultTopK: 10,
		maxTopK:     50,
		preview:     200,

		searchLimit:    20,
		maxSearchLimit: 100,
	}
}

// WithLocalDir reads and writes artifacts in a local directory.
func WithLocalDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.primary = source.Config{Driver: source.DriverLocal, Local: source.LocalConfig{Dir: dir}}
	})
}

// WithGCS reads and writes artifacts in a Cloud Storage bucket using
// application default credentials.
func WithGCS(bucket, prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.primary = source.Config{Driver: source.DriverGCS, GCS: gcs.Config{Bucket: bucket, Prefix: prefix}}
	})
}

// WithRedis reads and writes artifacts as Redis/Valkey string keys.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.primary = source.Config{Driver: source.DriverRedis, Redis: redis.Config{
			Addrs:    []string{addr},
			Password: password,
		}}
	})
}

// WithFallbackDir sets a local directory tried when the primary source fails.
func WithFallbackDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fallback = source.Config{Driver: source.DriverLocal, Local: source.LocalConfig{Dir: dir}}
	})
}

// WithArtifactNames overrides the artifact pair names.
func WithArtifactNames(engineName, extractorName string) Option {
	return optionFunc(func(c *clientConfig) {
		c.names = modelstore.Names{Engine: engineName, Extractor: extractorName}
	})
}

// WithEngineConfig sets training parameters for Train.
func WithEngineConfig(cfg engine.Config) Option {
	return optionFunc(func(c *clientConfig) {
		c.engine = cfg
	})
}

// WithTopK sets the default and maximum number of results per query.
// Defaults: 10 and 50.
func WithTopK(defaultTopK, maxTopK int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTopK = defaultTopK
		c.maxTopK = maxTopK
	})
}

// WithSearchLimit sets the default and maximum number of Search results.
// Defaults: 20 and 100.
func WithSearchLimit(defaultLimit, maxLimit int) Option {
	return optionFunc(func(c *clientConfig) {
		c.searchLimit = defaultLimit
		c.maxSearchLimit = maxLimit
	})
}

// WithSummaryPreview sets how many characters of a summary results carry.
// Default: 200.
func WithSummaryPreview(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.preview = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
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
