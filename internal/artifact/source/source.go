// Package source builds an artifact.Store from its configuration.
package source

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/gamerec/internal/artifact"
	"github.com/kailas-cloud/gamerec/internal/artifact/gcs"
	"github.com/kailas-cloud/gamerec/internal/artifact/local"
	"github.com/kailas-cloud/gamerec/internal/artifact/redis"
)

// Drivers.
const (
	DriverNone  = ""
	DriverLocal = "local"
	DriverGCS   = "gcs"
	DriverRedis = "redis"
)

// LocalConfig configures the directory store.
type LocalConfig struct {
	Dir string `yaml:"dir"`
}

// Config selects and configures one artifact source.
type Config struct {
	Driver string       `yaml:"driver"` // local, gcs, redis; empty disables the source
	Local  LocalConfig  `yaml:"local"`
	GCS    gcs.Config   `yaml:"gcs"`
	Redis  redis.Config `yaml:"redis"`
}

// Enabled reports whether a driver is set.
func (c Config) Enabled() bool { return c.Driver != DriverNone }

// Validate checks the driver-specific settings.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverNone:
		return nil
	case DriverLocal:
		if c.Local.Dir == "" {
			return fmt.Errorf("local.dir is required")
		}
	case DriverGCS:
		return c.GCS.Validate()
	case DriverRedis:
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("redis.addrs is required")
		}
	default:
		return fmt.Errorf("unknown artifact driver %q", c.Driver)
	}
	return nil
}

// Open builds the store. The returned close func is never nil.
// A disabled source yields a nil store.
func Open(ctx context.Context, cfg Config) (artifact.Store, func(), error) {
	noop := func() {}
	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}
	switch cfg.Driver {
	case DriverLocal:
		s, err := local.New(cfg.Local.Dir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case DriverGCS:
		s, err := gcs.New(ctx, cfg.GCS)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case DriverRedis:
		s, err := redis.New(cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, nil
	}
}
