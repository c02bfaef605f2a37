package artifact

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamerec/internal/domain"
)

// BreakerConfig configures the circuit breaker around a remote store.
type BreakerConfig struct {
	Name             string        `yaml:"name"`
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "artifact-primary",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// Breaker guards a Store with a circuit breaker. A missing artifact is an
// answer, not a failure, and never trips the breaker.
type Breaker struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
}

var _ Store = (*Breaker)(nil)

// NewBreaker wraps next.
func NewBreaker(next Store, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := max(cfg.FailureThreshold, 1)
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrArtifactNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("artifact store circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
				zap.String("store", next.Describe()),
			)
		},
	})
	return &Breaker{next: next, cb: cb}
}

// State returns the breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Get implements Store.
func (b *Breaker) Get(ctx context.Context, name string) ([]byte, error) {
	v, err := b.cb.Execute(func() (any, error) { return b.next.Get(ctx, name) })
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Put implements Store.
func (b *Breaker) Put(ctx context.Context, name string, data []byte) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, b.next.Put(ctx, name, data) })
	return err
}

// Exists implements Store.
func (b *Breaker) Exists(ctx context.Context, name string) (bool, error) {
	v, err := b.cb.Execute(func() (any, error) { return b.next.Exists(ctx, name) })
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Ping implements Store.
func (b *Breaker) Ping(ctx context.Context) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, b.next.Ping(ctx) })
	return err
}

// Describe implements Store.
func (b *Breaker) Describe() string { return b.next.Describe() }
