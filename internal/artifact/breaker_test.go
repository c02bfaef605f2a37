package artifact

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/kailas-cloud/gamerec/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	getErr  error
	pingErr error
	calls   int
}

func (m *mockStore) Get(_ context.Context, _ string) ([]byte, error) {
	m.calls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return []byte("ok"), nil
}

func (m *mockStore) Put(_ context.Context, _ string, _ []byte) error {
	m.calls++
	return nil
}

func (m *mockStore) Exists(_ context.Context, _ string) (bool, error) {
	m.calls++
	return true, nil
}

func (m *mockStore) Ping(_ context.Context) error {
	m.calls++
	return m.pingErr
}

func (m *mockStore) Describe() string { return "mock://" }

// --- Tests ---

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{Name: "test", MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 2}
}

func TestBreaker_PassThrough(t *testing.T) {
	b := NewBreaker(&mockStore{}, testBreakerConfig(), nil)
	ctx := context.Background()

	data, err := b.Get(ctx, "x")
	if err != nil || string(data) != "ok" {
		t.Fatalf("expected ok, got %q, %v", data, err)
	}
	ok, err := b.Exists(ctx, "x")
	if err != nil || !ok {
		t.Fatalf("expected exists, got %v, %v", ok, err)
	}
	if err := b.Put(ctx, "x", nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if b.Describe() != "mock://" {
		t.Errorf("unexpected describe %q", b.Describe())
	}
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	next := &mockStore{pingErr: errors.New("unreachable")}
	b := NewBreaker(next, testBreakerConfig(), nil)
	ctx := context.Background()

	_ = b.Ping(ctx)
	_ = b.Ping(ctx)
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", b.State())
	}

	calls := next.calls
	if err := b.Ping(ctx); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if next.calls != calls {
		t.Error("open breaker must not call the store")
	}
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	b := NewBreaker(&mockStore{getErr: domain.ErrArtifactNotFound}, testBreakerConfig(), nil)
	for i := 0; i < 5; i++ {
		if _, err := b.Get(context.Background(), "x"); !errors.Is(err, domain.ErrArtifactNotFound) {
			t.Fatalf("expected ErrArtifactNotFound, got %v", err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed breaker, got %s", b.State())
	}
}
