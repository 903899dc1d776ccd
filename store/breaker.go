package store

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig holds circuit breaker tuning for a wrapped store.
type BreakerConfig struct {
	// Name identifies the breaker in state-change notifications.
	Name string

	// MaxRequests is the number of probe requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the circuit
	// (0.6 means 60% of requests failed).
	FailureThreshold float64

	// MinRequests is the minimum number of requests observed before the
	// failure ratio is evaluated.
	MinRequests uint32

	// OnStateChange, when set, is called on every breaker transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns conservative defaults for a remote store.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Breaker decorates a Store with a circuit breaker. Once the wrapped
// backend's failure ratio trips the circuit, operations fail immediately
// with gobreaker.ErrOpenState instead of queueing behind an unhealthy
// backend. A tripped breaker never lets requests through uncounted: open
// circuit failures surface as store errors and the caller's store-error
// handling decides the response.
type Breaker struct {
	store   Store
	breaker *gobreaker.CircuitBreaker
}

// NewBreaker wraps the given store with a circuit breaker.
func NewBreaker(st Store, cfg BreakerConfig) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return &Breaker{
		store:   st,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// IncrementBy runs the wrapped store's IncrementBy through the breaker.
func (b *Breaker) IncrementBy(ctx context.Context, key string, amount int64) (Value, error) {
	var v Value
	_, err := b.breaker.Execute(func() (interface{}, error) {
		var err error
		v, err = b.store.IncrementBy(ctx, key, amount)
		return nil, err
	})
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

// Increment is IncrementBy with an amount of 1.
func (b *Breaker) Increment(ctx context.Context, key string) (Value, error) {
	return b.IncrementBy(ctx, key, 1)
}

// Delete runs the wrapped store's Delete through the breaker.
func (b *Breaker) Delete(ctx context.Context, key string) (Value, bool, error) {
	var (
		v  Value
		ok bool
	)
	_, err := b.breaker.Execute(func() (interface{}, error) {
		var err error
		v, ok, err = b.store.Delete(ctx, key)
		return nil, err
	})
	if err != nil {
		return Value{}, false, err
	}
	return v, ok, nil
}

// Clear runs the wrapped store's Clear through the breaker.
func (b *Breaker) Clear(ctx context.Context) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.store.Clear(ctx)
	})
	return err
}

// State reports the breaker's current state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}
