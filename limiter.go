// Fixed-window rate limiting middleware for Chi and standard http.Handler.
//
// A Limiter counts requests per identifier in a store.Store and rejects each
// request whose count exceeds the configured maximum, until the identifier's
// window elapses. The window length belongs to the store; the threshold and
// the decision hooks belong to the Limiter. Hooks are replaced individually
// through functional options, and every unset hook falls back to a
// documented default.
//
// Single instance example:
//
//	st := store.NewMemory(time.Minute)
//	r.Use(ratecap.New(st, 100).Handler)
//
// Custom hooks example:
//
//	limiter := ratecap.New(st, 100,
//	    ratecap.WithName("api"),
//	    ratecap.WithIdentifier(ratecap.HeaderIdentifier("X-API-Key")),
//	    ratecap.WithShouldLimit(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	)
//	r.Use(limiter.Handler)
//
// For distributed deployments (Kubernetes), use the Redis store. The
// in-memory store is only suitable for single-instance deployments and
// development.

package ratecap

import (
	"net/http"
	"time"

	"github.com/ratecap/ratecap/store"
)

// Limiter implements fixed-window rate limiting middleware. A Limiter is
// immutable after construction and shared read-only across all concurrent
// request evaluations; the only mutable state lives inside its store.
type Limiter struct {
	store         store.Store
	maxCount      int64
	name          string
	shouldLimit   ShouldLimitFunc
	identify      IdentifierFunc
	onRateLimited RateLimitedFunc
	onStoreError  StoreErrorFunc
	onSuccess     SuccessFunc
	recorder      Recorder
}

// Option configures a Limiter. Passing a nil hook to any option keeps the
// documented default.
type Option func(*Limiter)

// WithName sets the limiter's name, used to label its metrics.
// Use distinct names when layering multiple limiters so their series stay
// separable. Defaults to "default".
func WithName(name string) Option {
	return func(l *Limiter) {
		if name != "" {
			l.name = name
		}
	}
}

// WithShouldLimit replaces the check deciding whether a request is counted.
// The default counts every request.
func WithShouldLimit(fn ShouldLimitFunc) Option {
	return func(l *Limiter) {
		if fn != nil {
			l.shouldLimit = fn
		}
	}
}

// WithIdentifier replaces identifier extraction. The default is PeerIP.
func WithIdentifier(fn IdentifierFunc) Option {
	return func(l *Limiter) {
		if fn != nil {
			l.identify = fn
		}
	}
}

// WithOnRateLimited replaces the rejection response. The default writes
// 429 (Too Many Requests) and attaches the X-Rate-Limited-Until header when
// the window's expiry is known.
func WithOnRateLimited(fn RateLimitedFunc) Option {
	return func(l *Limiter) {
		if fn != nil {
			l.onRateLimited = fn
		}
	}
}

// WithOnStoreError replaces the store-failure response. The default writes
// 500 (Internal Server Error) and discards the error; when the Handler
// middleware is active the error surfaces in its canonical log line instead.
func WithOnStoreError(fn StoreErrorFunc) Option {
	return func(l *Limiter) {
		if fn != nil {
			l.onStoreError = fn
		}
	}
}

// WithOnSuccess sets an observational hook invoked for every allowed request
// before it is forwarded. The default does nothing.
func WithOnSuccess(fn SuccessFunc) Option {
	return func(l *Limiter) {
		if fn != nil {
			l.onSuccess = fn
		}
	}
}

// WithRecorder sets the metrics recorder. The default discards all
// observations; see PrometheusRecorder for the exported implementation.
func WithRecorder(rec Recorder) Option {
	return func(l *Limiter) {
		if rec != nil {
			l.recorder = rec
		}
	}
}

// New creates a rate limiter backed by st that rejects a request once its
// identifier's count within the current window exceeds maxCount. The window
// length is the store's TTL, configured at store construction.
//
// Returns 429 (Too Many Requests) when the limit is exceeded and 500
// (Internal Server Error) when the store operation fails; both responses
// are overridable via WithOnRateLimited and WithOnStoreError.
//
// Panics if st is nil or maxCount is less than 1.
func New(st store.Store, maxCount int64, opts ...Option) *Limiter {
	if st == nil {
		panic("ratecap: store must not be nil")
	}
	if maxCount < 1 {
		panic("ratecap: max count must be at least 1")
	}

	l := &Limiter{
		store:         st,
		maxCount:      maxCount,
		name:          "default",
		shouldLimit:   defaultShouldLimit,
		identify:      PeerIP,
		onRateLimited: defaultRateLimited,
		onStoreError:  defaultStoreError,
		onSuccess:     defaultSuccess,
		recorder:      NopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Handler returns the rate limiting middleware.
//
// Evaluation order per request:
//  1. A request already carrying the re-entrancy marker is forwarded
//     without counting (see Bypass).
//  2. A request the should-limit hook declines is forwarded without
//     counting.
//  3. The identifier's counter is incremented exactly once. A store failure
//     resolves through the store-error hook; a count above the maximum
//     resolves through the rate-limited hook. Neither forwards the request.
//  4. Otherwise the success hook observes the snapshot and the request is
//     forwarded exactly once, carrying the re-entrancy marker.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if Bypassed(ctx) {
			next.ServeHTTP(w, r)
			return
		}

		if !l.shouldLimit(r) {
			next.ServeHTTP(w, r)
			return
		}

		identifier := l.identify(r)

		start := time.Now()
		v, err := l.store.Increment(ctx, identifier)
		l.recorder.RecordCheckDuration(l.name, time.Since(start))

		if err != nil {
			l.recorder.RecordStoreError(l.name)
			l.onStoreError(w, r, err)
			return
		}

		if v.Count > l.maxCount {
			l.recorder.RecordLimited(l.name)
			l.onRateLimited(w, r, &RateLimitedError{Until: v.ExpiresAt})
			return
		}

		l.recorder.RecordAllowed(l.name)
		l.onSuccess(r, l.store, v)

		next.ServeHTTP(w, r.WithContext(Bypass(ctx)))
	})
}
