package ratecap

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/ratecap/ratecap/store"
)

// RateLimitedUntilHeader carries the window's expiry as seconds since the
// Unix epoch on rejected requests. Set only when the expiry is known.
const RateLimitedUntilHeader = "X-Rate-Limited-Until"

// UnknownIdentifier is the bucket for requests whose identifier cannot be
// determined. Requests falling into it share one counter.
const UnknownIdentifier = "<unknown source>"

// ShouldLimitFunc decides whether a request is subject to rate limiting.
// Returning false forwards the request without counting it.
type ShouldLimitFunc func(r *http.Request) bool

// IdentifierFunc extracts the identifier whose counter a request increments.
type IdentifierFunc func(r *http.Request) string

// RateLimitedFunc writes the response for a request that exceeded the limit.
// The error carries the window's expiry when the backend reports one.
type RateLimitedFunc func(w http.ResponseWriter, r *http.Request, err *RateLimitedError)

// StoreErrorFunc writes the response for a request whose count could not be
// determined because the store operation failed.
type StoreErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// SuccessFunc observes an allowed request before it is forwarded. The result
// is ignored; panics are not recovered here (the Handler middleware recovers
// them when present).
type SuccessFunc func(r *http.Request, st store.Store, v store.Value)

func defaultShouldLimit(*http.Request) bool {
	return true
}

func defaultRateLimited(w http.ResponseWriter, r *http.Request, err *RateLimitedError) {
	until := ""
	if !err.Until.IsZero() {
		until = strconv.FormatInt(err.Until.Unix(), 10)
	}

	if HasState(r.Context()) {
		if until != "" {
			SetHeader(r, RateLimitedUntilHeader, until)
		}
		SetError(r, ErrRateLimited)
	} else {
		if until != "" {
			w.Header().Set(RateLimitedUntilHeader, until)
		}
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
	}
}

func defaultStoreError(w http.ResponseWriter, r *http.Request, _ error) {
	if HasState(r.Context()) {
		SetError(r, ErrInternal.With("Rate limit check failed"))
	} else {
		http.Error(w, "Rate limit check failed", http.StatusInternalServerError)
	}
}

func defaultSuccess(*http.Request, store.Store, store.Value) {}

// PeerIP returns the client IP address from RemoteAddr, the default
// identifier for direct connections. RemoteAddr values without a port are
// returned as-is; an empty RemoteAddr yields UnknownIdentifier.
func PeerIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return UnknownIdentifier
	}
	return ip
}

// RealIP returns the client IP from X-Forwarded-For or X-Real-IP headers,
// falling back to PeerIP when neither is present.
//
// SECURITY: Only use this behind a trusted reverse proxy that sets these
// headers. Without a proxy, clients can spoof X-Forwarded-For to bypass
// rate limits.
func RealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	return PeerIP(r)
}

// HeaderIdentifier returns an IdentifierFunc keyed on the named header
// (e.g. an API key or tenant ID). Requests without the header share the
// UnknownIdentifier bucket.
func HeaderIdentifier(header string) IdentifierFunc {
	return func(r *http.Request) string {
		if v := r.Header.Get(header); v != "" {
			return v
		}
		return UnknownIdentifier
	}
}
