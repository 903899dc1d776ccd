package ratecap

import "time"

// Recorder observes rate limit decisions. Implementations must be safe for
// concurrent use; every method is called on the request path.
type Recorder interface {
	// RecordAllowed counts a request that stayed within the limit.
	RecordAllowed(limiter string)

	// RecordLimited counts a request rejected for exceeding the limit.
	RecordLimited(limiter string)

	// RecordStoreError counts a request whose store operation failed.
	RecordStoreError(limiter string)

	// RecordCheckDuration observes how long the store increment took.
	RecordCheckDuration(limiter string, duration time.Duration)
}

// NopRecorder is a Recorder that discards all observations. It is the
// default when no recorder is configured.
type NopRecorder struct{}

// RecordAllowed is a no-op.
func (NopRecorder) RecordAllowed(string) {}

// RecordLimited is a no-op.
func (NopRecorder) RecordLimited(string) {}

// RecordStoreError is a no-op.
func (NopRecorder) RecordStoreError(string) {}

// RecordCheckDuration is a no-op.
func (NopRecorder) RecordCheckDuration(string, time.Duration) {}
