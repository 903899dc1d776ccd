package store

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity is the initial size hint for the Memory store's map.
const DefaultCapacity = 4096

type record struct {
	createdAt time.Time
	count     int64
}

// expired reports whether the record's window has lapsed at the given instant.
func (rec *record) expired(ttl time.Duration, now time.Time) bool {
	return rec.createdAt.Add(ttl).Before(now)
}

// Memory is an in-process implementation of Store using a map guarded by a
// single mutex. Every *Memory pointing at the same store shares the same
// counters; passing the handle around never copies the underlying map.
//
// Expiry is lazy: an expired counter is detected and reset on its next
// increment, not swept by a background goroutine. Memory use is therefore
// bounded by the set of keys touched within the last window; a key that
// never returns keeps one map slot until Delete or Clear.
//
// WARNING: not suitable for distributed deployments. Each instance keeps its
// own counters, so clients can exceed the intended limit by spreading
// requests across instances. Use the Redis store for anything multi-instance.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]*record
}

// NewMemory creates an in-memory store whose counters reset ttl after the
// first increment of each window. Uses DefaultCapacity as the map size hint.
func NewMemory(ttl time.Duration) *Memory {
	return NewMemoryWithCapacity(ttl, DefaultCapacity)
}

// NewMemoryWithCapacity is NewMemory with an explicit map size hint for
// workloads whose identifier cardinality is known up front.
func NewMemoryWithCapacity(ttl time.Duration, capacity int) *Memory {
	return &Memory{
		ttl:     ttl,
		records: make(map[string]*record, capacity),
	}
}

// IncrementBy atomically adds amount to the counter for the given key.
// An absent key gets a fresh record; an expired record is reset in place
// (new window start, count zero) before the amount is applied, so the
// increment that crosses a window boundary always observes count == amount.
// The window restarts from the instant of that increment, not from a
// calendar-aligned boundary.
//
// The context is accepted for interface compatibility and ignored:
// in-memory operations complete immediately and cannot be cancelled.
func (m *Memory) IncrementBy(_ context.Context, key string, amount int64) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	rec, ok := m.records[key]
	if !ok {
		rec = &record{createdAt: now}
		m.records[key] = rec
	} else if rec.expired(m.ttl, now) {
		rec.createdAt = now
		rec.count = 0
	}

	rec.count += amount

	return m.snapshot(rec), nil
}

// Increment is IncrementBy with an amount of 1.
func (m *Memory) Increment(ctx context.Context, key string) (Value, error) {
	return m.IncrementBy(ctx, key, 1)
}

// Delete removes the counter for the given key, reporting its last value
// when one was present. The value is reported even if the window had
// already expired.
func (m *Memory) Delete(_ context.Context, key string) (Value, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return Value{}, false, nil
	}
	delete(m.records, key)

	return m.snapshot(rec), true, nil
}

// Clear removes all counters, retaining the map's allocated capacity.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.records)
	return nil
}

// snapshot builds the externally visible view of a record. Callers must
// hold m.mu.
func (m *Memory) snapshot(rec *record) Value {
	return Value{
		Count:     rec.count,
		CreatedAt: rec.createdAt,
		ExpiresAt: rec.createdAt.Add(m.ttl),
	}
}
