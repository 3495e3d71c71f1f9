package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucketKey struct {
	id     string
	window int64
}

type bucket struct {
	count     int64
	createdAt time.Time
}

// Memory is a process-local fixed window limiter.
type Memory struct {
	mu        sync.Mutex
	window    time.Duration
	limit     int
	buckets   map[bucketKey]*bucket
	now       func() time.Time
	lastSweep time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	if limit <= 0 {
		limit = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{
		window:  window,
		limit:   limit,
		buckets: make(map[bucketKey]*bucket),
		now:     time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, identifier string) (Decision, error) {
	now := m.now()
	idx := windowIndex(now, m.window)
	key := bucketKey{id: identifier, window: idx}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now)

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{createdAt: now}
		m.buckets[key] = b
	}

	// stop counting once over the cap
	if b.count <= int64(m.limit) {
		b.count++
	}

	return decide(b.count, m.limit, idx, m.window, now), nil
}

// sweep drops buckets older than two windows, at most once per window.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	m.lastSweep = now

	for k, b := range m.buckets {
		if now.Sub(b.createdAt) > 2*m.window {
			delete(m.buckets, k)
		}
	}
}

// Len reports how many buckets are held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}
