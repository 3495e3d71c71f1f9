// Package ratelimit throttles requests per identifier in fixed windows.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultWindow      = 900 * time.Second
	DefaultMaxRequests = 100
)

type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, identifier string) (Decision, error)
}

// windowIndex is floor(now/window).
func windowIndex(now time.Time, window time.Duration) int64 {
	return now.UnixNano() / int64(window)
}

func windowEnd(idx int64, window time.Duration) time.Time {
	return time.Unix(0, (idx+1)*int64(window))
}

func decide(count int64, limit int, idx int64, window time.Duration, now time.Time) Decision {
	d := Decision{Limit: limit}
	if count > int64(limit) {
		d.RetryAfter = windowEnd(idx, window).Sub(now)
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
		return d
	}
	d.Allowed = true
	d.Remaining = limit - int(count)
	return d
}
