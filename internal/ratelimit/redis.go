package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps fixed window counters in Redis so several processes can share
// one budget.
type Redis struct {
	rdb    redis.Cmdable
	prefix string
	window time.Duration
	limit  int
	now    func() time.Time
}

func NewRedis(rdb redis.Cmdable, prefix string, limit int, window time.Duration) *Redis {
	if limit <= 0 {
		limit = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if prefix == "" {
		prefix = "rl"
	}
	return &Redis{rdb: rdb, prefix: prefix, window: window, limit: limit, now: time.Now}
}

func (r *Redis) key(identifier string, idx int64) string {
	return r.prefix + ":" + identifier + ":" + strconv.FormatInt(idx, 10)
}

func (r *Redis) Allow(ctx context.Context, identifier string) (Decision, error) {
	now := r.now()
	idx := windowIndex(now, r.window)
	key := r.key(identifier, idx)

	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, 2*r.window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit incr: %w", err)
	}

	return decide(incr.Val(), r.limit, idx, r.window, now), nil
}
