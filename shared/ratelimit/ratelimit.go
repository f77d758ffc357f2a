// Package ratelimit implements the per-IP request limiter the search API
// enforces, using an atomic Redis INCR+EXPIRE counter per window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Limiter enforces two fixed-window counters per key: a per-minute and a
// per-hour ceiling, each counted within the current clock minute or hour.
// Both must pass for a request to be allowed.
type Limiter struct {
	client    *redis.Client
	perMinute int
	perHour   int
	keyPrefix string
}

// New builds a Limiter backed by client.
func New(client *redis.Client, perMinute, perHour int) *Limiter {
	return &Limiter{client: client, perMinute: perMinute, perHour: perHour, keyPrefix: "ratelimit"}
}

// Allow increments both windows' counters for identifier (typically a
// client IP) and reports whether the request should proceed. The INCR
// result is checked before EXPIRE is set only on the counter's first
// increment, so concurrent requests never reset another's TTL.
func (l *Limiter) Allow(ctx context.Context, identifier string) (bool, error) {
	minuteKey := fmt.Sprintf("%s:%s:minute:%d", l.keyPrefix, identifier, time.Now().UTC().Unix()/60)
	hourKey := fmt.Sprintf("%s:%s:hour:%d", l.keyPrefix, identifier, time.Now().UTC().Unix()/3600)

	minuteCount, err := l.incrWithExpiry(ctx, minuteKey, time.Minute)
	if err != nil {
		return false, err
	}
	if minuteCount > int64(l.perMinute) {
		return false, nil
	}

	hourCount, err := l.incrWithExpiry(ctx, hourKey, time.Hour)
	if err != nil {
		return false, err
	}
	if hourCount > int64(l.perHour) {
		return false, nil
	}

	return true, nil
}

func (l *Limiter) incrWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}
