// Package cache implements the Query Layer's per-query-type caching
// strategy (spec.md §4.6): a base TTL per query class, boosted when a
// query is hit often enough to be worth holding onto longer, with
// hit/miss counters tracked per query type for the analytics surface.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type QueryType string

const (
	QueryTypeHot       QueryType = "hot"
	QueryTypeWarm      QueryType = "warm"
	QueryTypeCold      QueryType = "cold"
	QueryTypeAnalytics QueryType = "analytics"
)

var baseTTL = map[QueryType]time.Duration{
	QueryTypeHot:       15 * time.Minute,
	QueryTypeWarm:      10 * time.Minute,
	QueryTypeCold:      5 * time.Minute,
	QueryTypeAnalytics: 2 * time.Minute,
}

// Strategy boosts a query type's TTL based on how often that exact query
// key has been requested in the last hour.
type Strategy struct {
	client *redis.Client
}

func NewStrategy(client *redis.Client) *Strategy {
	return &Strategy{client: client}
}

// TTL returns queryType's boosted TTL for key: x1.5 once the hourly
// frequency counter reaches 20, x2 once it reaches 50.
func (s *Strategy) TTL(ctx context.Context, queryType QueryType, key string) (time.Duration, error) {
	base, ok := baseTTL[queryType]
	if !ok {
		base = baseTTL[QueryTypeCold]
	}
	freq, err := s.bumpFrequency(ctx, key)
	if err != nil {
		return base, err
	}
	switch {
	case freq >= 50:
		return time.Duration(float64(base) * 2), nil
	case freq >= 20:
		return time.Duration(float64(base) * 1.5), nil
	default:
		return base, nil
	}
}

func (s *Strategy) bumpFrequency(ctx context.Context, key string) (int64, error) {
	freqKey := fmt.Sprintf("search:freq:%s:%d", key, time.Now().UTC().Unix()/3600)
	count, err := s.client.Incr(ctx, freqKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = s.client.Expire(ctx, freqKey, time.Hour).Err()
	}
	return count, nil
}

// Get loads a cached page by key, decoding it into dest, and reports
// whether it was present (a cache hit).
func (s *Strategy) Get(ctx context.Context, queryType QueryType, key string, dest any) (bool, error) {
	raw, err := s.client.Get(ctx, cacheKey(key)).Bytes()
	if err == redis.Nil {
		s.recordMiss(ctx, queryType)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	s.recordHit(ctx, queryType)
	return true, nil
}

// Set writes v under key with queryType's (possibly boosted) TTL.
func (s *Strategy) Set(ctx context.Context, queryType QueryType, key string, v any) error {
	ttl, err := s.TTL(ctx, queryType, key)
	if err != nil {
		return err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cacheKey(key), body, ttl).Err()
}

func cacheKey(key string) string { return "available:page:" + key }

func (s *Strategy) recordHit(ctx context.Context, queryType QueryType) {
	_ = s.client.Incr(ctx, fmt.Sprintf("search:cache:%s:hits", queryType)).Err()
}

func (s *Strategy) recordMiss(ctx context.Context, queryType QueryType) {
	_ = s.client.Incr(ctx, fmt.Sprintf("search:cache:%s:misses", queryType)).Err()
}
