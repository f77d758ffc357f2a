package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func newTestStrategy(t *testing.T) *Strategy {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStrategy(client)
}

func TestTTLUsesBaseUntilFrequencyThreshold(t *testing.T) {
	s := newTestStrategy(t)
	ctx := context.Background()

	ttl, err := s.TTL(ctx, QueryTypeHot, "books:title:asc:1:20")
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl != 15*time.Minute {
		t.Fatalf("TTL = %v, want base 15m on first call", ttl)
	}
}

func TestTTLBoostsAtFrequencyThresholds(t *testing.T) {
	s := newTestStrategy(t)
	ctx := context.Background()
	key := "books:title:asc:1:20"

	var ttl time.Duration
	var err error
	for i := 0; i < 20; i++ {
		ttl, err = s.TTL(ctx, QueryTypeHot, key)
		if err != nil {
			t.Fatalf("TTL: %v", err)
		}
	}
	if ttl != 15*time.Minute*3/2 {
		t.Fatalf("TTL at freq=20 = %v, want 1.5x base", ttl)
	}

	for i := 0; i < 30; i++ {
		ttl, err = s.TTL(ctx, QueryTypeHot, key)
		if err != nil {
			t.Fatalf("TTL: %v", err)
		}
	}
	if ttl != 15*time.Minute*2 {
		t.Fatalf("TTL at freq=50 = %v, want 2x base", ttl)
	}
}

func TestGetMissThenSetThenHit(t *testing.T) {
	s := newTestStrategy(t)
	ctx := context.Background()

	var dest map[string]int
	hit, err := s.Get(ctx, QueryTypeWarm, "missing-key", &dest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if hit {
		t.Fatal("expected a miss on an unset key")
	}

	if err := s.Set(ctx, QueryTypeWarm, "present-key", map[string]int{"a": 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	hit, err = s.Get(ctx, QueryTypeWarm, "present-key", &dest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("expected a hit after Set")
	}
	if dest["a"] != 1 {
		t.Fatalf("dest[a] = %d, want 1", dest["a"])
	}
}
