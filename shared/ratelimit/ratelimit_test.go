package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestAllowPermitsUpToPerMinuteCeiling(t *testing.T) {
	client := newTestClient(t)
	l := New(client, 3, 1000)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed under the per-minute ceiling", i)
		}
	}

	ok, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("request beyond the per-minute ceiling should be denied")
	}
}

func TestAllowTracksIdentifiersIndependently(t *testing.T) {
	client := newTestClient(t)
	l := New(client, 1, 1000)
	ctx := context.Background()

	ok1, _ := l.Allow(ctx, "1.1.1.1")
	ok2, _ := l.Allow(ctx, "2.2.2.2")
	if !ok1 || !ok2 {
		t.Fatal("distinct identifiers must have independent counters")
	}
}
