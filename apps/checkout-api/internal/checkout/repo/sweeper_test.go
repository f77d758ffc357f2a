package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
)

func TestSweepOnceReapsKeysWithNoTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	if err := client.Set(ctx, "checkout:session:no-ttl", "{}", 0).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := client.Set(ctx, "checkout:session:with-ttl", "{}", time.Hour).Err(); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s := NewSweeper(client, logging.New("checkout-api-test", "test"), time.Hour)
	s.sweepOnce(ctx)

	if exists, _ := client.Exists(ctx, "checkout:session:no-ttl").Result(); exists != 0 {
		t.Fatal("expected the no-TTL session key to be reaped")
	}
	if exists, _ := client.Exists(ctx, "checkout:session:with-ttl").Result(); exists != 1 {
		t.Fatal("expected the TTL-bearing session key to survive the sweep")
	}
}
