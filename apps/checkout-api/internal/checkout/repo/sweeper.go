package repo

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
)

// Sweeper reaps stray checkout:session:* keys every interval that have no
// TTL set (a bug in the write path would otherwise leave them live forever).
// Keys whose TTL has lapsed are left to Redis' own expiry: TTL reports them
// as missing, so the sweep never deletes them itself. Adapted from the teacher's inventory-service reservation sweep to
// spec.md §3's "sweeper reaps keys with expired TTL or no TTL every hour"
// session-lifecycle rule.
type Sweeper struct {
	client   *redis.Client
	log      *logging.Logger
	interval time.Duration
}

func NewSweeper(client *redis.Client, log *logging.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{client: client, log: log, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	iter := s.client.Scan(ctx, 0, "checkout:session:*", 200).Iterator()
	reaped := 0
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := s.client.TTL(ctx, key).Result()
		if err != nil {
			continue
		}
		// TTL == -1 means the key has no expiry; TTL == -2 means it's
		// already gone. Either way there's nothing left to reap for an
		// expired-but-still-present session, since Redis itself removes
		// keys the instant their TTL lapses — the only anomaly this sweep
		// can actually find is a key that was written without a TTL.
		if ttl == -1 {
			_ = s.client.Del(ctx, key).Err()
			reaped++
		}
	}
	if err := iter.Err(); err != nil {
		s.log.Warn("checkout session sweep scan failed", map[string]any{"err": err.Error()})
		return
	}
	if reaped > 0 {
		s.log.Info("reaped checkout sessions with no TTL", map[string]any{"count": reaped})
	}
}
