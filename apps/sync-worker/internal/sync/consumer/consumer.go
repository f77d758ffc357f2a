// Package consumer implements the Cross-service Sync (C9): it keeps a
// local UserProfile/AuthUser/SellerProfile projection current by reacting
// to identity events published on the event fabric. book.stock_updated's
// search-availability projection belongs to apps/search-worker (spec.md
// §4.5) and is deliberately not duplicated here.
package consumer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/sync-worker/internal/sync/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/broker"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/events"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
	sharedredis "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/redis"
)

type Consumer struct {
	projections *repo.Postgres
	redis       *redis.Client
	log         *logging.Logger
	brokerURL   string
	exchange    string
	queuePrefix string

	processedEventTTL time.Duration
}

func New(projections *repo.Postgres, redisClient *redis.Client, log *logging.Logger, brokerURL, exchange, queuePrefix string) *Consumer {
	return &Consumer{
		projections:       projections,
		redis:             redisClient,
		log:               log,
		brokerURL:         brokerURL,
		exchange:          exchange,
		queuePrefix:       queuePrefix,
		processedEventTTL: 24 * time.Hour,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() { errCh <- c.consumeIdentityEvents(ctx) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// consumeIdentityEvents binds every identity topic this sync owns to one
// queue, the same single-queue multi-topic pattern used by
// compensation-worker and search-worker.
func (c *Consumer) consumeIdentityEvents(ctx context.Context) error {
	cons, err := broker.NewConsumer(c.brokerURL, broker.ConsumerConfig{
		Exchange: c.exchange,
		Queue:    c.queuePrefix + ".identity",
		RoutingKeys: []string{
			events.TopicUserCreated,
			events.TopicUserUpdated,
			events.TopicUserRoleChanged,
			events.TopicSellerCreated,
		},
		ConsumerTag: c.queuePrefix + "-identity",
		PrefetchN:   50,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cons.Close() }()

	deliveries, err := cons.Consume(ctx, c.queuePrefix+"-identity")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("sync-worker: identity delivery channel closed")
			}
			if err := c.handleDelivery(ctx, d.RoutingKey, d.Body); err != nil {
				c.log.Error("failed to handle identity event", map[string]any{"err": err.Error(), "routing_key": d.RoutingKey})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case events.TopicUserCreated:
		var env events.Envelope[events.UserCreatedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		now := time.Now().UTC()
		return c.projections.EnsureUserProfile(ctx, env.Data.UserID, env.Data.Email, env.Data.Name, now)

	case events.TopicUserUpdated:
		var env events.Envelope[events.UserUpdatedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		return c.projections.UpdateUserName(ctx, env.Data.UserID, env.Data.Name, time.Now().UTC())

	case events.TopicUserRoleChanged:
		var env events.Envelope[events.UserRoleChangedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		return c.syncRoleIfChanged(ctx, env.Data.UserID, env.Data.Role)

	case events.TopicSellerCreated:
		var env events.Envelope[events.SellerCreatedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		return c.projections.SeedSellerProfile(ctx, env.Data.SellerID, env.Data.UserID, env.Data.SellerName, time.Now().UTC())

	default:
		return nil
	}
}

// syncRoleIfChanged writes the role only when it actually differs,
// avoiding a write (and an updated_at bump) on a duplicate delivery that
// the idempotency check alone wouldn't catch if the event were reordered.
func (c *Consumer) syncRoleIfChanged(ctx context.Context, userID, role string) error {
	current, err := c.projections.CurrentRole(ctx, userID)
	if err != nil {
		return err
	}
	if current == role {
		return nil
	}
	return c.projections.SetRole(ctx, userID, role, time.Now().UTC())
}

func (c *Consumer) markEventProcessed(ctx context.Context, eventID string) bool {
	if c.redis == nil || eventID == "" {
		return true
	}
	sum := sha256.Sum256([]byte(eventID))
	key := sharedredis.Key("processed:event", hex.EncodeToString(sum[:]))
	ok, err := c.redis.SetNX(ctx, key, "1", c.processedEventTTL).Result()
	if err != nil {
		return true
	}
	return ok
}
