// Package consumer implements the Compensation Orchestrator (C5): it
// accumulates critical/non-critical failures per order into a durable
// ledger, fires compensation.required the first time a critical failure
// lands, and once every critical failure for an order has a matching
// compensation.completed, fires order.cancellation_requested so
// order-worker can unwind the order.
package consumer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/compensation-worker/internal/compensation/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/broker"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/compensation"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/events"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/outbox"
	sharedredis "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/redis"
)

type Consumer struct {
	ledger      *repo.Postgres
	outbox      outbox.Repository
	redis       *redis.Client
	log         *logging.Logger
	brokerURL   string
	exchange    string
	queuePrefix string

	processedEventTTL time.Duration
}

func New(ledger *repo.Postgres, ob outbox.Repository, redisClient *redis.Client, log *logging.Logger, brokerURL, exchange, queuePrefix string) *Consumer {
	return &Consumer{
		ledger:            ledger,
		outbox:            ob,
		redis:             redisClient,
		log:               log,
		brokerURL:         brokerURL,
		exchange:          exchange,
		queuePrefix:       queuePrefix,
		processedEventTTL: 24 * time.Hour,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	errCh := make(chan error, 4)
	go func() { errCh <- c.consumeFailures(ctx) }()
	go func() { errCh <- c.consumeCompensationCompleted(ctx) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// consumeFailures binds all three failure topics to one queue: each is
// handled identically (append to ledger, trigger if now critical), so one
// consume loop covers all of them rather than three near-duplicates.
func (c *Consumer) consumeFailures(ctx context.Context) error {
	cons, err := broker.NewConsumer(c.brokerURL, broker.ConsumerConfig{
		Exchange: c.exchange,
		Queue:    c.queuePrefix + ".failures",
		RoutingKeys: []string{
			events.TopicInventoryReservationFailed,
			events.TopicSellerStatsUpdateFailed,
			events.TopicNotificationFailed,
		},
		ConsumerTag: c.queuePrefix + "-failures",
		PrefetchN:   50,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cons.Close() }()

	deliveries, err := cons.Consume(ctx, c.queuePrefix+"-failures")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("compensation-worker: failures delivery channel closed")
			}
			if err := c.handleFailureDelivery(ctx, d.RoutingKey, d.Body); err != nil {
				c.log.Error("failed to handle failure event", map[string]any{"err": err.Error(), "routing_key": d.RoutingKey})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleFailureDelivery(ctx context.Context, routingKey string, body []byte) error {
	var orderID, orderItemID, errMsg string
	var failureType compensation.FailureType

	switch routingKey {
	case events.TopicInventoryReservationFailed:
		var env events.Envelope[events.InventoryReservationFailedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		orderID, orderItemID, errMsg = env.Data.OrderID, env.Data.OrderItemID, env.Data.Reason
		failureType = compensation.FailureInventoryReservation
	case events.TopicSellerStatsUpdateFailed:
		var env events.Envelope[events.SellerStatsUpdateFailedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		orderID, orderItemID, errMsg = env.Data.OrderID, env.Data.OrderItemID, env.Data.Reason
		failureType = compensation.FailureSellerStatsUpdate
	case events.TopicNotificationFailed:
		var env events.Envelope[events.NotificationFailedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		orderID, orderItemID, errMsg = env.Data.OrderID, env.Data.NotificationID, env.Data.Reason
		failureType = compensation.FailureNotification
	default:
		return nil
	}

	return c.recordFailure(ctx, orderID, orderItemID, failureType, errMsg)
}

func (c *Consumer) recordFailure(ctx context.Context, orderIDRaw, orderItemIDRaw string, failureType compensation.FailureType, errMsg string) error {
	orderID, err := uuid.Parse(orderIDRaw)
	if err != nil {
		return err
	}
	orderItemID, err := uuid.Parse(orderItemIDRaw)
	if err != nil {
		return err
	}

	tx, err := c.ledger.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	failure := compensation.Failure{
		OrderItemID:  orderItemID,
		FailureType:  failureType,
		ErrorMessage: errMsg,
		FailedAt:     time.Now().UTC(),
	}
	if err := c.ledger.AppendFailure(ctx, tx, orderID, failure); err != nil {
		return err
	}

	// Get reads committed rows through the pool, so the failure inserted in
	// tx above is added to the in-memory ledger by hand.
	l, err := c.ledger.Get(ctx, orderID)
	if err != nil {
		return err
	}
	l.Append(failure)
	if failures := l.Trigger(); failures != nil {
		if err := c.ledger.MarkTriggered(ctx, tx, orderID); err != nil {
			return err
		}
		summary := make([]string, 0, len(failures))
		for _, f := range failures {
			summary = append(summary, string(f.FailureType))
		}
		if err := c.publish(ctx, tx, orderID, events.TopicCompensationRequired,
			events.CompensationRequiredData{OrderID: orderIDRaw, Failures: summary}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (c *Consumer) consumeCompensationCompleted(ctx context.Context) error {
	cons, err := broker.NewConsumer(c.brokerURL, broker.ConsumerConfig{
		Exchange:    c.exchange,
		Queue:       c.queuePrefix + ".compensation-completed",
		RoutingKeys: []string{events.TopicCompensationCompleted},
		ConsumerTag: c.queuePrefix + "-compensation-completed",
		PrefetchN:   50,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cons.Close() }()

	deliveries, err := cons.Consume(ctx, c.queuePrefix+"-compensation-completed")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("compensation-worker: compensation.completed delivery channel closed")
			}
			var env events.Envelope[events.CompensationCompletedData]
			if err := events.Unmarshal(d.Body, &env); err != nil {
				c.log.Error("failed to decode compensation.completed", map[string]any{"err": err.Error()})
				_ = d.Ack(false)
				continue
			}
			if !c.markEventProcessed(ctx, env.EventID) {
				_ = d.Ack(false)
				continue
			}
			if err := c.handleCompensationCompleted(ctx, env.Data); err != nil {
				c.log.Error("failed to handle compensation.completed", map[string]any{"err": err.Error(), "order_id": env.Data.OrderID})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleCompensationCompleted(ctx context.Context, data events.CompensationCompletedData) error {
	orderID, err := uuid.Parse(data.OrderID)
	if err != nil {
		return err
	}
	orderItemID, err := uuid.Parse(data.OrderItemID)
	if err != nil {
		return err
	}

	tx, err := c.ledger.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := c.ledger.MarkCompleted(ctx, tx, orderID, orderItemID, compensation.FailureType(data.FailureType)); err != nil {
		return err
	}

	// As in recordFailure, Get does not see the update made in tx.
	l, err := c.ledger.Get(ctx, orderID)
	if err != nil {
		return err
	}
	l.MarkCompleted(orderItemID, compensation.FailureType(data.FailureType))
	if l.AllCriticalCompensated() {
		reason := "compensation: " + strings.Join(failureTypeStrings(l.FailureTypeSummary()), ",")
		if err := c.publish(ctx, tx, orderID, events.TopicOrderCancellationRequested,
			events.OrderCancellationRequestedData{OrderID: data.OrderID, Reason: reason}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func failureTypeStrings(types []compensation.FailureType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func (c *Consumer) publish(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, routingKey string, data any) error {
	env := events.Envelope[any]{
		EventID:     uuid.NewString(),
		Type:        routingKey,
		OccurredAt:  time.Now().UTC(),
		AggregateID: orderID.String(),
		Data:        data,
	}
	body, err := events.Marshal(env)
	if err != nil {
		return err
	}
	return c.outbox.Create(ctx, tx, &outbox.Event{
		AggregateID:   orderID,
		AggregateType: outbox.AggregateTypeCompensation,
		RoutingKey:    routingKey,
		Payload:       body,
		MaxRetries:    5,
	})
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
