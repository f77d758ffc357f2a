// Package consumer drives the Order aggregate's event-triggered
// transitions: settling a freshly created order against the mock payment
// outcome, and honoring a compensation-requested cancellation.
package consumer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/order-worker/internal/order/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/broker"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/events"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/outbox"
	sharedredis "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/redis"
)

// Consumer fans out one goroutine per routing key it owns, mirroring the
// multi-stream consume loop the teacher runs in apps/inventory-service and
// apps/payment-service.
type Consumer struct {
	orders      repo.Repository
	redis       *redis.Client
	log         *logging.Logger
	brokerURL   string
	exchange    string
	queuePrefix string

	processedEventTTL time.Duration
}

func New(orders repo.Repository, redisClient *redis.Client, log *logging.Logger, brokerURL, exchange, queuePrefix string) *Consumer {
	return &Consumer{
		orders:            orders,
		redis:             redisClient,
		log:               log,
		brokerURL:         brokerURL,
		exchange:          exchange,
		queuePrefix:       queuePrefix,
		processedEventTTL: 24 * time.Hour,
	}
}

// Run blocks until ctx is cancelled or either consume loop returns an error.
func (c *Consumer) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() { errCh <- c.consumeOrderCreated(ctx) }()
	go func() { errCh <- c.consumeCancellationRequested(ctx) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (c *Consumer) consumeOrderCreated(ctx context.Context) error {
	cons, err := broker.NewConsumer(c.brokerURL, broker.ConsumerConfig{
		Exchange:    c.exchange,
		Queue:       c.queuePrefix + ".order-created",
		RoutingKeys: []string{events.TopicOrderCreated},
		ConsumerTag: c.queuePrefix + "-order-created",
		PrefetchN:   50,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cons.Close() }()

	deliveries, err := cons.Consume(ctx, c.queuePrefix+"-order-created")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("order-worker: order.created delivery channel closed")
			}
			var env events.Envelope[events.OrderCreatedData]
			if err := events.Unmarshal(d.Body, &env); err != nil {
				c.log.Error("failed to decode order.created", map[string]any{"err": err.Error()})
				_ = d.Ack(false)
				continue
			}
			if !c.markEventProcessed(ctx, env.EventID) {
				_ = d.Ack(false)
				continue
			}
			if err := c.settleOrder(ctx, env.Data); err != nil {
				c.log.Error("failed to settle order", map[string]any{"err": err.Error(), "order_id": env.Data.OrderID})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) consumeCancellationRequested(ctx context.Context) error {
	cons, err := broker.NewConsumer(c.brokerURL, broker.ConsumerConfig{
		Exchange:    c.exchange,
		Queue:       c.queuePrefix + ".cancellation-requested",
		RoutingKeys: []string{events.TopicOrderCancellationRequested},
		ConsumerTag: c.queuePrefix + "-cancellation-requested",
		PrefetchN:   50,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cons.Close() }()

	deliveries, err := cons.Consume(ctx, c.queuePrefix+"-cancellation-requested")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("order-worker: cancellation_requested delivery channel closed")
			}
			var env events.Envelope[events.OrderCancellationRequestedData]
			if err := events.Unmarshal(d.Body, &env); err != nil {
				c.log.Error("failed to decode order.cancellation_requested", map[string]any{"err": err.Error()})
				_ = d.Ack(false)
				continue
			}
			if !c.markEventProcessed(ctx, env.EventID) {
				_ = d.Ack(false)
				continue
			}
			if err := c.handleCancellationRequested(ctx, env.Data); err != nil {
				c.log.Error("failed to honor cancellation request", map[string]any{"err": err.Error(), "order_id": env.Data.OrderID})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// settleOrder mocks payment-gateway capture deterministically from the
// order id, the same way the teacher's apps/payment-service derives
// fakePaymentOutcome: no real gateway is integrated, only a reproducible
// pass/fail split. On success the order advances Pending -> Paid and
// order.paid is published; on failure it stays Pending and
// inventory.reservation_failed is published per item, which is exactly the
// critical-failure input the compensation orchestrator already consumes.
func (c *Consumer) settleOrder(ctx context.Context, data events.OrderCreatedData) error {
	orderID, err := uuid.Parse(data.OrderID)
	if err != nil {
		return err
	}

	tx, err := c.orders.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != order.StatusPending {
		return tx.Commit(ctx)
	}
	expectedVersion := o.Version

	if !fakeSettlementOutcome(data.OrderID) {
		for _, it := range data.Items {
			if err := c.publishInOutbox(ctx, tx, o.ID, events.TopicInventoryReservationFailed,
				events.InventoryReservationFailedData{
					OrderID:     data.OrderID,
					OrderItemID: it.OrderItemID,
					Reason:      "payment_declined",
				}); err != nil {
				return err
			}
		}
		return tx.Commit(ctx)
	}

	total, err := money.New(data.Total, data.Currency)
	if err != nil {
		return err
	}
	if err := o.ProcessPayment(total, time.Now().UTC()); err != nil {
		return err
	}
	if err := c.orders.Update(ctx, tx, o, expectedVersion); err != nil {
		return err
	}
	if err := c.publishInOutbox(ctx, tx, o.ID, events.TopicOrderPaid, events.OrderPaidData{OrderID: o.ID.String()}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (c *Consumer) handleCancellationRequested(ctx context.Context, data events.OrderCancellationRequestedData) error {
	orderID, err := uuid.Parse(data.OrderID)
	if err != nil {
		return err
	}

	tx, err := c.orders.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	expectedVersion := o.Version

	var routingKey string
	var payload any
	switch o.Status {
	case order.StatusPending, order.StatusPaid:
		if err := o.Cancel(data.Reason, time.Now().UTC()); err != nil {
			return err
		}
		routingKey = events.TopicOrderCancelled
		payload = events.OrderCancelledData{OrderID: o.ID.String(), Reason: o.CancellationReason}
	case order.StatusDelivered:
		if err := o.ProcessRefund(data.Reason, time.Now().UTC()); err != nil {
			return err
		}
		routingKey = events.TopicOrderRefunded
		payload = events.OrderRefundedData{OrderID: o.ID.String(), Reason: o.RefundReason}
	default:
		// Already terminal or mid-fulfillment in a state compensation can't
		// unwind automatically; leave it for manual ops intervention.
		return tx.Commit(ctx)
	}

	if err := c.orders.Update(ctx, tx, o, expectedVersion); err != nil {
		return err
	}
	if err := c.publishInOutbox(ctx, tx, o.ID, routingKey, payload); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (c *Consumer) publishInOutbox(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, routingKey string, data any) error {
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
	return c.orders.Outbox().Create(ctx, tx, &outbox.Event{
		AggregateID:   orderID,
		AggregateType: outbox.AggregateTypeOrder,
		RoutingKey:    routingKey,
		Payload:       body,
		MaxRetries:    5,
	})
}

func fakeSettlementOutcome(orderID string) bool {
	sum := sha256.Sum256([]byte(orderID))
	return sum[0] < 204 // deterministic ~80/20 pass/fail split
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
