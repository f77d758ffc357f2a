// Package consumer drives the Notification Dispatcher from the event
// fabric: OrderPaid/Shipped/Delivered/Cancelled/Refunded each become one
// Notification to the order's customer.
package consumer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	customerrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/customer/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/notification/service"
	orderrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/order/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/broker"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/notification"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/events"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/outbox"
	sharedredis "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/redis"
)

// FailurePublisher implements service.FailurePublisher via the outbox, so
// the terminal NotificationFailed event (spec.md §4.7 step 4) goes through
// the same relay every other service uses.
type FailurePublisher struct {
	pool   *pgxpool.Pool
	outbox outbox.Repository
}

func NewFailurePublisher(pool *pgxpool.Pool, ob outbox.Repository) *FailurePublisher {
	return &FailurePublisher{pool: pool, outbox: ob}
}

func (p *FailurePublisher) PublishNotificationFailed(ctx context.Context, orderID, notificationID, reason string) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		return err
	}
	env := events.Envelope[events.NotificationFailedData]{
		EventID:     uuid.NewString(),
		Type:        events.TopicNotificationFailed,
		OccurredAt:  time.Now().UTC(),
		AggregateID: orderID,
		Data:        events.NotificationFailedData{OrderID: orderID, NotificationID: notificationID, Reason: reason},
	}
	body, err := events.Marshal(env)
	if err != nil {
		return err
	}
	if err := p.outbox.Create(ctx, tx, &outbox.Event{
		AggregateID:   orderUUID,
		AggregateType: outbox.AggregateTypeOrder,
		RoutingKey:    events.TopicNotificationFailed,
		Payload:       body,
		MaxRetries:    5,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type Consumer struct {
	svc       *service.Service
	customers *customerrepo.Postgres
	orders    *orderrepo.Postgres
	redis     *redis.Client
	log       *logging.Logger

	brokerURL, exchange, queuePrefix string
	processedEventTTL                time.Duration
}

func New(svc *service.Service, customers *customerrepo.Postgres, orders *orderrepo.Postgres, redisClient *redis.Client, log *logging.Logger, brokerURL, exchange, queuePrefix string) *Consumer {
	return &Consumer{
		svc:               svc,
		customers:         customers,
		orders:            orders,
		redis:             redisClient,
		log:               log,
		brokerURL:         brokerURL,
		exchange:          exchange,
		queuePrefix:       queuePrefix,
		processedEventTTL: 24 * time.Hour,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	cons, err := broker.NewConsumer(c.brokerURL, broker.ConsumerConfig{
		Exchange: c.exchange,
		Queue:    c.queuePrefix + ".order-lifecycle",
		RoutingKeys: []string{
			events.TopicOrderPaid,
			events.TopicOrderShipped,
			events.TopicOrderDelivered,
			events.TopicOrderCancelled,
			events.TopicOrderRefunded,
		},
		ConsumerTag: c.queuePrefix + "-order-lifecycle",
		PrefetchN:   50,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cons.Close() }()

	deliveries, err := cons.Consume(ctx, c.queuePrefix+"-order-lifecycle")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("notification-worker: order-lifecycle delivery channel closed")
			}
			if err := c.handleDelivery(ctx, d.RoutingKey, d.Body); err != nil {
				c.log.Error("failed to handle order-lifecycle event", map[string]any{"err": err.Error(), "routing_key": d.RoutingKey})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, routingKey string, body []byte) error {
	var orderID string
	var typ notification.Type
	var subject string

	switch routingKey {
	case events.TopicOrderPaid:
		var env events.Envelope[events.OrderPaidData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		orderID, typ, subject = env.Data.OrderID, notification.TypeOrderConfirmation, "Your order is confirmed"
	case events.TopicOrderShipped:
		var env events.Envelope[events.OrderShippedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		orderID, typ, subject = env.Data.OrderID, notification.TypeOrderShipped, "Your order has shipped"
	case events.TopicOrderDelivered:
		var env events.Envelope[events.OrderDeliveredData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		orderID, typ, subject = env.Data.OrderID, notification.TypeOrderDelivered, "Your order was delivered"
	case events.TopicOrderCancelled:
		var env events.Envelope[events.OrderCancelledData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		orderID, typ, subject = env.Data.OrderID, notification.TypeOrderCancelled, "Your order was cancelled"
	case events.TopicOrderRefunded:
		var env events.Envelope[events.OrderRefundedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		orderID, typ, subject = env.Data.OrderID, notification.TypeOrderRefunded, "Your order was refunded"
	default:
		return nil
	}

	return c.notifyCustomer(ctx, orderID, typ, subject)
}

func (c *Consumer) notifyCustomer(ctx context.Context, orderID string, typ notification.Type, subject string) error {
	orderUUID, err := uuid.Parse(orderID)
	if err != nil {
		return err
	}
	customerID, err := c.orders.CustomerIDForOrder(ctx, orderUUID)
	if err != nil {
		return err
	}
	email, err := c.customers.EmailByID(ctx, customerID)
	if err != nil {
		return err
	}
	return c.svc.Create(ctx, orderID, customerID.String(), email, typ, subject, subject)
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
