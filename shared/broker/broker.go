// Package broker wraps github.com/rabbitmq/amqp091-go with the topology
// the event fabric requires: one durable topic exchange, routing-key-bound
// durable queues, a dead-letter exchange for exhausted redeliveries, and
// manual ack/nack so a failed handler never silently drops an event.
package broker

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const dlxSuffix = ".dlx"

// Producer publishes envelopes onto the fabric's topic exchange, routed by
// event type.
type Producer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	timeout  time.Duration
}

// NewProducer dials url, declares the durable topic exchange, and returns a
// Producer ready to publish. Every connection owns its own channel; per
// spec.md §5 the broker channel is per-connection mutable and must be
// single-threaded, so Producer and Consumer never share one.
func NewProducer(url, exchange string, timeout time.Duration) (*Producer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("broker: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: declare exchange %q: %w", exchange, err)
	}
	return &Producer{conn: conn, channel: ch, exchange: exchange, timeout: timeout}, nil
}

// Publish sends body to the exchange with routingKey as the event type.
func (p *Producer) Publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Close tears down the channel and connection.
func (p *Producer) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// ConsumerConfig configures one durable queue bound to a set of routing
// keys, with its own dead-letter exchange and queue for events a handler
// could not process after exhausting retries.
type ConsumerConfig struct {
	Exchange    string
	Queue       string
	RoutingKeys []string
	ConsumerTag string
	PrefetchN   int
}

// Consumer owns one channel, one durable queue, and its dead-letter
// companion queue.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewConsumer dials url and declares cfg's queue, binding it to every
// routing key and wiring it to a per-queue dead-letter exchange so messages
// that are Nacked without requeue land in `{queue}.dlx` instead of being
// dropped.
func NewConsumer(url string, cfg ConsumerConfig) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("broker: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: open channel: %w", err)
	}

	dlx := cfg.Queue + dlxSuffix
	if err := ch.ExchangeDeclare(dlx, "fanout", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: declare dlx %q: %w", dlx, err)
	}
	dlq, err := ch.QueueDeclare(dlx, true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: declare dead-letter queue: %w", err)
	}
	if err := ch.QueueBind(dlq.Name, "", dlx, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: bind dead-letter queue: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: declare exchange %q: %w", cfg.Exchange, err)
	}
	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": dlx,
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: declare queue %q: %w", cfg.Queue, err)
	}
	for _, rk := range cfg.RoutingKeys {
		if err := ch.QueueBind(q.Name, rk, cfg.Exchange, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("broker: bind queue %q to key %q: %w", cfg.Queue, rk, err)
		}
	}

	prefetch := cfg.PrefetchN
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("broker: set QoS: %w", err)
	}

	return &Consumer{conn: conn, channel: ch, queue: q.Name}, nil
}

// Consume returns the delivery channel for manual ack/nack handling. The
// caller owns acking: Ack on success, Nack(requeue=false) to route to the
// dead-letter queue after exhausting retries, Nack(requeue=true) for a
// transient failure worth redelivering.
func (c *Consumer) Consume(ctx context.Context, consumerTag string) (<-chan amqp.Delivery, error) {
	return c.channel.ConsumeWithContext(ctx, c.queue, consumerTag, false, false, false, false, nil)
}

// Close tears down the channel and connection.
func (c *Consumer) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
