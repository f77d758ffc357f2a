// Package consumer implements the Search Indexing Pipeline (C6): it keeps
// the Redis projection in internal/search/index in sync with book and
// seller-offer events from the fabric. Every instance consumes the same
// shared queues; deliveries are not partitioned by ISBN, so two instances
// (or two in-flight deliveries) can update the same ISBN concurrently.
package consumer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-worker/internal/search/index"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/broker"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/search"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/events"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
	sharedredis "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/redis"
)

type Consumer struct {
	idx   *index.Redis
	redis *redis.Client
	log   *logging.Logger

	brokerURL, exchange, queuePrefix string
	processedEventTTL                time.Duration
}

func New(idx *index.Redis, redisClient *redis.Client, log *logging.Logger, brokerURL, exchange, queuePrefix string) *Consumer {
	return &Consumer{
		idx:               idx,
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
	go func() { errCh <- c.consumeBookEvents(ctx) }()
	go func() { errCh <- c.consumeSellerEvents(ctx) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// consumeBookEvents binds one queue to every book.* topic; routing-key
// dispatch inside handleBookDelivery keeps a single consume loop instead of
// four near-identical ones, matching the grouping already used for
// compensation-worker's failure topics.
func (c *Consumer) consumeBookEvents(ctx context.Context) error {
	cons, err := broker.NewConsumer(c.brokerURL, broker.ConsumerConfig{
		Exchange: c.exchange,
		Queue:    c.queuePrefix + ".books",
		RoutingKeys: []string{
			events.TopicBookCreated,
			events.TopicBookUpdated,
			events.TopicBookDeleted,
			events.TopicBookStockUpdated,
		},
		ConsumerTag: c.queuePrefix + "-books",
		PrefetchN:   50,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cons.Close() }()

	deliveries, err := cons.Consume(ctx, c.queuePrefix+"-books")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("search-worker: book delivery channel closed")
			}
			if err := c.handleBookDelivery(ctx, d.RoutingKey, d.Body); err != nil {
				c.log.Error("failed to handle book event", map[string]any{"err": err.Error(), "routing_key": d.RoutingKey})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleBookDelivery(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case events.TopicBookCreated:
		var env events.Envelope[events.BookCreatedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		return c.upsertFromBookData(ctx, env.Data.ISBN, env.Data.Title, env.Data.Author, env.Data.Publisher, env.Data.Genre, env.Data.Language)
	case events.TopicBookUpdated:
		var env events.Envelope[events.BookUpdatedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		return c.upsertFromBookData(ctx, env.Data.ISBN, env.Data.Title, env.Data.Author, env.Data.Publisher, env.Data.Genre, env.Data.Language)
	case events.TopicBookDeleted:
		var env events.Envelope[events.BookDeletedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		return c.idx.DeleteRecord(ctx, env.Data.ISBN)
	case events.TopicBookStockUpdated:
		var env events.Envelope[events.BookStockUpdatedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		return c.idx.MergeStock(ctx, env.Data.ISBN, search.SellerOffer{
			SellerID:    env.Data.SellerID,
			Price:       env.Data.Price,
			Quantity:    env.Data.Quantity,
			Condition:   env.Data.Condition,
			LastUpdated: time.Now().UTC().Unix(),
		})
	default:
		return nil
	}
}

// upsertFromBookData merges the incoming fields into whatever projection
// already exists for isbn (preserving stock/pricing/sellers, which only
// BookStockUpdated touches) before writing it back through UpsertRecord.
func (c *Consumer) upsertFromBookData(ctx context.Context, isbnRaw, title, author, publisher, genre, language string) error {
	isbn, err := order.NewISBN(isbnRaw)
	if err != nil {
		return err
	}
	rec, existed, err := c.idx.GetRecord(ctx, isbnRaw)
	if err != nil {
		return err
	}
	if !existed {
		rec = &search.Record{ISBN: isbn}
	}
	rec.Title = title
	rec.Author = author
	rec.Publisher = publisher
	rec.Genre = genre
	rec.Language = language
	return c.idx.UpsertRecord(ctx, *rec)
}

// consumeSellerEvents binds seller.created and user.updated, both of which
// are write-throughs of a display name into any sellers:{ISBN} entry that
// already mentions that seller.
func (c *Consumer) consumeSellerEvents(ctx context.Context) error {
	cons, err := broker.NewConsumer(c.brokerURL, broker.ConsumerConfig{
		Exchange:    c.exchange,
		Queue:       c.queuePrefix + ".sellers",
		RoutingKeys: []string{events.TopicSellerCreated, events.TopicUserUpdated},
		ConsumerTag: c.queuePrefix + "-sellers",
		PrefetchN:   50,
	})
	if err != nil {
		return err
	}
	defer func() { _ = cons.Close() }()

	deliveries, err := cons.Consume(ctx, c.queuePrefix+"-sellers")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("search-worker: seller delivery channel closed")
			}
			if err := c.handleSellerDelivery(ctx, d.RoutingKey, d.Body); err != nil {
				c.log.Error("failed to handle seller event", map[string]any{"err": err.Error(), "routing_key": d.RoutingKey})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleSellerDelivery(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case events.TopicSellerCreated:
		var env events.Envelope[events.SellerCreatedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) {
			return nil
		}
		return c.writeThroughSellerName(ctx, env.Data.SellerID, env.Data.SellerName)
	case events.TopicUserUpdated:
		var env events.Envelope[events.UserUpdatedData]
		if err := events.Unmarshal(body, &env); err != nil {
			return err
		}
		if !c.markEventProcessed(ctx, env.EventID) || env.Data.Name == "" {
			return nil
		}
		return c.writeThroughSellerName(ctx, env.Data.UserID, env.Data.Name)
	default:
		return nil
	}
}

func (c *Consumer) writeThroughSellerName(ctx context.Context, sellerID, name string) error {
	isbns, err := c.idx.AllISBNs(ctx)
	if err != nil {
		return err
	}
	for _, isbn := range isbns {
		if _, err := c.idx.UpsertSellerName(ctx, isbn, sellerID, name); err != nil {
			return err
		}
	}
	return nil
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
