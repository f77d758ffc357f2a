package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/cart"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	sharedredis "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/redis"
)

// Redis stores each customer's cart as a JSON blob keyed by customer id.
// Carts never need a relational join, so Redis's plain key/value model is a
// direct fit.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

type cartLineDTO struct {
	ISBN      string `json:"isbn"`
	SellerID  string `json:"seller_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Currency  string `json:"currency"`
}

type cartDTO struct {
	CustomerID string        `json:"customer_id"`
	Items      []cartLineDTO `json:"items"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (r *Redis) key(customerID uuid.UUID) string {
	return sharedredis.Key("cart:customer", customerID.String())
}

func (r *Redis) Get(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	raw, err := r.client.Get(ctx, r.key(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(customerID.String(), time.Now().UTC()), nil
	}
	if err != nil {
		return nil, err
	}

	var dto cartDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, err
	}

	c := cart.New(dto.CustomerID, dto.UpdatedAt)
	for _, line := range dto.Items {
		isbn, err := order.NewISBN(line.ISBN)
		if err != nil {
			return nil, err
		}
		m, err := money.New(line.UnitPrice, line.Currency)
		if err != nil {
			return nil, err
		}
		if err := c.AddItem(isbn, line.SellerID, line.Quantity, m, dto.UpdatedAt); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (r *Redis) Save(ctx context.Context, c *cart.Cart) error {
	dto := cartDTO{CustomerID: c.CustomerID, UpdatedAt: c.UpdatedAt}
	for _, it := range c.Items() {
		dto.Items = append(dto.Items, cartLineDTO{
			ISBN:      it.ISBN.String(),
			SellerID:  it.SellerID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.Amount().String(),
			Currency:  it.UnitPrice.Currency(),
		})
	}

	raw, err := json.Marshal(dto)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sharedredis.Key("cart:customer", c.CustomerID), raw, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, customerID uuid.UUID) error {
	return r.client.Del(ctx, r.key(customerID)).Err()
}
