package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/cart"
)

// Repository stores the active cart for a customer. Carts are ephemeral
// session state, not an order-of-record, so this lives in Redis rather than
// Postgres.
type Repository interface {
	Get(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error)
	Save(ctx context.Context, c *cart.Cart) error
	Delete(ctx context.Context, customerID uuid.UUID) error
}
