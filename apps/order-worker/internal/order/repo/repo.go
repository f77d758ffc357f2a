package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/outbox"
)

// Repository gives order-worker the read/write access it needs to drive an
// Order's Cancel/Refund transitions without owning the checkout-side
// creation path.
type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*order.Order, error)
	Update(ctx context.Context, tx pgx.Tx, o *order.Order, expectedVersion int) error
	Outbox() outbox.Repository
}
