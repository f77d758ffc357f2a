package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/outbox"
)

// Repository persists the Order aggregate and reports its reads for a given
// customer, outside of the outbox transaction that confirming a checkout
// session opens.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, o *order.Order) error
	GetByIDForCustomer(ctx context.Context, orderID uuid.UUID, customerID string) (*order.Order, error)
	Update(ctx context.Context, tx pgx.Tx, o *order.Order, expectedVersion int) error
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Outbox() outbox.Repository
}
