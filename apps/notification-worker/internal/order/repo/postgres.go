// Package repo gives notification-worker read-only access to the
// customer_id column of orders owned by order-worker, the same per-service
// repo duplication used for order/settlement reads elsewhere.
package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (r *Postgres) CustomerIDForOrder(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error) {
	var customerID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT customer_id FROM orders WHERE id = $1`, orderID).Scan(&customerID)
	return customerID, err
}
