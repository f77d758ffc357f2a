// Package repo gives notification-worker read-only access to the
// customers table checkout-api's identity service owns, the same
// per-service repo duplication used for order/settlement reads elsewhere.
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

func (r *Postgres) EmailByID(ctx context.Context, customerID uuid.UUID) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx, `SELECT email FROM customers WHERE id = $1`, customerID).Scan(&email)
	return email, err
}
