package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (r *Postgres) CreateCustomer(ctx context.Context, in CreateCustomerInput) (*Customer, error) {
	var c Customer
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at
	`, in.Email, in.PasswordHash)
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Postgres) GetCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	var c Customer
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM customers
		WHERE email = $1
	`, email)
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
