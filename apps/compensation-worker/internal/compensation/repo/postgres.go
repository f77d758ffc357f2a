// Package repo backs shared/domain/compensation's Ledger with a durable
// Postgres store instead of the in-memory Store spec.md §4.4 describes:
// the Open Question of whether the ledger survives a restart is resolved
// in favor of durability (see DESIGN.md), since losing in-flight
// compensation state after a crash would strand an order mid-failure.
package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/compensation"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (r *Postgres) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

// Get reconstructs orderID's ledger from its persisted rows. A
// never-before-seen order returns a fresh empty ledger, same as
// compensation.Store.GetOrCreate.
func (r *Postgres) Get(ctx context.Context, orderID uuid.UUID) (*compensation.Ledger, error) {
	ledger := compensation.NewLedger(orderID)

	var triggered bool
	err := r.pool.QueryRow(ctx, `
		SELECT triggered FROM compensation_ledgers WHERE order_id = $1
	`, orderID).Scan(&triggered)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}
	ledger.Triggered = triggered

	rows, err := r.pool.Query(ctx, `
		SELECT order_item_id, failure_type, error_message, failed_at, completed
		FROM compensation_failures
		WHERE order_id = $1
		ORDER BY failed_at ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var f compensation.Failure
		var failureType string
		if err := rows.Scan(&f.OrderItemID, &failureType, &f.ErrorMessage, &f.FailedAt, &f.Completed); err != nil {
			return nil, err
		}
		f.FailureType = compensation.FailureType(failureType)
		ledger.Failures = append(ledger.Failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ledger, nil
}

// AppendFailure persists one new failure row, creating the parent ledger
// row first if this is the order's first recorded failure.
func (r *Postgres) AppendFailure(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, f compensation.Failure) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO compensation_ledgers (order_id, triggered)
		VALUES ($1, false)
		ON CONFLICT (order_id) DO NOTHING
	`, orderID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO compensation_failures (order_id, order_item_id, failure_type, error_message, failed_at, completed)
		VALUES ($1, $2, $3, $4, $5, false)
	`, orderID, f.OrderItemID, string(f.FailureType), f.ErrorMessage, f.FailedAt)
	return err
}

// MarkTriggered flips the sticky triggered flag once CompensationRequired
// has been published for orderID.
func (r *Postgres) MarkTriggered(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE compensation_ledgers SET triggered = true WHERE order_id = $1
	`, orderID)
	return err
}

// MarkCompleted records that orderItemID's failureType compensation
// finished, the per-row counterpart to Ledger.MarkCompleted.
func (r *Postgres) MarkCompleted(ctx context.Context, tx pgx.Tx, orderID, orderItemID uuid.UUID, failureType compensation.FailureType) error {
	_, err := tx.Exec(ctx, `
		UPDATE compensation_failures
		SET completed = true
		WHERE order_id = $1 AND order_item_id = $2 AND failure_type = $3
	`, orderID, orderItemID, string(failureType))
	return err
}
