// Package repo persists the periodic seller-settlement rollup (C4): which
// order items have already been folded into a seller's settlement batch,
// and the resulting Settlement rows themselves.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/payment"
)

// UnsettledItem is one Paid (or later) order item not yet folded into a
// SellerSettlement.
type UnsettledItem struct {
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	SellerID    string
	UnitPrice   string
	Quantity    int
	Currency    string
}

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (r *Postgres) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

// ListUnsettledPaidItems returns every order item belonging to an order that
// has reached Paid or later, has not itself been cancelled or refunded, and
// has not yet been folded into a settlement batch.
func (r *Postgres) ListUnsettledPaidItems(ctx context.Context) ([]UnsettledItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.order_id, oi.id, oi.seller_id, oi.unit_price::text, oi.quantity, oi.currency
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status IN ('Paid', 'Shipped', 'Delivered', 'Completed')
		  AND oi.item_status NOT IN ('Cancelled', 'Refunded')
		  AND oi.settled_at IS NULL
		ORDER BY oi.seller_id, oi.order_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []UnsettledItem
	for rows.Next() {
		var it UnsettledItem
		if err := rows.Scan(&it.OrderID, &it.OrderItemID, &it.SellerID, &it.UnitPrice, &it.Quantity, &it.Currency); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkItemsSettled stamps settled_at on every item folded into this rollup
// pass so the next pass never double-counts them.
func (r *Postgres) MarkItemsSettled(ctx context.Context, tx pgx.Tx, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE order_items SET settled_at = NOW() WHERE id = ANY($1)
	`, itemIDs)
	return err
}

// SaveSettlement persists one seller's rollup batch.
func (r *Postgres) SaveSettlement(ctx context.Context, tx pgx.Tx, s payment.Settlement) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO seller_settlements (id, seller_id, period_start, period_end, total_payout, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, s.SettlementID, s.SellerID, s.PeriodStart, s.PeriodEnd, s.TotalPayout.Amount(), s.TotalPayout.Currency(), s.Status)
	return err
}

// ListSettlementsForSeller returns a seller's settlement history, newest
// first. checkout-api's settlement-read endpoint has its own read path and
// does not call this.
func (r *Postgres) ListSettlementsForSeller(ctx context.Context, sellerID string) ([]payment.Settlement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, seller_id, period_start, period_end, total_payout::text, currency, status
		FROM seller_settlements
		WHERE seller_id = $1
		ORDER BY period_end DESC
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payment.Settlement
	for rows.Next() {
		var (
			id                       uuid.UUID
			sellerIDCol              string
			periodStart, periodEnd   time.Time
			totalPayoutStr, currency string
			status                   payment.SettlementStatus
		)
		if err := rows.Scan(&id, &sellerIDCol, &periodStart, &periodEnd, &totalPayoutStr, &currency, &status); err != nil {
			return nil, err
		}
		total, err := money.New(totalPayoutStr, currency)
		if err != nil {
			return nil, err
		}
		out = append(out, payment.Settlement{
			SettlementID: id,
			SellerID:     sellerIDCol,
			PeriodStart:  periodStart,
			PeriodEnd:    periodEnd,
			TotalPayout:  total,
			Status:       status,
		})
	}
	return out, rows.Err()
}
