// Package repo gives checkout-api read-only access to the seller
// settlements order-worker's periodic rollup job (C4) writes, for the
// synchronous seller settlement read endpoint.
package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/payment"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (r *Postgres) ListForSeller(ctx context.Context, sellerID string) ([]payment.Settlement, error) {
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
		var s payment.Settlement
		var totalPayoutStr, currency string
		if err := rows.Scan(&s.SettlementID, &s.SellerID, &s.PeriodStart, &s.PeriodEnd, &totalPayoutStr, &currency, &s.Status); err != nil {
			return nil, err
		}
		total, err := money.New(totalPayoutStr, currency)
		if err != nil {
			return nil, err
		}
		s.TotalPayout = total
		out = append(out, s)
	}
	return out, rows.Err()
}
