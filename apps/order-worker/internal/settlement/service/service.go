// Package service runs the periodic seller-settlement rollup (C4): fold
// every Paid-or-later order item not yet settled into a per-seller
// PaymentAllocation, mark its status Paid, and batch each seller's Paid
// allocations for the period into one SellerSettlement.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/order-worker/internal/settlement/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/payment"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
)

type Postgres interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	ListUnsettledPaidItems(ctx context.Context) ([]repo.UnsettledItem, error)
	MarkItemsSettled(ctx context.Context, tx pgx.Tx, itemIDs []uuid.UUID) error
	SaveSettlement(ctx context.Context, tx pgx.Tx, s payment.Settlement) error
	ListSettlementsForSeller(ctx context.Context, sellerID string) ([]payment.Settlement, error)
}

type Service struct {
	repo               Postgres
	platformFeePercent decimal.Decimal
	log                *logging.Logger
}

func New(r Postgres, platformFeePercent decimal.Decimal, log *logging.Logger) *Service {
	return &Service{repo: r, platformFeePercent: platformFeePercent, log: log}
}

func (s *Service) ListForSeller(ctx context.Context, sellerID string) ([]payment.Settlement, error) {
	return s.repo.ListSettlementsForSeller(ctx, sellerID)
}

// Run computes one rollup pass over [periodStart, periodEnd) and persists a
// Settlement per seller with at least one newly-Paid allocation.
func (s *Service) Run(ctx context.Context, periodStart, periodEnd time.Time) error {
	items, err := s.repo.ListUnsettledPaidItems(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	bySeller := make(map[string][]payment.Allocation)
	var settledIDs []uuid.UUID
	for _, it := range items {
		unitPrice, err := money.New(it.UnitPrice, it.Currency)
		if err != nil {
			s.log.Error("settlement: bad unit price", map[string]any{"err": err.Error(), "order_item_id": it.OrderItemID.String()})
			continue
		}
		gross, err := unitPrice.Multiply(it.Quantity)
		if err != nil {
			return err
		}
		fee := gross.MultiplyPercent(s.platformFeePercent)
		payout, err := gross.Subtract(fee)
		if err != nil {
			return err
		}
		alloc := payment.NewAllocation(it.OrderID, it.OrderItemID, it.SellerID, gross, fee, payout)
		if err := alloc.MarkPaid(); err != nil {
			return err
		}
		bySeller[it.SellerID] = append(bySeller[it.SellerID], alloc)
		settledIDs = append(settledIDs, it.OrderItemID)
	}
	if len(bySeller) == 0 {
		return nil
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for sellerID, allocs := range bySeller {
		currency := allocs[0].NetPayout.Currency()
		settlement, err := payment.NewSettlement(sellerID, periodStart, periodEnd, currency, allocs)
		if err != nil {
			return err
		}
		if err := s.repo.SaveSettlement(ctx, tx, settlement); err != nil {
			return err
		}
	}
	if err := s.repo.MarkItemsSettled(ctx, tx, settledIDs); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.log.Info("settlement rollup complete", map[string]any{
		"sellers": len(bySeller),
		"items":   len(settledIDs),
	})
	return nil
}

// RunLoop ticks Run every interval until ctx is cancelled, treating each
// pass's window as [lastRun, now).
func (s *Service) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now().UTC()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := s.Run(ctx, last, now.UTC()); err != nil {
				s.log.Error("settlement rollup failed", map[string]any{"err": err.Error()})
			}
			last = now.UTC()
		}
	}
}
