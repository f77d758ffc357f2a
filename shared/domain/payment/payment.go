// Package payment implements the PaymentAllocation and SellerSettlement
// value types produced by checkout confirmation and consumed by the
// settlement batch job.
package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
)

// AllocationStatus is the lifecycle of one PaymentAllocation row.
type AllocationStatus string

const (
	AllocationPending  AllocationStatus = "Pending"
	AllocationPaid     AllocationStatus = "Paid"
	AllocationHeld     AllocationStatus = "Held"
	AllocationReversed AllocationStatus = "Reversed"
)

// SettlementStatus is the lifecycle of one SellerSettlement batch.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "Pending"
	SettlementProcessed SettlementStatus = "Processed"
	SettlementFailed    SettlementStatus = "Failed"
)

var ErrInvalidTransition = errors.New("payment: invalid status transition")

// Allocation is the persisted per-item split of a confirmed order between
// the platform and the selling party.
type Allocation struct {
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	SellerID    string
	GrossAmount money.Money
	PlatformFee money.Money
	NetPayout   money.Money
	Status      AllocationStatus
}

// NewAllocation builds a Pending Allocation for one order item.
func NewAllocation(orderID, orderItemID uuid.UUID, sellerID string, gross, fee, payout money.Money) Allocation {
	return Allocation{
		OrderID:     orderID,
		OrderItemID: orderItemID,
		SellerID:    sellerID,
		GrossAmount: gross,
		PlatformFee: fee,
		NetPayout:   payout,
		Status:      AllocationPending,
	}
}

// MarkPaid transitions Pending -> Paid.
func (a *Allocation) MarkPaid() error {
	if a.Status != AllocationPending {
		return ErrInvalidTransition
	}
	a.Status = AllocationPaid
	return nil
}

// Reverse transitions Paid|Held -> Reversed, e.g. in response to a refund.
func (a *Allocation) Reverse() error {
	switch a.Status {
	case AllocationPaid, AllocationHeld:
	default:
		return ErrInvalidTransition
	}
	a.Status = AllocationReversed
	return nil
}

// Settlement aggregates a seller's Paid allocations over [PeriodStart,
// PeriodEnd) into one payout batch.
type Settlement struct {
	SettlementID uuid.UUID
	SellerID     string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	TotalPayout  money.Money
	Status       SettlementStatus
}

// NewSettlement aggregates allocations into a Pending Settlement. All
// allocations must belong to sellerID and share one currency; non-Paid
// allocations are ignored so a settlement never double-counts a Reversed
// or still-Pending row.
func NewSettlement(sellerID string, periodStart, periodEnd time.Time, currency string, allocations []Allocation) (Settlement, error) {
	total := money.Zero(currency)
	for _, a := range allocations {
		if a.SellerID != sellerID || a.Status != AllocationPaid {
			continue
		}
		var err error
		total, err = total.Add(a.NetPayout)
		if err != nil {
			return Settlement{}, err
		}
	}
	return Settlement{
		SettlementID: uuid.New(),
		SellerID:     sellerID,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		TotalPayout:  total,
		Status:       SettlementPending,
	}, nil
}

// MarkProcessed transitions Pending -> Processed.
func (s *Settlement) MarkProcessed() error {
	if s.Status != SettlementPending {
		return ErrInvalidTransition
	}
	s.Status = SettlementProcessed
	return nil
}

// MarkFailed transitions Pending -> Failed.
func (s *Settlement) MarkFailed() error {
	if s.Status != SettlementPending {
		return ErrInvalidTransition
	}
	s.Status = SettlementFailed
	return nil
}
