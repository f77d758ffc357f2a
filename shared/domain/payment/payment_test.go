package payment

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
)

func TestAllocationLifecycle(t *testing.T) {
	a := NewAllocation(uuid.New(), uuid.New(), "s1",
		money.MustNew("79.97", "USD"), money.MustNew("8.00", "USD"), money.MustNew("71.97", "USD"))

	if a.Status != AllocationPending {
		t.Fatalf("status = %s, want Pending", a.Status)
	}
	if err := a.MarkPaid(); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if err := a.MarkPaid(); err != ErrInvalidTransition {
		t.Fatalf("double MarkPaid = %v, want ErrInvalidTransition", err)
	}
	if err := a.Reverse(); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if a.Status != AllocationReversed {
		t.Fatalf("status = %s, want Reversed", a.Status)
	}
}

func TestNewSettlementSumsOnlyPaidAllocationsForSeller(t *testing.T) {
	paid1 := NewAllocation(uuid.New(), uuid.New(), "s1", money.MustNew("50.00", "USD"), money.MustNew("5.00", "USD"), money.MustNew("45.00", "USD"))
	_ = paid1.MarkPaid()
	paid2 := NewAllocation(uuid.New(), uuid.New(), "s1", money.MustNew("20.00", "USD"), money.MustNew("2.00", "USD"), money.MustNew("18.00", "USD"))
	_ = paid2.MarkPaid()
	pending := NewAllocation(uuid.New(), uuid.New(), "s1", money.MustNew("10.00", "USD"), money.MustNew("1.00", "USD"), money.MustNew("9.00", "USD"))
	otherSeller := NewAllocation(uuid.New(), uuid.New(), "s2", money.MustNew("99.00", "USD"), money.MustNew("9.00", "USD"), money.MustNew("90.00", "USD"))
	_ = otherSeller.MarkPaid()

	now := time.Now().UTC()
	s, err := NewSettlement("s1", now.AddDate(0, 0, -7), now, "USD", []Allocation{paid1, paid2, pending, otherSeller})
	if err != nil {
		t.Fatalf("NewSettlement: %v", err)
	}
	if got := s.TotalPayout.Amount().StringFixed(2); got != "63.00" {
		t.Fatalf("totalPayout = %s, want 63.00", got)
	}
	if s.Status != SettlementPending {
		t.Fatalf("status = %s, want Pending", s.Status)
	}
	if err := s.MarkProcessed(); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
}
