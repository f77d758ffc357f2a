package order

import (
	"testing"
	"time"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/address"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
)

func testAddress(t *testing.T) address.Address {
	t.Helper()
	a, err := address.New("Main St 1", "Aarhus", "8000", "", "")
	if err != nil {
		t.Fatalf("address.New: %v", err)
	}
	return a
}

func TestISBNAcceptsOnlyTenOrThirteenDigits(t *testing.T) {
	cases := []struct {
		raw   string
		valid bool
	}{
		{"978-0-123-45678-9", true},
		{"9780123456789", true},
		{"0-123-45678-9", true},
		{"0123456789", true},
		{"123456789", false},
		{"12345678901", false},
		{"97801234567890", false},
		{"", false},
	}
	for _, c := range cases {
		_, err := NewISBN(c.raw)
		if c.valid && err != nil {
			t.Errorf("NewISBN(%q) = %v, want valid", c.raw, err)
		}
		if !c.valid && err == nil {
			t.Errorf("NewISBN(%q) = nil, want ErrInvalidISBN", c.raw)
		}
	}
}

func TestOrderTotalsAndSellerAllocationScenario(t *testing.T) {
	// spec.md testable-property scenario 2.
	isbn1, _ := NewISBN("9780123456789")
	isbn2, _ := NewISBN("9780123456790")
	isbn3, _ := NewISBN("9780123456791")

	item1, err := NewOrderItem(isbn1, "s1", 2, money.MustNew("29.99", "USD"))
	if err != nil {
		t.Fatalf("item1: %v", err)
	}
	item2, err := NewOrderItem(isbn2, "s1", 1, money.MustNew("19.99", "USD"))
	if err != nil {
		t.Fatalf("item2: %v", err)
	}
	item3, err := NewOrderItem(isbn3, "s2", 1, money.MustNew("39.99", "USD"))
	if err != nil {
		t.Fatalf("item3: %v", err)
	}

	o, err := New("customer-1", testAddress(t), []OrderItem{item1, item2, item3}, time.Now().UTC())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got, want := o.TotalAmount.Amount().StringFixed(2), "119.96"; got != want {
		t.Fatalf("totalAmount = %s, want %s", got, want)
	}

	if err := o.ProcessPayment(money.MustNew("119.96", "USD"), time.Now().UTC()); err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if o.Status != StatusPaid {
		t.Fatalf("status = %s, want Paid", o.Status)
	}
	if o.PaidDate == nil {
		t.Fatal("paidDate not set after ProcessPayment")
	}

	sellers := o.GetSellerIds()
	if len(sellers) != 2 || sellers[0] != "s1" || sellers[1] != "s2" {
		t.Fatalf("GetSellerIds() = %v, want [s1 s2]", sellers)
	}
}

func TestProcessPaymentRejectsAmountMismatch(t *testing.T) {
	isbn, _ := NewISBN("9780123456789")
	item, _ := NewOrderItem(isbn, "s1", 1, money.MustNew("10.00", "USD"))
	o, err := New("customer-1", testAddress(t), []OrderItem{item}, time.Now().UTC())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := o.ProcessPayment(money.MustNew("9.99", "USD"), time.Now().UTC()); err != ErrAmountMismatch {
		t.Fatalf("ProcessPayment with wrong amount = %v, want ErrAmountMismatch", err)
	}
}

func TestCanBeModifiedOnlyWhilePending(t *testing.T) {
	isbn, _ := NewISBN("9780123456789")
	item, _ := NewOrderItem(isbn, "s1", 1, money.MustNew("10.00", "USD"))
	o, err := New("customer-1", testAddress(t), []OrderItem{item}, time.Now().UTC())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !o.CanBeModified() {
		t.Fatal("Pending order must be modifiable")
	}
	if err := o.ProcessPayment(o.TotalAmount, time.Now().UTC()); err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if o.CanBeModified() {
		t.Fatal("Paid order must not be modifiable")
	}
}

func TestFullLifecycleHappyPath(t *testing.T) {
	isbn, _ := NewISBN("9780123456789")
	item, _ := NewOrderItem(isbn, "s1", 1, money.MustNew("10.00", "USD"))
	o, err := New("customer-1", testAddress(t), []OrderItem{item}, time.Now().UTC())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	now := time.Now().UTC()
	if err := o.ProcessPayment(o.TotalAmount, now); err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if err := o.MarkAsShipped(now); err != nil {
		t.Fatalf("MarkAsShipped: %v", err)
	}
	if err := o.MarkAsDelivered(now); err != nil {
		t.Fatalf("MarkAsDelivered: %v", err)
	}
	if err := o.Complete(now); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if o.Status != StatusCompleted {
		t.Fatalf("status = %s, want Completed", o.Status)
	}
	if err := o.Cancel("too late", now); err != ErrTerminalState {
		t.Fatalf("Cancel on terminal order = %v, want ErrTerminalState", err)
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	isbn, _ := NewISBN("9780123456789")
	item, _ := NewOrderItem(isbn, "s1", 1, money.MustNew("10.00", "USD"))
	o, err := New("customer-1", testAddress(t), []OrderItem{item}, time.Now().UTC())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := o.MarkAsShipped(time.Now().UTC()); err != ErrInvalidTransition {
		t.Fatalf("MarkAsShipped on Pending = %v, want ErrInvalidTransition", err)
	}
	if err := o.MarkAsDelivered(time.Now().UTC()); err != ErrInvalidTransition {
		t.Fatalf("MarkAsDelivered on Pending = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelPaidOrderAllowsSubsequentRefundPathOnly(t *testing.T) {
	isbn, _ := NewISBN("9780123456789")
	item, _ := NewOrderItem(isbn, "s1", 1, money.MustNew("10.00", "USD"))
	o, err := New("customer-1", testAddress(t), []OrderItem{item}, time.Now().UTC())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := o.ProcessPayment(o.TotalAmount, time.Now().UTC()); err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if err := o.Cancel("customer request", time.Now().UTC()); err != nil {
		t.Fatalf("Cancel Paid order: %v", err)
	}
	if o.Status != StatusCancelled {
		t.Fatalf("status = %s, want Cancelled", o.Status)
	}
	for _, it := range o.Items {
		if it.ItemStatus != ItemStatusCancelled {
			t.Fatalf("item status = %s, want Cancelled", it.ItemStatus)
		}
	}
}

func TestEmptyItemsRejected(t *testing.T) {
	if _, err := New("customer-1", testAddress(t), nil, time.Now().UTC()); err != ErrEmptyItems {
		t.Fatalf("New with no items = %v, want ErrEmptyItems", err)
	}
}
