package checkout

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/address"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/cart"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
)

func testAddress(t *testing.T) address.Address {
	t.Helper()
	a, err := address.New("Main St 1", "Aarhus", "8000", "", "")
	if err != nil {
		t.Fatalf("address.New: %v", err)
	}
	return a
}

// TestCreateScenario2 reproduces spec.md's multi-seller allocation scenario:
// {(ISBN=9780123456789, s1, qty=2, $29.99), (ISBN=9780123456790, s1, qty=1,
// $19.99), (ISBN=9780123456791, s2, qty=1, $39.99)} -> total $119.96,
// s1 subtotal $79.97 / payout $71.97, s2 subtotal $39.99 / payout $35.99.
func TestCreateScenario2(t *testing.T) {
	isbn1, _ := order.NewISBN("9780123456789")
	isbn2, _ := order.NewISBN("9780123456790")
	isbn3, _ := order.NewISBN("9780123456791")

	now := time.Now().UTC()
	c := cart.New("customer-1", now)
	if err := c.AddItem(isbn1, "s1", 2, money.MustNew("29.99", "USD"), now); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := c.AddItem(isbn2, "s1", 1, money.MustNew("19.99", "USD"), now); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := c.AddItem(isbn3, "s2", 1, money.MustNew("39.99", "USD"), now); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	session, err := Create(c, testAddress(t), decimal.NewFromInt(10), now.Add(DefaultTTL), now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := session.TotalAmount.Amount().StringFixed(2); got != "119.96" {
		t.Fatalf("totalAmount = %s, want 119.96", got)
	}

	bySeller := map[string]SellerAllocation{}
	for _, a := range session.Allocations {
		bySeller[a.SellerID] = a
	}

	s1 := bySeller["s1"]
	if got := s1.Subtotal.Amount().StringFixed(2); got != "79.97" {
		t.Fatalf("s1 subtotal = %s, want 79.97", got)
	}
	if got := s1.SellerPayout.Amount().StringFixed(2); got != "71.97" {
		t.Fatalf("s1 payout = %s, want 71.97", got)
	}

	s2 := bySeller["s2"]
	if got := s2.Subtotal.Amount().StringFixed(2); got != "39.99" {
		t.Fatalf("s2 subtotal = %s, want 39.99", got)
	}
	if got := s2.SellerPayout.Amount().StringFixed(2); got != "35.99" {
		t.Fatalf("s2 payout = %s, want 35.99", got)
	}

	if session.Expired(now) {
		t.Fatal("freshly created session must not be expired")
	}
	if !session.Expired(now.Add(DefaultTTL + time.Minute)) {
		t.Fatal("session past TTL must be expired")
	}
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	now := time.Now().UTC()
	c := cart.New("customer-1", now)
	if _, err := Create(c, testAddress(t), DefaultPlatformFeePercent, now.Add(DefaultTTL), now); err != ErrEmptyCart {
		t.Fatalf("Create with empty cart = %v, want ErrEmptyCart", err)
	}
}
