package cart

import (
	"testing"
	"time"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
)

func TestAddItemSumsQuantityOnExistingKey(t *testing.T) {
	isbn, _ := order.NewISBN("9780123456789")
	c := New("customer-1", time.Now().UTC())

	if err := c.AddItem(isbn, "s1", 2, money.MustNew("29.99", "USD"), time.Now().UTC()); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := c.AddItem(isbn, "s1", 3, money.MustNew("29.99", "USD"), time.Now().UTC()); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", items[0].Quantity)
	}
}

func TestAddItemDistinguishesBySeller(t *testing.T) {
	isbn, _ := order.NewISBN("9780123456789")
	c := New("customer-1", time.Now().UTC())

	if err := c.AddItem(isbn, "s1", 1, money.MustNew("29.99", "USD"), time.Now().UTC()); err != nil {
		t.Fatalf("AddItem s1: %v", err)
	}
	if err := c.AddItem(isbn, "s2", 1, money.MustNew("24.99", "USD"), time.Now().UTC()); err != nil {
		t.Fatalf("AddItem s2: %v", err)
	}

	if len(c.Items()) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(c.Items()))
	}
}

func TestClearEmptiesCart(t *testing.T) {
	isbn, _ := order.NewISBN("9780123456789")
	c := New("customer-1", time.Now().UTC())
	_ = c.AddItem(isbn, "s1", 1, money.MustNew("29.99", "USD"), time.Now().UTC())

	if c.IsEmpty() {
		t.Fatal("cart should not be empty after AddItem")
	}
	c.Clear(time.Now().UTC())
	if !c.IsEmpty() {
		t.Fatal("cart should be empty after Clear")
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	isbn, _ := order.NewISBN("9780123456789")
	c := New("customer-1", time.Now().UTC())
	if err := c.AddItem(isbn, "s1", 0, money.MustNew("29.99", "USD"), time.Now().UTC()); err != ErrInvalidQuantity {
		t.Fatalf("AddItem(quantity=0) = %v, want ErrInvalidQuantity", err)
	}
}
