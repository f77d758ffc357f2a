// Package cart implements the durable per-customer shopping cart that feeds
// checkout session creation.
package cart

import (
	"errors"
	"sort"
	"time"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
)

var ErrInvalidQuantity = errors.New("cart: quantity must be >= 1")

// itemKey is the (ISBN, sellerId) composite key CartItems are keyed by.
type itemKey struct {
	isbn     order.ISBN
	sellerID string
}

// CartItem is one (ISBN, sellerId) line with an accumulated quantity.
type CartItem struct {
	ISBN      order.ISBN
	SellerID  string
	Quantity  int
	UnitPrice money.Money
}

// Cart is owned by exactly one customerId. Construct via New; mutate only
// through AddItem/RemoveItem/Clear so updatedDate always reflects the last
// mutation.
type Cart struct {
	CustomerID string
	items      map[itemKey]CartItem
	UpdatedAt  time.Time
}

// New builds an empty cart for a customer.
func New(customerID string, now time.Time) *Cart {
	return &Cart{
		CustomerID: customerID,
		items:      make(map[itemKey]CartItem),
		UpdatedAt:  now,
	}
}

// AddItem adds quantity units of (isbn, sellerId) at unitPrice. If the key
// already exists the quantities are summed and unitPrice is refreshed to the
// latest value supplied (the cart always reflects the seller's current
// price, not the price at first add).
func (c *Cart) AddItem(isbn order.ISBN, sellerID string, quantity int, unitPrice money.Money, now time.Time) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	k := itemKey{isbn: isbn, sellerID: sellerID}
	if existing, ok := c.items[k]; ok {
		existing.Quantity += quantity
		existing.UnitPrice = unitPrice
		c.items[k] = existing
	} else {
		c.items[k] = CartItem{ISBN: isbn, SellerID: sellerID, Quantity: quantity, UnitPrice: unitPrice}
	}
	c.UpdatedAt = now
	return nil
}

// RemoveItem deletes the (isbn, sellerId) line entirely, if present.
func (c *Cart) RemoveItem(isbn order.ISBN, sellerID string, now time.Time) {
	delete(c.items, itemKey{isbn: isbn, sellerID: sellerID})
	c.UpdatedAt = now
}

// Clear empties the cart, e.g. post checkout-confirmation.
func (c *Cart) Clear(now time.Time) {
	c.items = make(map[itemKey]CartItem)
	c.UpdatedAt = now
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Items returns a stable, deterministically-ordered snapshot of the cart's
// lines (sorted by ISBN then sellerId) so callers never observe map
// iteration order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ISBN != out[j].ISBN {
			return out[i].ISBN < out[j].ISBN
		}
		return out[i].SellerID < out[j].SellerID
	})
	return out
}
