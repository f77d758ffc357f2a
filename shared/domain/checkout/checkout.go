// Package checkout implements the ephemeral CheckoutSession and the
// multi-seller subtotal/platform-fee/payout allocation computed at session
// creation time.
package checkout

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/address"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/cart"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
)

var (
	ErrEmptyCart      = errors.New("checkout: cart is empty")
	ErrSessionExpired = errors.New("checkout: session has expired")
)

// DefaultTTL is the ephemeral session lifetime absent configuration.
const DefaultTTL = 30 * time.Minute

// DefaultPlatformFeePercent is the platform fee percentage absent
// configuration.
var DefaultPlatformFeePercent = decimal.NewFromInt(10)

// SellerAllocation is the per-seller subtotal/fee/payout split computed for
// one seller's items within a session.
type SellerAllocation struct {
	SellerID     string
	Items        []cart.CartItem
	Subtotal     money.Money
	PlatformFee  money.Money
	SellerPayout money.Money
}

// CheckoutSession is an ephemeral, TTL-bound snapshot of a customer's cart
// grouped by seller, ready to be confirmed into an Order.
type CheckoutSession struct {
	SessionID       uuid.UUID
	CustomerID      string
	Allocations     []SellerAllocation
	TotalAmount     money.Money
	DeliveryAddress address.Address
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// Create groups the cart's items by sellerId, computes each seller's
// subtotal/platformFee/sellerPayout, and returns a session valid for ttl.
// Fails with ErrEmptyCart if the cart holds no items.
func Create(c *cart.Cart, deliveryAddress address.Address, platformFeePercent decimal.Decimal, ttl time.Time, now time.Time) (*CheckoutSession, error) {
	items := c.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	currency := items[0].UnitPrice.Currency()
	bySeller := make(map[string][]cart.CartItem)
	var sellerOrder []string
	for _, it := range items {
		if _, ok := bySeller[it.SellerID]; !ok {
			sellerOrder = append(sellerOrder, it.SellerID)
		}
		bySeller[it.SellerID] = append(bySeller[it.SellerID], it)
	}
	sort.Strings(sellerOrder)

	allocations := make([]SellerAllocation, 0, len(sellerOrder))
	var subtotals []money.Money
	for _, sellerID := range sellerOrder {
		sellerItems := bySeller[sellerID]
		lineTotals := make([]money.Money, 0, len(sellerItems))
		for _, it := range sellerItems {
			lt, err := it.UnitPrice.Multiply(it.Quantity)
			if err != nil {
				return nil, err
			}
			lineTotals = append(lineTotals, lt)
		}
		subtotal, err := money.Sum(currency, lineTotals...)
		if err != nil {
			return nil, err
		}
		fee := subtotal.MultiplyPercent(platformFeePercent)
		payout, err := subtotal.Subtract(fee)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, SellerAllocation{
			SellerID:     sellerID,
			Items:        sellerItems,
			Subtotal:     subtotal,
			PlatformFee:  fee,
			SellerPayout: payout,
		})
		subtotals = append(subtotals, subtotal)
	}

	total, err := money.Sum(currency, subtotals...)
	if err != nil {
		return nil, err
	}

	return &CheckoutSession{
		SessionID:       uuid.New(),
		CustomerID:      c.CustomerID,
		Allocations:     allocations,
		TotalAmount:     total,
		DeliveryAddress: deliveryAddress,
		CreatedAt:       now,
		ExpiresAt:       ttl,
	}, nil
}

// Expired reports whether the session's TTL has elapsed as of now.
func (s *CheckoutSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// SellerIDs returns the distinct sellerIds in the session, sorted.
func (s *CheckoutSession) SellerIDs() []string {
	ids := make([]string, 0, len(s.Allocations))
	for _, a := range s.Allocations {
		ids = append(ids, a.SellerID)
	}
	return ids
}
