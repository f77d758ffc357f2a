// Package order implements the Order aggregate and its state machine: the
// single-writer-per-orderId entity that the checkout, payment and
// compensation pipelines all transition through.
package order

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/address"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
)

// Status is one of the seven lifecycle states an Order can occupy.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
	StatusRefunded  Status = "Refunded"
)

// ItemStatus is the per-OrderItem sub-state, kept in step with the parent
// order's transitions.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "Pending"
	ItemStatusReserved  ItemStatus = "Reserved"
	ItemStatusShipped   ItemStatus = "Shipped"
	ItemStatusCancelled ItemStatus = "Cancelled"
	ItemStatusRefunded  ItemStatus = "Refunded"
)

var (
	ErrEmptyItems        = errors.New("order: at least one order item is required")
	ErrItemsCurrency     = errors.New("order: all order items must share one currency")
	ErrInvalidTransition = errors.New("order: invalid state transition")
	ErrAmountMismatch    = errors.New("order: payment amount does not match total amount exactly")
	ErrTerminalState     = errors.New("order: order is immutable once in a terminal state")
	ErrInvalidQuantity   = errors.New("order: quantity must be >= 1")
)

// OrderItem is one line of an Order: a single (ISBN, sellerId) purchase.
type OrderItem struct {
	ID         uuid.UUID
	ISBN       ISBN
	SellerID   string
	Quantity   int
	UnitPrice  money.Money
	ItemStatus ItemStatus
}

// NewOrderItem validates and constructs a pending OrderItem.
func NewOrderItem(isbn ISBN, sellerID string, quantity int, unitPrice money.Money) (OrderItem, error) {
	if quantity < 1 {
		return OrderItem{}, ErrInvalidQuantity
	}
	if unitPrice.IsZero() {
		return OrderItem{}, errors.New("order: unit price must be > 0")
	}
	return OrderItem{
		ID:         uuid.New(),
		ISBN:       isbn,
		SellerID:   sellerID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		ItemStatus: ItemStatusPending,
	}, nil
}

// LineTotal is quantity * unitPrice.
func (i OrderItem) LineTotal() (money.Money, error) {
	return i.UnitPrice.Multiply(i.Quantity)
}

// Order is the append-only aggregate root. Construct via New; mutate only
// through the exported transition methods, never by assigning fields
// directly, so that the invariants in spec §3/§4.2 always hold.
type Order struct {
	ID              uuid.UUID
	CustomerID      string
	OrderDate       time.Time
	TotalAmount     money.Money
	Status          Status
	DeliveryAddress address.Address
	Items           []OrderItem
	Version         int

	PaidDate      *time.Time
	ShippedDate   *time.Time
	DeliveredDate *time.Time
	CancelledDate *time.Time
	RefundedDate  *time.Time

	CancellationReason string
	RefundReason       string
}

// New builds a Pending Order from a nonempty item list. totalAmount is
// derived from the items, never taken on faith from the caller, so the
// Σ quantity×unitPrice invariant cannot be violated at construction.
func New(customerID string, deliveryAddress address.Address, items []OrderItem, orderDate time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	currency := items[0].UnitPrice.Currency()
	lineTotals := make([]money.Money, 0, len(items))
	for _, it := range items {
		if it.UnitPrice.Currency() != currency {
			return nil, ErrItemsCurrency
		}
		lt, err := it.LineTotal()
		if err != nil {
			return nil, err
		}
		lineTotals = append(lineTotals, lt)
	}
	total, err := money.Sum(currency, lineTotals...)
	if err != nil {
		return nil, err
	}

	itemsCopy := make([]OrderItem, len(items))
	copy(itemsCopy, items)

	return &Order{
		ID:              uuid.New(),
		CustomerID:      customerID,
		OrderDate:       orderDate,
		TotalAmount:     total,
		Status:          StatusPending,
		DeliveryAddress: deliveryAddress,
		Items:           itemsCopy,
		Version:         0,
	}, nil
}

// CanBeModified holds iff status == Pending.
func (o *Order) CanBeModified() bool {
	return o.Status == StatusPending
}

// GetSellerIds returns the distinct sellerIds across items, in order of
// first appearance.
func (o *Order) GetSellerIds() []string {
	seen := make(map[string]struct{}, len(o.Items))
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.SellerID]; ok {
			continue
		}
		seen[it.SellerID] = struct{}{}
		ids = append(ids, it.SellerID)
	}
	return ids
}

func (o *Order) isTerminal() bool {
	switch o.Status {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// ProcessPayment transitions Pending -> Paid iff amount matches totalAmount
// exactly (decimal comparison, never float). On success every item moves to
// Reserved and the aggregate's version advances.
func (o *Order) ProcessPayment(amount money.Money, at time.Time) error {
	if o.isTerminal() {
		return ErrTerminalState
	}
	if o.Status != StatusPending {
		return ErrInvalidTransition
	}
	if !amount.Equal(o.TotalAmount) {
		return ErrAmountMismatch
	}
	o.Status = StatusPaid
	o.PaidDate = &at
	for i := range o.Items {
		o.Items[i].ItemStatus = ItemStatusReserved
	}
	o.Version++
	return nil
}

// MarkAsShipped transitions Paid -> Shipped.
func (o *Order) MarkAsShipped(at time.Time) error {
	if o.isTerminal() {
		return ErrTerminalState
	}
	if o.Status != StatusPaid {
		return ErrInvalidTransition
	}
	o.Status = StatusShipped
	o.ShippedDate = &at
	for i := range o.Items {
		o.Items[i].ItemStatus = ItemStatusShipped
	}
	o.Version++
	return nil
}

// MarkAsDelivered transitions Shipped -> Delivered.
func (o *Order) MarkAsDelivered(at time.Time) error {
	if o.isTerminal() {
		return ErrTerminalState
	}
	if o.Status != StatusShipped {
		return ErrInvalidTransition
	}
	o.Status = StatusDelivered
	o.DeliveredDate = &at
	o.Version++
	return nil
}

// Complete transitions Delivered -> Completed.
func (o *Order) Complete(at time.Time) error {
	if o.isTerminal() {
		return ErrTerminalState
	}
	if o.Status != StatusDelivered {
		return ErrInvalidTransition
	}
	o.Status = StatusCompleted
	o.Version++
	return nil
}

// Cancel transitions Pending|Paid -> Cancelled with a reason. Cancelling a
// Paid order is the caller's cue to trigger a refund of any captured funds;
// this method only records the domain transition.
func (o *Order) Cancel(reason string, at time.Time) error {
	if o.isTerminal() {
		return ErrTerminalState
	}
	switch o.Status {
	case StatusPending, StatusPaid:
	default:
		return ErrInvalidTransition
	}
	o.Status = StatusCancelled
	o.CancelledDate = &at
	o.CancellationReason = reason
	for i := range o.Items {
		o.Items[i].ItemStatus = ItemStatusCancelled
	}
	o.Version++
	return nil
}

// ProcessRefund transitions Paid|Delivered -> Refunded with a reason.
// Delivered->Refunded is a window-policy exception the Order aggregate
// allows unconditionally; enforcing a return-window deadline is the
// caller's responsibility (compensation/settlement layer), not the state
// machine's.
func (o *Order) ProcessRefund(reason string, at time.Time) error {
	if o.isTerminal() {
		return ErrTerminalState
	}
	switch o.Status {
	case StatusPaid, StatusDelivered:
	default:
		return ErrInvalidTransition
	}
	o.Status = StatusRefunded
	o.RefundedDate = &at
	o.RefundReason = reason
	for i := range o.Items {
		o.Items[i].ItemStatus = ItemStatusRefunded
	}
	o.Version++
	return nil
}
