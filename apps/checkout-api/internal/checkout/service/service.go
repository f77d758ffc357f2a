package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	cartrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/cart/repo"
	checkoutrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/checkout/repo"
	orderrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/order/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/address"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/checkout"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/events"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/outbox"
	"github.com/shopspring/decimal"
)

type Service struct {
	carts             cartrepo.Repository
	sessions          checkoutrepo.Repository
	orders            orderrepo.Repository
	platformFeePct    decimal.Decimal
	sessionTTLSeconds int64
}

func New(carts cartrepo.Repository, sessions checkoutrepo.Repository, orders orderrepo.Repository, platformFeePct decimal.Decimal, sessionTTL time.Duration) *Service {
	return &Service{
		carts:             carts,
		sessions:          sessions,
		orders:            orders,
		platformFeePct:    platformFeePct,
		sessionTTLSeconds: int64(sessionTTL.Seconds()),
	}
}

// CreateSession snapshots the customer's cart into a TTL-bound,
// seller-allocated CheckoutSession ready for confirmation.
func (s *Service) CreateSession(ctx context.Context, customerID uuid.UUID, deliveryAddress address.Address) (*checkout.CheckoutSession, error) {
	c, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session, err := checkout.Create(c, deliveryAddress, s.platformFeePct, now.Add(time.Duration(s.sessionTTLSeconds)*time.Second), now)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, session, s.sessionTTLSeconds); err != nil {
		return nil, err
	}
	return session, nil
}

// Confirm turns a still-valid session into a Pending Order, persisting it
// and an OrderCreated outbox event in a single transaction, then clears the
// customer's cart and the checkout session.
func (s *Service) Confirm(ctx context.Context, customerID uuid.UUID, sessionID uuid.UUID) (*order.Order, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CustomerID != customerID.String() {
		return nil, checkout.ErrSessionExpired
	}
	now := time.Now().UTC()
	if session.Expired(now) {
		return nil, checkout.ErrSessionExpired
	}

	var items []order.OrderItem
	for _, alloc := range session.Allocations {
		for _, line := range alloc.Items {
			it, err := order.NewOrderItem(line.ISBN, line.SellerID, line.Quantity, line.UnitPrice)
			if err != nil {
				return nil, err
			}
			items = append(items, it)
		}
	}

	o, err := order.New(customerID.String(), session.DeliveryAddress, items, now)
	if err != nil {
		return nil, err
	}

	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.orders.Create(ctx, tx, o); err != nil {
		return nil, err
	}

	event, err := s.buildOrderCreatedEvent(o)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Outbox().Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	_ = s.sessions.Delete(ctx, sessionID)
	_ = s.carts.Delete(ctx, customerID)

	return o, nil
}

func (s *Service) GetByID(ctx context.Context, orderID uuid.UUID, customerID uuid.UUID) (*order.Order, error) {
	return s.orders.GetByIDForCustomer(ctx, orderID, customerID.String())
}

func (s *Service) orderCreatedPayload(o *order.Order) events.OrderCreatedData {
	items := make([]events.OrderItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, events.OrderItemPayload{
			OrderItemID: it.ID.String(),
			ISBN:        it.ISBN.String(),
			SellerID:    it.SellerID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.Amount().String(),
			Currency:    it.UnitPrice.Currency(),
		})
	}
	return events.OrderCreatedData{
		OrderID:    o.ID.String(),
		CustomerID: o.CustomerID,
		Items:      items,
		Total:      o.TotalAmount.Amount().String(),
		Currency:   o.TotalAmount.Currency(),
	}
}

func (s *Service) buildOrderCreatedEvent(o *order.Order) (*outbox.Event, error) {
	payload := events.Envelope[events.OrderCreatedData]{
		EventID:     uuid.NewString(),
		Type:        string(events.TypeOrderCreated),
		OccurredAt:  time.Now().UTC(),
		AggregateID: o.ID.String(),
		Data:        s.orderCreatedPayload(o),
	}
	b, err := events.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &outbox.Event{
		AggregateID:   o.ID,
		AggregateType: outbox.AggregateTypeOrder,
		RoutingKey:    events.TopicOrderCreated,
		Payload:       b,
		MaxRetries:    5,
	}, nil
}
