// Package service drives the Order aggregate's post-creation lifecycle:
// the admin/ops-triggered shipment/delivery/completion/refund transitions
// that SPEC_FULL.md's order-worker exposes over an internal HTTP surface.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/order-worker/internal/order/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/events"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/outbox"
)

type Service struct {
	orders repo.Repository
}

func New(orders repo.Repository) *Service {
	return &Service{orders: orders}
}

func (s *Service) GetByID(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// MarkAsShipped advances Paid -> Shipped and emits order.shipped.
func (s *Service) MarkAsShipped(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	return s.transition(ctx, orderID, func(o *order.Order) error {
		return o.MarkAsShipped(time.Now().UTC())
	}, events.TopicOrderShipped, func(o *order.Order) any {
		return events.OrderShippedData{OrderID: o.ID.String()}
	})
}

// MarkAsDelivered advances Shipped -> Delivered and emits order.delivered.
func (s *Service) MarkAsDelivered(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	return s.transition(ctx, orderID, func(o *order.Order) error {
		return o.MarkAsDelivered(time.Now().UTC())
	}, events.TopicOrderDelivered, func(o *order.Order) any {
		return events.OrderDeliveredData{OrderID: o.ID.String()}
	})
}

// Complete advances Delivered -> Completed. No event is published: Completed
// is a terminal bookkeeping state nothing downstream reacts to.
func (s *Service) Complete(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	return s.transitionNoEvent(ctx, orderID, func(o *order.Order) error {
		return o.Complete(time.Now().UTC())
	})
}

// ProcessRefund advances Paid|Delivered -> Refunded and emits order.refunded.
// Window-policy enforcement is left to the caller per the domain's Open
// Question decision (see DESIGN.md); the transition itself is unconditional.
func (s *Service) ProcessRefund(ctx context.Context, orderID uuid.UUID, reason string) (*order.Order, error) {
	return s.transition(ctx, orderID, func(o *order.Order) error {
		return o.ProcessRefund(reason, time.Now().UTC())
	}, events.TopicOrderRefunded, func(o *order.Order) any {
		return events.OrderRefundedData{OrderID: o.ID.String(), Reason: o.RefundReason}
	})
}

// Cancel advances Pending|Paid -> Cancelled and emits order.cancelled. It has
// no HTTP route; the order.cancellation_requested consumer applies the same
// transition itself rather than calling this method.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*order.Order, error) {
	return s.transition(ctx, orderID, func(o *order.Order) error {
		return o.Cancel(reason, time.Now().UTC())
	}, events.TopicOrderCancelled, func(o *order.Order) any {
		return events.OrderCancelledData{OrderID: o.ID.String(), Reason: o.CancellationReason}
	})
}

func (s *Service) transition(ctx context.Context, orderID uuid.UUID, mutate func(*order.Order) error,
	routingKey string, payload func(*order.Order) any) (*order.Order, error) {
	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	expectedVersion := o.Version
	if err := mutate(o); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, tx, o, expectedVersion); err != nil {
		return nil, err
	}

	env := events.Envelope[any]{
		EventID:     uuid.NewString(),
		Type:        routingKey,
		OccurredAt:  time.Now().UTC(),
		AggregateID: o.ID.String(),
		Data:        payload(o),
	}
	body, err := events.Marshal(env)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Outbox().Create(ctx, tx, &outbox.Event{
		AggregateID:   o.ID,
		AggregateType: outbox.AggregateTypeOrder,
		RoutingKey:    routingKey,
		Payload:       body,
		MaxRetries:    5,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) transitionNoEvent(ctx context.Context, orderID uuid.UUID, mutate func(*order.Order) error) (*order.Order, error) {
	tx, err := s.orders.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	expectedVersion := o.Version
	if err := mutate(o); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, tx, o, expectedVersion); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}
