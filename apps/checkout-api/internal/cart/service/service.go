package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/cart/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/cart"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/money"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/order"
)

type Service struct {
	repo repo.Repository
}

func New(r repo.Repository) *Service {
	return &Service{repo: r}
}

func (s *Service) Get(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	return s.repo.Get(ctx, customerID)
}

type AddItemInput struct {
	ISBN      string
	SellerID  string
	Quantity  int
	UnitPrice string
	Currency  string
}

func (s *Service) AddItem(ctx context.Context, customerID uuid.UUID, in AddItemInput) (*cart.Cart, error) {
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	isbn, err := order.NewISBN(in.ISBN)
	if err != nil {
		return nil, err
	}
	price, err := money.New(in.UnitPrice, in.Currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := c.AddItem(isbn, in.SellerID, in.Quantity, price, now); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, customerID uuid.UUID, isbnRaw, sellerID string) (*cart.Cart, error) {
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	isbn, err := order.NewISBN(isbnRaw)
	if err != nil {
		return nil, err
	}

	c.RemoveItem(isbn, sellerID, time.Now().UTC())
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, customerID uuid.UUID) error {
	return s.repo.Delete(ctx, customerID)
}
