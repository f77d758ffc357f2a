package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/identity/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/apperr"
)

type Service struct {
	repo repo.Repository
	jwt  *JWT
}

func New(r repo.Repository, jwt *JWT) *Service {
	return &Service{repo: r, jwt: jwt}
}

type RegisterInput struct {
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (string, *repo.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || len(in.Password) < 8 {
		return "", nil, apperr.New(apperr.KindValidation, "invalid email or password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	c, err := s.repo.CreateCustomer(ctx, repo.CreateCustomerInput{Email: email, PasswordHash: string(hash)})
	if err != nil {
		return "", nil, err
	}

	token, err := s.jwt.GenerateToken(c.ID.String(), c.Email)
	if err != nil {
		return "", nil, err
	}
	return token, c, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (string, *repo.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return "", nil, apperr.New(apperr.KindValidation, "invalid credentials")
	}

	c, err := s.repo.GetCustomerByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}

	token, err := s.jwt.GenerateToken(c.ID.String(), c.Email)
	if err != nil {
		return "", nil, err
	}
	return token, c, nil
}

func (s *Service) JWT() *JWT { return s.jwt }
