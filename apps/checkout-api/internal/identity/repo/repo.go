package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Customer is the local identity record this service needs to mint tokens
// and stamp orders; the full account/profile lifecycle belongs to the
// identity system of record, which sync-worker mirrors events from.
type Customer struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type CreateCustomerInput struct {
	Email        string
	PasswordHash string
}

type Repository interface {
	CreateCustomer(ctx context.Context, in CreateCustomerInput) (*Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*Customer, error)
}
