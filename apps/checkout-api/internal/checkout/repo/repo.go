package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/checkout"
)

// Repository stores ephemeral checkout sessions. A session's TTL is
// enforced both by the Redis key expiry and by CheckoutSession.Expired, so a
// session that outlives its own key simply isn't found.
type Repository interface {
	Save(ctx context.Context, session *checkout.CheckoutSession, ttl int64) error
	Get(ctx context.Context, sessionID uuid.UUID) (*checkout.CheckoutSession, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}
