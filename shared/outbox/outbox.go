// Package outbox implements the transactional outbox pattern: a row is
// inserted in the same database transaction that persists a domain change,
// and a background relay later publishes it to the event fabric, so an
// event is never observed without its corresponding commit and a commit
// never silently drops its event.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Event is one row in the `outbox_events` table.
type Event struct {
	ID            uuid.UUID
	AggregateID   uuid.UUID
	AggregateType string
	RoutingKey    string
	Payload       []byte
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	RetryCount    int
	MaxRetries    int
	LastError     *string
}

// IsProcessed reports whether the event has already been published.
func (e *Event) IsProcessed() bool { return e.ProcessedAt != nil }

// CanRetry reports whether the event may still be attempted again.
func (e *Event) CanRetry() bool { return e.RetryCount < e.MaxRetries }

// Aggregate type constants used across services that write to the outbox.
const (
	AggregateTypeOrder        = "order"
	AggregateTypeCheckout     = "checkout_session"
	AggregateTypeCompensation = "compensation_ledger"
)
