// Package notification implements the Notification entity, its retry-bound
// delivery status machine, and the per-user preference gate checked before
// dispatch.
package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxRetries is the retry ceiling spec.md §3 fixes for notification delivery.
const MaxRetries = 5

// Type enumerates the kinds of notification the marketplace sends.
type Type string

const (
	TypeOrderConfirmation Type = "OrderConfirmation"
	TypeOrderShipped      Type = "OrderShipped"
	TypeOrderDelivered    Type = "OrderDelivered"
	TypeOrderCancelled    Type = "OrderCancelled"
	TypeOrderRefunded     Type = "OrderRefunded"
	TypeSellerPayout      Type = "SellerPayout"
)

// Status is the lifecycle of one Notification.
type Status string

const (
	StatusCreated Status = "Created"
	StatusSending Status = "Sending"
	StatusSent    Status = "Sent"
	StatusFailed  Status = "Failed"
	StatusRead    Status = "Read"
)

var (
	ErrRetryLimitExceeded = errors.New("notification: retry limit exceeded")
	ErrNotRetryable       = errors.New("notification: only a non-terminal status may retry")
	ErrInvalidTransition  = errors.New("notification: invalid status transition")
)

// Notification is one outbound message to a recipient.
type Notification struct {
	ID          uuid.UUID
	RecipientID string
	Email       string
	Type        Type
	Subject     string
	Body        string
	Status      Status
	RetryCount  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New builds a Created notification.
func New(recipientID, email string, typ Type, subject, body string, now time.Time) *Notification {
	return &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Email:       email,
		Type:        typ,
		Subject:     subject,
		Body:        body,
		Status:      StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (n *Notification) isTerminal() bool {
	return n.Status == StatusSent || n.Status == StatusRead
}

// MarkSending transitions Created|Failed -> Sending.
func (n *Notification) MarkSending(now time.Time) error {
	switch n.Status {
	case StatusCreated, StatusFailed:
	default:
		return ErrInvalidTransition
	}
	n.Status = StatusSending
	n.UpdatedAt = now
	return nil
}

// MarkSent transitions Sending -> Sent.
func (n *Notification) MarkSent(now time.Time) error {
	if n.Status != StatusSending {
		return ErrInvalidTransition
	}
	n.Status = StatusSent
	n.UpdatedAt = now
	return nil
}

// MarkRead transitions Sent -> Read.
func (n *Notification) MarkRead(now time.Time) error {
	if n.Status != StatusSent {
		return ErrInvalidTransition
	}
	n.Status = StatusRead
	n.UpdatedAt = now
	return nil
}

// MarkFailed transitions Sending -> Failed, incrementing retryCount. Once
// retryCount reaches MaxRetries the notification is retry-exhausted: a
// caller must still call MarkFailed (it records lastError and advances the
// count) but CanRetry will report false and the caller should emit a
// terminal NotificationFailed event instead of retrying.
func (n *Notification) MarkFailed(errMsg string, now time.Time) error {
	if n.Status != StatusSending {
		return ErrInvalidTransition
	}
	n.Status = StatusFailed
	n.LastError = errMsg
	n.RetryCount++
	n.UpdatedAt = now
	return nil
}

// CanRetry reports whether this notification may be resubmitted: it must be
// in a non-terminal status and under the retry ceiling.
func (n *Notification) CanRetry() bool {
	return !n.isTerminal() && n.RetryCount < MaxRetries
}
