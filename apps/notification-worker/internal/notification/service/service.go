// Package service implements the Notification Dispatcher (C8): Send
// checks the recipient's preference gate before attempting delivery, and
// Retry resubmits a Failed notification under the retry ceiling.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/notification/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/notification/transport"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/apperr"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/notification"
)

// FailurePublisher emits NotificationFailed to the event fabric once a
// notification is retry-exhausted.
type FailurePublisher interface {
	PublishNotificationFailed(ctx context.Context, orderID, notificationID, reason string) error
}

type Service struct {
	repo      *repo.Postgres
	transport transport.Transport
	failures  FailurePublisher
}

func New(repo *repo.Postgres, t transport.Transport, failures FailurePublisher) *Service {
	return &Service{repo: repo, transport: t, failures: failures}
}

// Create builds and persists a new Created notification, then attempts
// delivery immediately.
func (s *Service) Create(ctx context.Context, orderID, recipientID, email string, typ notification.Type, subject, body string) error {
	n := notification.New(recipientID, email, typ, subject, body, time.Now().UTC())
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	return s.send(ctx, orderID, n)
}

// send implements spec.md §4.7's Send steps: preference gate, delivery
// attempt, status transition.
func (s *Service) send(ctx context.Context, orderID string, n *notification.Notification) error {
	pref, err := s.repo.GetPreference(ctx, n.RecipientID)
	if err != nil {
		return err
	}
	if !pref.Effective(n.Type) {
		n.Status = notification.StatusSent
		n.LastError = "suppressed"
		n.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, n)
	}

	if err := n.MarkSending(time.Now().UTC()); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, n); err != nil {
		return err
	}

	if err := s.transport.Send(transport.Email{To: n.Email, Subject: n.Subject, Body: n.Body}); err != nil {
		if markErr := n.MarkFailed(err.Error(), time.Now().UTC()); markErr != nil {
			return markErr
		}
		if updateErr := s.repo.Update(ctx, n); updateErr != nil {
			return updateErr
		}
		if !n.CanRetry() && s.failures != nil {
			return s.failures.PublishNotificationFailed(ctx, orderID, n.ID.String(), err.Error())
		}
		return nil
	}

	if err := n.MarkSent(time.Now().UTC()); err != nil {
		return err
	}
	return s.repo.Update(ctx, n)
}

// Retry implements spec.md §4.7 step 3: only a Failed notification under
// the retry ceiling may be resubmitted.
func (s *Service) Retry(ctx context.Context, orderID string, notificationID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, notificationID)
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "notification not found")
	}
	if err != nil {
		return err
	}
	if n.Status != notification.StatusFailed || !n.CanRetry() {
		return apperr.New(apperr.KindConflict, "notification is not retryable")
	}
	n.Status = notification.StatusCreated
	n.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, n); err != nil {
		return err
	}
	return s.send(ctx, orderID, n)
}
