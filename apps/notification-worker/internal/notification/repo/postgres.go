package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/notification"
)

var ErrNotFound = errors.New("notification: not found")

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (r *Postgres) Create(ctx context.Context, n *notification.Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, email, type, subject, body, status, retry_count, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, n.ID, n.RecipientID, n.Email, string(n.Type), n.Subject, n.Body, string(n.Status), n.RetryCount, n.LastError, n.CreatedAt, n.UpdatedAt)
	return err
}

func (r *Postgres) GetByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, recipient_id, email, type, subject, body, status, retry_count, last_error, created_at, updated_at
		FROM notifications WHERE id = $1
	`, id)
	var n notification.Notification
	var typ, status string
	if err := row.Scan(&n.ID, &n.RecipientID, &n.Email, &typ, &n.Subject, &n.Body, &status, &n.RetryCount, &n.LastError, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	n.Type = notification.Type(typ)
	n.Status = notification.Status(status)
	return &n, nil
}

func (r *Postgres) Update(ctx context.Context, n *notification.Notification) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET status = $2, retry_count = $3, last_error = $4, updated_at = $5
		WHERE id = $1
	`, n.ID, string(n.Status), n.RetryCount, n.LastError, n.UpdatedAt)
	return err
}

// GetPreference loads a user's notification preference, defaulting to
// every type enabled if the user has never saved one.
func (r *Postgres) GetPreference(ctx context.Context, userID string) (notification.Preference, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT email_enabled, by_type FROM notification_preferences WHERE user_id = $1
	`, userID)
	var emailEnabled bool
	var byTypeRaw []byte
	if err := row.Scan(&emailEnabled, &byTypeRaw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notification.NewDefaultPreference(userID), nil
		}
		return notification.Preference{}, err
	}
	byType := map[notification.Type]bool{}
	if err := json.Unmarshal(byTypeRaw, &byType); err != nil {
		return notification.Preference{}, err
	}
	return notification.Preference{UserID: userID, EmailEnabled: emailEnabled, ByType: byType}, nil
}
