package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the outbox table's data-access contract. Create must be
// called inside the same tx as the domain write it accompanies.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, event *Event) error
	GetUnprocessed(ctx context.Context, limit int) ([]*Event, error)
	MarkProcessed(ctx context.Context, eventID uuid.UUID) error
	IncrementRetryCount(ctx context.Context, eventID uuid.UUID, errMsg string) error
}

// Postgres implements Repository against the `outbox_events` table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

func (r *Postgres) Create(ctx context.Context, tx pgx.Tx, event *Event) error {
	event.ID = uuid.New()
	event.CreatedAt = time.Now().UTC()
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, aggregate_type, routing_key, payload, created_at, retry_count, max_retries)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
	`, event.ID, event.AggregateID, event.AggregateType, event.RoutingKey, event.Payload, event.CreatedAt, event.MaxRetries)
	return err
}

func (r *Postgres) GetUnprocessed(ctx context.Context, limit int) ([]*Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, aggregate_id, aggregate_type, routing_key, payload, created_at, processed_at, retry_count, max_retries, last_error
		FROM outbox_events
		WHERE processed_at IS NULL AND retry_count < max_retries
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.RoutingKey, &e.Payload,
			&e.CreatedAt, &e.ProcessedAt, &e.RetryCount, &e.MaxRetries, &e.LastError); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *Postgres) MarkProcessed(ctx context.Context, eventID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox_events SET processed_at = NOW() WHERE id = $1
	`, eventID)
	return err
}

func (r *Postgres) IncrementRetryCount(ctx context.Context, eventID uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox_events SET retry_count = retry_count + 1, last_error = $2 WHERE id = $1
	`, eventID, errMsg)
	return err
}
