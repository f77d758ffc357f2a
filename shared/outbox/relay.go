package outbox

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/broker"
)

// Relay polls the outbox table and publishes pending events to the fabric,
// marking each one processed on success or incrementing its retry count on
// failure so a transient broker outage doesn't lose the event.
type Relay struct {
	repo         Repository
	producer     *broker.Producer
	logger       zerolog.Logger
	pollInterval time.Duration
	batchSize    int
}

// NewRelay builds a Relay with the given polling cadence and batch size.
func NewRelay(repo Repository, producer *broker.Producer, logger zerolog.Logger, pollInterval time.Duration, batchSize int) *Relay {
	return &Relay{
		repo:         repo,
		producer:     producer,
		logger:       logger.With().Str("component", "outbox_relay").Logger(),
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Start polls until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	r.logger.Info().Msg("outbox relay started")
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.publishPending(ctx)
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopping")
			return
		}
	}
}

func (r *Relay) publishPending(ctx context.Context) {
	events, err := r.repo.GetUnprocessed(ctx, r.batchSize)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to load unprocessed outbox events")
		return
	}

	for _, e := range events {
		if err := r.producer.Publish(ctx, e.RoutingKey, e.Payload); err != nil {
			r.logger.Error().
				Err(err).
				Str("event_id", e.ID.String()).
				Str("routing_key", e.RoutingKey).
				Msg("failed to publish outbox event")
			if incErr := r.repo.IncrementRetryCount(ctx, e.ID, err.Error()); incErr != nil {
				r.logger.Error().Err(incErr).Msg("failed to increment outbox retry count")
			}
			continue
		}
		if err := r.repo.MarkProcessed(ctx, e.ID); err != nil {
			r.logger.Error().Err(err).Msg("failed to mark outbox event processed")
		}
	}
}
