package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/apperr"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/checkout"
	sharedredis "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/redis"
)

type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) key(sessionID uuid.UUID) string {
	return sharedredis.Key("checkout:session", sessionID.String())
}

func (r *Redis) Save(ctx context.Context, session *checkout.CheckoutSession, ttlSeconds int64) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(session.SessionID), raw, time.Duration(ttlSeconds)*time.Second).Err()
}

func (r *Redis) Get(ctx context.Context, sessionID uuid.UUID) (*checkout.CheckoutSession, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.New(apperr.KindNotFound, "checkout session not found or expired")
	}
	if err != nil {
		return nil, err
	}
	var session checkout.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *Redis) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return r.client.Del(ctx, r.key(sessionID)).Err()
}
