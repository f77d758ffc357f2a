// Package repo backs the Cross-service Sync projections spec.md §4.8
// names: a default UserProfile per user, AuthUser.role, and SellerProfile.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres { return &Postgres{pool: pool} }

// EnsureUserProfile creates a default profile for userID if one doesn't
// already exist, satisfying spec.md §4.8's "create default UserProfile if
// absent (idempotent)" rule for UserCreated.
func (r *Postgres) EnsureUserProfile(ctx context.Context, userID, email, name string, now time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_profiles (user_id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, email, name, now)
	return err
}

// UpdateUserName updates a profile's name, leaving every other column
// untouched — the "never overwrite unrelated fields" rule for UserUpdated.
func (r *Postgres) UpdateUserName(ctx context.Context, userID, name string, now time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_profiles SET name = $2, updated_at = $3 WHERE user_id = $1
	`, userID, name, now)
	return err
}

// CurrentRole returns userID's stored role, or "" if the user has no
// auth_users row yet.
func (r *Postgres) CurrentRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM auth_users WHERE user_id = $1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return role, err
}

// SetRole upserts userID's role, the AuthUser.role-if-different rule for
// UserRoleChanged.
func (r *Postgres) SetRole(ctx context.Context, userID, role string, now time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO auth_users (user_id, role, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
	`, userID, role, now)
	return err
}

// SeedSellerProfile creates a SellerProfile for SellerCreated, idempotent
// on sellerID.
func (r *Postgres) SeedSellerProfile(ctx context.Context, sellerID, userID, sellerName string, now time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO seller_profiles (seller_id, user_id, seller_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (seller_id) DO NOTHING
	`, sellerID, userID, sellerName, now)
	return err
}
