package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/voxic/multi-odl-demo/internal/domain"
)

// ProfileRepository is the profile sink: replace-or-insert keyed by customer
// id. Safe to call repeatedly with identical input and concurrently for
// different customer ids.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Upsert(ctx context.Context, customerID int64, profile []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customer_profiles (customer_id, profile, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (customer_id) DO UPDATE
		SET profile = EXCLUDED.profile, updated_at = now()`,
		customerID, profile,
	)
	if err != nil {
		return fmt.Errorf("Upsert: customer %d: %w", customerID, err)
	}
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, customerID int64) (json.RawMessage, error) {
	var profile []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT profile FROM customer_profiles WHERE customer_id = $1`,
		customerID,
	).Scan(&profile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Get: customer %d: %w", customerID, domain.ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Get: customer %d: %w", customerID, err)
	}
	return profile, nil
}

func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customer_profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}
