package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/storage"
)

type PinCredentialRepository struct {
	db storage.DBTX
}

func NewPinCredentialRepository(db storage.DBTX) *PinCredentialRepository {
	return &PinCredentialRepository{db: db}
}

func (r *PinCredentialRepository) UpsertCredential(ctx context.Context, cred models.PinCredential) error {
	query := `INSERT INTO pin_credentials (user_id, pin_hash, failed_attempts, locked_until, created_at, updated_at)
		VALUES ($1, $2, 0, NULL, $3, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET pin_hash = EXCLUDED.pin_hash, failed_attempts = 0, locked_until = NULL, updated_at = EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, query, cred.UserID, cred.PinHash, cred.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert pin credential: %w", err)
	}
	return nil
}

func (r *PinCredentialRepository) GetCredential(ctx context.Context, userID string) (*models.PinCredential, error) {
	var cred models.PinCredential
	var lockedUntil sql.NullTime
	query := `SELECT user_id, pin_hash, failed_attempts, locked_until, created_at, updated_at FROM pin_credentials WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cred.UserID,
		&cred.PinHash,
		&cred.FailedAttempts,
		&lockedUntil,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get pin credential: %w", err)
	}
	if lockedUntil.Valid {
		cred.LockedUntil = &lockedUntil.Time
	}
	return &cred, nil
}

// RecordFailedAttempt increments the counter and arms the lock in one UPDATE
// so concurrent wrong-PIN submissions cannot under-count.
func (r *PinCredentialRepository) RecordFailedAttempt(ctx context.Context, userID string, threshold int, lockedUntil time.Time) (*models.PinCredential, error) {
	query := `UPDATE pin_credentials
		SET failed_attempts = failed_attempts + 1,
		    locked_until = CASE WHEN failed_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING user_id, pin_hash, failed_attempts, locked_until, created_at, updated_at`

	var cred models.PinCredential
	var lu sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID, threshold, lockedUntil).Scan(
		&cred.UserID,
		&cred.PinHash,
		&cred.FailedAttempts,
		&lu,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to record pin attempt: %w", err)
	}
	if lu.Valid {
		cred.LockedUntil = &lu.Time
	}
	return &cred, nil
}

func (r *PinCredentialRepository) ResetFailedAttempts(ctx context.Context, userID string) error {
	query := `UPDATE pin_credentials SET failed_attempts = 0, locked_until = NULL, updated_at = NOW() WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to reset pin attempts: %w", err)
	}
	return requireRowAffected(res, storage.ErrCredentialNotFound)
}
