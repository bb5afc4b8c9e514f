package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Storage struct {
	db *sql.DB
	*SessionRepository
	*VerificationCodeRepository
	*PinCredentialRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		db:                         db,
		SessionRepository:          NewSessionRepository(db),
		VerificationCodeRepository: NewVerificationCodeRepository(db),
		PinCredentialRepository:    NewPinCredentialRepository(db),
	}
}

// RotateRefreshTokenTx swaps the refresh token value inside a transaction so
// concurrent refreshes against the same token cannot both observe the old
// value and rotate it twice.
func (s *Storage) RotateRefreshTokenTx(ctx context.Context, oldToken, newToken string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sessionRepoTx := NewSessionRepository(tx)
	if err := sessionRepoTx.RotateRefreshToken(ctx, oldToken, newToken, now); err != nil {
		return fmt.Errorf("rotate refresh token in tx: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
