package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gidipin/authcore/internal/models"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrCodeNotFound       = errors.New("verification code not found")
	ErrCredentialNotFound = errors.New("pin credential not found")
	ErrCooldownActive     = errors.New("cooldown active")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can run
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Storage interface {
	SessionRepository
	VerificationCodeRepository
	PinCredentialRepository
}

type SessionRepository interface {
	CreateSession(ctx context.Context, rec models.SessionRecord) (int64, error)
	GetActiveSession(ctx context.Context, refreshToken string) (*models.SessionRecord, error)
	DeactivateSession(ctx context.Context, refreshToken string) error
	TouchSession(ctx context.Context, refreshToken string, now time.Time) error
	// RotateRefreshToken swaps the stored token value and bumps the refresh
	// bookkeeping in a single atomic step.
	RotateRefreshToken(ctx context.Context, oldToken, newToken string, now time.Time) error
	DeactivateAllUserSessions(ctx context.Context, userID string) error
}

type VerificationCodeRepository interface {
	CreateCode(ctx context.Context, code models.VerificationCode) (int64, error)
	// ConsumeCode atomically marks the newest unused, unexpired row matching
	// (identifier, code) as used. ErrCodeNotFound covers wrong, expired and
	// already-used alike; callers must not distinguish further.
	ConsumeCode(ctx context.Context, identifier, code string, now time.Time) (*models.VerificationCode, error)
	// DeleteExpiredCodes removes rows whose expiry and consumption are both
	// older than the cutoff. Returns the number of rows removed.
	DeleteExpiredCodes(ctx context.Context, cutoff time.Time) (int64, error)
}

type PinCredentialRepository interface {
	UpsertCredential(ctx context.Context, cred models.PinCredential) error
	GetCredential(ctx context.Context, userID string) (*models.PinCredential, error)
	// RecordFailedAttempt increments the counter and, when the new count
	// reaches threshold, sets lockedUntil. Returns the updated credential.
	RecordFailedAttempt(ctx context.Context, userID string, threshold int, lockedUntil time.Time) (*models.PinCredential, error)
	ResetFailedAttempts(ctx context.Context, userID string) error
}

// CooldownStore tracks per-identifier issuance timestamps for rate limiting.
type CooldownStore interface {
	// Acquire claims the cooldown slot for key. Exactly one of any set of
	// concurrent callers wins; losers get ErrCooldownActive plus the time
	// left on the window.
	Acquire(ctx context.Context, key string, window time.Duration) (remaining time.Duration, err error)
}
