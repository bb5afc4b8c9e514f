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

type SessionRepository struct {
	db storage.DBTX
}

func NewSessionRepository(db storage.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, refresh_token, refresh_token_expires_at, device_info, ip_address, is_active, refresh_count, last_refreshed_at, created_at, updated_at`

func (r *SessionRepository) CreateSession(ctx context.Context, rec models.SessionRecord) (int64, error) {
	query := `INSERT INTO user_sessions (user_id, refresh_token, refresh_token_expires_at, device_info, ip_address, is_active, refresh_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		rec.UserID,
		rec.RefreshToken,
		rec.RefreshTokenExpiresAt,
		rec.DeviceInfo,
		rec.IPAddress,
		rec.IsActive,
		rec.RefreshCount,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	return id, nil
}

func (r *SessionRepository) GetActiveSession(ctx context.Context, refreshToken string) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	var lastRefreshed sql.NullTime
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE refresh_token = $1 AND is_active = TRUE`
	err := r.db.QueryRowContext(ctx, query, refreshToken).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.RefreshToken,
		&rec.RefreshTokenExpiresAt,
		&rec.DeviceInfo,
		&rec.IPAddress,
		&rec.IsActive,
		&rec.RefreshCount,
		&lastRefreshed,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if lastRefreshed.Valid {
		rec.LastRefreshedAt = &lastRefreshed.Time
	}
	return &rec, nil
}

// DeactivateSession is a soft revocation; the row stays for the audit trail.
func (r *SessionRepository) DeactivateSession(ctx context.Context, refreshToken string) error {
	query := `UPDATE user_sessions SET is_active = FALSE, updated_at = NOW() WHERE refresh_token = $1`
	_, err := r.db.ExecContext(ctx, query, refreshToken)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	return nil
}

func (r *SessionRepository) TouchSession(ctx context.Context, refreshToken string, now time.Time) error {
	query := `UPDATE user_sessions SET last_refreshed_at = $2, refresh_count = refresh_count + 1, updated_at = $2 WHERE refresh_token = $1 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, refreshToken, now)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return requireRowAffected(res, storage.ErrSessionNotFound)
}

func (r *SessionRepository) RotateRefreshToken(ctx context.Context, oldToken, newToken string, now time.Time) error {
	query := `UPDATE user_sessions SET refresh_token = $2, last_refreshed_at = $3, refresh_count = refresh_count + 1, updated_at = $3 WHERE refresh_token = $1 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, oldToken, newToken, now)
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return requireRowAffected(res, storage.ErrSessionNotFound)
}

func (r *SessionRepository) DeactivateAllUserSessions(ctx context.Context, userID string) error {
	query := `UPDATE user_sessions SET is_active = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_active = TRUE`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("deactivate user sessions: %w", err)
	}
	return nil
}

func requireRowAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
