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

type VerificationCodeRepository struct {
	db storage.DBTX
}

func NewVerificationCodeRepository(db storage.DBTX) *VerificationCodeRepository {
	return &VerificationCodeRepository{db: db}
}

func (r *VerificationCodeRepository) CreateCode(ctx context.Context, code models.VerificationCode) (int64, error) {
	query := `INSERT INTO verification_codes (identifier, code, status, sent_at, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		query,
		code.Identifier,
		code.Code,
		code.Status,
		code.SentAt,
		code.ExpiresAt,
		code.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert verification code: %w", err)
	}
	return id, nil
}

// ConsumeCode marks the newest matching live row as used in a single UPDATE,
// so two concurrent submissions of the same code cannot both succeed.
func (r *VerificationCodeRepository) ConsumeCode(ctx context.Context, identifier, code string, now time.Time) (*models.VerificationCode, error) {
	query := `UPDATE verification_codes
		SET used_at = $3, status = $4
		WHERE id = (
			SELECT id FROM verification_codes
			WHERE identifier = $1 AND code = $2 AND used_at IS NULL AND expires_at > $3
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, identifier, code, status, sent_at, expires_at, used_at, created_at`

	var rec models.VerificationCode
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, identifier, code, now, models.CodeStatusVerified).Scan(
		&rec.ID,
		&rec.Identifier,
		&rec.Code,
		&rec.Status,
		&rec.SentAt,
		&rec.ExpiresAt,
		&usedAt,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to consume verification code: %w", err)
	}
	if usedAt.Valid {
		rec.UsedAt = &usedAt.Time
	}
	return &rec, nil
}

func (r *VerificationCodeRepository) DeleteExpiredCodes(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM verification_codes WHERE expires_at < $1 AND (used_at IS NULL OR used_at < $1)`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired codes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
