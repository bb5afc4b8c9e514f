package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/storage"
	"github.com/gidipin/authcore/internal/util"
)

// ErrInvalidOrExpiredCode deliberately covers wrong, expired and already-used
// codes alike so a caller cannot probe which case applies.
var ErrInvalidOrExpiredCode = errors.New("invalid or expired code")

// ErrInvalidIdentifier rejects identifiers that are empty after
// normalization, such as whitespace-only input.
var ErrInvalidIdentifier = errors.New("invalid identifier")

type RateLimitError struct {
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %ds", e.RemainingSeconds())
}

func (e *RateLimitError) RemainingSeconds() int {
	return int((e.Remaining + time.Second - 1) / time.Second)
}

type VerificationService struct {
	codes     storage.VerificationCodeRepository
	cooldown  storage.CooldownStore
	deliverer Deliverer
	cfg       *util.VerificationConfig
	log       *zap.SugaredLogger
}

func NewVerificationService(
	codes storage.VerificationCodeRepository,
	cooldown storage.CooldownStore,
	deliverer Deliverer,
	cfg *util.VerificationConfig,
	log *zap.SugaredLogger,
) *VerificationService {
	return &VerificationService{
		codes:     codes,
		cooldown:  cooldown,
		deliverer: deliverer,
		cfg:       cfg,
		log:       log,
	}
}

// SendCode issues a fresh single-use code for the identifier, subject to the
// per-identifier cooldown. Delivery failure is logged, not surfaced: the row
// exists either way and can be re-sent through other means.
func (s *VerificationService) SendCode(ctx context.Context, identifier string) error {
	identifier = NormalizeIdentifier(identifier)
	if identifier == "" {
		return ErrInvalidIdentifier
	}

	remaining, err := s.cooldown.Acquire(ctx, identifier, s.cfg.Cooldown)
	if err != nil {
		if errors.Is(err, storage.ErrCooldownActive) {
			return &RateLimitError{Remaining: remaining}
		}
		return fmt.Errorf("cooldown acquire: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := time.Now().UTC()
	rec := models.VerificationCode{
		Identifier: identifier,
		Code:       code,
		Status:     models.CodeStatusPending,
		SentAt:     now,
		ExpiresAt:  now.Add(s.cfg.CodeTTL),
		CreatedAt:  now,
	}
	if _, err := s.codes.CreateCode(ctx, rec); err != nil {
		return fmt.Errorf("create verification code: %w", err)
	}

	s.deliverer.DeliverCode(ctx, identifier, code)
	s.log.Infow("verification code issued", "identifier", identifier, "expires_at", rec.ExpiresAt)
	return nil
}

// VerifyCode consumes the code, succeeding at most once per issued value.
func (s *VerificationService) VerifyCode(ctx context.Context, identifier, code string) error {
	identifier = NormalizeIdentifier(identifier)
	code = strings.TrimSpace(code)

	_, err := s.codes.ConsumeCode(ctx, identifier, code, time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrCodeNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("consume verification code: %w", err)
	}

	s.log.Infow("verification code consumed", "identifier", identifier)
	return nil
}

// Sweep deletes rows whose expiry and consumption both fall outside the
// retention window.
func (s *VerificationService) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.cfg.Retention)
	n, err := s.codes.DeleteExpiredCodes(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("sweep verification codes: %w", err)
	}
	if n > 0 {
		s.log.Infow("swept verification codes", "removed", n)
	}
	return nil
}

// RunSweeper runs Sweep on a ticker until ctx is cancelled.
func (s *VerificationService) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.Errorw("verification sweep failed", "error", err)
			}
		}
	}
}

func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// generateCode draws a fixed-width 6-digit code uniformly from
// [100000, 999999] using crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
