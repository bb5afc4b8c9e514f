package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/storage"
	"github.com/gidipin/authcore/internal/util"
)

var (
	ErrIncorrectPin = errors.New("incorrect pin")
	ErrPinNotSet    = errors.New("pin not set")
	ErrPinTooShort  = errors.New("pin too short")
)

// LockedError rejects all attempts until Until, regardless of PIN
// correctness; the lockout check runs before any comparison.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}

func (e *LockedError) RemainingSeconds(now time.Time) int {
	d := e.Until.Sub(now)
	if d < 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

type PinService struct {
	pins   storage.PinCredentialRepository
	issuer *TokenService
	cfg    *util.PinConfig
	log    *zap.SugaredLogger
}

func NewPinService(pins storage.PinCredentialRepository, issuer *TokenService, cfg *util.PinConfig, log *zap.SugaredLogger) *PinService {
	return &PinService{
		pins:   pins,
		issuer: issuer,
		cfg:    cfg,
		log:    log,
	}
}

// SetPin hashes and stores the PIN, resetting any failure state.
func (s *PinService) SetPin(ctx context.Context, userID, pin string) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	if len(pin) < s.cfg.MinLength {
		return ErrPinTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}

	now := time.Now().UTC()
	cred := models.PinCredential{
		UserID:    userID,
		PinHash:   string(hash),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.pins.UpsertCredential(ctx, cred); err != nil {
		return fmt.Errorf("store pin credential: %w", err)
	}

	s.log.Infow("pin credential set", "user_id", userID)
	return nil
}

// VerifyPin gates PIN login with the attempt counter and timed lockout. On
// success it resets the counter and hands off to the token issuer.
func (s *PinService) VerifyPin(ctx context.Context, userID, pin string, meta models.ClientMetadata) (*models.TokenPair, error) {
	cred, err := s.pins.GetCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrCredentialNotFound) {
			return nil, ErrPinNotSet
		}
		return nil, fmt.Errorf("get pin credential: %w", err)
	}

	now := time.Now().UTC()

	// Lockout check comes first: a locked account must not reveal whether
	// the submitted PIN was correct.
	if cred.LockedUntil != nil && cred.LockedUntil.After(now) {
		return nil, &LockedError{Until: *cred.LockedUntil}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PinHash), []byte(pin)); err != nil {
		updated, recErr := s.pins.RecordFailedAttempt(ctx, userID, s.cfg.MaxAttempts, now.Add(s.cfg.LockoutDuration))
		if recErr != nil {
			return nil, fmt.Errorf("record failed attempt: %w", recErr)
		}
		if updated.LockedUntil != nil {
			s.log.Warnw("pin lockout armed", "user_id", userID, "locked_until", updated.LockedUntil)
		}
		return nil, ErrIncorrectPin
	}

	if err := s.pins.ResetFailedAttempts(ctx, userID); err != nil {
		return nil, fmt.Errorf("reset failed attempts: %w", err)
	}

	return s.issuer.Issue(ctx, userID, meta)
}
