package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/storage"
	"github.com/gidipin/authcore/internal/util"
)

var (
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrInvalidUserID        = errors.New("invalid userID")
	ErrInvalidSigningMethod = errors.New("invalid signing method")
)

const tokenAudience = "authenticated"

type TokenService struct {
	jwtSecretKey []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	rotation     RotationPolicy
	sessions     storage.SessionRepository
	log          *zap.SugaredLogger
}

func NewTokenService(cfg *util.TokenConfig, sessions storage.SessionRepository, rotation RotationPolicy, log *zap.SugaredLogger) *TokenService {
	return &TokenService{
		jwtSecretKey: cfg.JwtSecretKey,
		accessTTL:    cfg.AccessTTL,
		refreshTTL:   cfg.RefreshTTL,
		rotation:     rotation,
		sessions:     sessions,
		log:          log,
	}
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// txRotator is satisfied by repositories that can run the rotation inside a
// transaction; plain repositories fall back to the single guarded UPDATE.
type txRotator interface {
	RotateRefreshTokenTx(ctx context.Context, oldToken, newToken string, now time.Time) error
}

// Issue mints a signed access token plus an opaque refresh token and persists
// the session record keyed by the refresh token.
func (ts *TokenService) Issue(ctx context.Context, userID string, meta models.ClientMetadata) (*models.TokenPair, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	now := time.Now().UTC()
	accessToken, expiresAt, err := ts.createAccessToken(userID, now)
	if err != nil {
		return nil, err
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}

	rec := models.SessionRecord{
		UserID:                userID,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: now.Add(ts.refreshTTL),
		DeviceInfo:            meta.DeviceInfo,
		IPAddress:             meta.IPAddress,
		IsActive:              true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if _, err := ts.sessions.CreateSession(ctx, rec); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		UserID:       userID,
	}, nil
}

// Refresh exchanges an active refresh token for a fresh access token,
// rotating the refresh token when the policy says so. Rows are never deleted:
// an expired token is flipped inactive, a revoked or unknown token is
// reported identically so callers cannot tell the two apart.
func (ts *TokenService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	rec, err := ts.sessions.GetActiveSession(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	now := time.Now().UTC()
	if now.After(rec.RefreshTokenExpiresAt) {
		if err := ts.sessions.DeactivateSession(ctx, refreshToken); err != nil {
			ts.log.Errorw("failed to deactivate expired session", "error", err)
		}
		return nil, ErrRefreshTokenExpired
	}

	accessToken, expiresAt, err := ts.createAccessToken(rec.UserID, now)
	if err != nil {
		return nil, err
	}

	currentRefreshToken := refreshToken
	if ts.rotation.ShouldRotate(rec, now) {
		newToken, err := newRefreshToken()
		if err != nil {
			return nil, err
		}
		if err := ts.rotateSession(ctx, refreshToken, newToken, now); err != nil {
			if errors.Is(err, storage.ErrSessionNotFound) {
				// A concurrent refresh rotated first; this token is gone.
				return nil, ErrInvalidRefreshToken
			}
			return nil, fmt.Errorf("rotate refresh token: %w", err)
		}
		currentRefreshToken = newToken
		ts.log.Infow("refresh token rotated", "user_id", rec.UserID)
	} else {
		if err := ts.sessions.TouchSession(ctx, refreshToken, now); err != nil {
			if errors.Is(err, storage.ErrSessionNotFound) {
				return nil, ErrInvalidRefreshToken
			}
			return nil, fmt.Errorf("touch session: %w", err)
		}
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: currentRefreshToken,
		ExpiresAt:    expiresAt,
		UserID:       rec.UserID,
	}, nil
}

func (ts *TokenService) rotateSession(ctx context.Context, oldToken, newToken string, now time.Time) error {
	if tx, ok := ts.sessions.(txRotator); ok {
		return tx.RotateRefreshTokenTx(ctx, oldToken, newToken, now)
	}
	return ts.sessions.RotateRefreshToken(ctx, oldToken, newToken, now)
}

// Revoke flips the session inactive. Idempotent; a revoked token then
// behaves exactly like an unknown one on Refresh.
func (ts *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	if err := ts.sessions.DeactivateSession(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (ts *TokenService) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := ts.sessions.DeactivateAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

// VerifyAccessToken does the full verify-and-decode; the client side decodes
// only (see the session package).
func (ts *TokenService) VerifyAccessToken(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(util.JWTLeeWay),
		jwt.WithExpirationRequired(),
	}

	parsedToken, err := jwt.ParseWithClaims(
		token,
		&accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, ErrInvalidSigningMethod
			}
			return ts.jwtSecretKey, nil
		},
		opts...,
	)
	if err != nil {
		return "", fmt.Errorf("parse token claims: %w", err)
	}

	if parsedToken == nil || !parsedToken.Valid {
		return "", ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(*accessClaims)
	if !ok || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}

func (ts *TokenService) createAccessToken(userID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ts.accessTTL)
	claims := &accessClaims{
		Role: tokenAudience,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(ts.jwtSecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signed string: %w", err)
	}

	return signedToken, expiresAt, nil
}

// newRefreshToken returns a fixed-length hex encoding of high-entropy random
// bytes; the value doubles as the session row's lookup key.
func newRefreshToken() (string, error) {
	raw := make([]byte, util.RefreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
