package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/service"
	"github.com/gidipin/authcore/internal/storage/memory"
	"github.com/gidipin/authcore/internal/util"
)

func newTokenService(t *testing.T, refreshTTL time.Duration, rotation service.RotationPolicy) (*service.TokenService, *memory.SessionStore) {
	t.Helper()

	cfg := &util.TokenConfig{
		JwtSecretKey: []byte("test-secret"),
		AccessTTL:    time.Hour,
		RefreshTTL:   refreshTTL,
	}
	sessions := memory.NewSessionStore()
	ts := service.NewTokenService(cfg, sessions, rotation, zap.NewNop().Sugar())
	return ts, sessions
}

func TestTokenService_IssueThenRefresh(t *testing.T) {
	ts, _ := newTokenService(t, 24*time.Hour, service.RotateNever{})
	ctx := context.Background()

	issued, err := ts.Issue(ctx, "user-1", models.ClientMetadata{DeviceInfo: "test", IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	require.NotEmpty(t, issued.AccessToken)
	require.Len(t, issued.RefreshToken, 64)
	require.Equal(t, "user-1", issued.UserID)

	time.Sleep(5 * time.Millisecond)

	refreshed, err := ts.Refresh(ctx, issued.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", refreshed.UserID)
	require.True(t, refreshed.ExpiresAt.After(issued.ExpiresAt), "refreshed expiry must be strictly later")
	require.Equal(t, issued.RefreshToken, refreshed.RefreshToken, "no rotation under RotateNever")
}

func TestTokenService_IssueRejectsEmptyUserID(t *testing.T) {
	ts, _ := newTokenService(t, 24*time.Hour, service.RotateNever{})

	_, err := ts.Issue(context.Background(), "", models.ClientMetadata{})
	require.ErrorIs(t, err, service.ErrInvalidUserID)
}

func TestTokenService_RefreshUnknownToken(t *testing.T) {
	ts, _ := newTokenService(t, 24*time.Hour, service.RotateNever{})

	_, err := ts.Refresh(context.Background(), "deadbeef")
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}

func TestTokenService_RefreshRevokedTokenIndistinguishableFromUnknown(t *testing.T) {
	ts, _ := newTokenService(t, 24*time.Hour, service.RotateNever{})
	ctx := context.Background()

	issued, err := ts.Issue(ctx, "user-1", models.ClientMetadata{})
	require.NoError(t, err)

	require.NoError(t, ts.Revoke(ctx, issued.RefreshToken))

	_, revokedErr := ts.Refresh(ctx, issued.RefreshToken)
	_, unknownErr := ts.Refresh(ctx, "deadbeef")
	require.ErrorIs(t, revokedErr, service.ErrInvalidRefreshToken)
	require.Equal(t, unknownErr, revokedErr)
}

func TestTokenService_RefreshExpiredTokenDeactivatesRecord(t *testing.T) {
	// Negative refresh TTL makes the session record expired at birth.
	ts, sessions := newTokenService(t, -time.Hour, service.RotateNever{})
	ctx := context.Background()

	issued, err := ts.Issue(ctx, "user-1", models.ClientMetadata{})
	require.NoError(t, err)

	_, err = ts.Refresh(ctx, issued.RefreshToken)
	require.ErrorIs(t, err, service.ErrRefreshTokenExpired)

	// The record was flipped inactive, so the next attempt reports the
	// uniform invalid-token error.
	_, err = ts.Refresh(ctx, issued.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)

	_, err = sessions.GetActiveSession(ctx, issued.RefreshToken)
	require.Error(t, err)
}

func TestTokenService_RotationReplacesRefreshToken(t *testing.T) {
	ts, _ := newTokenService(t, 24*time.Hour, service.RotateEveryN{N: 1})
	ctx := context.Background()

	issued, err := ts.Issue(ctx, "user-1", models.ClientMetadata{})
	require.NoError(t, err)

	refreshed, err := ts.Refresh(ctx, issued.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, issued.RefreshToken, refreshed.RefreshToken)
	require.Len(t, refreshed.RefreshToken, 64)

	// The rotated-out value is dead.
	_, err = ts.Refresh(ctx, issued.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)

	// The new value works.
	_, err = ts.Refresh(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
}

// txSessionStore exposes the transactional rotation entry point over the
// in-memory store, the way the Postgres storage does.
type txSessionStore struct {
	*memory.SessionStore
	txRotations int
}

func (s *txSessionStore) RotateRefreshTokenTx(ctx context.Context, oldToken, newToken string, now time.Time) error {
	s.txRotations++
	return s.SessionStore.RotateRefreshToken(ctx, oldToken, newToken, now)
}

func TestTokenService_RotationUsesTransactionalHelperWhenAvailable(t *testing.T) {
	cfg := &util.TokenConfig{
		JwtSecretKey: []byte("test-secret"),
		AccessTTL:    time.Hour,
		RefreshTTL:   24 * time.Hour,
	}
	sessions := &txSessionStore{SessionStore: memory.NewSessionStore()}
	ts := service.NewTokenService(cfg, sessions, service.RotateEveryN{N: 1}, zap.NewNop().Sugar())
	ctx := context.Background()

	issued, err := ts.Issue(ctx, "user-1", models.ClientMetadata{})
	require.NoError(t, err)

	refreshed, err := ts.Refresh(ctx, issued.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, 1, sessions.txRotations)
	require.NotEqual(t, issued.RefreshToken, refreshed.RefreshToken)

	_, err = ts.Refresh(ctx, issued.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}

func TestTokenService_VerifyAccessToken(t *testing.T) {
	ts, _ := newTokenService(t, 24*time.Hour, service.RotateNever{})

	issued, err := ts.Issue(context.Background(), "user-42", models.ClientMetadata{})
	require.NoError(t, err)

	userID, err := ts.VerifyAccessToken(issued.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-42", userID)

	_, err = ts.VerifyAccessToken(issued.AccessToken + "tampered")
	require.Error(t, err)
}

func TestTokenService_RevokeAllForUser(t *testing.T) {
	ts, _ := newTokenService(t, 24*time.Hour, service.RotateNever{})
	ctx := context.Background()

	a, err := ts.Issue(ctx, "user-1", models.ClientMetadata{})
	require.NoError(t, err)
	b, err := ts.Issue(ctx, "user-1", models.ClientMetadata{})
	require.NoError(t, err)

	require.NoError(t, ts.RevokeAllForUser(ctx, "user-1"))

	_, err = ts.Refresh(ctx, a.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)
	_, err = ts.Refresh(ctx, b.RefreshToken)
	require.ErrorIs(t, err, service.ErrInvalidRefreshToken)
}
