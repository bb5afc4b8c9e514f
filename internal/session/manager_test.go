package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/session"
)

func testToken(t *testing.T, userID string, exp time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// fakeRefresher counts exchanges and answers from a caller-supplied func.
type fakeRefresher struct {
	mu     sync.Mutex
	calls  int
	fn     func(refreshToken string) (*models.TokenPair, error)
	called chan string
}

func newFakeRefresher(fn func(refreshToken string) (*models.TokenPair, error)) *fakeRefresher {
	return &fakeRefresher{fn: fn, called: make(chan string, 16)}
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (*models.TokenPair, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	select {
	case f.called <- refreshToken:
	default:
	}
	return f.fn(refreshToken)
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitForCall(t *testing.T, f *fakeRefresher) string {
	t.Helper()
	select {
	case tok := <-f.called:
		return tok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh call")
		return ""
	}
}

func succeedingRefresher(t *testing.T, clock clockwork.Clock) *fakeRefresher {
	return newFakeRefresher(func(string) (*models.TokenPair, error) {
		return &models.TokenPair{
			AccessToken:  testToken(t, "user-1", clock.Now().Add(time.Hour)),
			RefreshToken: "rotated-refresh",
			ExpiresAt:    clock.Now().Add(time.Hour),
			UserID:       "user-1",
		}, nil
	})
}

func TestManager_InitWithoutPersistedSession(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := session.NewManager(session.NewMemStore(), succeedingRefresher(t, clock), clock, zap.NewNop().Sugar(), 5*time.Minute)

	require.NoError(t, m.Init())
	require.False(t, m.IsAuthenticated())
	_, ok := m.AccessToken()
	require.False(t, ok)
}

func TestManager_InitDiscardsExpiredSession(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := session.NewMemStore()
	refresher := succeedingRefresher(t, clock)

	expired := clock.Now().Add(-time.Minute)
	require.NoError(t, store.Save(&session.Session{
		AccessToken:  testToken(t, "user-1", expired),
		RefreshToken: "stale-refresh",
		ExpiresAt:    expired,
		UserID:       "user-1",
	}))

	m := session.NewManager(store, refresher, clock, zap.NewNop().Sugar(), 5*time.Minute)
	require.NoError(t, m.Init())

	require.False(t, m.IsAuthenticated())

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, persisted, "expired blob must be cleared")

	// Nothing was scheduled either.
	clock.Advance(24 * time.Hour)
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, refresher.callCount())
}

func TestManager_InitAdoptsValidSession(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := session.NewMemStore()
	refresher := succeedingRefresher(t, clock)

	exp := clock.Now().Add(time.Hour)
	require.NoError(t, store.Save(&session.Session{
		AccessToken:  testToken(t, "user-1", exp),
		RefreshToken: "persisted-refresh",
		ExpiresAt:    exp,
		UserID:       "user-1",
	}))

	m := session.NewManager(store, refresher, clock, zap.NewNop().Sugar(), 5*time.Minute)
	require.NoError(t, m.Init())

	require.True(t, m.IsAuthenticated())
	userID, ok := m.UserID()
	require.True(t, ok)
	require.Equal(t, "user-1", userID)
}

func TestManager_SetSessionRejectsMalformedToken(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := session.NewManager(session.NewMemStore(), succeedingRefresher(t, clock), clock, zap.NewNop().Sugar(), 5*time.Minute)

	err := m.SetSession("not-a-jwt", "refresh")
	require.ErrorIs(t, err, session.ErrInvalidTokenFormat)
	require.False(t, m.IsAuthenticated())
}

func TestManager_ScheduledRefreshFiresAtExpiryMinusBuffer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := session.NewMemStore()
	refresher := succeedingRefresher(t, clock)
	m := session.NewManager(store, refresher, clock, zap.NewNop().Sugar(), 5*time.Second)

	exp := clock.Now().Add(10 * time.Second)
	require.NoError(t, m.SetSession(testToken(t, "user-1", exp), "initial-refresh"))
	require.True(t, m.IsAuthenticated())

	clock.BlockUntil(1)

	// One second shy of the firing point nothing happens.
	clock.Advance(4 * time.Second)
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, refresher.callCount())

	clock.Advance(time.Second)
	sent := waitForCall(t, refresher)
	require.Equal(t, "initial-refresh", sent)

	require.Eventually(t, func() bool {
		persisted, err := store.Load()
		return err == nil && persisted != nil && persisted.RefreshToken == "rotated-refresh"
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, refresher.callCount())
	require.True(t, m.IsAuthenticated())
}

func TestManager_SessionInsideBufferRefreshesImmediately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	refresher := succeedingRefresher(t, clock)
	m := session.NewManager(session.NewMemStore(), refresher, clock, zap.NewNop().Sugar(), 5*time.Minute)

	// Expiry closer than the buffer: no timer, refresh runs right away.
	exp := clock.Now().Add(time.Minute)
	require.NoError(t, m.SetSession(testToken(t, "user-1", exp), "short-lived"))

	sent := waitForCall(t, refresher)
	require.Equal(t, "short-lived", sent)
}

func TestManager_ClearSessionCancelsPendingRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := session.NewMemStore()
	refresher := succeedingRefresher(t, clock)
	m := session.NewManager(store, refresher, clock, zap.NewNop().Sugar(), 5*time.Second)

	exp := clock.Now().Add(time.Hour)
	require.NoError(t, m.SetSession(testToken(t, "user-1", exp), "doomed-refresh"))
	clock.BlockUntil(1)

	m.ClearSession()
	require.False(t, m.IsAuthenticated())

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, persisted)

	clock.Advance(2 * time.Hour)
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, refresher.callCount(), "cancelled timer must not fire")

	// Clearing again is a no-op.
	m.ClearSession()
}

func TestManager_RefreshFailureIsTerminal(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := session.NewMemStore()
	refresher := newFakeRefresher(func(string) (*models.TokenPair, error) {
		return nil, session.ErrRefreshRejected
	})
	m := session.NewManager(store, refresher, clock, zap.NewNop().Sugar(), 5*time.Second)

	exp := clock.Now().Add(time.Hour)
	require.NoError(t, m.SetSession(testToken(t, "user-1", exp), "rejected-refresh"))

	err := m.Refresh(context.Background())
	require.ErrorIs(t, err, session.ErrRefreshRejected)

	require.False(t, m.IsAuthenticated())
	persisted, loadErr := store.Load()
	require.NoError(t, loadErr)
	require.Nil(t, persisted)

	select {
	case ev := <-m.Expired():
		require.Equal(t, "refresh_failed", ev.Reason)
	case <-time.After(time.Second):
		t.Fatal("expected expired event")
	}
}

func TestManager_ConcurrentRefreshRunsOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	release := make(chan struct{})
	refresher := newFakeRefresher(func(string) (*models.TokenPair, error) {
		<-release
		return &models.TokenPair{
			AccessToken:  testToken(t, "user-1", clock.Now().Add(time.Hour)),
			RefreshToken: "rotated-refresh",
		}, nil
	})
	m := session.NewManager(session.NewMemStore(), refresher, clock, zap.NewNop().Sugar(), 5*time.Second)

	exp := clock.Now().Add(time.Hour)
	require.NoError(t, m.SetSession(testToken(t, "user-1", exp), "initial-refresh"))

	done := make(chan error, 1)
	go func() { done <- m.Refresh(context.Background()) }()
	waitForCall(t, refresher)

	// The guard turns the overlapping call into a no-op.
	require.NoError(t, m.Refresh(context.Background()))
	require.Equal(t, 1, refresher.callCount())

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, 1, refresher.callCount())
}

func TestManager_ClearDuringInFlightRefreshDiscardsResult(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := session.NewMemStore()
	release := make(chan struct{})
	refresher := newFakeRefresher(func(string) (*models.TokenPair, error) {
		<-release
		return &models.TokenPair{
			AccessToken:  testToken(t, "user-1", clock.Now().Add(time.Hour)),
			RefreshToken: "rotated-refresh",
		}, nil
	})
	m := session.NewManager(store, refresher, clock, zap.NewNop().Sugar(), 5*time.Second)

	exp := clock.Now().Add(time.Hour)
	require.NoError(t, m.SetSession(testToken(t, "user-1", exp), "initial-refresh"))

	done := make(chan error, 1)
	go func() { done <- m.Refresh(context.Background()) }()
	waitForCall(t, refresher)

	m.ClearSession()
	close(release)
	require.NoError(t, <-done)

	// The successful exchange must not bring the cleared session back.
	require.False(t, m.IsAuthenticated())
	persisted, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, persisted)

	select {
	case ev := <-m.Expired():
		t.Fatalf("unexpected expired event %q after deliberate clear", ev.Reason)
	default:
	}
}

func TestManager_RefreshWithoutSessionIsNoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	refresher := succeedingRefresher(t, clock)
	m := session.NewManager(session.NewMemStore(), refresher, clock, zap.NewNop().Sugar(), 5*time.Second)

	require.NoError(t, m.Refresh(context.Background()))
	require.Zero(t, refresher.callCount())
}

func TestManager_AccessTokenExpiresWithClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	refresher := newFakeRefresher(func(string) (*models.TokenPair, error) {
		return nil, session.ErrRefreshRejected
	})
	m := session.NewManager(session.NewMemStore(), refresher, clock, zap.NewNop().Sugar(), 5*time.Second)

	exp := clock.Now().Add(time.Minute)
	require.NoError(t, m.SetSession(testToken(t, "user-1", exp), "refresh"))
	require.True(t, m.IsAuthenticated())

	clock.Advance(2 * time.Minute)

	// The token is past exp; the getter must not hand it out even before
	// the failed refresh clears the session.
	_, ok := m.AccessToken()
	require.False(t, ok)
}
