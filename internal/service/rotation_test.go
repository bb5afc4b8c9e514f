package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/service"
)

func TestRotateEveryN(t *testing.T) {
	policy := service.RotateEveryN{N: 10}
	now := time.Now()

	// RefreshCount holds completed refreshes; the policy decides for the
	// one in flight.
	for count := 0; count < 30; count++ {
		got := policy.ShouldRotate(&models.SessionRecord{RefreshCount: count}, now)
		want := (count+1)%10 == 0
		require.Equal(t, want, got, "refresh count %d", count)
	}
}

func TestRotateEveryN_DegenerateN(t *testing.T) {
	now := time.Now()
	rec := &models.SessionRecord{RefreshCount: 3}

	require.True(t, service.RotateEveryN{N: 1}.ShouldRotate(rec, now))
	require.False(t, service.RotateEveryN{N: 0}.ShouldRotate(rec, now))
}

func TestRotateAfterAge(t *testing.T) {
	now := time.Now()
	policy := service.RotateAfterAge{MaxAge: time.Hour}

	fresh := &models.SessionRecord{CreatedAt: now.Add(-30 * time.Minute)}
	stale := &models.SessionRecord{CreatedAt: now.Add(-2 * time.Hour)}

	require.False(t, policy.ShouldRotate(fresh, now))
	require.True(t, policy.ShouldRotate(stale, now))

	// A recent rotation restarts the clock.
	rotatedAt := now.Add(-10 * time.Minute)
	stale.LastRefreshedAt = &rotatedAt
	require.False(t, policy.ShouldRotate(stale, now))
}

func TestRotateProbabilistic_Extremes(t *testing.T) {
	now := time.Now()
	rec := &models.SessionRecord{}

	for i := 0; i < 100; i++ {
		require.False(t, service.RotateProbabilistic{P: 0}.ShouldRotate(rec, now))
		require.True(t, service.RotateProbabilistic{P: 1}.ShouldRotate(rec, now))
	}
}

func TestRotateNever(t *testing.T) {
	require.False(t, service.RotateNever{}.ShouldRotate(&models.SessionRecord{RefreshCount: 1000}, time.Now()))
}
