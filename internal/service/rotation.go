package service

import (
	"math/rand/v2"
	"time"

	"github.com/gidipin/authcore/internal/models"
)

// RotationPolicy decides whether a refresh call replaces the refresh token
// value. Rotation limits the lifetime of a leaked token without rotating on
// every call, which would break concurrent refreshes from the same client.
type RotationPolicy interface {
	ShouldRotate(rec *models.SessionRecord, now time.Time) bool
}

// RotateEveryN rotates deterministically on every Nth refresh of a session.
// This is the default policy; being a pure function of the refresh counter it
// is reproducible under test.
type RotateEveryN struct {
	N int
}

func (p RotateEveryN) ShouldRotate(rec *models.SessionRecord, _ time.Time) bool {
	if p.N <= 0 {
		return false
	}
	return (rec.RefreshCount+1)%p.N == 0
}

// RotateAfterAge rotates once the current token value has outlived MaxAge.
type RotateAfterAge struct {
	MaxAge time.Duration
}

func (p RotateAfterAge) ShouldRotate(rec *models.SessionRecord, now time.Time) bool {
	age := now.Sub(rec.CreatedAt)
	if rec.LastRefreshedAt != nil {
		age = now.Sub(*rec.LastRefreshedAt)
	}
	return age >= p.MaxAge
}

// RotateProbabilistic rotates on a random draw. Kept for compatibility with
// the legacy behavior; prefer RotateEveryN.
type RotateProbabilistic struct {
	P float64
}

func (p RotateProbabilistic) ShouldRotate(_ *models.SessionRecord, _ time.Time) bool {
	return rand.Float64() < p.P
}

type RotateNever struct{}

func (RotateNever) ShouldRotate(_ *models.SessionRecord, _ time.Time) bool { return false }
