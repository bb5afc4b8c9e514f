package models

import "time"

const (
	CodeStatusPending  = "pending"
	CodeStatusVerified = "verified"
)

// VerificationCode is a single-use numeric code bound to an email or phone
// identifier. A row is consumable exactly once: UsedAt set means every later
// attempt with the same code fails, expired or not.
type VerificationCode struct {
	ID         int64      `json:"id"`
	Identifier string     `json:"identifier"`
	Code       string     `json:"code"`
	Status     string     `json:"status"`
	SentAt     time.Time  `json:"sent_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PinCredential is the per-user PIN state guarded by the lockout counter.
type PinCredential struct {
	UserID         string     `json:"user_id"`
	PinHash        string     `json:"-"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
