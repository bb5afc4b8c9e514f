package models

import "time"

// SessionRecord is the server-side row backing one refresh token.
// Rows are never deleted; revocation flips IsActive (audit trail).
type SessionRecord struct {
	ID                    int64      `json:"id"`
	UserID                string     `json:"user_id"`
	RefreshToken          string     `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time  `json:"refresh_token_expires_at"`
	DeviceInfo            string     `json:"device_info"`
	IPAddress             string     `json:"ip_address"`
	IsActive              bool       `json:"is_active"`
	RefreshCount          int        `json:"refresh_count"`
	LastRefreshedAt       *time.Time `json:"last_refreshed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// ClientMetadata travels with issue/refresh calls for the session audit trail.
type ClientMetadata struct {
	DeviceInfo string `json:"device_info"`
	IPAddress  string `json:"ip_address"`
}

type APIKey struct {
	Key      string `json:"key"`
	ClientID string `json:"client_id"`
}
