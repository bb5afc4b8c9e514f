package models

import "time"

// TokenPair is the issue/refresh success payload. ExpiresAt mirrors the
// access token's own exp claim; clients must derive expiry from the token,
// this field is a convenience copy.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UserID       string    `json:"userId"`
}

type TokenIssueRequest struct {
	UserID     string `json:"user_id"`
	DeviceInfo string `json:"device_info,omitempty"`
}

type TokenRefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type PinSetupRequest struct {
	UserID string `json:"user_id"`
	Pin    string `json:"pin"`
}

type PinVerifyRequest struct {
	UserID     string `json:"user_id"`
	Pin        string `json:"pin"`
	DeviceInfo string `json:"device_info,omitempty"`
}

type SendCodeRequest struct {
	Identifier string `json:"identifier"`
}

type VerifyCodeRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}
