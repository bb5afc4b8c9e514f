package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidTokenFormat = errors.New("invalid token format")

type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// DecodeClaims reads the access token's claims without verifying the
// signature. The client only needs exp and sub for scheduling; verification
// is the server's job on every authenticated request.
func DecodeClaims(accessToken string) (*Claims, error) {
	parsed, _, err := new(jwt.Parser).ParseUnverified(accessToken, &jwt.RegisteredClaims{})
	if err != nil {
		return nil, ErrInvalidTokenFormat
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidTokenFormat
	}

	return &Claims{
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
