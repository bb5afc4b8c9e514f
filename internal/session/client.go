package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gidipin/authcore/internal/models"
)

// ErrRefreshRejected is the terminal outcome for both INVALID_REFRESH_TOKEN
// and REFRESH_TOKEN_EXPIRED; the client reacts identically to either.
var ErrRefreshRejected = errors.New("refresh token rejected")

// Refresher performs the server refresh exchange.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}

// HTTPRefresher calls the auth service's refresh endpoint.
type HTTPRefresher struct {
	client  *http.Client
	baseURL string
}

func NewHTTPRefresher(baseURL string) *HTTPRefresher {
	return &HTTPRefresher{
		client:  &http.Client{},
		baseURL: baseURL,
	}
}

func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	payload, err := json.Marshal(models.TokenRefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/auth/refresh", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var pair models.TokenPair
		if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
			return nil, fmt.Errorf("decode refresh response: %w", err)
		}
		return &pair, nil
	case resp.StatusCode == http.StatusUnauthorized:
		// Wire code distinguishes INVALID_REFRESH_TOKEN from
		// REFRESH_TOKEN_EXPIRED; neither is recoverable here.
		return nil, ErrRefreshRejected
	default:
		return nil, fmt.Errorf("refresh endpoint returned status %d", resp.StatusCode)
	}
}
