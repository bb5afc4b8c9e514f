package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/service"
)

const (
	codeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	codeRefreshTokenExpired = "REFRESH_TOKEN_EXPIRED"
	codeBadRequest          = "ERR_BAD_REQUEST"
)

// (POST /api/auth/issue). Service-to-service surface, guarded by API key.
func (c *Controller) IssueTokens(ctx echo.Context) error {
	var req models.TokenIssueRequest
	if err := ctx.Bind(&req); err != nil || req.UserID == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: "user_id is required", ErrorCode: codeBadRequest})
	}

	pair, err := c.tokens.Issue(ctx.Request().Context(), req.UserID, clientMetadata(ctx, req.DeviceInfo))
	if err != nil {
		if errors.Is(err, service.ErrInvalidUserID) {
			return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: err.Error(), ErrorCode: codeBadRequest})
		}
		return err
	}
	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/auth/refresh).
func (c *Controller) RefreshTokens(ctx echo.Context) error {
	var req models.TokenRefreshRequest
	if err := ctx.Bind(&req); err != nil || req.RefreshToken == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: "refreshToken is required", ErrorCode: codeBadRequest})
	}

	pair, err := c.tokens.Refresh(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			return ctx.JSON(http.StatusUnauthorized, ErrorResponse{Reason: "invalid refresh token", ErrorCode: codeInvalidRefreshToken})
		case errors.Is(err, service.ErrRefreshTokenExpired):
			return ctx.JSON(http.StatusUnauthorized, ErrorResponse{Reason: "refresh token expired, please log in again", ErrorCode: codeRefreshTokenExpired})
		default:
			return err
		}
	}
	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/auth/logout). Idempotent: revoking an unknown token is a 200.
func (c *Controller) Logout(ctx echo.Context) error {
	var req models.LogoutRequest
	if err := ctx.Bind(&req); err != nil || req.RefreshToken == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: "refreshToken is required", ErrorCode: codeBadRequest})
	}

	if err := c.tokens.Revoke(ctx.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func clientMetadata(ctx echo.Context, deviceInfo string) models.ClientMetadata {
	if deviceInfo == "" {
		deviceInfo = ctx.Request().UserAgent()
	}
	return models.ClientMetadata{
		DeviceInfo: deviceInfo,
		IPAddress:  ctx.RealIP(),
	}
}
