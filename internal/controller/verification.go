package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/service"
)

const (
	codeRateLimit   = "ERR_RATE_LIMIT"
	codeInvalidCode = "ERR_INVALID_CODE"
)

// (POST /api/verification/send).
func (c *Controller) SendCode(ctx echo.Context) error {
	var req models.SendCodeRequest
	if err := ctx.Bind(&req); err != nil || req.Identifier == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: "identifier is required", ErrorCode: codeBadRequest})
	}

	if err := c.verification.SendCode(ctx.Request().Context(), req.Identifier); err != nil {
		var rateErr *service.RateLimitError
		switch {
		case errors.As(err, &rateErr):
			return ctx.JSON(http.StatusTooManyRequests, ErrorResponse{
				Reason:           "rate limit exceeded",
				ErrorCode:        codeRateLimit,
				RemainingSeconds: rateErr.RemainingSeconds(),
			})
		case errors.Is(err, service.ErrInvalidIdentifier):
			return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: "identifier is required", ErrorCode: codeBadRequest})
		default:
			return err
		}
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// (POST /api/verification/verify). ERR_INVALID_CODE covers wrong, expired
// and reused codes alike.
func (c *Controller) VerifyCode(ctx echo.Context) error {
	var req models.VerifyCodeRequest
	if err := ctx.Bind(&req); err != nil || req.Identifier == "" || req.Code == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: "identifier and code are required", ErrorCode: codeBadRequest})
	}

	if err := c.verification.VerifyCode(ctx.Request().Context(), req.Identifier, req.Code); err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredCode) {
			return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: "invalid or expired code", ErrorCode: codeInvalidCode})
		}
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}
