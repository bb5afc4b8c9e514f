package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/service"
)

const (
	codeIncorrectPin  = "INCORRECT_PIN"
	codeAccountLocked = "ACCOUNT_LOCKED"
	codePinNotSet     = "ERR_PIN_NOT_SET"
)

// (POST /api/auth/pin/setup).
func (c *Controller) SetupPin(ctx echo.Context) error {
	var req models.PinSetupRequest
	if err := ctx.Bind(&req); err != nil || req.UserID == "" || req.Pin == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: "user_id and pin are required", ErrorCode: codeBadRequest})
	}

	if err := c.pins.SetPin(ctx.Request().Context(), req.UserID, req.Pin); err != nil {
		if errors.Is(err, service.ErrPinTooShort) || errors.Is(err, service.ErrInvalidUserID) {
			return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: err.Error(), ErrorCode: codeBadRequest})
		}
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// (POST /api/auth/pin/verify). Lockout is reported distinctly from a wrong
// PIN so the caller can show a wait time; a locked account never reveals
// whether the submitted PIN was correct.
func (c *Controller) VerifyPin(ctx echo.Context) error {
	var req models.PinVerifyRequest
	if err := ctx.Bind(&req); err != nil || req.UserID == "" || req.Pin == "" {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Reason: "user_id and pin are required", ErrorCode: codeBadRequest})
	}

	pair, err := c.pins.VerifyPin(ctx.Request().Context(), req.UserID, req.Pin, clientMetadata(ctx, req.DeviceInfo))
	if err != nil {
		var lockedErr *service.LockedError
		switch {
		case errors.As(err, &lockedErr):
			return ctx.JSON(http.StatusLocked, ErrorResponse{
				Reason:           "account locked, please try again later",
				ErrorCode:        codeAccountLocked,
				RemainingSeconds: lockedErr.RemainingSeconds(time.Now().UTC()),
			})
		case errors.Is(err, service.ErrIncorrectPin):
			return ctx.JSON(http.StatusUnauthorized, ErrorResponse{Reason: "incorrect pin", ErrorCode: codeIncorrectPin})
		case errors.Is(err, service.ErrPinNotSet):
			return ctx.JSON(http.StatusNotFound, ErrorResponse{Reason: "pin not set for user", ErrorCode: codePinNotSet})
		default:
			return err
		}
	}
	return ctx.JSON(http.StatusOK, pair)
}
