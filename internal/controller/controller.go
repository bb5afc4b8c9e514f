package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gidipin/authcore/internal/service"
)

type Controller struct {
	log          *zap.SugaredLogger
	tokens       *service.TokenService
	verification *service.VerificationService
	pins         *service.PinService
}

func NewController(log *zap.SugaredLogger, tokens *service.TokenService, verification *service.VerificationService, pins *service.PinService) *Controller {
	return &Controller{
		log:          log,
		tokens:       tokens,
		verification: verification,
		pins:         pins,
	}
}

type ErrorResponse struct {
	Success          bool   `json:"success"`
	Reason           string `json:"reason"`
	ErrorCode        string `json:"error_code,omitempty"`
	RemainingSeconds int    `json:"remainingSeconds,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// (GET /api/ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "ok")
}

func RegisterHandlersWithBaseURL(e *echo.Echo, c *Controller, base string) {
	g := e.Group(base)
	g.GET("/ping", c.CheckServer)

	g.POST("/auth/issue", c.IssueTokens)
	g.POST("/auth/refresh", c.RefreshTokens)
	g.POST("/auth/logout", c.Logout)
	g.POST("/auth/pin/setup", c.SetupPin)
	g.POST("/auth/pin/verify", c.VerifyPin)

	g.POST("/verification/send", c.SendCode)
	g.POST("/verification/verify", c.VerifyCode)
}
