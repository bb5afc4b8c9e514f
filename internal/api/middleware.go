package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/gidipin/authcore/internal/util"
)

const (
	APIKeyHeader       = "X-API-Key"
	issueRoutePath     = "/api/auth/issue"
	ClientIDContextKey = "client_id"
)

// APIKeyValidator is satisfied by the Redis-backed service and the in-memory
// test double.
type APIKeyValidator interface {
	IsValidAPIKey(ctx context.Context, key string) (bool, error)
}

// APIKeyAuthMiddleware guards the service-to-service issue endpoint; every
// other route passes through untouched.
func APIKeyAuthMiddleware(validator APIKeyValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path != issueRoutePath {
				return next(c)
			}

			apiKey := c.Request().Header.Get(APIKeyHeader)
			if apiKey == "" {
				return util.NewResponseError(http.StatusUnauthorized, "ERR_API_KEY_MISSING", "API key is missing")
			}

			valid, err := validator.IsValidAPIKey(c.Request().Context(), apiKey)
			if err != nil {
				return util.NewResponseError(http.StatusInternalServerError, "", "error validating API key")
			}
			if !valid {
				return util.NewResponseError(http.StatusUnauthorized, "ERR_API_KEY_INVALID", "invalid API key")
			}

			return next(c)
		}
	}
}

func GetLoggerMiddlewareConfig(a *API) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				a.log.Errorw("Request", fields...)
			} else {
				a.log.Infow("Request", fields...)
			}
			return nil
		},
	}
}
