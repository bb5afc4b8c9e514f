package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gidipin/authcore/internal/service"
	"github.com/gidipin/authcore/internal/util"
)

// ErrorHandler is the fallback renderer for errors the controllers did not
// map themselves.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if isUnauthorizedTokenError(err) {
			c.JSON(http.StatusUnauthorized, map[string]string{"reason": err.Error()})
			return
		}

		var respErr util.ResponseError
		if errors.As(err, &respErr) {
			body := map[string]string{"reason": respErr.Msg}
			if respErr.Code != "" {
				body["error_code"] = respErr.Code
			}
			if err := c.JSON(respErr.Status, body); err != nil {
				log.Errorw("failed to write json response", "error", err)
			}
			return
		}

		he, ok := err.(*echo.HTTPError)
		if ok {
			if he.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			msg, isStr := he.Message.(string)
			if !isStr {
				msg = http.StatusText(he.Code)
			}
			if err := c.JSON(he.Code, map[string]string{"reason": msg}); err != nil {
				log.Errorw("failed to write json response", "error", err)
			}
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		c.JSON(http.StatusInternalServerError, map[string]string{"reason": "internal server error"})
	}
}

func isUnauthorizedTokenError(err error) bool {
	return errors.Is(err, service.ErrTokenInvalid) ||
		errors.Is(err, service.ErrTokenMalformed) ||
		errors.Is(err, service.ErrInvalidRefreshToken) ||
		errors.Is(err, service.ErrRefreshTokenExpired)
}
