package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gidipin/authcore/internal/api"
	"github.com/gidipin/authcore/internal/models"
	"github.com/gidipin/authcore/internal/storage/memory"
)

func newGuardedEcho(t *testing.T) *echo.Echo {
	t.Helper()

	e := echo.New()
	e.HTTPErrorHandler = api.ErrorHandler(zap.NewNop().Sugar())
	e.Use(api.APIKeyAuthMiddleware(memory.NewAPIKeyStore(models.APIKey{Key: "valid-key", ClientID: "svc-1"})))

	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.POST("/api/auth/issue", ok)
	e.POST("/api/auth/refresh", ok)
	return e
}

func postWithKey(e *echo.Echo, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(api.APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyAuthMiddleware(t *testing.T) {
	e := newGuardedEcho(t)

	t.Run("missing key on issue route", func(t *testing.T) {
		rec := postWithKey(e, "/api/auth/issue", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "ERR_API_KEY_MISSING", body["error_code"])
	})

	t.Run("wrong key on issue route", func(t *testing.T) {
		rec := postWithKey(e, "/api/auth/issue", "wrong-key")
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "ERR_API_KEY_INVALID", body["error_code"])
	})

	t.Run("valid key on issue route", func(t *testing.T) {
		rec := postWithKey(e, "/api/auth/issue", "valid-key")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other routes bypass the guard", func(t *testing.T) {
		rec := postWithKey(e, "/api/auth/refresh", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
