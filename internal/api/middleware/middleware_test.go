package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextwatch/engine/internal/observability"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	t.Run("empty key disables authentication", func(t *testing.T) {
		handler := Auth("")(okHandler())

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/admin/seed", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header returns 401", func(t *testing.T) {
		handler := Auth("secret")(okHandler())

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/admin/seed", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme returns 401", func(t *testing.T) {
		handler := Auth("secret")(okHandler())

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/admin/seed", nil)
		req.Header.Set("Authorization", "Basic secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong key returns 401", func(t *testing.T) {
		handler := Auth("secret")(okHandler())

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/admin/seed", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid key passes through", func(t *testing.T) {
		handler := Auth("secret")(okHandler())

		req := httptest.NewRequest(http.MethodPost, "http://test/v1/admin/seed", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id when the client sends none", func(t *testing.T) {
		var ctxID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID, _ = r.Context().Value(observability.RequestIDKey).(string)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "http://test/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.NotEmpty(t, ctxID)
		assert.Equal(t, ctxID, rec.Header().Get("X-Request-ID"))
	})

	t.Run("propagates a client-supplied id", func(t *testing.T) {
		var ctxID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID, _ = r.Context().Value(observability.RequestIDKey).(string)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "http://test/health", nil)
		req.Header.Set("X-Request-ID", "client-id-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "client-id-1", ctxID)
		assert.Equal(t, "client-id-1", rec.Header().Get("X-Request-ID"))
	})
}

func TestNormalizeRoute(t *testing.T) {
	assert.Equal(t, "/v1/movies/{id}", normalizeRoute("/v1/movies/603"))
	assert.Equal(t, "/v1/movies/{id}/trailer", normalizeRoute("/v1/movies/603/trailer"))
	assert.Equal(t, "/v1/recommendations", normalizeRoute("/v1/recommendations"))
}

func TestStatusToClass(t *testing.T) {
	assert.Equal(t, "2xx", statusToClass(http.StatusAccepted))
	assert.Equal(t, "4xx", statusToClass(http.StatusConflict))
	assert.Equal(t, "5xx", statusToClass(http.StatusInternalServerError))
}
