package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/htmlflow/internal/handlers"
	"github.com/serroba/htmlflow/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOutput struct {
	Body string `json:"body"`
}

func setupTestAPI(t *testing.T, trustProxy bool) (*chi.Mux, huma.API) {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api, middleware.ClientIdentity(trustProxy)))

	return router, api
}

func captureMeta(t *testing.T, trustProxy bool, prepare func(*http.Request)) handlers.RequestMeta {
	t.Helper()

	router, api := setupTestAPI(t, trustProxy)
	metaChan := make(chan handlers.RequestMeta, 1)

	huma.Get(api, "/test", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		metaChan <- handlers.RequestMetaFromContext(ctx)

		return &testOutput{Body: "ok"}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.0.2.10:34567"

	if prepare != nil {
		prepare(req)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	return <-metaChan
}

func TestRequestMeta(t *testing.T) {
	t.Run("extracts user-agent and referrer", func(t *testing.T) {
		meta := captureMeta(t, false, func(req *http.Request) {
			req.Header.Set("User-Agent", "TestAgent/1.0")
			req.Header.Set("Referer", "https://example.com")
		})

		assert.Equal(t, "TestAgent/1.0", meta.UserAgent)
		assert.Equal(t, "https://example.com", meta.Referrer)
		assert.Equal(t, "192.0.2.10", meta.ClientIP)
	})

	t.Run("ignores X-Forwarded-For unless proxy is trusted", func(t *testing.T) {
		meta := captureMeta(t, false, func(req *http.Request) {
			req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1")
		})

		assert.Equal(t, "192.0.2.10", meta.ClientIP)
	})

	t.Run("uses first X-Forwarded-For entry behind a trusted proxy", func(t *testing.T) {
		meta := captureMeta(t, true, func(req *http.Request) {
			req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1, 172.16.0.1")
		})

		assert.Equal(t, "192.168.1.1", meta.ClientIP)
	})
}
