package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"wanderplan/config"
	"wanderplan/handlers"
	"wanderplan/middleware"
	"wanderplan/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, cfg config.Config, limiter *middleware.ClientLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := handlers.New(handlers.Deps{
		Sessions:    services.NewSessionStore(),
		Credentials: services.NewMemoryCredentialStore(),
	})
	r, err := newRouter(cfg, h, limiter, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return r
}

func TestRouter_ForwardedForDoesNotBypassRateLimit(t *testing.T) {
	limiter := middleware.NewClientLimiter(1, 2)
	r := newTestRouter(t, config.Config{}, limiter)

	codes := make([]int, 0, 20)
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:4321"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK}, codes[:2])
	for _, code := range codes[2:] {
		assert.Equal(t, http.StatusTooManyRequests, code)
	}
	assert.Equal(t, 1, limiter.Len(), "spoofed addresses do not create buckets")
}

func TestRouter_TrustedProxyForwardsClientIP(t *testing.T) {
	cfg := config.Config{TrustedProxies: []string{"10.0.0.0/8"}}
	limiter := middleware.NewClientLimiter(1, 1)
	r := newTestRouter(t, cfg, limiter)

	for _, client := range []string{"203.0.113.1", "203.0.113.2"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:4321"
		req.Header.Set("X-Forwarded-For", client)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, client)
	}
	assert.Equal(t, 2, limiter.Len())
}

func TestRouter_InvalidTrustedProxies(t *testing.T) {
	h := handlers.New(handlers.Deps{Sessions: services.NewSessionStore()})
	_, err := newRouter(config.Config{TrustedProxies: []string{"not-an-ip"}}, h, nil, slog.Default())
	assert.ErrorContains(t, err, "TRUSTED_PROXIES")
}
