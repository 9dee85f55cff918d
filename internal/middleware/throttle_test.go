package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/emre/registrar/internal/pkg/throttle"
)

func newThrottleRouter(store throttle.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Throttle(store))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func doPing(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w
}

func TestThrottleAdmitsUnderCap(t *testing.T) {
	router := newThrottleRouter(throttle.NewWindowStore(3, time.Minute))

	for i := 0; i < 3; i++ {
		w := doPing(router, "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		require.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestThrottleRejectsOverCap(t *testing.T) {
	router := newThrottleRouter(throttle.NewWindowStore(3, time.Minute))

	for _i := 0; _i < 3; _i++ {
		doPing(router, "10.0.0.1:1234")
	}

	w := doPing(router, "10.0.0.1:1234")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Contains(t, w.Body.String(), "REQ_001")
	require.NotEmpty(t, w.Header().Get("Retry-After"))
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	// A different client is unaffected by the saturated one.
	w = doPing(router, "10.0.0.2:1234")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestThrottleFailsOpenOnStoreError(t *testing.T) {
	router := newThrottleRouter(brokenStore{})

	w := doPing(router, "10.0.0.1:1234")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pong", w.Body.String())
}

type brokenStore struct{}

func (brokenStore) Allow(ctx context.Context, key string) (*throttle.Result, error) {
	return nil, errors.New("store unavailable")
}
