package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/timmy/catknow/internal/logger"
	"github.com/timmy/catknow/internal/ratelimit"
)

func TestRateLimitSharesUnknownIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Unix(0, 0)
	lim := ratelimit.NewSlidingWindow(1, time.Minute, ratelimit.WithClock(func() time.Time { return now }))

	var seen string
	r := gin.New()
	r.Use(RateLimit(lim, nil))
	r.GET("/x", func(c *gin.Context) {
		seen = logger.GetIdentity(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ratelimit.UnknownIdentity, seen)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	// a different peer without X-Forwarded-For lands in the same bucket
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests","code":"RATE_LIMIT_EXCEEDED"}`, w.Body.String())
}
