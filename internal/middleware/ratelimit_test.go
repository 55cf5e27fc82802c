package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lifequest_bot/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(RateLimitConfig{PerSecond: 1, Burst: 2, IdleTTL: time.Minute})
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))
	assert.True(t, l.Allow(2), "buckets are per user")

	now = now.Add(time.Second)
	assert.True(t, l.Allow(1))

	now = now.Add(2 * time.Minute)
	l.Sweep()
	assert.Equal(t, 0, l.Size())
}

func TestRateLimiterDisabled(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{})
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(1))
	}

	var none *RateLimiter
	assert.True(t, none.Allow(1))
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	l := NewRateLimiter(RateLimitConfig{PerSecond: 0.001, Burst: 1})
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-User") != "" {
			c.Set(auth.ContextUserKey, &auth.TelegramUserData{ID: 9})
		}
		c.Next()
	})
	r.Use(l.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(withUser bool) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if withUser {
			req.Header.Set("X-User", "9")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do(false))
	assert.Equal(t, http.StatusOK, do(true))
	assert.Equal(t, http.StatusTooManyRequests, do(true))
}
