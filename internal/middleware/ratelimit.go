package middleware

import (
	"net/http"
	"sync"
	"time"

	"lifequest_bot/pkg/auth"
	"lifequest_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	PerSecond float64       `mapstructure:"perSecond"`
	Burst     int           `mapstructure:"burst"`
	IdleTTL   time.Duration `mapstructure:"idleTTL"`
}

// RateLimiter keeps one token bucket per Telegram user.
type RateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	buckets map[int64]*bucket
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		buckets: make(map[int64]*bucket),
		now:     time.Now,
	}
}

// Allow reports whether the user may act now. A non-positive rate disables
// limiting.
func (l *RateLimiter) Allow(telegramID int64) bool {
	if l == nil || l.cfg.PerSecond <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[telegramID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.cfg.PerSecond), l.cfg.Burst)}
		l.buckets[telegramID] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than IdleTTL.
func (l *RateLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.IdleTTL)
	for id, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, id)
		}
	}
}

func (l *RateLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Middleware limits authenticated requests. It must run after the Telegram
// auth middleware.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.UserFromContext(c)
		if !ok {
			logger.Logger().Error("telegram user data not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !l.Allow(user.ID) {
			logger.Logger().Info("rate limit exceeded", zap.Int64("telegram_id", user.ID))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
