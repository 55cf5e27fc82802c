package api

import (
	"net/http"
	"strconv"

	"lifequest_bot/internal/middleware"
	"lifequest_bot/internal/service"
	"lifequest_bot/pkg/auth"
	"lifequest_bot/pkg/logger"

	"github.com/gin-gonic/gin"
)

// NewRouter registers every Mini App route under handler. All of them require
// Telegram init data and share the per-user rate limit.
func NewRouter(handler *gin.RouterGroup, ps service.ProgressionServiceI, a *auth.TelegramAuth, limiter *middleware.RateLimiter, hub *Hub) {
	handler.Use(a.TelegramAuthMiddleware(), limiter.Middleware())

	NewProfileRoutes(handler, ps)
	NewQuestRoutes(handler, ps)
	NewDailyRoutes(handler, ps)
	NewBoxRoutes(handler, ps)
	NewRewardRoutes(handler, ps)
	if hub != nil {
		handler.GET("/events", hub.Serve)
	}
}

// currentUser returns the authenticated Telegram id or writes a 401.
func currentUser(c *gin.Context) (int64, bool) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		logger.Logger().Error("telegram user data not found in context")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return user.ID, true
}

func intParam(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}
