package api

import (
	"errors"
	"net/http"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/service"
	"lifequest_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps engine failures onto HTTP statuses.
func respondError(c *gin.Context, telegramID int64, op string, err error) {
	log := logger.Logger()

	var locked *service.LockedError
	switch {
	case errors.As(err, &locked):
		body := gin.H{
			"error":  locked.Error(),
			"reason": locked.Reason,
			"level":  locked.Level,
		}
		if !locked.OpensAt.IsZero() {
			body["opens_at"] = locked.OpensAt.Format(model.DayLayout)
		}
		if locked.Prerequisite != "" {
			body["prerequisite"] = locked.Prerequisite
		}
		c.JSON(http.StatusForbidden, body)
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyDone), errors.Is(err, service.ErrAlreadyUsed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStorage):
		log.Error("storage failure", zap.String("op", op), zap.Int64("telegram_id", telegramID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, try again"})
	default:
		log.Error("unexpected failure", zap.String("op", op), zap.Int64("telegram_id", telegramID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
