package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lifequest_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"go.uber.org/zap"
)

const (
	expTime = 24 * time.Hour

	// ContextUserKey holds the *TelegramUserData of an authenticated request.
	ContextUserKey = "telegram_user"
)

var ErrNoUser = errors.New("init data carries no user")

type TelegramAuth struct {
	botToken  string
	debugMode bool
	allow     *Allowlist
}

func NewTelegramAuth(botToken string, debugMode bool, allow *Allowlist) *TelegramAuth {
	return &TelegramAuth{
		botToken:  botToken,
		debugMode: debugMode,
		allow:     allow,
	}
}

// TelegramAuthMiddleware authenticates Mini App requests carrying
// "Authorization: Telegram <init data>" and rejects users outside the
// allow-list.
func (t *TelegramAuth) TelegramAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		initData, ok := strings.CutPrefix(authHeader, "Telegram ")
		if !ok {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		if !t.debugMode {
			if err := initdata.Validate(initData, t.botToken, expTime); err != nil {
				log.Info("invalid telegram init data", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram auth data"})
				return
			}
		}

		user, err := ExtractTelegramData(initData)
		if err != nil {
			log.Info("failed to extract telegram data", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram data"})
			return
		}

		if !t.allow.Allowed(user.ID) {
			log.Info("telegram user not allowed", zap.Int64("telegram_id", user.ID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "this game is private"})
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

type TelegramUserData struct {
	ID        int64
	Username  string
	FirstName string
	AuthDate  time.Time
}

// UserFromContext returns the user set by TelegramAuthMiddleware.
func UserFromContext(c *gin.Context) (*TelegramUserData, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*TelegramUserData)
	return user, ok && user != nil
}

func ExtractTelegramData(initData string) (*TelegramUserData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	authDateUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, err
	}

	var userData struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}

	raw := values.Get("user")
	if raw == "" {
		return nil, ErrNoUser
	}
	if err := json.Unmarshal([]byte(raw), &userData); err != nil {
		return nil, err
	}
	if userData.ID == 0 {
		return nil, ErrNoUser
	}

	return &TelegramUserData{
		ID:        userData.ID,
		Username:  userData.Username,
		FirstName: userData.FirstName,
		AuthDate:  time.Unix(authDateUnix, 0),
	}, nil
}
