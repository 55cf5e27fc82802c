package cache

import (
	"errors"
	"time"

	"lifequest_bot/internal/model"
)

var ErrNotFound = errors.New("cache: key not found")

type Config struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type choicePayload struct {
	Token     string       `json:"token"`
	UserID    int64        `json:"user_id"`
	Origin    string       `json:"origin"`
	Rarity    model.Rarity `json:"rarity"`
	Tier      int          `json:"tier"`
	Options   []string     `json:"options"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func toPayload(c model.PendingChoice) choicePayload {
	return choicePayload{
		Token:     c.Token,
		UserID:    c.UserID,
		Origin:    c.Origin,
		Rarity:    c.Rarity,
		Tier:      int(c.Tier),
		Options:   c.Options,
		ExpiresAt: c.ExpiresAt.UTC(),
	}
}

func (p choicePayload) toModel() *model.PendingChoice {
	return &model.PendingChoice{
		Token:     p.Token,
		UserID:    p.UserID,
		Origin:    p.Origin,
		Rarity:    p.Rarity,
		Tier:      model.BoxTier(p.Tier),
		Options:   p.Options,
		ExpiresAt: p.ExpiresAt.UTC(),
	}
}
