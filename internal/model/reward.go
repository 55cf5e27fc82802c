package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type BoxTier int

const (
	TierLittle BoxTier = iota + 1
	TierMiddle
	TierLarge
	TierEpic
	TierLegendary
)

func Tiers() []BoxTier {
	return []BoxTier{TierLittle, TierMiddle, TierLarge, TierEpic, TierLegendary}
}

func (t BoxTier) Valid() bool {
	return t >= TierLittle && t <= TierLegendary
}

func (t BoxTier) Rarity() Rarity {
	return Rarity(t)
}

func (t BoxTier) Name() string {
	switch t {
	case TierLittle:
		return "Little Happiness"
	case TierMiddle:
		return "Middle Happiness"
	case TierLarge:
		return "Large Happiness"
	case TierEpic:
		return "Epic Happiness"
	case TierLegendary:
		return "Legendary Happiness"
	}
	return fmt.Sprintf("Box %d", int(t))
}

// Reward origins.
const (
	OriginQuest      = "quest"
	OriginLevelFinal = "level-final"
	OriginLootbox    = "lootbox"
)

func QuestOrigin(code string) string {
	return OriginQuest + ":" + code
}

func LevelFinalOrigin(level int) string {
	return OriginLevelFinal + ":" + strconv.Itoa(level)
}

func LootboxOrigin(tier BoxTier) string {
	return OriginLootbox + ":" + strconv.Itoa(int(tier))
}

// OriginKind returns the part of an origin before the colon.
func OriginKind(origin string) string {
	kind, _, _ := strings.Cut(origin, ":")
	return kind
}

type Reward struct {
	ID        int64
	UserID    int64
	Origin    string
	Rarity    Rarity
	Tier      BoxTier
	Text      string
	Partner   bool
	Used      bool
	CreatedAt time.Time
	UsedAt    *time.Time
}

// PendingChoice holds distinct candidates offered to a user until one is picked.
type PendingChoice struct {
	Token     string
	UserID    int64
	Origin    string
	Rarity    Rarity
	Tier      BoxTier
	Options   []string
	ExpiresAt time.Time
}

func (c PendingChoice) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
