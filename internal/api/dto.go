package api

import (
	"time"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/service"
)

type QuestResponse struct {
	Code         string       `json:"code"`
	Level        int          `json:"level"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Coins        int          `json:"coins"`
	Rarity       model.Rarity `json:"rarity"`
	Prerequisite string       `json:"prerequisite,omitempty"`
	Unlocks      []string     `json:"unlocks,omitempty"`
	Status       string       `json:"status"`
	LockReason   string       `json:"lock_reason,omitempty"`
}

type LevelResponse struct {
	Number   int             `json:"number"`
	Title    string          `json:"title"`
	Start    string          `json:"start,omitempty"`
	End      string          `json:"end,omitempty"`
	Open     bool            `json:"open"`
	Unlocked bool            `json:"unlocked"`
	Done     int             `json:"done"`
	Total    int             `json:"total"`
	Quests   []QuestResponse `json:"quests,omitempty"`
}

type RewardResponse struct {
	ID        int64        `json:"id"`
	Origin    string       `json:"origin"`
	Rarity    model.Rarity `json:"rarity"`
	Tier      int          `json:"box_tier,omitempty"`
	Text      string       `json:"text"`
	Partner   bool         `json:"partner"`
	Used      bool         `json:"used"`
	CreatedAt time.Time    `json:"created_at"`
	UsedAt    *time.Time   `json:"used_at,omitempty"`
}

type ChoiceResponse struct {
	Token     string       `json:"token"`
	Origin    string       `json:"origin"`
	Rarity    model.Rarity `json:"rarity"`
	Options   []string     `json:"options"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type ProfileResponse struct {
	TelegramID    int64           `json:"telegram_id"`
	Balance       int             `json:"balance"`
	Levels        []LevelResponse `json:"levels"`
	ApartmentDone int             `json:"apartment_done"`
	ApartmentAll  int             `json:"apartment_total"`
	RarityCounts  map[string]int  `json:"rarity_counts"`
	TotalRewards  int             `json:"total_rewards"`
	ActiveRewards int             `json:"active_rewards"`
}

type CompletionResponse struct {
	Quest      QuestResponse    `json:"quest"`
	Coins      int              `json:"coins"`
	Balance    int              `json:"balance"`
	Rewards    []RewardResponse `json:"rewards"`
	Choice     *ChoiceResponse  `json:"choice,omitempty"`
	Unlocked   []string         `json:"unlocked"`
	LevelFinal *LevelFinalBody  `json:"level_final,omitempty"`
}

type LevelFinalBody struct {
	Level   int              `json:"level"`
	Coins   int              `json:"coins"`
	Rewards []RewardResponse `json:"rewards"`
}

type DailyTaskResponse struct {
	Code     string   `json:"code"`
	Title    string   `json:"title"`
	Coins    int      `json:"coins"`
	Examples []string `json:"examples,omitempty"`
	Done     bool     `json:"done"`
}

type DailyBoardResponse struct {
	Day     string              `json:"day"`
	Balance int                 `json:"balance"`
	Tasks   []DailyTaskResponse `json:"tasks"`
}

type ToggleResponse struct {
	Code       string `json:"code"`
	Day        string `json:"day"`
	Done       bool   `json:"done"`
	Delta      int    `json:"delta"`
	Balance    int    `json:"balance"`
	Suggestion string `json:"suggestion,omitempty"`
}

type BoxResponse struct {
	Tier       int    `json:"tier"`
	Name       string `json:"name"`
	Cost       int    `json:"cost"`
	Affordable bool   `json:"affordable"`
}

type MiniEventResponse struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type OpeningResponse struct {
	Tier      int                `json:"tier"`
	Cost      int                `json:"cost"`
	Roll      int                `json:"roll"`
	Balance   int                `json:"balance"`
	Rewards   []RewardResponse   `json:"rewards"`
	MiniEvent *MiniEventResponse `json:"mini_event,omitempty"`
}

type TransactionResponse struct {
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func toQuest(v service.QuestView) QuestResponse {
	out := QuestResponse{
		Code:         v.Quest.Code,
		Level:        v.Quest.Level,
		Title:        v.Quest.Title,
		Description:  v.Quest.Description,
		Coins:        v.Quest.Coins,
		Rarity:       v.Quest.Rarity,
		Prerequisite: v.Quest.Prerequisite,
		Unlocks:      v.Unlocks,
		Status:       string(v.Status),
	}
	if v.Lock != nil {
		out.LockReason = string(v.Lock.Reason)
	}
	return out
}

func toLevel(v service.LevelView, withQuests bool) LevelResponse {
	out := LevelResponse{
		Number:   v.Level.Number,
		Title:    v.Level.Title,
		Open:     v.Open,
		Unlocked: v.Unlocked,
		Done:     v.Done,
		Total:    v.Total,
	}
	if !v.Level.Start.IsZero() {
		out.Start = v.Level.Start.Format(model.DayLayout)
	}
	if !v.Level.End.IsZero() {
		out.End = v.Level.End.Format(model.DayLayout)
	}
	if withQuests {
		for _, q := range v.Quests {
			out.Quests = append(out.Quests, toQuest(q))
		}
	}
	return out
}

func toRewards(rewards []model.Reward) []RewardResponse {
	out := make([]RewardResponse, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, toReward(r))
	}
	return out
}

func toReward(r model.Reward) RewardResponse {
	return RewardResponse{
		ID:        r.ID,
		Origin:    r.Origin,
		Rarity:    r.Rarity,
		Tier:      int(r.Tier),
		Text:      r.Text,
		Partner:   r.Partner,
		Used:      r.Used,
		CreatedAt: r.CreatedAt,
		UsedAt:    r.UsedAt,
	}
}

func toChoice(c *model.PendingChoice) *ChoiceResponse {
	if c == nil {
		return nil
	}
	return &ChoiceResponse{
		Token:     c.Token,
		Origin:    c.Origin,
		Rarity:    c.Rarity,
		Options:   c.Options,
		ExpiresAt: c.ExpiresAt,
	}
}
