package service

import (
	"lifequest_bot/internal/catalog"
	"lifequest_bot/internal/model"
)

type QuestView struct {
	Quest   model.Quest
	Status  model.QuestStatus
	Lock    *LockedError
	Unlocks []string
}

type LevelView struct {
	Level    model.Level
	Open     bool
	Unlocked bool
	Done     int
	Total    int
	Quests   []QuestView
}

func (v LevelView) Complete() bool {
	return v.Total > 0 && v.Done == v.Total
}

type ApartmentProgress struct {
	Done  int
	Total int
}

type Profile struct {
	User          model.User
	Levels        []LevelView
	Apartment     ApartmentProgress
	RarityCounts  map[model.Rarity]int
	TotalRewards  int
	ActiveRewards int
}

type DailyBoard struct {
	Day     string
	Balance int
	Tasks   []model.DailyState
}

type BoxOffer struct {
	Tier       model.BoxTier
	Name       string
	Cost       int
	Affordable bool
}

type BoxShelf struct {
	Balance int
	Boxes   []BoxOffer
}

type Inventory struct {
	Active []model.Reward
	Recent []model.Reward
}

type LevelFinalGrant struct {
	Level   int
	Coins   int
	Rewards []model.Reward
}

type QuestCompletion struct {
	Quest      model.Quest
	Coins      int
	Balance    int
	Rewards    []model.Reward
	Choice     *model.PendingChoice
	Unlocked   []string
	LevelFinal *LevelFinalGrant
}

type BoxOpening struct {
	Tier      model.BoxTier
	Cost      int
	Roll      int
	Balance   int
	Rewards   []model.Reward
	MiniEvent *catalog.MiniEvent
}

type DailyToggle struct {
	Task       model.DailyTask
	Day        string
	Done       bool
	Delta      int
	Balance    int
	Suggestion string
}

type RewardPick struct {
	Reward  model.Reward
	Balance int
}
