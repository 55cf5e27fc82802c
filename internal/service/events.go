package service

import (
	"context"
	"time"

	"lifequest_bot/internal/model"
)

type EventType string

const (
	EventQuestCompleted EventType = "quest_completed"
	EventBoxOpened      EventType = "box_opened"
	EventDailyToggled   EventType = "daily_toggled"
	EventRewardPicked   EventType = "reward_picked"
	EventRewardUsed     EventType = "reward_used"
	EventProgressReset  EventType = "progress_reset"
)

// Event describes a committed change to a user's progress.
type Event struct {
	Type     EventType
	UserID   int64
	Balance  int
	Quest    string
	Daily    string
	Unlocked []string
	Rewards  []model.Reward
	Choice   *model.PendingChoice
	At       time.Time
}

// Notifier receives events after their transaction commits. Delivery is
// best-effort and must not block the caller for long.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Notifiers fans an event out to each notifier in order.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, event Event) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(ctx, event)
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}
