package service

import (
	"time"

	"lifequest_bot/internal/catalog"
	"lifequest_bot/internal/model"
)

func statusOf(statuses map[string]model.QuestStatus, code string) model.QuestStatus {
	if s, ok := statuses[code]; ok {
		return s
	}
	return model.QuestLocked
}

func allDone(quests []model.Quest, statuses map[string]model.QuestStatus) bool {
	for _, q := range quests {
		if statusOf(statuses, q.Code) != model.QuestDone {
			return false
		}
	}
	return true
}

func countDone(quests []model.Quest, statuses map[string]model.QuestStatus) int {
	n := 0
	for _, q := range quests {
		if statusOf(statuses, q.Code) == model.QuestDone {
			n++
		}
	}
	return n
}

// unlockable returns the locked quests that may become active on day: their
// level window has opened, every quest of every earlier level is done, and
// their prerequisite, if any, is done.
func unlockable(cat *catalog.Catalog, statuses map[string]model.QuestStatus, day time.Time) []string {
	var codes []string
	earlierDone := true
	for _, level := range cat.Levels() {
		quests := cat.QuestsInLevel(level.Number)
		if earlierDone && level.IsOpen(day) {
			for _, q := range quests {
				if statusOf(statuses, q.Code) != model.QuestLocked {
					continue
				}
				if q.Prerequisite != "" && statusOf(statuses, q.Prerequisite) != model.QuestDone {
					continue
				}
				codes = append(codes, q.Code)
			}
		}
		earlierDone = earlierDone && allDone(quests, statuses)
	}
	return codes
}

// levelUnlocked reports whether quests of level may be unlocked on day.
func levelUnlocked(cat *catalog.Catalog, statuses map[string]model.QuestStatus, level model.Level, day time.Time) bool {
	if !level.IsOpen(day) {
		return false
	}
	for _, l := range cat.Levels() {
		if l.Number >= level.Number {
			break
		}
		if !allDone(cat.QuestsInLevel(l.Number), statuses) {
			return false
		}
	}
	return true
}

func lockReason(cat *catalog.Catalog, statuses map[string]model.QuestStatus, q model.Quest, day time.Time) *LockedError {
	level, _ := cat.Level(q.Level)
	if !level.IsOpen(day) {
		return &LockedError{Code: q.Code, Reason: LockLevelNotOpen, OpensAt: level.Start, Level: q.Level}
	}
	for _, l := range cat.Levels() {
		if l.Number >= q.Level {
			break
		}
		if !allDone(cat.QuestsInLevel(l.Number), statuses) {
			return &LockedError{Code: q.Code, Reason: LockEarlierLevel, Level: l.Number}
		}
	}
	if q.Prerequisite != "" && statusOf(statuses, q.Prerequisite) != model.QuestDone {
		return &LockedError{Code: q.Code, Reason: LockPrerequisite, Level: q.Level, Prerequisite: q.Prerequisite}
	}
	return &LockedError{Code: q.Code, Reason: LockNotEvaluated, Level: q.Level}
}
