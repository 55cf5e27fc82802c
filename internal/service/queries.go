package service

import (
	"context"

	"lifequest_bot/internal/catalog"
	"lifequest_bot/internal/model"
)

func (s *ProgressionService) levelView(cat *catalog.Catalog, statuses map[string]model.QuestStatus, level model.Level) LevelView {
	day := s.today()
	quests := cat.QuestsInLevel(level.Number)
	view := LevelView{
		Level:    level,
		Open:     level.IsOpen(day),
		Unlocked: levelUnlocked(cat, statuses, level, day),
		Done:     countDone(quests, statuses),
		Total:    len(quests),
		Quests:   make([]QuestView, 0, len(quests)),
	}
	for _, q := range quests {
		view.Quests = append(view.Quests, s.questView(cat, statuses, q))
	}
	return view
}

func (s *ProgressionService) questView(cat *catalog.Catalog, statuses map[string]model.QuestStatus, q model.Quest) QuestView {
	view := QuestView{Quest: q, Status: statusOf(statuses, q.Code), Unlocks: cat.Dependents(q.Code)}
	if view.Status == model.QuestLocked {
		view.Lock = lockReason(cat, statuses, q, s.today())
	}
	return view
}

// statuses brings the user's unlocks up to date and returns the quest map.
func (s *ProgressionService) statuses(ctx context.Context, cat *catalog.Catalog, telegramID int64) (map[string]model.QuestStatus, error) {
	if _, err := s.ensureUser(ctx, telegramID); err != nil {
		return nil, err
	}
	statuses, _, err := s.ensureUnlocks(ctx, cat, telegramID)
	return statuses, err
}

func (s *ProgressionService) Levels(ctx context.Context, telegramID int64) ([]LevelView, error) {
	cat := s.catalog.Load()
	var views []LevelView
	err := s.run(ctx, telegramID, "list levels", func(ctx context.Context) error {
		statuses, err := s.statuses(ctx, cat, telegramID)
		if err != nil {
			return err
		}
		for _, level := range cat.Levels() {
			views = append(views, s.levelView(cat, statuses, level))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *ProgressionService) Level(ctx context.Context, telegramID int64, number int) (*LevelView, error) {
	cat := s.catalog.Load()
	level, ok := cat.Level(number)
	if !ok {
		return nil, ErrLevelNotFound
	}

	var view LevelView
	err := s.run(ctx, telegramID, "get level", func(ctx context.Context) error {
		statuses, err := s.statuses(ctx, cat, telegramID)
		if err != nil {
			return err
		}
		view = s.levelView(cat, statuses, level)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *ProgressionService) Quest(ctx context.Context, telegramID int64, code string) (*QuestView, error) {
	cat := s.catalog.Load()
	quest, ok := cat.Quest(code)
	if !ok {
		return nil, ErrQuestNotFound
	}

	var view QuestView
	err := s.run(ctx, telegramID, "get quest", func(ctx context.Context) error {
		statuses, err := s.statuses(ctx, cat, telegramID)
		if err != nil {
			return err
		}
		view = s.questView(cat, statuses, quest)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Profile summarizes progress per level, the apartment track and the
// rewards collected so far.
func (s *ProgressionService) Profile(ctx context.Context, telegramID int64) (*Profile, error) {
	cat := s.catalog.Load()
	profile := &Profile{RarityCounts: make(map[model.Rarity]int)}
	err := s.run(ctx, telegramID, "get profile", func(ctx context.Context) error {
		user, err := s.ensureUser(ctx, telegramID)
		if err != nil {
			return err
		}
		statuses, _, err := s.ensureUnlocks(ctx, cat, telegramID)
		if err != nil {
			return err
		}
		profile.User = *user
		if profile.User.Balance, err = s.ledger.Balance(ctx, telegramID); err != nil {
			return err
		}

		for _, level := range cat.Levels() {
			profile.Levels = append(profile.Levels, s.levelView(cat, statuses, level))
		}
		for _, number := range s.opts.ApartmentLevels {
			quests := cat.QuestsInLevel(number)
			profile.Apartment.Done += countDone(quests, statuses)
			profile.Apartment.Total += len(quests)
		}

		rewards, err := s.inventory.History(ctx, telegramID, 0)
		if err != nil {
			return err
		}
		for _, r := range rewards {
			profile.RarityCounts[r.Rarity]++
			if !r.Used {
				profile.ActiveRewards++
			}
		}
		profile.TotalRewards = len(rewards)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProgressionService) Dailies(ctx context.Context, telegramID int64) (*DailyBoard, error) {
	cat := s.catalog.Load()
	board := &DailyBoard{Day: s.today().Format(model.DayLayout)}
	err := s.run(ctx, telegramID, "list dailies", func(ctx context.Context) error {
		if _, err := s.ensureUser(ctx, telegramID); err != nil {
			return err
		}
		var err error
		if board.Tasks, err = s.daily.States(ctx, telegramID, cat.DailyTasks(), board.Day); err != nil {
			return err
		}
		board.Balance, err = s.ledger.Balance(ctx, telegramID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

func (s *ProgressionService) Boxes(ctx context.Context, telegramID int64) (*BoxShelf, error) {
	cat := s.catalog.Load()
	shelf := &BoxShelf{}
	err := s.run(ctx, telegramID, "list boxes", func(ctx context.Context) error {
		if _, err := s.ensureUser(ctx, telegramID); err != nil {
			return err
		}
		var err error
		shelf.Balance, err = s.ledger.Balance(ctx, telegramID)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, tier := range model.Tiers() {
		cost, ok := cat.BoxCost(tier)
		if !ok {
			continue
		}
		shelf.Boxes = append(shelf.Boxes, BoxOffer{
			Tier:       tier,
			Name:       tier.Name(),
			Cost:       cost,
			Affordable: shelf.Balance >= cost,
		})
	}
	return shelf, nil
}

func (s *ProgressionService) Inventory(ctx context.Context, telegramID int64) (*Inventory, error) {
	inv := &Inventory{}
	err := s.run(ctx, telegramID, "get inventory", func(ctx context.Context) error {
		var err error
		if inv.Active, err = s.inventory.Active(ctx, telegramID); err != nil {
			return err
		}
		inv.Recent, err = s.inventory.History(ctx, telegramID, s.opts.HistoryLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}
