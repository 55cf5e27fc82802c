package service

import (
	"context"
	"errors"
	"time"

	"lifequest_bot/internal/cache"
	"lifequest_bot/internal/catalog"
	"lifequest_bot/internal/loot"
	"lifequest_bot/internal/model"
	"lifequest_bot/internal/repository"
	"lifequest_bot/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Options struct {
	ChoiceTTL       time.Duration
	ChoiceSize      int
	MiniEventChance float64
	Location        *time.Location
	Timeout         time.Duration
	ApartmentLevels []int
	HistoryLimit    int
}

func DefaultOptions() Options {
	return Options{
		ChoiceTTL:       72 * time.Hour,
		ChoiceSize:      3,
		MiniEventChance: 0.25,
		Location:        time.UTC,
		Timeout:         5 * time.Second,
		ApartmentLevels: []int{5, 6},
		HistoryLimit:    20,
	}
}

type ProgressionOption func(*ProgressionService)

func WithClock(now func() time.Time) ProgressionOption {
	return func(s *ProgressionService) {
		s.now = now
	}
}

func WithNotifier(n Notifier) ProgressionOption {
	return func(s *ProgressionService) {
		s.notifier = n
	}
}

// ProgressionService applies every user action against the quest graph, the
// ledger, the reward tables and the inventory. Operations for one user are
// serialized and each runs in a single storage transaction.
type ProgressionService struct {
	repo      ProgressRepository
	choices   ChoiceStore
	catalog   CatalogSource
	roller    *loot.Roller
	ledger    *LedgerService
	daily     *DailyTaskService
	inventory *InventoryService
	notifier  Notifier
	locks     *userLocks
	now       func() time.Time
	opts      Options
}

func NewProgressionService(
	repo ProgressRepository,
	choices ChoiceStore,
	catalog CatalogSource,
	roller *loot.Roller,
	opts Options,
	options ...ProgressionOption,
) *ProgressionService {
	defaults := DefaultOptions()
	if opts.ChoiceTTL <= 0 {
		opts.ChoiceTTL = defaults.ChoiceTTL
	}
	if opts.ChoiceSize <= 0 {
		opts.ChoiceSize = defaults.ChoiceSize
	}
	if opts.Location == nil {
		opts.Location = defaults.Location
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaults.HistoryLimit
	}
	if opts.ApartmentLevels == nil {
		opts.ApartmentLevels = defaults.ApartmentLevels
	}

	ledger := NewLedgerService(repo)
	s := &ProgressionService{
		repo:      repo,
		choices:   choices,
		catalog:   catalog,
		roller:    roller,
		ledger:    ledger,
		daily:     NewDailyTaskService(repo, ledger),
		inventory: NewInventoryService(repo),
		notifier:  nopNotifier{},
		locks:     newUserLocks(),
		now:       time.Now,
		opts:      opts,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

func (s *ProgressionService) today() time.Time {
	return model.CivilDay(s.now(), s.opts.Location)
}

// run serializes fn for the user and executes it in one transaction with the
// configured timeout. Failures that are not business outcomes come back as
// *StorageError.
func (s *ProgressionService) run(ctx context.Context, telegramID int64, op string, fn func(ctx context.Context) error) error {
	unlock := s.locks.Lock(telegramID)
	defer unlock()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	err := s.repo.Transaction(ctx, fn)
	if err == nil || isBusinessError(err) {
		return err
	}
	logger.Logger().Error("Progression operation failed",
		zap.String("op", op),
		zap.Int64("telegram_id", telegramID),
		zap.Error(err),
	)
	return storageError(op, err)
}

func (s *ProgressionService) notify(ctx context.Context, event Event) {
	event.At = s.now()
	s.notifier.Notify(ctx, event)
}

func (s *ProgressionService) ensureUser(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.EnsureUser(ctx, telegramID)
	if err != nil {
		return nil, storageError("failed to ensure user", err)
	}
	return user, nil
}

// ensureUnlocks activates every quest whose gates are open and returns the
// resulting statuses along with the codes it activated.
func (s *ProgressionService) ensureUnlocks(ctx context.Context, cat *catalog.Catalog, telegramID int64) (map[string]model.QuestStatus, []string, error) {
	statuses, err := s.repo.ListQuestStatuses(ctx, telegramID)
	if err != nil {
		return nil, nil, storageError("failed to list quest statuses", err)
	}

	var unlocked []string
	for _, code := range unlockable(cat, statuses, s.today()) {
		ok, err := s.repo.TransitionQuestStatus(ctx, telegramID, code, model.QuestLocked, model.QuestActive)
		if err != nil {
			return nil, nil, storageError("failed to unlock quest", err)
		}
		if ok {
			statuses[code] = model.QuestActive
			unlocked = append(unlocked, code)
			continue
		}
		status, err := s.repo.GetQuestStatus(ctx, telegramID, code)
		if err != nil {
			return nil, nil, storageError("failed to get quest status", err)
		}
		statuses[code] = status
	}
	return statuses, unlocked, nil
}

// Start registers the user on first contact.
func (s *ProgressionService) Start(ctx context.Context, telegramID int64) (*model.User, error) {
	cat := s.catalog.Load()
	var user *model.User
	err := s.run(ctx, telegramID, "start", func(ctx context.Context) error {
		var err error
		if user, err = s.ensureUser(ctx, telegramID); err != nil {
			return err
		}
		_, _, err = s.ensureUnlocks(ctx, cat, telegramID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CompleteQuest marks an active quest done, credits its coins, unlocks what
// it gates, resolves its reward and grants the level final when it was the
// last quest of its level.
func (s *ProgressionService) CompleteQuest(ctx context.Context, telegramID int64, code string) (*QuestCompletion, error) {
	cat := s.catalog.Load()
	quest, ok := cat.Quest(code)
	if !ok {
		return nil, ErrQuestNotFound
	}

	res := &QuestCompletion{Quest: quest, Coins: quest.Coins}
	err := s.run(ctx, telegramID, "complete quest", func(ctx context.Context) error {
		// A retried transaction starts from a clean result.
		*res = QuestCompletion{Quest: quest, Coins: quest.Coins}
		if _, err := s.ensureUser(ctx, telegramID); err != nil {
			return err
		}
		statuses, _, err := s.ensureUnlocks(ctx, cat, telegramID)
		if err != nil {
			return err
		}

		switch statusOf(statuses, code) {
		case model.QuestDone:
			return ErrAlreadyDone
		case model.QuestLocked:
			return lockReason(cat, statuses, quest, s.today())
		}

		flipped, err := s.repo.TransitionQuestStatus(ctx, telegramID, code, model.QuestActive, model.QuestDone)
		if err != nil {
			return storageError("failed to complete quest", err)
		}
		if !flipped {
			return ErrAlreadyDone
		}
		statuses[code] = model.QuestDone

		origin := model.QuestOrigin(code)
		if res.Balance, err = s.ledger.Credit(ctx, telegramID, quest.Coins, origin); err != nil {
			return err
		}

		// Dependents of this quest share its level, so the general pass
		// opens them along with anything a finished level opens.
		if statuses, res.Unlocked, err = s.ensureUnlocks(ctx, cat, telegramID); err != nil {
			return err
		}

		table, _ := cat.Table(quest.Rarity.Tier())
		if quest.Policy != model.PolicyChoice {
			if res.Rewards, err = s.rollRewards(ctx, telegramID, origin, quest.Rarity, 0, table); err != nil {
				return err
			}
		}

		grant, balance, err := s.grantLevelFinal(ctx, cat, telegramID, quest.Level, statuses)
		if err != nil {
			return err
		}
		if grant != nil {
			res.LevelFinal = grant
			res.Balance = balance
		}

		if quest.Policy == model.PolicyChoice {
			res.Choice = s.newChoice(telegramID, origin, quest.Rarity, table)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The choice store may live outside the database, so the offer is only
	// saved once the completion has committed.
	if res.Choice != nil {
		s.offerChoice(ctx, telegramID, res)
	}

	rewards := res.Rewards
	if res.LevelFinal != nil {
		rewards = append(append([]model.Reward(nil), rewards...), res.LevelFinal.Rewards...)
	}
	s.notify(ctx, Event{
		Type:     EventQuestCompleted,
		UserID:   telegramID,
		Balance:  res.Balance,
		Quest:    code,
		Unlocked: res.Unlocked,
		Rewards:  rewards,
		Choice:   res.Choice,
	})
	return res, nil
}

func (s *ProgressionService) rollRewards(ctx context.Context, telegramID int64, origin string, rarity model.Rarity, tier model.BoxTier, table *loot.Table) ([]model.Reward, error) {
	draw := s.roller.Open(table)
	rewards := make([]model.Reward, 0, len(draw.Rewards))
	for _, entry := range draw.Rewards {
		reward, err := s.inventory.Grant(ctx, model.Reward{
			UserID:    telegramID,
			Origin:    origin,
			Rarity:    rarity,
			Tier:      tier,
			Text:      entry.Text,
			Partner:   entry.Partner,
			CreatedAt: s.now(),
		})
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, reward)
	}
	return rewards, nil
}

func (s *ProgressionService) newChoice(telegramID int64, origin string, rarity model.Rarity, table *loot.Table) *model.PendingChoice {
	candidates := s.roller.PickDistinct(table, s.opts.ChoiceSize)
	options := make([]string, 0, len(candidates))
	for _, c := range candidates {
		options = append(options, c.Text)
	}
	if len(options) == 0 {
		options = append(options, table.Lookup(loot.Sides).Text)
	}

	return &model.PendingChoice{
		Token:     uuid.NewString(),
		UserID:    telegramID,
		Origin:    origin,
		Rarity:    rarity,
		Tier:      table.Tier,
		Options:   options,
		ExpiresAt: s.now().Add(s.opts.ChoiceTTL),
	}
}

// offerChoice saves the pending choice of a committed completion. When the
// store refuses it, the first candidate is granted outright instead so the
// completion still pays a reward.
func (s *ProgressionService) offerChoice(ctx context.Context, telegramID int64, res *QuestCompletion) {
	choice := res.Choice
	err := s.choices.SaveChoice(ctx, *choice)
	if err == nil {
		return
	}
	log := logger.Logger().With(zap.Int64("telegram_id", telegramID), zap.String("origin", choice.Origin))
	log.Error("Failed to save reward choice, granting the first option", zap.Error(err))

	res.Choice = nil
	err = s.run(ctx, telegramID, "grant choice fallback", func(ctx context.Context) error {
		reward, err := s.inventory.Grant(ctx, model.Reward{
			UserID:    telegramID,
			Origin:    choice.Origin,
			Rarity:    choice.Rarity,
			Text:      choice.Options[0],
			CreatedAt: s.now(),
		})
		if err != nil {
			return err
		}
		res.Rewards = append(res.Rewards, reward)
		return nil
	})
	if err != nil {
		log.Error("Failed to grant reward choice fallback", zap.Error(err))
	}
}

// grantLevelFinal pays the level's final bonus the first time every quest of
// the level is done. It returns the grant and the balance after it, or nil
// when nothing was granted.
func (s *ProgressionService) grantLevelFinal(ctx context.Context, cat *catalog.Catalog, telegramID int64, levelNumber int, statuses map[string]model.QuestStatus) (*LevelFinalGrant, int, error) {
	level, ok := cat.Level(levelNumber)
	if !ok || (level.Final.Coins <= 0 && len(level.Final.Cards) == 0) {
		return nil, 0, nil
	}
	if !allDone(cat.QuestsInLevel(levelNumber), statuses) {
		return nil, 0, nil
	}

	origin := model.LevelFinalOrigin(levelNumber)
	granted, err := s.repo.HasRewardOrigin(ctx, telegramID, origin)
	if err != nil {
		return nil, 0, storageError("failed to check level final", err)
	}
	if granted {
		return nil, 0, nil
	}
	claimed, err := s.repo.ClaimLevelFinal(ctx, telegramID, levelNumber)
	if err != nil {
		return nil, 0, storageError("failed to claim level final", err)
	}
	if !claimed {
		return nil, 0, nil
	}

	grant := &LevelFinalGrant{Level: levelNumber, Coins: level.Final.Coins}
	balance, err := s.ledger.Balance(ctx, telegramID)
	if err != nil {
		return nil, 0, err
	}
	if level.Final.Coins > 0 {
		if balance, err = s.ledger.Credit(ctx, telegramID, level.Final.Coins, origin); err != nil {
			return nil, 0, err
		}
	}
	for _, rarity := range level.Final.Cards {
		table, ok := cat.Table(rarity.Tier())
		if !ok {
			continue
		}
		rewards, err := s.rollRewards(ctx, telegramID, origin, rarity, 0, table)
		if err != nil {
			return nil, 0, err
		}
		grant.Rewards = append(grant.Rewards, rewards...)
	}
	if len(grant.Rewards) == 0 {
		// Keep a record so the grant shows up in the inventory.
		reward, err := s.inventory.Grant(ctx, model.Reward{
			UserID:    telegramID,
			Origin:    origin,
			Rarity:    model.RarityCommon,
			Text:      level.Title + " complete",
			CreatedAt: s.now(),
		})
		if err != nil {
			return nil, 0, err
		}
		grant.Rewards = append(grant.Rewards, reward)
	}
	return grant, balance, nil
}

// BuyBox spends the tier's cost and rolls its table once.
func (s *ProgressionService) BuyBox(ctx context.Context, telegramID int64, tier model.BoxTier) (*BoxOpening, error) {
	cat := s.catalog.Load()
	cost, ok := cat.BoxCost(tier)
	if !ok || !tier.Valid() {
		return nil, ErrUnknownBox
	}
	table, _ := cat.Table(tier)

	res := &BoxOpening{Tier: tier, Cost: cost}
	err := s.run(ctx, telegramID, "buy box", func(ctx context.Context) error {
		*res = BoxOpening{Tier: tier, Cost: cost}
		if _, err := s.ensureUser(ctx, telegramID); err != nil {
			return err
		}

		origin := model.LootboxOrigin(tier)
		balance, err := s.ledger.Spend(ctx, telegramID, cost, origin)
		if err != nil {
			return err
		}
		res.Balance = balance

		draw := s.roller.Open(table)
		res.Roll = draw.Roll
		for _, entry := range draw.Rewards {
			reward, err := s.inventory.Grant(ctx, model.Reward{
				UserID:    telegramID,
				Origin:    origin,
				Rarity:    tier.Rarity(),
				Tier:      tier,
				Text:      entry.Text,
				Partner:   entry.Partner,
				CreatedAt: s.now(),
			})
			if err != nil {
				return err
			}
			res.Rewards = append(res.Rewards, reward)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if events := cat.MiniEvents(); len(events) > 0 && s.roller.Chance(s.opts.MiniEventChance) {
		event := events[s.roller.IntN(len(events))]
		res.MiniEvent = &event
	}

	s.notify(ctx, Event{Type: EventBoxOpened, UserID: telegramID, Balance: res.Balance, Rewards: res.Rewards})
	return res, nil
}

// ToggleDaily flips today's state of a daily task.
func (s *ProgressionService) ToggleDaily(ctx context.Context, telegramID int64, code string) (*DailyToggle, error) {
	cat := s.catalog.Load()
	task, ok := cat.DailyTask(code)
	if !ok {
		return nil, ErrUnknownTask
	}

	day := s.today().Format(model.DayLayout)
	res := &DailyToggle{Task: task, Day: day}
	err := s.run(ctx, telegramID, "toggle daily", func(ctx context.Context) error {
		if _, err := s.ensureUser(ctx, telegramID); err != nil {
			return err
		}
		var err error
		res.Done, res.Balance, err = s.daily.Toggle(ctx, telegramID, task, day)
		return err
	})
	if err != nil {
		return nil, err
	}

	res.Delta = task.Coins
	if !res.Done {
		res.Delta = -task.Coins
	} else {
		res.Suggestion = s.roller.Pick(task.Examples)
	}

	s.notify(ctx, Event{Type: EventDailyToggled, UserID: telegramID, Balance: res.Balance, Daily: code})
	return res, nil
}

func isMissing(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, cache.ErrNotFound)
}

// Choice returns a live offer owned by the user.
func (s *ProgressionService) Choice(ctx context.Context, telegramID int64, token string) (*model.PendingChoice, error) {
	choice, err := s.choices.GetChoice(ctx, token)
	if err != nil {
		if isMissing(err) {
			return nil, ErrChoiceNotFound
		}
		return nil, storageError("failed to get choice", err)
	}
	if choice.UserID != telegramID || choice.Expired(s.now()) {
		return nil, ErrChoiceNotFound
	}
	return choice, nil
}

// PickReward turns option index of a pending choice into a reward record and
// consumes the choice.
func (s *ProgressionService) PickReward(ctx context.Context, telegramID int64, token string, index int) (*RewardPick, error) {
	cat := s.catalog.Load()
	res := &RewardPick{}
	err := s.run(ctx, telegramID, "pick reward", func(ctx context.Context) error {
		choice, err := s.Choice(ctx, telegramID, token)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(choice.Options) {
			return ErrChoiceNotFound
		}

		text := choice.Options[index]
		var partner bool
		if table, ok := cat.Table(choice.Tier); ok {
			if entry, ok := table.Find(text); ok {
				partner = entry.Partner
			}
		}
		tier := choice.Tier
		if model.OriginKind(choice.Origin) != model.OriginLootbox {
			tier = 0
		}

		if res.Reward, err = s.inventory.Grant(ctx, model.Reward{
			UserID:    telegramID,
			Origin:    choice.Origin,
			Rarity:    choice.Rarity,
			Tier:      tier,
			Text:      text,
			Partner:   partner,
			CreatedAt: s.now(),
		}); err != nil {
			return err
		}
		if res.Balance, err = s.ledger.Balance(ctx, telegramID); err != nil {
			return err
		}

		// Consumed last: a failed grant leaves the offer in place, and a
		// choice someone else already consumed rolls the grant back.
		consumed, err := s.choices.DeleteChoice(ctx, token)
		if err != nil {
			return storageError("failed to consume choice", err)
		}
		if !consumed {
			return ErrChoiceNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, Event{Type: EventRewardPicked, UserID: telegramID, Balance: res.Balance, Rewards: []model.Reward{res.Reward}})
	return res, nil
}

func (s *ProgressionService) MarkRewardUsed(ctx context.Context, telegramID, rewardID int64) (*model.Reward, error) {
	var reward *model.Reward
	err := s.run(ctx, telegramID, "mark reward used", func(ctx context.Context) error {
		var err error
		reward, err = s.inventory.MarkUsed(ctx, telegramID, rewardID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, Event{Type: EventRewardUsed, UserID: telegramID, Rewards: []model.Reward{*reward}})
	return reward, nil
}

// Reset wipes the user's progress and starts over with the starting balance.
func (s *ProgressionService) Reset(ctx context.Context, telegramID int64) (*model.User, error) {
	cat := s.catalog.Load()
	var user *model.User
	err := s.run(ctx, telegramID, "reset", func(ctx context.Context) error {
		if err := s.repo.DeleteAllForUser(ctx, telegramID); err != nil {
			return storageError("failed to delete progress", err)
		}
		var err error
		if user, err = s.ensureUser(ctx, telegramID); err != nil {
			return err
		}
		_, _, err = s.ensureUnlocks(ctx, cat, telegramID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Offers are dropped after the wipe commits. Reset is idempotent, so a
	// failure here is reported and the caller may simply reset again.
	if err := s.choices.DeleteUserChoices(ctx, telegramID); err != nil {
		logger.Logger().Error("Failed to delete reward choices", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, storageError("failed to delete choices", err)
	}

	logger.Logger().Info("Progress reset", zap.Int64("telegram_id", telegramID))
	s.notify(ctx, Event{Type: EventProgressReset, UserID: telegramID, Balance: user.Balance})
	return user, nil
}

func (s *ProgressionService) Transactions(ctx context.Context, telegramID int64, limit int) ([]model.CoinTransaction, error) {
	var txs []model.CoinTransaction
	err := s.run(ctx, telegramID, "list transactions", func(ctx context.Context) error {
		var err error
		txs, err = s.ledger.Journal(ctx, telegramID, limit)
		return err
	})
	return txs, err
}
