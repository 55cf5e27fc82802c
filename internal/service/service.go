package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifequest_bot/internal/catalog"
	"lifequest_bot/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyDone       = errors.New("already done")
	ErrAlreadyUsed       = errors.New("already used")
	ErrLocked            = errors.New("locked")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStorage           = errors.New("storage unavailable")

	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrQuestNotFound  = fmt.Errorf("quest %w", ErrNotFound)
	ErrLevelNotFound  = fmt.Errorf("level %w", ErrNotFound)
	ErrUnknownTask    = fmt.Errorf("daily task %w", ErrNotFound)
	ErrUnknownBox     = fmt.Errorf("box tier %w", ErrNotFound)
	ErrRewardNotFound = fmt.Errorf("reward %w", ErrNotFound)
	ErrChoiceNotFound = fmt.Errorf("choice %w", ErrNotFound)
)

type LockReason string

const (
	LockLevelNotOpen LockReason = "level_not_open"
	LockEarlierLevel LockReason = "earlier_level_incomplete"
	LockPrerequisite LockReason = "prerequisite_pending"
	LockNotEvaluated LockReason = "not_evaluated"
)

// LockedError explains why a quest cannot be completed yet.
type LockedError struct {
	Code         string
	Reason       LockReason
	OpensAt      time.Time
	Level        int
	Prerequisite string
}

func (e *LockedError) Error() string {
	switch e.Reason {
	case LockLevelNotOpen:
		return fmt.Sprintf("quest %s locked: level opens on %s", e.Code, e.OpensAt.Format(model.DayLayout))
	case LockEarlierLevel:
		return fmt.Sprintf("quest %s locked: level %d is not finished", e.Code, e.Level)
	case LockPrerequisite:
		return fmt.Sprintf("quest %s locked: finish %s first", e.Code, e.Prerequisite)
	}
	return fmt.Sprintf("quest %s locked", e.Code)
}

func (e *LockedError) Unwrap() error {
	return ErrLocked
}

// StorageError wraps a failure of the row store. The operation it belongs to
// was rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func isBusinessError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyDone) ||
		errors.Is(err, ErrAlreadyUsed) ||
		errors.Is(err, ErrLocked) ||
		errors.Is(err, ErrInsufficientFunds)
}

type LedgerRepository interface {
	EnsureUser(ctx context.Context, telegramID int64) (*model.User, error)
	GetBalance(ctx context.Context, telegramID int64) (int, error)
	AddBalance(ctx context.Context, telegramID int64, delta int, reason string) (int, error)
	ListTransactions(ctx context.Context, telegramID int64, limit int) ([]model.CoinTransaction, error)
}

type QuestRepository interface {
	GetQuestStatus(ctx context.Context, telegramID int64, code string) (model.QuestStatus, error)
	ListQuestStatuses(ctx context.Context, telegramID int64) (map[string]model.QuestStatus, error)
	SetQuestStatus(ctx context.Context, telegramID int64, code string, status model.QuestStatus) error
	TransitionQuestStatus(ctx context.Context, telegramID int64, code string, from, to model.QuestStatus) (bool, error)
}

type DailyRepository interface {
	GetDailyDone(ctx context.Context, telegramID int64, code, day string) (bool, error)
	SetDailyDone(ctx context.Context, telegramID int64, code, day string, done bool) error
	ListDailyDone(ctx context.Context, telegramID int64, day string) (map[string]bool, error)
}

type RewardRepository interface {
	InsertReward(ctx context.Context, reward *model.Reward) (int64, error)
	GetReward(ctx context.Context, id int64) (*model.Reward, error)
	ListActiveRewards(ctx context.Context, telegramID int64) ([]model.Reward, error)
	ListRewards(ctx context.Context, telegramID int64, limit int) ([]model.Reward, error)
	MarkRewardUsed(ctx context.Context, id int64) (bool, error)
	HasRewardOrigin(ctx context.Context, telegramID int64, origin string) (bool, error)
	ClaimLevelFinal(ctx context.Context, telegramID int64, level int) (bool, error)
}

// ProgressRepository is the row store the engine runs on. Calls made with the
// context passed to Transaction's callback join that transaction.
type ProgressRepository interface {
	LedgerRepository
	QuestRepository
	DailyRepository
	RewardRepository
	DeleteAllForUser(ctx context.Context, telegramID int64) error
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ChoiceStore keeps pending reward choices until they are picked.
type ChoiceStore interface {
	SaveChoice(ctx context.Context, choice model.PendingChoice) error
	GetChoice(ctx context.Context, token string) (*model.PendingChoice, error)
	DeleteChoice(ctx context.Context, token string) (bool, error)
	DeleteUserChoices(ctx context.Context, telegramID int64) error
}

type ProgressionServiceI interface {
	Start(ctx context.Context, telegramID int64) (*model.User, error)
	Profile(ctx context.Context, telegramID int64) (*Profile, error)
	Levels(ctx context.Context, telegramID int64) ([]LevelView, error)
	Level(ctx context.Context, telegramID int64, level int) (*LevelView, error)
	Quest(ctx context.Context, telegramID int64, code string) (*QuestView, error)
	CompleteQuest(ctx context.Context, telegramID int64, code string) (*QuestCompletion, error)
	Dailies(ctx context.Context, telegramID int64) (*DailyBoard, error)
	ToggleDaily(ctx context.Context, telegramID int64, code string) (*DailyToggle, error)
	Boxes(ctx context.Context, telegramID int64) (*BoxShelf, error)
	BuyBox(ctx context.Context, telegramID int64, tier model.BoxTier) (*BoxOpening, error)
	Choice(ctx context.Context, telegramID int64, token string) (*model.PendingChoice, error)
	PickReward(ctx context.Context, telegramID int64, token string, index int) (*RewardPick, error)
	Inventory(ctx context.Context, telegramID int64) (*Inventory, error)
	MarkRewardUsed(ctx context.Context, telegramID int64, rewardID int64) (*model.Reward, error)
	Transactions(ctx context.Context, telegramID int64, limit int) ([]model.CoinTransaction, error)
	Reset(ctx context.Context, telegramID int64) (*model.User, error)
}

type CatalogSource interface {
	Load() *catalog.Catalog
}
