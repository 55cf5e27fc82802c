package mocks

import (
	"context"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockProgressionService struct {
	mock.Mock
}

func (m *MockProgressionService) Start(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockProgressionService) Profile(ctx context.Context, telegramID int64) (*service.Profile, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Profile), args.Error(1)
}

func (m *MockProgressionService) Levels(ctx context.Context, telegramID int64) ([]service.LevelView, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.LevelView), args.Error(1)
}

func (m *MockProgressionService) Level(ctx context.Context, telegramID int64, level int) (*service.LevelView, error) {
	args := m.Called(ctx, telegramID, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LevelView), args.Error(1)
}

func (m *MockProgressionService) Quest(ctx context.Context, telegramID int64, code string) (*service.QuestView, error) {
	args := m.Called(ctx, telegramID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QuestView), args.Error(1)
}

func (m *MockProgressionService) CompleteQuest(ctx context.Context, telegramID int64, code string) (*service.QuestCompletion, error) {
	args := m.Called(ctx, telegramID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QuestCompletion), args.Error(1)
}

func (m *MockProgressionService) Dailies(ctx context.Context, telegramID int64) (*service.DailyBoard, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DailyBoard), args.Error(1)
}

func (m *MockProgressionService) ToggleDaily(ctx context.Context, telegramID int64, code string) (*service.DailyToggle, error) {
	args := m.Called(ctx, telegramID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DailyToggle), args.Error(1)
}

func (m *MockProgressionService) Boxes(ctx context.Context, telegramID int64) (*service.BoxShelf, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BoxShelf), args.Error(1)
}

func (m *MockProgressionService) BuyBox(ctx context.Context, telegramID int64, tier model.BoxTier) (*service.BoxOpening, error) {
	args := m.Called(ctx, telegramID, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BoxOpening), args.Error(1)
}

func (m *MockProgressionService) Choice(ctx context.Context, telegramID int64, token string) (*model.PendingChoice, error) {
	args := m.Called(ctx, telegramID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PendingChoice), args.Error(1)
}

func (m *MockProgressionService) PickReward(ctx context.Context, telegramID int64, token string, index int) (*service.RewardPick, error) {
	args := m.Called(ctx, telegramID, token, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RewardPick), args.Error(1)
}

func (m *MockProgressionService) Inventory(ctx context.Context, telegramID int64) (*service.Inventory, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Inventory), args.Error(1)
}

func (m *MockProgressionService) MarkRewardUsed(ctx context.Context, telegramID int64, rewardID int64) (*model.Reward, error) {
	args := m.Called(ctx, telegramID, rewardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reward), args.Error(1)
}

func (m *MockProgressionService) Transactions(ctx context.Context, telegramID int64, limit int) ([]model.CoinTransaction, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CoinTransaction), args.Error(1)
}

func (m *MockProgressionService) Reset(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event service.Event) {
	m.Called(ctx, event)
}
