package mocks

import (
	"context"

	"lifequest_bot/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) EnsureUser(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockLedgerRepository) GetBalance(ctx context.Context, telegramID int64) (int, error) {
	args := m.Called(ctx, telegramID)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerRepository) AddBalance(ctx context.Context, telegramID int64, delta int, reason string) (int, error) {
	args := m.Called(ctx, telegramID, delta, reason)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactions(ctx context.Context, telegramID int64, limit int) ([]model.CoinTransaction, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CoinTransaction), args.Error(1)
}

type MockDailyRepository struct {
	mock.Mock
}

func (m *MockDailyRepository) GetDailyDone(ctx context.Context, telegramID int64, code, day string) (bool, error) {
	args := m.Called(ctx, telegramID, code, day)
	return args.Bool(0), args.Error(1)
}

func (m *MockDailyRepository) SetDailyDone(ctx context.Context, telegramID int64, code, day string, done bool) error {
	args := m.Called(ctx, telegramID, code, day, done)
	return args.Error(0)
}

func (m *MockDailyRepository) ListDailyDone(ctx context.Context, telegramID int64, day string) (map[string]bool, error) {
	args := m.Called(ctx, telegramID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

type MockRewardRepository struct {
	mock.Mock
}

func (m *MockRewardRepository) InsertReward(ctx context.Context, reward *model.Reward) (int64, error) {
	args := m.Called(ctx, reward)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRewardRepository) GetReward(ctx context.Context, id int64) (*model.Reward, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reward), args.Error(1)
}

func (m *MockRewardRepository) ListActiveRewards(ctx context.Context, telegramID int64) ([]model.Reward, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reward), args.Error(1)
}

func (m *MockRewardRepository) ListRewards(ctx context.Context, telegramID int64, limit int) ([]model.Reward, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Reward), args.Error(1)
}

func (m *MockRewardRepository) MarkRewardUsed(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRewardRepository) HasRewardOrigin(ctx context.Context, telegramID int64, origin string) (bool, error) {
	args := m.Called(ctx, telegramID, origin)
	return args.Bool(0), args.Error(1)
}

func (m *MockRewardRepository) ClaimLevelFinal(ctx context.Context, telegramID int64, level int) (bool, error) {
	args := m.Called(ctx, telegramID, level)
	return args.Bool(0), args.Error(1)
}
