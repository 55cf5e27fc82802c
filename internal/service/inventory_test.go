package service_test

import (
	"context"
	"testing"
	"time"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/repository"
	"lifequest_bot/internal/service"
	"lifequest_bot/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInventoryService_MarkUsed(t *testing.T) {
	usedAt := time.Date(2025, time.March, 2, 9, 0, 0, 0, time.UTC)
	owned := &model.Reward{ID: 10, UserID: 1, Origin: "quest:0.1", Text: "Coffee date"}
	used := &model.Reward{ID: 10, UserID: 1, Origin: "quest:0.1", Text: "Coffee date", Used: true, UsedAt: &usedAt}

	tests := []struct {
		name          string
		telegramID    int64
		mockSetup     func(m *mocks.MockRewardRepository)
		expectedError error
	}{
		{
			name:       "Redeem own reward",
			telegramID: 1,
			mockSetup: func(m *mocks.MockRewardRepository) {
				m.On("GetReward", mock.Anything, int64(10)).Return(owned, nil).Once()
				m.On("MarkRewardUsed", mock.Anything, int64(10)).Return(true, nil)
				m.On("GetReward", mock.Anything, int64(10)).Return(used, nil).Once()
			},
		},
		{
			name:       "Someone else's reward",
			telegramID: 2,
			mockSetup: func(m *mocks.MockRewardRepository) {
				m.On("GetReward", mock.Anything, int64(10)).Return(owned, nil)
			},
			expectedError: service.ErrRewardNotFound,
		},
		{
			name:       "Missing reward",
			telegramID: 1,
			mockSetup: func(m *mocks.MockRewardRepository) {
				m.On("GetReward", mock.Anything, int64(10)).Return(nil, repository.ErrNotFound)
			},
			expectedError: service.ErrRewardNotFound,
		},
		{
			name:       "Already used",
			telegramID: 1,
			mockSetup: func(m *mocks.MockRewardRepository) {
				m.On("GetReward", mock.Anything, int64(10)).Return(used, nil)
			},
			expectedError: service.ErrAlreadyUsed,
		},
		{
			name:       "Lost the race",
			telegramID: 1,
			mockSetup: func(m *mocks.MockRewardRepository) {
				m.On("GetReward", mock.Anything, int64(10)).Return(owned, nil)
				m.On("MarkRewardUsed", mock.Anything, int64(10)).Return(false, nil)
			},
			expectedError: service.ErrAlreadyUsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockRewardRepository{}
			tt.mockSetup(repo)

			reward, err := service.NewInventoryService(repo).MarkUsed(context.Background(), tt.telegramID, 10)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, reward)
			} else {
				require.NoError(t, err)
				assert.True(t, reward.Used)
				assert.Equal(t, &usedAt, reward.UsedAt)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestInventoryService_Grant(t *testing.T) {
	repo := &mocks.MockRewardRepository{}
	repo.On("InsertReward", mock.Anything, mock.MatchedBy(func(r *model.Reward) bool {
		return r.Text == "Spa day" && !r.Used && r.UsedAt == nil
	})).Return(int64(42), nil)

	usedAt := time.Now()
	reward, err := service.NewInventoryService(repo).Grant(context.Background(), model.Reward{
		UserID: 1,
		Origin: model.LootboxOrigin(model.TierLarge),
		Tier:   model.TierLarge,
		Text:   "Spa day",
		Used:   true,
		UsedAt: &usedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), reward.ID)
	assert.False(t, reward.Used)
	repo.AssertExpectations(t)
}
