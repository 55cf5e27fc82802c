package service_test

import (
	"context"
	"errors"
	"testing"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/service"
	"lifequest_bot/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var standardTask = model.DailyTask{Code: "standard", Title: "Standard task", Coins: 4}

const toggleDay = "2025-03-01"

func TestDailyTaskService_Toggle(t *testing.T) {
	tests := []struct {
		name            string
		mockSetup       func(daily *mocks.MockDailyRepository, ledger *mocks.MockLedgerRepository)
		expectedDone    bool
		expectedBalance int
		expectedError   error
	}{
		{
			name: "Mark done credits coins",
			mockSetup: func(daily *mocks.MockDailyRepository, ledger *mocks.MockLedgerRepository) {
				daily.On("GetDailyDone", mock.Anything, int64(1), "standard", toggleDay).Return(false, nil)
				daily.On("SetDailyDone", mock.Anything, int64(1), "standard", toggleDay, true).Return(nil)
				ledger.On("AddBalance", mock.Anything, int64(1), 4, "daily:standard:"+toggleDay).Return(9, nil)
			},
			expectedDone:    true,
			expectedBalance: 9,
		},
		{
			name: "Undo debits coins",
			mockSetup: func(daily *mocks.MockDailyRepository, ledger *mocks.MockLedgerRepository) {
				daily.On("GetDailyDone", mock.Anything, int64(1), "standard", toggleDay).Return(true, nil)
				ledger.On("GetBalance", mock.Anything, int64(1)).Return(9, nil)
				daily.On("SetDailyDone", mock.Anything, int64(1), "standard", toggleDay, false).Return(nil)
				ledger.On("AddBalance", mock.Anything, int64(1), -4, "daily-undo:standard:"+toggleDay).Return(5, nil)
			},
			expectedDone:    false,
			expectedBalance: 5,
		},
		{
			name: "Undo refused when coins were spent",
			mockSetup: func(daily *mocks.MockDailyRepository, ledger *mocks.MockLedgerRepository) {
				daily.On("GetDailyDone", mock.Anything, int64(1), "standard", toggleDay).Return(true, nil)
				ledger.On("GetBalance", mock.Anything, int64(1)).Return(3, nil)
			},
			expectedDone:    true,
			expectedBalance: 3,
			expectedError:   service.ErrInsufficientFunds,
		},
		{
			name: "Storage failure",
			mockSetup: func(daily *mocks.MockDailyRepository, ledger *mocks.MockLedgerRepository) {
				daily.On("GetDailyDone", mock.Anything, int64(1), "standard", toggleDay).Return(false, errors.New("locked"))
			},
			expectedError: service.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			daily := &mocks.MockDailyRepository{}
			ledger := &mocks.MockLedgerRepository{}
			tt.mockSetup(daily, ledger)

			svc := service.NewDailyTaskService(daily, service.NewLedgerService(ledger))
			done, balance, err := svc.Toggle(context.Background(), 1, standardTask, toggleDay)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expectedDone, done)
			assert.Equal(t, tt.expectedBalance, balance)
			daily.AssertExpectations(t)
			ledger.AssertExpectations(t)
		})
	}
}

func TestDailyTaskService_States(t *testing.T) {
	daily := &mocks.MockDailyRepository{}
	daily.On("ListDailyDone", mock.Anything, int64(2), toggleDay).Return(map[string]bool{"standard": true}, nil)

	small := model.DailyTask{Code: "small", Coins: 2}
	svc := service.NewDailyTaskService(daily, service.NewLedgerService(&mocks.MockLedgerRepository{}))

	states, err := svc.States(context.Background(), 2, []model.DailyTask{small, standardTask}, toggleDay)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.False(t, states[0].Done)
	assert.True(t, states[1].Done)
	assert.Equal(t, "standard", states[1].Task.Code)
}
