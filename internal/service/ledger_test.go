package service_test

import (
	"context"
	"errors"
	"testing"

	"lifequest_bot/internal/repository"
	"lifequest_bot/internal/service"
	"lifequest_bot/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLedgerService_Spend(t *testing.T) {
	tests := []struct {
		name            string
		balance         int
		balanceErr      error
		cost            int
		mockSetup       func(m *mocks.MockLedgerRepository)
		expectedBalance int
		expectedError   error
	}{
		{
			name:            "Enough coins",
			balance:         25,
			cost:            20,
			expectedBalance: 5,
			mockSetup: func(m *mocks.MockLedgerRepository) {
				m.On("AddBalance", mock.Anything, int64(1), -20, "lootbox:2").Return(5, nil)
			},
		},
		{
			name:            "Exact balance",
			balance:         20,
			cost:            20,
			expectedBalance: 0,
			mockSetup: func(m *mocks.MockLedgerRepository) {
				m.On("AddBalance", mock.Anything, int64(1), -20, "lootbox:2").Return(0, nil)
			},
		},
		{
			name:            "Not enough coins",
			balance:         19,
			cost:            20,
			expectedBalance: 19,
			expectedError:   service.ErrInsufficientFunds,
		},
		{
			name:          "Unknown user",
			balanceErr:    repository.ErrNotFound,
			cost:          20,
			expectedError: service.ErrUserNotFound,
		},
		{
			name:          "Storage failure",
			balanceErr:    errors.New("connection reset"),
			cost:          20,
			expectedError: service.ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockLedgerRepository{}
			repo.On("GetBalance", mock.Anything, int64(1)).Return(tt.balance, tt.balanceErr)
			if tt.mockSetup != nil {
				tt.mockSetup(repo)
			}

			balance, err := service.NewLedgerService(repo).Spend(context.Background(), 1, tt.cost, "lootbox:2")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				repo.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedBalance, balance)
			repo.AssertExpectations(t)
		})
	}
}

func TestLedgerService_Credit(t *testing.T) {
	repo := &mocks.MockLedgerRepository{}
	repo.On("AddBalance", mock.Anything, int64(3), 7, "quest:1.7").Return(12, nil).Once()
	repo.On("AddBalance", mock.Anything, int64(3), 5, "quest:1.1").Return(0, errors.New("disk full")).Once()

	ledger := service.NewLedgerService(repo)

	balance, err := ledger.Credit(context.Background(), 3, 7, "quest:1.7")
	assert.NoError(t, err)
	assert.Equal(t, 12, balance)

	_, err = ledger.Credit(context.Background(), 3, 5, "quest:1.1")
	assert.ErrorIs(t, err, service.ErrStorage)

	var storageErr *service.StorageError
	assert.ErrorAs(t, err, &storageErr)
	repo.AssertExpectations(t)
}
