package service

import (
	"context"
	"errors"
	"fmt"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/repository"
)

// LedgerService owns coin balances. Credits never fail on a low balance;
// spending goes through Spend, which checks first.
type LedgerService struct {
	repo LedgerRepository
}

func NewLedgerService(repo LedgerRepository) *LedgerService {
	return &LedgerService{
		repo: repo,
	}
}

func (s *LedgerService) Balance(ctx context.Context, telegramID int64) (int, error) {
	balance, err := s.repo.GetBalance(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, storageError("failed to get balance", err)
	}
	return balance, nil
}

// Credit adds amount (negative to debit) and returns the new balance.
func (s *LedgerService) Credit(ctx context.Context, telegramID int64, amount int, reason string) (int, error) {
	balance, err := s.repo.AddBalance(ctx, telegramID, amount, reason)
	if err != nil {
		return 0, storageError("failed to update balance", err)
	}
	return balance, nil
}

// Spend debits cost if the balance covers it.
func (s *LedgerService) Spend(ctx context.Context, telegramID int64, cost int, reason string) (int, error) {
	balance, err := s.Balance(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	if balance < cost {
		return balance, fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, balance, cost)
	}
	return s.Credit(ctx, telegramID, -cost, reason)
}

func (s *LedgerService) Journal(ctx context.Context, telegramID int64, limit int) ([]model.CoinTransaction, error) {
	txs, err := s.repo.ListTransactions(ctx, telegramID, limit)
	if err != nil {
		return nil, storageError("failed to list transactions", err)
	}
	return txs, nil
}
