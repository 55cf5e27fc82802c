package service

import (
	"context"
	"fmt"

	"lifequest_bot/internal/model"
)

type DailyTaskService struct {
	repo   DailyRepository
	ledger *LedgerService
}

func NewDailyTaskService(repo DailyRepository, ledger *LedgerService) *DailyTaskService {
	return &DailyTaskService{
		repo:   repo,
		ledger: ledger,
	}
}

// Toggle flips the task's state for day and moves its coins accordingly.
// Undoing is refused when the balance no longer covers the coins.
func (s *DailyTaskService) Toggle(ctx context.Context, telegramID int64, task model.DailyTask, day string) (bool, int, error) {
	done, err := s.repo.GetDailyDone(ctx, telegramID, task.Code, day)
	if err != nil {
		return false, 0, storageError("failed to get daily state", err)
	}

	if !done {
		if err = s.repo.SetDailyDone(ctx, telegramID, task.Code, day, true); err != nil {
			return false, 0, storageError("failed to set daily state", err)
		}
		balance, err := s.ledger.Credit(ctx, telegramID, task.Coins, dailyReason("daily", task.Code, day))
		if err != nil {
			return false, 0, err
		}
		return true, balance, nil
	}

	balance, err := s.ledger.Balance(ctx, telegramID)
	if err != nil {
		return true, 0, err
	}
	if balance < task.Coins {
		return true, balance, fmt.Errorf("%w: balance %d, undo needs %d", ErrInsufficientFunds, balance, task.Coins)
	}

	if err = s.repo.SetDailyDone(ctx, telegramID, task.Code, day, false); err != nil {
		return true, 0, storageError("failed to set daily state", err)
	}
	balance, err = s.ledger.Credit(ctx, telegramID, -task.Coins, dailyReason("daily-undo", task.Code, day))
	if err != nil {
		return true, 0, err
	}
	return false, balance, nil
}

func (s *DailyTaskService) States(ctx context.Context, telegramID int64, tasks []model.DailyTask, day string) ([]model.DailyState, error) {
	done, err := s.repo.ListDailyDone(ctx, telegramID, day)
	if err != nil {
		return nil, storageError("failed to list daily state", err)
	}

	states := make([]model.DailyState, 0, len(tasks))
	for _, task := range tasks {
		states = append(states, model.DailyState{Task: task, Done: done[task.Code]})
	}
	return states, nil
}

func dailyReason(kind, code, day string) string {
	return kind + ":" + code + ":" + day
}
