package service

import (
	"context"
	"errors"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/repository"
)

type InventoryService struct {
	repo RewardRepository
}

func NewInventoryService(repo RewardRepository) *InventoryService {
	return &InventoryService{
		repo: repo,
	}
}

// Grant appends a reward record and returns it with its id.
func (s *InventoryService) Grant(ctx context.Context, reward model.Reward) (model.Reward, error) {
	reward.Used = false
	reward.UsedAt = nil
	id, err := s.repo.InsertReward(ctx, &reward)
	if err != nil {
		return model.Reward{}, storageError("failed to grant reward", err)
	}
	reward.ID = id
	return reward, nil
}

// MarkUsed redeems a reward owned by telegramID. A reward owned by someone
// else is reported as not found.
func (s *InventoryService) MarkUsed(ctx context.Context, telegramID, rewardID int64) (*model.Reward, error) {
	reward, err := s.repo.GetReward(ctx, rewardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, storageError("failed to get reward", err)
	}
	if reward.UserID != telegramID {
		return nil, ErrRewardNotFound
	}
	if reward.Used {
		return nil, ErrAlreadyUsed
	}

	ok, err := s.repo.MarkRewardUsed(ctx, rewardID)
	if err != nil {
		return nil, storageError("failed to mark reward used", err)
	}
	if !ok {
		return nil, ErrAlreadyUsed
	}

	reward, err = s.repo.GetReward(ctx, rewardID)
	if err != nil {
		return nil, storageError("failed to get reward", err)
	}
	return reward, nil
}

func (s *InventoryService) Active(ctx context.Context, telegramID int64) ([]model.Reward, error) {
	rewards, err := s.repo.ListActiveRewards(ctx, telegramID)
	if err != nil {
		return nil, storageError("failed to list active rewards", err)
	}
	return rewards, nil
}

func (s *InventoryService) History(ctx context.Context, telegramID int64, limit int) ([]model.Reward, error) {
	rewards, err := s.repo.ListRewards(ctx, telegramID, limit)
	if err != nil {
		return nil, storageError("failed to list rewards", err)
	}
	return rewards, nil
}
