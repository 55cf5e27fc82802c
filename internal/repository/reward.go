package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lifequest_bot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type Reward struct {
	ID         int64  `db:"id"`
	UserID     int64  `db:"user_id"`
	Origin     string `db:"origin"`
	Rarity     string `db:"rarity"`
	BoxTier    int    `db:"box_tier"`
	RewardText string `db:"reward_text"`
	Partner    bool   `db:"partner"`
	Used       bool   `db:"used"`
	CreatedAt  int64  `db:"created_at"`
	UsedAt     *int64 `db:"used_at"`
}

var rewardColumns = []string{"id", "user_id", "origin", "rarity", "box_tier", "reward_text", "partner", "used", "created_at", "used_at"}

func (row Reward) toModel() (model.Reward, error) {
	rarity, err := model.ParseRarity(row.Rarity)
	if err != nil {
		return model.Reward{}, fmt.Errorf("reward %d: %w", row.ID, err)
	}
	return model.Reward{
		ID:        row.ID,
		UserID:    row.UserID,
		Origin:    row.Origin,
		Rarity:    rarity,
		Tier:      model.BoxTier(row.BoxTier),
		Text:      row.RewardText,
		Partner:   row.Partner,
		Used:      row.Used,
		CreatedAt: fromMillis(row.CreatedAt),
		UsedAt:    fromNullMillis(row.UsedAt),
	}, nil
}

// InsertReward appends a reward record and returns its id. CreatedAt is
// stamped here when zero.
func (r *Repository) InsertReward(ctx context.Context, reward *model.Reward) (int64, error) {
	createdAt := reward.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	query, args, err := r.sql().
		Insert("rewards").
		SetMap(map[string]interface{}{
			"user_id":     reward.UserID,
			"origin":      reward.Origin,
			"rarity":      reward.Rarity.String(),
			"box_tier":    int(reward.Tier),
			"reward_text": reward.Text,
			"partner":     reward.Partner,
			"used":        false,
			"created_at":  toMillis(createdAt),
		}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build reward insert query: %w", err)
	}

	var id int64
	if err = sqlx.GetContext(ctx, r.conn(ctx), &id, query, args...); err != nil {
		return 0, fmt.Errorf("failed to insert reward: %w", err)
	}
	return id, nil
}

func (r *Repository) GetReward(ctx context.Context, id int64) (*model.Reward, error) {
	query, args, err := r.sql().
		Select(rewardColumns...).
		From("rewards").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row Reward
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	reward, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

// ListActiveRewards returns unused rewards, newest first.
func (r *Repository) ListActiveRewards(ctx context.Context, telegramID int64) ([]model.Reward, error) {
	return r.listRewards(ctx, squirrel.Eq{"user_id": telegramID, "used": false}, 0)
}

// ListRewards returns all rewards newest first. limit <= 0 means all.
func (r *Repository) ListRewards(ctx context.Context, telegramID int64, limit int) ([]model.Reward, error) {
	return r.listRewards(ctx, squirrel.Eq{"user_id": telegramID}, limit)
}

func (r *Repository) listRewards(ctx context.Context, where squirrel.Eq, limit int) ([]model.Reward, error) {
	builder := r.sql().
		Select(rewardColumns...).
		From("rewards").
		Where(where).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []Reward
	if err = sqlx.SelectContext(ctx, r.conn(ctx), &rows, query, args...); err != nil {
		return nil, err
	}

	rewards := make([]model.Reward, 0, len(rows))
	for _, row := range rows {
		reward, err := row.toModel()
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, reward)
	}
	return rewards, nil
}

// MarkRewardUsed flips used once. It reports false when the reward was
// already used or does not exist.
func (r *Repository) MarkRewardUsed(ctx context.Context, id int64) (bool, error) {
	query, args, err := r.sql().
		Update("rewards").
		SetMap(map[string]interface{}{
			"used":    true,
			"used_at": r.nowMillis(),
		}).
		Where(squirrel.Eq{"id": id, "used": false}).
		ToSql()
	if err != nil {
		return false, err
	}

	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to mark reward used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *Repository) HasRewardOrigin(ctx context.Context, telegramID int64, origin string) (bool, error) {
	query, args, err := r.sql().
		Select("COUNT(*)").
		From("rewards").
		Where(squirrel.Eq{"user_id": telegramID, "origin": origin}).
		ToSql()
	if err != nil {
		return false, err
	}

	var n int
	if err = sqlx.GetContext(ctx, r.conn(ctx), &n, query, args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClaimLevelFinal records the level-final grant. Only the first claim per
// user and level reports true.
func (r *Repository) ClaimLevelFinal(ctx context.Context, telegramID int64, level int) (bool, error) {
	query, args, err := r.sql().
		Insert("level_final_grants").
		Columns("user_id", "level", "granted_at").
		Values(telegramID, level, r.nowMillis()).
		Suffix("ON CONFLICT (user_id, level) DO NOTHING").
		ToSql()
	if err != nil {
		return false, err
	}

	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to claim level final: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
