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

type questProgress struct {
	QuestCode string `db:"quest_code"`
	Status    string `db:"status"`
}

// GetQuestStatus returns QuestLocked for quests without a progress row.
func (r *Repository) GetQuestStatus(ctx context.Context, telegramID int64, code string) (model.QuestStatus, error) {
	query, args, err := r.sql().
		Select("status").
		From("quest_progress").
		Where(squirrel.Eq{"user_id": telegramID, "quest_code": code}).
		ToSql()
	if err != nil {
		return "", err
	}

	var status string
	err = sqlx.GetContext(ctx, r.conn(ctx), &status, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.QuestLocked, nil
		}
		return "", err
	}
	return model.QuestStatus(status), nil
}

func (r *Repository) ListQuestStatuses(ctx context.Context, telegramID int64) (map[string]model.QuestStatus, error) {
	query, args, err := r.sql().
		Select("quest_code", "status").
		From("quest_progress").
		Where(squirrel.Eq{"user_id": telegramID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []questProgress
	if err = sqlx.SelectContext(ctx, r.conn(ctx), &rows, query, args...); err != nil {
		return nil, err
	}

	statuses := make(map[string]model.QuestStatus, len(rows))
	for _, row := range rows {
		statuses[row.QuestCode] = model.QuestStatus(row.Status)
	}
	return statuses, nil
}

// SetQuestStatus writes status unconditionally.
func (r *Repository) SetQuestStatus(ctx context.Context, telegramID int64, code string, status model.QuestStatus) error {
	now := r.nowMillis()
	var completedAt *int64
	if status == model.QuestDone {
		completedAt = &now
	}

	query, args, err := r.sql().
		Insert("quest_progress").
		Columns("user_id", "quest_code", "status", "updated_at", "completed_at").
		Values(telegramID, code, string(status), now, completedAt).
		Suffix("ON CONFLICT (user_id, quest_code) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at, completed_at = EXCLUDED.completed_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quest status upsert: %w", err)
	}

	if _, err = r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set quest status: %w", err)
	}
	return nil
}

// TransitionQuestStatus moves a quest from one status to another only if it
// is currently in from. It reports whether this call made the change.
func (r *Repository) TransitionQuestStatus(ctx context.Context, telegramID int64, code string, from, to model.QuestStatus) (bool, error) {
	now := r.nowMillis()
	var completedAt *int64
	if to == model.QuestDone {
		completedAt = &now
	}

	var (
		query string
		args  []interface{}
		err   error
	)
	if from == model.QuestLocked {
		// A missing row counts as locked.
		query, args, err = r.sql().
			Insert("quest_progress").
			Columns("user_id", "quest_code", "status", "updated_at", "completed_at").
			Values(telegramID, code, string(to), now, completedAt).
			Suffix("ON CONFLICT (user_id, quest_code) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at, completed_at = EXCLUDED.completed_at WHERE quest_progress.status = ?", string(from)).
			ToSql()
	} else {
		query, args, err = r.sql().
			Update("quest_progress").
			SetMap(map[string]interface{}{
				"status":       string(to),
				"updated_at":   now,
				"completed_at": completedAt,
			}).
			Where(squirrel.Eq{"user_id": telegramID, "quest_code": code, "status": string(from)}).
			ToSql()
	}
	if err != nil {
		return false, fmt.Errorf("failed to build quest transition: %w", err)
	}

	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to transition quest: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
