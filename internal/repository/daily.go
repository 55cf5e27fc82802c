package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type dailyProgress struct {
	TaskCode string `db:"task_code"`
	Done     bool   `db:"done"`
}

func (r *Repository) GetDailyDone(ctx context.Context, telegramID int64, code, day string) (bool, error) {
	query, args, err := r.sql().
		Select("done").
		From("daily_progress").
		Where(squirrel.Eq{"user_id": telegramID, "task_code": code, "day": day}).
		ToSql()
	if err != nil {
		return false, err
	}

	var done bool
	err = sqlx.GetContext(ctx, r.conn(ctx), &done, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return done, nil
}

func (r *Repository) SetDailyDone(ctx context.Context, telegramID int64, code, day string, done bool) error {
	query, args, err := r.sql().
		Insert("daily_progress").
		Columns("user_id", "task_code", "day", "done", "updated_at").
		Values(telegramID, code, day, done, r.nowMillis()).
		Suffix("ON CONFLICT (user_id, task_code, day) DO UPDATE SET done = EXCLUDED.done, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build daily upsert: %w", err)
	}

	if _, err = r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set daily state: %w", err)
	}
	return nil
}

// ListDailyDone returns the tasks marked done on day.
func (r *Repository) ListDailyDone(ctx context.Context, telegramID int64, day string) (map[string]bool, error) {
	query, args, err := r.sql().
		Select("task_code", "done").
		From("daily_progress").
		Where(squirrel.Eq{"user_id": telegramID, "day": day}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []dailyProgress
	if err = sqlx.SelectContext(ctx, r.conn(ctx), &rows, query, args...); err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row.Done {
			done[row.TaskCode] = true
		}
	}
	return done, nil
}
