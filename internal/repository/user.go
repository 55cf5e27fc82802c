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

type User struct {
	TelegramID int64 `db:"telegram_id"`
	Coins      int   `db:"coins"`
	CreatedAt  int64 `db:"created_at"`
}

type coinTransaction struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	Amount    int    `db:"amount"`
	Reason    string `db:"reason"`
	CreatedAt int64  `db:"created_at"`
}

// EnsureUser creates the user with the starting balance if it does not exist.
func (r *Repository) EnsureUser(ctx context.Context, telegramID int64) (*model.User, error) {
	query, args, err := r.sql().
		Insert("users").
		Columns("telegram_id", "coins", "created_at").
		Values(telegramID, r.startingBalance, r.nowMillis()).
		Suffix("ON CONFLICT (telegram_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user insert query: %w", err)
	}

	if _, err = r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return r.GetUser(ctx, telegramID)
}

func (r *Repository) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	var user User

	query, args, err := r.sql().
		Select("telegram_id", "coins", "created_at").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = sqlx.GetContext(ctx, r.conn(ctx), &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.User{
		TelegramID: user.TelegramID,
		Balance:    user.Coins,
		CreatedAt:  fromMillis(user.CreatedAt),
	}, nil
}

func (r *Repository) GetBalance(ctx context.Context, telegramID int64) (int, error) {
	user, err := r.GetUser(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	return user.Balance, nil
}

// AddBalance applies delta to the user's balance, creating the user with the
// starting balance first if needed, and journals the change. It returns the
// new balance.
func (r *Repository) AddBalance(ctx context.Context, telegramID int64, delta int, reason string) (int, error) {
	now := r.nowMillis()

	query, args, err := r.sql().
		Insert("users").
		Columns("telegram_id", "coins", "created_at").
		Values(telegramID, r.startingBalance+delta, now).
		Suffix("ON CONFLICT (telegram_id) DO UPDATE SET coins = users.coins + ? RETURNING coins", delta).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build balance update query: %w", err)
	}

	var balance int
	if err = sqlx.GetContext(ctx, r.conn(ctx), &balance, query, args...); err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	query, args, err = r.sql().
		Insert("coin_transactions").
		Columns("user_id", "amount", "reason", "created_at").
		Values(telegramID, delta, reason, now).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build transaction insert query: %w", err)
	}

	if _, err = r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("failed to journal balance change: %w", err)
	}

	return balance, nil
}

// ListTransactions returns the newest journal lines first. limit <= 0 means all.
func (r *Repository) ListTransactions(ctx context.Context, telegramID int64, limit int) ([]model.CoinTransaction, error) {
	builder := r.sql().
		Select("id", "user_id", "amount", "reason", "created_at").
		From("coin_transactions").
		Where(squirrel.Eq{"user_id": telegramID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	var rows []coinTransaction
	if err = sqlx.SelectContext(ctx, r.conn(ctx), &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]model.CoinTransaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.CoinTransaction{
			ID:        row.ID,
			UserID:    row.UserID,
			Amount:    row.Amount,
			Reason:    row.Reason,
			CreatedAt: fromMillis(row.CreatedAt),
		})
	}
	return out, nil
}

// DeleteAllForUser removes every row the user owns, the user row included.
func (r *Repository) DeleteAllForUser(ctx context.Context, telegramID int64) error {
	tables := []struct {
		name   string
		column string
	}{
		{"rewards", "user_id"},
		{"level_final_grants", "user_id"},
		{"pending_choices", "user_id"},
		{"daily_progress", "user_id"},
		{"quest_progress", "user_id"},
		{"coin_transactions", "user_id"},
		{"users", "telegram_id"},
	}

	for _, t := range tables {
		query, args, err := r.sql().
			Delete(t.name).
			Where(squirrel.Eq{t.column: telegramID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err = r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete %s: %w", t.name, err)
		}
	}
	return nil
}
