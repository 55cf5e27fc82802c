package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lifequest_bot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrDuplicateToken = errors.New("duplicate choice token")

type pendingChoice struct {
	Token     string         `db:"token"`
	UserID    int64          `db:"user_id"`
	Origin    string         `db:"origin"`
	Rarity    string         `db:"rarity"`
	BoxTier   int            `db:"box_tier"`
	Options   pq.StringArray `db:"options"`
	ExpiresAt int64          `db:"expires_at"`
}

func (r *Repository) SaveChoice(ctx context.Context, choice model.PendingChoice) error {
	query, args, err := r.sql().
		Insert("pending_choices").
		SetMap(map[string]interface{}{
			"token":      choice.Token,
			"user_id":    choice.UserID,
			"origin":     choice.Origin,
			"rarity":     choice.Rarity.String(),
			"box_tier":   int(choice.Tier),
			"options":    pq.StringArray(choice.Options),
			"expires_at": toMillis(choice.ExpiresAt),
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build choice insert query: %w", err)
	}

	if _, err = r.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateToken
		}
		return fmt.Errorf("failed to save choice: %w", err)
	}
	return nil
}

func (r *Repository) GetChoice(ctx context.Context, token string) (*model.PendingChoice, error) {
	query, args, err := r.sql().
		Select("token", "user_id", "origin", "rarity", "box_tier", "options", "expires_at").
		From("pending_choices").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row pendingChoice
	err = sqlx.GetContext(ctx, r.conn(ctx), &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rarity, err := model.ParseRarity(row.Rarity)
	if err != nil {
		return nil, err
	}
	return &model.PendingChoice{
		Token:     row.Token,
		UserID:    row.UserID,
		Origin:    row.Origin,
		Rarity:    rarity,
		Tier:      model.BoxTier(row.BoxTier),
		Options:   []string(row.Options),
		ExpiresAt: fromMillis(row.ExpiresAt),
	}, nil
}

// DeleteChoice reports whether this call removed the choice.
func (r *Repository) DeleteChoice(ctx context.Context, token string) (bool, error) {
	query, args, err := r.sql().
		Delete("pending_choices").
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return false, err
	}

	result, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete choice: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *Repository) DeleteUserChoices(ctx context.Context, telegramID int64) error {
	query, args, err := r.sql().
		Delete("pending_choices").
		Where(squirrel.Eq{"user_id": telegramID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, query, args...)
	return err
}
