package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"lifequest_bot/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type choiceStore interface {
	SaveChoice(ctx context.Context, choice model.PendingChoice) error
	GetChoice(ctx context.Context, token string) (*model.PendingChoice, error)
	DeleteChoice(ctx context.Context, token string) (bool, error)
	DeleteUserChoices(ctx context.Context, userID int64) error
}

func exerciseChoiceStore(t *testing.T, store choiceStore, now time.Time) {
	ctx := context.Background()
	token := uuid.NewString()
	choice := model.PendingChoice{
		Token:     token,
		UserID:    42,
		Origin:    model.QuestOrigin("3.1"),
		Rarity:    model.RarityEpic,
		Tier:      model.TierEpic,
		Options:   []string{"a", "b", "c"},
		ExpiresAt: now.Add(time.Hour).Truncate(time.Millisecond),
	}

	require.NoError(t, store.SaveChoice(ctx, choice))

	got, err := store.GetChoice(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, choice.Options, got.Options)
	assert.Equal(t, choice.Rarity, got.Rarity)
	assert.Equal(t, choice.Tier, got.Tier)
	assert.True(t, choice.ExpiresAt.Equal(got.ExpiresAt))

	deleted, err := store.DeleteChoice(ctx, token)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = store.DeleteChoice(ctx, token)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.GetChoice(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)

	other := choice
	other.Token = uuid.NewString()
	require.NoError(t, store.SaveChoice(ctx, other))
	require.NoError(t, store.DeleteUserChoices(ctx, 42))
	_, err = store.GetChoice(ctx, other.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryChoiceStore(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	exerciseChoiceStore(t, NewMemoryChoiceStore(func() time.Time { return now }), now)
}

func TestMemoryChoiceStoreExpiry(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryChoiceStore(func() time.Time { return now })

	require.NoError(t, store.SaveChoice(context.Background(), model.PendingChoice{
		Token: "t", UserID: 1, ExpiresAt: now.Add(time.Minute),
	}))
	now = now.Add(2 * time.Minute)

	_, err := store.GetChoice(context.Background(), "t")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisChoiceStore(t *testing.T) {
	addr := os.Getenv("LIFEQUEST_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LIFEQUEST_TEST_REDIS_ADDR not set")
	}
	store, err := NewRedisChoiceStore(Config{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseChoiceStore(t, store, time.Now())
}
