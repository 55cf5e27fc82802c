package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"lifequest_bot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	repo, err := New(Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "lifequest.db")}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestMigrationsAreIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.migrate())

	applied, err := repo.isMigrationApplied(context.Background(), "sqlite/001_init.sql")
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestEnsureUserAndBalance(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, WithStartingBalance(15))

	_, err := repo.GetBalance(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	user, err := repo.EnsureUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, user.Balance)
	assert.Equal(t, testNow, user.CreatedAt)

	balance, err := repo.AddBalance(ctx, 1, 10, "quest:0.1")
	require.NoError(t, err)
	assert.Equal(t, 25, balance)

	// Ensuring again must not reset the balance.
	user, err = repo.EnsureUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 25, user.Balance)
}

func TestAddBalanceCreatesUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, WithStartingBalance(3))

	balance, err := repo.AddBalance(ctx, 7, -2, "lootbox:1")
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	txs, err := repo.ListTransactions(ctx, 7, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, -2, txs[0].Amount)
	assert.Equal(t, "lootbox:1", txs[0].Reason)
}

func TestQuestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	status, err := repo.GetQuestStatus(ctx, 1, "2.4")
	require.NoError(t, err)
	assert.Equal(t, model.QuestLocked, status)

	ok, err := repo.TransitionQuestStatus(ctx, 1, "2.4", model.QuestActive, model.QuestDone)
	require.NoError(t, err)
	assert.False(t, ok, "missing row is not active")

	ok, err = repo.TransitionQuestStatus(ctx, 1, "2.4", model.QuestLocked, model.QuestActive)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionQuestStatus(ctx, 1, "2.4", model.QuestLocked, model.QuestActive)
	require.NoError(t, err)
	assert.False(t, ok, "already active")

	ok, err = repo.TransitionQuestStatus(ctx, 1, "2.4", model.QuestActive, model.QuestDone)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionQuestStatus(ctx, 1, "2.4", model.QuestActive, model.QuestDone)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetQuestStatus(ctx, 1, "2.5", model.QuestActive))

	statuses, err := repo.ListQuestStatuses(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]model.QuestStatus{"2.4": model.QuestDone, "2.5": model.QuestActive}, statuses)
}

func TestDailyProgress(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	done, err := repo.GetDailyDone(ctx, 1, "small", "2025-03-01")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, repo.SetDailyDone(ctx, 1, "small", "2025-03-01", true))
	require.NoError(t, repo.SetDailyDone(ctx, 1, "focus", "2025-03-01", true))
	require.NoError(t, repo.SetDailyDone(ctx, 1, "focus", "2025-03-01", false))

	done, err = repo.GetDailyDone(ctx, 1, "small", "2025-03-01")
	require.NoError(t, err)
	assert.True(t, done)

	all, err := repo.ListDailyDone(ctx, 1, "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"small": true}, all)

	all, err = repo.ListDailyDone(ctx, 1, "2025-03-02")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRewardsLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	first, err := repo.InsertReward(ctx, &model.Reward{
		UserID: 1, Origin: model.LootboxOrigin(1), Rarity: model.RarityCommon, Tier: model.TierLittle,
		Text: "Coffee", CreatedAt: testNow.Add(-time.Hour),
	})
	require.NoError(t, err)
	second, err := repo.InsertReward(ctx, &model.Reward{
		UserID: 1, Origin: model.QuestOrigin("2.4"), Rarity: model.RarityRare, Text: "Cinema", Partner: true,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	reward, err := repo.GetReward(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, model.RarityRare, reward.Rarity)
	assert.True(t, reward.Partner)
	assert.False(t, reward.Used)

	active, err := repo.ListActiveRewards(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second, active[0].ID)

	ok, err := repo.MarkRewardUsed(ctx, second)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.MarkRewardUsed(ctx, second)
	require.NoError(t, err)
	assert.False(t, ok)

	reward, err = repo.GetReward(ctx, second)
	require.NoError(t, err)
	assert.True(t, reward.Used)
	require.NotNil(t, reward.UsedAt)

	active, err = repo.ListActiveRewards(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	history, err := repo.ListRewards(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	has, err := repo.HasRewardOrigin(ctx, 1, model.QuestOrigin("2.4"))
	require.NoError(t, err)
	assert.True(t, has)

	_, err = repo.GetReward(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimLevelFinalOnce(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	ok, err := repo.ClaimLevelFinal(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimLevelFinal(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ClaimLevelFinal(ctx, 2, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPendingChoices(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	choice := model.PendingChoice{
		Token:     "tok",
		UserID:    1,
		Origin:    model.QuestOrigin("3.1"),
		Rarity:    model.RarityEpic,
		Tier:      model.TierEpic,
		Options:   []string{"Trip, weekend", "Concert \"live\"", "Game"},
		ExpiresAt: testNow.Add(time.Hour),
	}
	require.NoError(t, repo.SaveChoice(ctx, choice))
	assert.ErrorIs(t, repo.SaveChoice(ctx, choice), ErrDuplicateToken)

	got, err := repo.GetChoice(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, choice, *got)

	deleted, err := repo.DeleteChoice(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.DeleteChoice(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.GetChoice(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(ctx context.Context) error {
		if _, err := repo.AddBalance(ctx, 1, 50, "test"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.GetBalance(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	err := repo.Transaction(ctx, func(ctx context.Context) error {
		return repo.Transaction(ctx, func(ctx context.Context) error {
			_, err := repo.AddBalance(ctx, 1, 5, "test")
			return err
		})
	})
	require.NoError(t, err)

	balance, err := repo.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)
}

func TestConcurrentBalanceUpdates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Transaction(ctx, func(ctx context.Context) error {
				_, err := repo.AddBalance(ctx, 1, 1, "test")
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := repo.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, balance)
}

func TestDeleteAllForUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for _, id := range []int64{1, 2} {
		_, err := repo.AddBalance(ctx, id, 10, "test")
		require.NoError(t, err)
		require.NoError(t, repo.SetQuestStatus(ctx, id, "0.1", model.QuestDone))
		require.NoError(t, repo.SetDailyDone(ctx, id, "small", "2025-03-01", true))
		_, err = repo.InsertReward(ctx, &model.Reward{UserID: id, Origin: "lootbox:1", Rarity: model.RarityCommon, Text: "x"})
		require.NoError(t, err)
		_, err = repo.ClaimLevelFinal(ctx, id, 0)
		require.NoError(t, err)
	}

	require.NoError(t, repo.DeleteAllForUser(ctx, 1))

	_, err := repo.GetUser(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	rewards, err := repo.ListRewards(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, rewards)
	statuses, err := repo.ListQuestStatuses(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, statuses)
	ok, err := repo.ClaimLevelFinal(ctx, 1, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	balance, err := repo.GetBalance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
	rewards, err = repo.ListRewards(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, rewards, 1)
}
