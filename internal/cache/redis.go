package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lifequest_bot/internal/model"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
)

const (
	choiceKeyPrefix     = "lifequest:choice:"
	userChoiceKeyPrefix = "lifequest:user-choices:"
)

// RedisChoiceStore keeps pending choices in Redis with a TTL matching their
// expiry, so offers survive restarts and are shared between instances.
type RedisChoiceStore struct {
	client *goredis.Client
	now    func() time.Time
}

func NewRedisChoiceStore(cfg Config) (*RedisChoiceStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisChoiceStore{client: client, now: time.Now}, nil
}

func (s *RedisChoiceStore) Close() error {
	return s.client.Close()
}

func choiceKey(token string) string {
	return choiceKeyPrefix + token
}

func userChoicesKey(userID int64) string {
	return userChoiceKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *RedisChoiceStore) SaveChoice(ctx context.Context, choice model.PendingChoice) error {
	raw, err := json.Marshal(toPayload(choice))
	if err != nil {
		return fmt.Errorf("failed to encode choice: %w", err)
	}

	ttl := choice.ExpiresAt.Sub(s.now())
	if choice.ExpiresAt.IsZero() {
		ttl = 0
	} else if ttl < time.Second {
		ttl = time.Second
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, choiceKey(choice.Token), raw, ttl)
	pipe.SAdd(ctx, userChoicesKey(choice.UserID), choice.Token)
	if ttl > 0 {
		pipe.Expire(ctx, userChoicesKey(choice.UserID), ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save choice: %w", err)
	}
	return nil
}

func (s *RedisChoiceStore) GetChoice(ctx context.Context, token string) (*model.PendingChoice, error) {
	raw, err := s.client.Get(ctx, choiceKey(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load choice: %w", err)
	}

	var payload choicePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode choice: %w", err)
	}
	return payload.toModel(), nil
}

func (s *RedisChoiceStore) DeleteChoice(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Del(ctx, choiceKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete choice: %w", err)
	}
	return n == 1, nil
}

func (s *RedisChoiceStore) DeleteUserChoices(ctx context.Context, userID int64) error {
	key := userChoicesKey(userID)
	tokens, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to list user choices: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, choiceKey(token))
	}
	keys = append(keys, key)
	return s.client.Del(ctx, keys...).Err()
}
