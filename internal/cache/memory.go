package cache

import (
	"context"
	"sync"
	"time"

	"lifequest_bot/internal/model"
)

// MemoryChoiceStore keeps pending choices in process memory. Expired entries
// are dropped lazily on access.
type MemoryChoiceStore struct {
	mu    sync.Mutex
	items map[string]model.PendingChoice
	now   func() time.Time
}

func NewMemoryChoiceStore(now func() time.Time) *MemoryChoiceStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryChoiceStore{
		items: make(map[string]model.PendingChoice),
		now:   now,
	}
}

func (s *MemoryChoiceStore) SaveChoice(_ context.Context, choice model.PendingChoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	choice.Options = append([]string(nil), choice.Options...)
	s.items[choice.Token] = choice
	return nil
}

func (s *MemoryChoiceStore) GetChoice(_ context.Context, token string) (*model.PendingChoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	choice, ok := s.items[token]
	if !ok {
		return nil, ErrNotFound
	}
	if choice.Expired(s.now()) {
		delete(s.items, token)
		return nil, ErrNotFound
	}
	choice.Options = append([]string(nil), choice.Options...)
	return &choice, nil
}

func (s *MemoryChoiceStore) DeleteChoice(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[token]; !ok {
		return false, nil
	}
	delete(s.items, token)
	return true, nil
}

func (s *MemoryChoiceStore) DeleteUserChoices(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, choice := range s.items {
		if choice.UserID == userID {
			delete(s.items, token)
		}
	}
	return nil
}
