package service

import "sync"

// userLocks serializes operations per user. Entries are dropped once no
// goroutine holds or waits for them.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

func (l *userLocks) Lock(telegramID int64) (unlock func()) {
	l.mu.Lock()
	lock, ok := l.locks[telegramID]
	if !ok {
		lock = &userLock{}
		l.locks[telegramID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.Lock()

	return func() {
		lock.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, telegramID)
		}
		l.mu.Unlock()
	}
}
