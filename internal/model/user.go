package model

import "time"

type User struct {
	TelegramID int64
	Balance    int
	CreatedAt  time.Time
}

// CoinTransaction is one journal line of the coin ledger.
type CoinTransaction struct {
	ID        int64
	UserID    int64
	Amount    int
	Reason    string
	CreatedAt time.Time
}
