package auth

// Allowlist restricts the game to known Telegram accounts. A nil or empty
// list admits everyone.
type Allowlist struct {
	ids map[int64]struct{}
}

func NewAllowlist(ids []int64) *Allowlist {
	a := &Allowlist{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		a.ids[id] = struct{}{}
	}
	return a
}

func (a *Allowlist) Allowed(telegramID int64) bool {
	if a == nil || len(a.ids) == 0 {
		return true
	}
	_, ok := a.ids[telegramID]
	return ok
}
