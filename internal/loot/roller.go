package loot

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// comboAttempts bounds re-draws when a combo component lands on another combo.
const comboAttempts = 16

// Roller draws from reward tables. It is safe for concurrent use.
type Roller struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRoller(src rand.Source) *Roller {
	return &Roller{rnd: rand.New(src)}
}

// NewSeededRoller seeds a PCG source from crypto/rand.
func NewSeededRoller() (*Roller, error) {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("failed to seed roller: %w", err)
	}
	src := rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))
	return NewRoller(src), nil
}

// IntN returns a uniform integer in [0, n).
func (r *Roller) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.IntN(n)
}

// D100 returns a uniform integer in [1, 100].
func (r *Roller) D100() int {
	return r.IntN(Sides) + 1
}

// Chance reports true with probability p.
func (r *Roller) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64() < p
}

// Pick returns a uniformly chosen element, or "" for an empty slice.
func (r *Roller) Pick(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[r.IntN(len(items))]
}

type Draw struct {
	Roll    int
	Entry   Entry
	Rewards []Entry
}

// Open rolls the table once. A combo entry expands into Components
// sub-rewards rolled from the same table, none of them combos themselves.
func (r *Roller) Open(t *Table) Draw {
	roll := r.D100()
	e := t.Lookup(roll)
	d := Draw{Roll: roll, Entry: e}

	if !e.IsCombo() || !t.hasPlain() {
		d.Rewards = []Entry{e}
		return d
	}

	for i := 0; i < e.Components; i++ {
		d.Rewards = append(d.Rewards, r.plain(t))
	}
	return d
}

func (r *Roller) plain(t *Table) Entry {
	for i := 0; i < comboAttempts; i++ {
		if e := t.Lookup(r.D100()); !e.IsCombo() {
			return e
		}
	}
	// Heavily combo-weighted table: take the first plain entry with weight.
	for i, e := range t.Entries {
		if !e.IsCombo() && t.Weight(i) > 0 {
			return e
		}
	}
	return t.Entries[0]
}

// PickDistinct draws up to n distinct candidates from the table, preserving
// the table's weighting. It returns fewer when the table has fewer distinct
// rewards.
func (r *Roller) PickDistinct(t *Table, n int) []Entry {
	pool := t.Distinct()
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if n >= len(pool) {
		out := make([]Entry, 0, len(pool))
		for _, text := range pool {
			e, _ := t.Find(text)
			out = append(out, e)
		}
		r.shuffle(out)
		return out
	}

	chosen := make(map[string]struct{}, n)
	out := make([]Entry, 0, n)
	for attempt := 0; len(out) < n && attempt < n*comboAttempts; attempt++ {
		e := t.Lookup(r.D100())
		if e.IsCombo() {
			continue
		}
		if _, ok := chosen[e.Text]; ok {
			continue
		}
		chosen[e.Text] = struct{}{}
		out = append(out, e)
	}
	// Fill deterministically if the weighted draws kept colliding.
	for _, text := range pool {
		if len(out) == n {
			break
		}
		if _, ok := chosen[text]; ok {
			continue
		}
		e, _ := t.Find(text)
		chosen[text] = struct{}{}
		out = append(out, e)
	}
	return out
}

func (r *Roller) shuffle(entries []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rnd.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
}
