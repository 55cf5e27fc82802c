package loot

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"lifequest_bot/internal/model"
)

// Sides of the die every table is rolled with.
const Sides = 100

// FallbackText is served by a table that could not be loaded.
const FallbackText = "Surprise"

// MaxComponents caps how many sub-rewards a combo entry may expand into.
const MaxComponents = 5

var ErrMalformedTable = errors.New("malformed reward table")

// Entry covers every roll in (previous threshold, Threshold].
type Entry struct {
	Threshold  int
	Text       string
	Components int
	Partner    bool
}

func (e Entry) IsCombo() bool {
	return e.Components > 1
}

type Table struct {
	Tier    model.BoxTier
	Entries []Entry
}

// NewTable validates entries: thresholds within [1, 100], non-decreasing,
// ending at exactly 100, and every text non-empty.
func NewTable(tier model.BoxTier, entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: tier %d has no entries", ErrMalformedTable, tier)
	}

	prev := 0
	cleaned := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if e.Threshold < 1 || e.Threshold > Sides {
			return nil, fmt.Errorf("%w: tier %d entry %d threshold %d out of range", ErrMalformedTable, tier, i, e.Threshold)
		}
		if e.Threshold < prev {
			return nil, fmt.Errorf("%w: tier %d entry %d threshold %d below %d", ErrMalformedTable, tier, i, e.Threshold, prev)
		}
		e.Text = strings.TrimSpace(e.Text)
		if e.Text == "" {
			return nil, fmt.Errorf("%w: tier %d entry %d has empty text", ErrMalformedTable, tier, i)
		}
		if e.Components > MaxComponents {
			e.Components = MaxComponents
		}
		prev = e.Threshold
		cleaned = append(cleaned, e)
	}
	if prev != Sides {
		return nil, fmt.Errorf("%w: tier %d ends at %d", ErrMalformedTable, tier, prev)
	}

	return &Table{Tier: tier, Entries: cleaned}, nil
}

// Fallback is the single-entry table substituted for a malformed one.
func Fallback(tier model.BoxTier) *Table {
	return &Table{Tier: tier, Entries: []Entry{{Threshold: Sides, Text: FallbackText}}}
}

// Sanitize returns a valid table, degrading to Fallback when entries are
// malformed. The validation error is still reported.
func Sanitize(tier model.BoxTier, entries []Entry) (*Table, error) {
	t, err := NewTable(tier, entries)
	if err != nil {
		return Fallback(tier), err
	}
	return t, nil
}

// FromSlots builds a table from a per-roll listing where slots[i] is the
// reward for roll i+1. Adjacent identical slots collapse into one entry and
// blank slots get a numbered placeholder.
func FromSlots(tier model.BoxTier, slots []string, partner func(roll int) bool) (*Table, error) {
	if len(slots) != Sides {
		return nil, fmt.Errorf("%w: tier %d has %d slots", ErrMalformedTable, tier, len(slots))
	}

	var entries []Entry
	for i, text := range slots {
		roll := i + 1
		text = strings.TrimSpace(text)
		if text == "" {
			text = fmt.Sprintf("Placeholder reward %d", roll)
		}
		isPartner := partner != nil && partner(roll)

		if n := len(entries); n > 0 && entries[n-1].Text == text && entries[n-1].Partner == isPartner {
			entries[n-1].Threshold = roll
			continue
		}
		entries = append(entries, Entry{Threshold: roll, Text: text, Partner: isPartner})
	}

	return NewTable(tier, entries)
}

// Uniform spreads texts evenly over the die.
func Uniform(tier model.BoxTier, texts []string) (*Table, error) {
	if len(texts) == 0 || len(texts) > Sides {
		return nil, fmt.Errorf("%w: tier %d cannot spread %d texts", ErrMalformedTable, tier, len(texts))
	}
	entries := make([]Entry, len(texts))
	for i, text := range texts {
		entries[i] = Entry{Threshold: (i + 1) * Sides / len(texts), Text: text}
	}
	return NewTable(tier, entries)
}

// Lookup returns the entry whose band contains roll.
func (t *Table) Lookup(roll int) Entry {
	i := sort.Search(len(t.Entries), func(i int) bool {
		return t.Entries[i].Threshold >= roll
	})
	if i == len(t.Entries) {
		i = len(t.Entries) - 1
	}
	return t.Entries[i]
}

// Weight is the number of die faces that land on entry i.
func (t *Table) Weight(i int) int {
	if i == 0 {
		return t.Entries[0].Threshold
	}
	return t.Entries[i].Threshold - t.Entries[i-1].Threshold
}

// Distinct returns the reachable non-combo texts in table order.
func (t *Table) Distinct() []string {
	seen := make(map[string]struct{}, len(t.Entries))
	var out []string
	for i, e := range t.Entries {
		if t.Weight(i) == 0 || e.IsCombo() {
			continue
		}
		if _, ok := seen[e.Text]; ok {
			continue
		}
		seen[e.Text] = struct{}{}
		out = append(out, e.Text)
	}
	return out
}

func (t *Table) hasPlain() bool {
	for i, e := range t.Entries {
		if !e.IsCombo() && t.Weight(i) > 0 {
			return true
		}
	}
	return false
}

// Find returns the first entry with the given text.
func (t *Table) Find(text string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Text == text {
			return e, true
		}
	}
	return Entry{}, false
}
