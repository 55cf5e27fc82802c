package loot

import (
	"testing"

	"lifequest_bot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr bool
	}{
		{
			name:    "valid",
			entries: []Entry{{Threshold: 40, Text: "a"}, {Threshold: 100, Text: "b"}},
		},
		{
			name:    "zero width entry is allowed",
			entries: []Entry{{Threshold: 40, Text: "a"}, {Threshold: 40, Text: "never"}, {Threshold: 100, Text: "b"}},
		},
		{
			name:    "empty",
			wantErr: true,
		},
		{
			name:    "does not reach 100",
			entries: []Entry{{Threshold: 40, Text: "a"}, {Threshold: 99, Text: "b"}},
			wantErr: true,
		},
		{
			name:    "decreasing thresholds",
			entries: []Entry{{Threshold: 60, Text: "a"}, {Threshold: 40, Text: "b"}, {Threshold: 100, Text: "c"}},
			wantErr: true,
		},
		{
			name:    "threshold above 100",
			entries: []Entry{{Threshold: 101, Text: "a"}},
			wantErr: true,
		},
		{
			name:    "blank text",
			entries: []Entry{{Threshold: 100, Text: "  "}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(model.TierLittle, tt.entries)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedTable)
				assert.Nil(t, table)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 100, table.Entries[len(table.Entries)-1].Threshold)
		})
	}
}

func TestSanitizeFallsBack(t *testing.T) {
	table, err := Sanitize(model.TierEpic, []Entry{{Threshold: 50, Text: "half"}})

	assert.ErrorIs(t, err, ErrMalformedTable)
	require.NotNil(t, table)
	assert.Equal(t, model.TierEpic, table.Tier)
	assert.Equal(t, []Entry{{Threshold: 100, Text: FallbackText}}, table.Entries)
}

func TestLookupBands(t *testing.T) {
	table, err := NewTable(model.TierLittle, []Entry{
		{Threshold: 40, Text: "A"},
		{Threshold: 90, Text: "B"},
		{Threshold: 100, Text: "C"},
	})
	require.NoError(t, err)

	cases := map[int]string{1: "A", 40: "A", 41: "B", 90: "B", 91: "C", 100: "C"}
	for roll, want := range cases {
		assert.Equal(t, want, table.Lookup(roll).Text, "roll %d", roll)
	}
}

func TestFromSlots(t *testing.T) {
	slots := make([]string, Sides)
	for i := 0; i < 50; i++ {
		slots[i] = "Coffee"
	}
	for i := 50; i < 99; i++ {
		slots[i] = "Movie night"
	}

	table, err := FromSlots(model.TierMiddle, slots, func(roll int) bool { return roll == 100 })
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Threshold: 50, Text: "Coffee"},
		{Threshold: 99, Text: "Movie night"},
		{Threshold: 100, Text: "Placeholder reward 100", Partner: true},
	}, table.Entries)
}

func TestFromSlotsWrongLength(t *testing.T) {
	_, err := FromSlots(model.TierMiddle, []string{"a"}, nil)
	assert.ErrorIs(t, err, ErrMalformedTable)
}

func TestUniformWeights(t *testing.T) {
	table, err := Uniform(model.TierLarge, []string{"a", "b", "c", "d"})
	require.NoError(t, err)

	for i := range table.Entries {
		assert.Equal(t, 25, table.Weight(i))
	}
}

func TestDistinctSkipsCombosAndUnreachable(t *testing.T) {
	table, err := NewTable(model.TierLittle, []Entry{
		{Threshold: 30, Text: "a"},
		{Threshold: 30, Text: "ghost"},
		{Threshold: 60, Text: "b"},
		{Threshold: 80, Text: "a"},
		{Threshold: 100, Text: "two of them", Components: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, table.Distinct())
}
