package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRarityText(t *testing.T) {
	tests := []struct {
		name   string
		rarity Rarity
		text   string
	}{
		{name: "Common", rarity: RarityCommon, text: "Common"},
		{name: "Legendary", rarity: RarityLegendary, text: "Legendary"},
		{name: "Unset", rarity: 0, text: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(struct{ R Rarity }{tt.rarity})
			require.NoError(t, err)
			assert.JSONEq(t, `{"R":"`+tt.text+`"}`, string(raw))

			var back struct{ R Rarity }
			require.NoError(t, json.Unmarshal(raw, &back))
			assert.Equal(t, tt.rarity, back.R)
		})
	}
}

func TestRarityTextRejectsUnknown(t *testing.T) {
	_, err := Rarity(9).MarshalText()
	assert.Error(t, err)

	var r Rarity
	assert.Error(t, r.UnmarshalText([]byte("mythic")))
}
