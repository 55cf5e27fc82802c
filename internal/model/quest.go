package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Rarity int

const (
	RarityCommon Rarity = iota + 1
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

var rarityNames = map[Rarity]string{
	RarityCommon:    "Common",
	RarityUncommon:  "Uncommon",
	RarityRare:      "Rare",
	RarityEpic:      "Epic",
	RarityLegendary: "Legendary",
}

// Rarities lists every rarity from lowest to highest.
func Rarities() []Rarity {
	return []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}
}

func (r Rarity) String() string {
	if name, ok := rarityNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rarity(%d)", int(r))
}

func (r Rarity) Valid() bool {
	return r >= RarityCommon && r <= RarityLegendary
}

// Tier is the box tier whose reward table serves cards of this rarity.
func (r Rarity) Tier() BoxTier {
	return BoxTier(r)
}

// Coins is the default coin value of a quest of this rarity.
func (r Rarity) Coins() int {
	switch r {
	case RarityCommon:
		return 5
	case RarityUncommon:
		return 7
	case RarityRare:
		return 10
	case RarityEpic:
		return 15
	case RarityLegendary:
		return 20
	}
	return 0
}

func ParseRarity(s string) (Rarity, error) {
	for r, name := range rarityNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}

// MarshalText writes the rarity name. The zero value is written as an empty
// string so it reads back unchanged.
func (r Rarity) MarshalText() ([]byte, error) {
	if r == 0 {
		return []byte{}, nil
	}
	if !r.Valid() {
		return nil, fmt.Errorf("unknown rarity %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rarity) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*r = 0
		return nil
	}
	parsed, err := ParseRarity(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type QuestStatus string

const (
	QuestLocked QuestStatus = "locked"
	QuestActive QuestStatus = "active"
	QuestDone   QuestStatus = "done"
)

// RewardPolicy decides whether completing a quest rolls a reward outright
// or offers a pick among distinct candidates.
type RewardPolicy string

const (
	PolicyRoll   RewardPolicy = "roll"
	PolicyChoice RewardPolicy = "choice"
)

type Quest struct {
	Code         string
	Level        int
	Title        string
	Description  string
	Coins        int
	Rarity       Rarity
	Prerequisite string
	Policy       RewardPolicy
}

type Level struct {
	Number int
	Title  string
	// Start and End are civil dates stored at UTC midnight.
	Start time.Time
	End   time.Time
	Final LevelFinal
}

// LevelFinal is the one-time bonus for finishing every quest of a level.
type LevelFinal struct {
	Coins int
	Cards []Rarity
}

// IsOpen reports whether the level window has started on the given civil day.
func (l Level) IsOpen(day time.Time) bool {
	return l.Start.IsZero() || !day.Before(l.Start)
}

// LevelOfCode extracts the level number from a quest code such as "2.4".
func LevelOfCode(code string) (int, error) {
	head, _, ok := strings.Cut(code, ".")
	if !ok || head == "" {
		return 0, fmt.Errorf("quest code %q has no level prefix", code)
	}
	level, err := strconv.Atoi(head)
	if err != nil || level < 0 {
		return 0, fmt.Errorf("quest code %q has invalid level prefix", code)
	}
	return level, nil
}

// CivilDay truncates t to its calendar date in loc and returns that date at UTC midnight.
func CivilDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
