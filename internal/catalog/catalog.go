package catalog

import (
	"errors"
	"fmt"
	"sort"

	"lifequest_bot/internal/loot"
	"lifequest_bot/internal/model"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// ConfigError reports a catalog source that could not be used as given.
// The catalog it accompanies has defaults substituted for the bad parts.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

type MiniEvent struct {
	Title string
	Text  string
}

// Catalog is the immutable set of quests, levels, daily tasks, box costs
// and reward tables the engine plays with.
type Catalog struct {
	quests     []model.Quest
	questIndex map[string]int
	dependents map[string][]string
	levels     map[int]model.Level
	levelOrder []int
	daily      []model.DailyTask
	dailyIndex map[string]int
	tables     map[model.BoxTier]*loot.Table
	boxCosts   map[model.BoxTier]int
	miniEvents []MiniEvent
}

type Source struct {
	Quests     []model.Quest
	Levels     []model.Level
	Daily      []model.DailyTask
	Tables     map[model.BoxTier][]loot.Entry
	BoxCosts   map[model.BoxTier]int
	MiniEvents []MiniEvent
}

// New validates src and builds a catalog. Malformed reward tables are
// replaced by the fallback table and reported alongside a usable catalog.
// Structural problems with quests or levels fail outright.
func New(src Source) (*Catalog, error) {
	c := &Catalog{
		questIndex: make(map[string]int, len(src.Quests)),
		dependents: make(map[string][]string),
		levels:     make(map[int]model.Level),
		dailyIndex: make(map[string]int, len(src.Daily)),
		tables:     make(map[model.BoxTier]*loot.Table, len(model.Tiers())),
		boxCosts:   make(map[model.BoxTier]int, len(model.Tiers())),
		miniEvents: append([]MiniEvent(nil), src.MiniEvents...),
	}

	for _, l := range src.Levels {
		if _, dup := c.levels[l.Number]; dup {
			return nil, fmt.Errorf("%w: duplicate level %d", ErrInvalidCatalog, l.Number)
		}
		c.levels[l.Number] = l
	}

	for _, q := range src.Quests {
		if _, dup := c.questIndex[q.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate quest %s", ErrInvalidCatalog, q.Code)
		}
		level, err := model.LevelOfCode(q.Code)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		q.Level = level
		if !q.Rarity.Valid() {
			return nil, fmt.Errorf("%w: quest %s has no rarity", ErrInvalidCatalog, q.Code)
		}
		if q.Coins <= 0 {
			q.Coins = q.Rarity.Coins()
		}
		if q.Policy == "" {
			q.Policy = model.PolicyRoll
		}
		if q.Policy != model.PolicyRoll && q.Policy != model.PolicyChoice {
			return nil, fmt.Errorf("%w: quest %s has unknown reward policy %q", ErrInvalidCatalog, q.Code, q.Policy)
		}
		if _, ok := c.levels[level]; !ok {
			c.levels[level] = model.Level{Number: level, Title: fmt.Sprintf("Level %d", level)}
		}
		c.questIndex[q.Code] = len(c.quests)
		c.quests = append(c.quests, q)
	}

	for _, q := range c.quests {
		if q.Prerequisite == "" {
			continue
		}
		i, ok := c.questIndex[q.Prerequisite]
		if !ok {
			return nil, fmt.Errorf("%w: quest %s requires unknown quest %s", ErrInvalidCatalog, q.Code, q.Prerequisite)
		}
		if c.quests[i].Level != q.Level {
			return nil, fmt.Errorf("%w: quest %s requires %s from another level", ErrInvalidCatalog, q.Code, q.Prerequisite)
		}
		if q.Prerequisite == q.Code {
			return nil, fmt.Errorf("%w: quest %s requires itself", ErrInvalidCatalog, q.Code)
		}
		c.dependents[q.Prerequisite] = append(c.dependents[q.Prerequisite], q.Code)
	}
	if err := c.checkCycles(); err != nil {
		return nil, err
	}

	for level := range c.levels {
		c.levelOrder = append(c.levelOrder, level)
	}
	sort.Ints(c.levelOrder)

	for _, d := range src.Daily {
		if _, dup := c.dailyIndex[d.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate daily task %s", ErrInvalidCatalog, d.Code)
		}
		if d.Coins <= 0 {
			return nil, fmt.Errorf("%w: daily task %s has no coins", ErrInvalidCatalog, d.Code)
		}
		c.dailyIndex[d.Code] = len(c.daily)
		c.daily = append(c.daily, d)
	}

	var tableErrs []error
	for _, tier := range model.Tiers() {
		t, err := loot.Sanitize(tier, src.Tables[tier])
		if err != nil {
			tableErrs = append(tableErrs, err)
		}
		c.tables[tier] = t

		cost, ok := src.BoxCosts[tier]
		if !ok || cost <= 0 {
			cost = defaultBoxCosts[tier]
		}
		c.boxCosts[tier] = cost
	}

	return c, errors.Join(tableErrs...)
}

func (c *Catalog) checkCycles() error {
	for _, q := range c.quests {
		seen := map[string]bool{q.Code: true}
		for next := q.Prerequisite; next != ""; {
			if seen[next] {
				return fmt.Errorf("%w: prerequisite cycle through %s", ErrInvalidCatalog, q.Code)
			}
			seen[next] = true
			next = c.quests[c.questIndex[next]].Prerequisite
		}
	}
	return nil
}

func (c *Catalog) Quest(code string) (model.Quest, bool) {
	i, ok := c.questIndex[code]
	if !ok {
		return model.Quest{}, false
	}
	return c.quests[i], true
}

func (c *Catalog) QuestsInLevel(level int) []model.Quest {
	var out []model.Quest
	for _, q := range c.quests {
		if q.Level == level {
			out = append(out, q)
		}
	}
	return out
}

// Dependents lists the codes of quests whose prerequisite is code.
func (c *Catalog) Dependents(code string) []string {
	return c.dependents[code]
}

func (c *Catalog) Level(number int) (model.Level, bool) {
	l, ok := c.levels[number]
	return l, ok
}

// Levels returns levels in ascending order.
func (c *Catalog) Levels() []model.Level {
	out := make([]model.Level, 0, len(c.levelOrder))
	for _, n := range c.levelOrder {
		out = append(out, c.levels[n])
	}
	return out
}

func (c *Catalog) DailyTask(code string) (model.DailyTask, bool) {
	i, ok := c.dailyIndex[code]
	if !ok {
		return model.DailyTask{}, false
	}
	return c.daily[i], true
}

func (c *Catalog) DailyTasks() []model.DailyTask {
	return append([]model.DailyTask(nil), c.daily...)
}

// Table never returns nil for a valid tier.
func (c *Catalog) Table(tier model.BoxTier) (*loot.Table, bool) {
	t, ok := c.tables[tier]
	return t, ok
}

func (c *Catalog) BoxCost(tier model.BoxTier) (int, bool) {
	cost, ok := c.boxCosts[tier]
	return cost, ok
}

func (c *Catalog) MiniEvents() []MiniEvent {
	return c.miniEvents
}

// WithBoxCosts returns a copy of the catalog with the given costs overriding
// its own. Non-positive costs are ignored.
func (c *Catalog) WithBoxCosts(costs map[model.BoxTier]int) *Catalog {
	cp := *c
	cp.boxCosts = make(map[model.BoxTier]int, len(c.boxCosts))
	for tier, cost := range c.boxCosts {
		cp.boxCosts[tier] = cost
	}
	for tier, cost := range costs {
		if tier.Valid() && cost > 0 {
			cp.boxCosts[tier] = cost
		}
	}
	return &cp
}
