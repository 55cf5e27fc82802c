package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lifequest_bot/internal/loot"
	"lifequest_bot/internal/model"

	"gopkg.in/yaml.v3"
)

type document struct {
	Workbook   string             `yaml:"workbook"`
	Levels     []levelDoc         `yaml:"levels"`
	Quests     []questDoc         `yaml:"quests"`
	Daily      []dailyDoc         `yaml:"daily"`
	BoxCosts   map[int]int        `yaml:"boxCosts"`
	Tables     map[int][]entryDoc `yaml:"tables"`
	MiniEvents []MiniEvent        `yaml:"miniEvents"`
}

type levelDoc struct {
	Number int    `yaml:"number"`
	Title  string `yaml:"title"`
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
	Final  struct {
		Coins int            `yaml:"coins"`
		Cards []model.Rarity `yaml:"cards"`
	} `yaml:"final"`
}

type questDoc struct {
	Code         string             `yaml:"code"`
	Title        string             `yaml:"title"`
	Description  string             `yaml:"description"`
	Rarity       model.Rarity       `yaml:"rarity"`
	Coins        int                `yaml:"coins"`
	Prerequisite string             `yaml:"prerequisite"`
	Policy       model.RewardPolicy `yaml:"policy"`
}

type dailyDoc struct {
	Code     string   `yaml:"code"`
	Title    string   `yaml:"title"`
	Coins    int      `yaml:"coins"`
	Examples []string `yaml:"examples"`
}

type entryDoc struct {
	UpTo       int    `yaml:"upTo"`
	Text       string `yaml:"text"`
	Components int    `yaml:"components"`
	Partner    bool   `yaml:"partner"`
}

// Load reads a catalog from a YAML document or a lootbox workbook (.xlsx).
// Sections the source leaves out keep their built-in defaults.
func Load(path string) (*Catalog, error) {
	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	return New(src)
}

// LoadOrDefault never fails to return a usable catalog. Any problem with the
// source comes back as a *ConfigError next to the catalog actually in use.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	src, err := ReadSource(path)
	if err != nil {
		return Default(), &ConfigError{Source: path, Err: err}
	}

	c, err := New(src)
	if c == nil {
		return Default(), &ConfigError{Source: path, Err: err}
	}
	if err != nil {
		return c, &ConfigError{Source: path, Err: err}
	}
	return c, nil
}

func ReadSource(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		src := DefaultSource()
		if err := applyWorkbook(&src, path); err != nil {
			return Source{}, err
		}
		return src, nil
	case ".yaml", ".yml":
		return readYAML(path)
	default:
		return Source{}, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
}

func readYAML(path string) (Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	src, workbook, err := ParseYAML(raw)
	if err != nil {
		return Source{}, err
	}
	if workbook != "" {
		if !filepath.IsAbs(workbook) {
			workbook = filepath.Join(filepath.Dir(path), workbook)
		}
		if err := applyWorkbook(&src, workbook); err != nil {
			return Source{}, err
		}
	}
	return src, nil
}

// ParseYAML decodes a catalog document. It also returns the workbook path
// the document points at, if any.
func ParseYAML(raw []byte) (Source, string, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Source{}, "", fmt.Errorf("failed to parse catalog: %w", err)
	}

	src := DefaultSource()

	if doc.Levels != nil {
		src.Levels = make([]model.Level, 0, len(doc.Levels))
		for _, l := range doc.Levels {
			level := model.Level{
				Number: l.Number,
				Title:  l.Title,
				Final:  model.LevelFinal{Coins: l.Final.Coins, Cards: l.Final.Cards},
			}
			var err error
			if level.Start, err = parseDate(l.Start); err != nil {
				return Source{}, "", fmt.Errorf("level %d start: %w", l.Number, err)
			}
			if level.End, err = parseDate(l.End); err != nil {
				return Source{}, "", fmt.Errorf("level %d end: %w", l.Number, err)
			}
			src.Levels = append(src.Levels, level)
		}
	}

	if doc.Quests != nil {
		src.Quests = make([]model.Quest, 0, len(doc.Quests))
		for _, d := range doc.Quests {
			src.Quests = append(src.Quests, model.Quest{
				Code:         d.Code,
				Title:        d.Title,
				Description:  d.Description,
				Coins:        d.Coins,
				Rarity:       d.Rarity,
				Prerequisite: d.Prerequisite,
				Policy:       d.Policy,
			})
		}
	}

	if doc.Daily != nil {
		src.Daily = make([]model.DailyTask, 0, len(doc.Daily))
		for _, d := range doc.Daily {
			src.Daily = append(src.Daily, model.DailyTask(d))
		}
	}

	for tier, cost := range doc.BoxCosts {
		src.BoxCosts[model.BoxTier(tier)] = cost
	}

	for tier, entries := range doc.Tables {
		t := model.BoxTier(tier)
		if !t.Valid() {
			return Source{}, "", fmt.Errorf("unknown box tier %d", tier)
		}
		converted := make([]loot.Entry, 0, len(entries))
		for _, e := range entries {
			converted = append(converted, loot.Entry{
				Threshold:  e.UpTo,
				Text:       e.Text,
				Components: e.Components,
				Partner:    e.Partner,
			})
		}
		spreadEvenly(t, converted)
		src.Tables[t] = converted
	}

	if doc.MiniEvents != nil {
		src.MiniEvents = doc.MiniEvents
	}

	return src, doc.Workbook, nil
}

// spreadEvenly gives equal weight to the entries of a table written without
// any upTo bounds. A table it cannot spread is left for validation to reject.
func spreadEvenly(tier model.BoxTier, entries []loot.Entry) {
	texts := make([]string, len(entries))
	for i, e := range entries {
		if e.Threshold != 0 {
			return
		}
		texts[i] = e.Text
	}
	table, err := loot.Uniform(tier, texts)
	if err != nil {
		return
	}
	for i := range entries {
		entries[i].Threshold = table.Entries[i].Threshold
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(model.DayLayout, s)
}
