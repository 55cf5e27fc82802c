package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"lifequest_bot/internal/loot"
	"lifequest_bot/internal/model"

	"github.com/xuri/excelize/v2"
)

var miniEventSheets = []string{"Мини-ивенты", "Mini-events", "Mini events"}

// applyWorkbook replaces reward tables and mini events in src with the ones
// found in a lootbox workbook. Tier sheets are named with a leading tier
// digit ("1. Little happiness") and hold "№ | Reward | Partner" rows.
func applyWorkbook(src *Source, path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	found := false
	for _, sheet := range f.GetSheetList() {
		if isMiniEventSheet(sheet) {
			rows, err := f.GetRows(sheet)
			if err != nil {
				return fmt.Errorf("failed to read sheet %q: %w", sheet, err)
			}
			if events := parseMiniEvents(rows); len(events) > 0 {
				src.MiniEvents = events
			}
			continue
		}

		tier, ok := sheetTier(sheet)
		if !ok {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		slots, partners := parseTierRows(rows)
		table, err := loot.FromSlots(tier, slots, func(roll int) bool { return partners[roll] })
		if err != nil {
			return fmt.Errorf("sheet %q: %w", sheet, err)
		}
		src.Tables[tier] = table.Entries
		found = true
	}

	if !found {
		return fmt.Errorf("workbook %s has no tier sheets", path)
	}
	return nil
}

func sheetTier(name string) (model.BoxTier, bool) {
	name = strings.TrimSpace(name)
	if name == "" || !unicode.IsDigit(rune(name[0])) {
		return 0, false
	}
	tier := model.BoxTier(name[0] - '0')
	if len(name) > 1 && unicode.IsDigit(rune(name[1])) {
		return 0, false
	}
	return tier, tier.Valid()
}

func isMiniEventSheet(name string) bool {
	for _, s := range miniEventSheets {
		if strings.EqualFold(strings.TrimSpace(name), s) {
			return true
		}
	}
	return false
}

// parseTierRows skips the header row and any row whose first cell is not a
// roll in [1, 100]. Missing rolls stay blank and become placeholders.
func parseTierRows(rows [][]string) ([]string, map[int]bool) {
	slots := make([]string, loot.Sides)
	partners := make(map[int]bool)

	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil || n < 1 || n > loot.Sides {
			continue
		}
		text := strings.TrimSpace(row[1])
		if strings.EqualFold(text, "nan") {
			text = ""
		}
		slots[n-1] = text
		if len(row) > 2 && truthy(row[2]) {
			partners[n] = true
		}
	}
	return slots, partners
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "yes", "y", "true", "x", "да":
		return true
	}
	return false
}

// parseMiniEvents reads the first column. A line with a digit and a dot
// starts a new event and following lines are its text.
func parseMiniEvents(rows [][]string) []MiniEvent {
	var (
		events  []MiniEvent
		current *MiniEvent
	)
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		line := strings.TrimSpace(row[0])
		if line == "" {
			continue
		}
		if strings.ContainsAny(line, "0123456789") && strings.Contains(line, ".") {
			if current != nil {
				events = append(events, *current)
			}
			current = &MiniEvent{Title: line}
			continue
		}
		if current == nil {
			continue
		}
		if current.Text != "" {
			current.Text += " "
		}
		current.Text += line
	}
	if current != nil {
		events = append(events, *current)
	}
	return events
}
