package bot

import (
	"fmt"
	"html"
	"math"
	"strings"

	"lifequest_bot/internal/model"
	"lifequest_bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// view is one screen: HTML text plus its inline keyboard.
type view struct {
	text   string
	markup tgbotapi.InlineKeyboardMarkup
}

func esc(s string) string {
	return html.EscapeString(s)
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func backRow(data string) []tgbotapi.InlineKeyboardButton {
	return row(button("⬅ Back", data))
}

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(button("📜 Main quests", "menu:quests")),
		row(button("📆 Dailies", "menu:dailies")),
		row(button("💎 Lootboxes", "menu:boxes")),
		row(button("🎒 Rewards", "menu:rewards")),
		row(button("👤 Profile", "menu:profile")),
	)
}

func renderWelcome(user *model.User) view {
	text := fmt.Sprintf("Welcome to <b>LifeQuest</b> 💖\n\nFinish quests, keep up with dailies and spend coins on lootboxes.\n\n💰 Balance: <b>%d</b>", user.Balance)
	return view{text: text, markup: mainMenu()}
}

func renderMainMenu() view {
	return view{text: "Main menu. Where to next?", markup: mainMenu()}
}

func levelMark(v service.LevelView) string {
	switch {
	case v.Complete():
		return "✅"
	case v.Unlocked:
		return "🔓"
	default:
		return "🔒"
	}
}

func questMark(status model.QuestStatus) string {
	switch status {
	case model.QuestDone:
		return "✅"
	case model.QuestActive:
		return "▫️"
	default:
		return "🔒"
	}
}

func renderLevels(levels []service.LevelView) view {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range levels {
		label := fmt.Sprintf("%s Level %d: %s (%d/%d)", levelMark(l), l.Level.Number, l.Level.Title, l.Done, l.Total)
		rows = append(rows, row(button(label, fmt.Sprintf("level:%d", l.Level.Number))))
	}
	rows = append(rows, backRow("menu:main"))
	return view{text: "📜 <b>Main quests</b>\nPick a level:", markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func renderLevel(l *service.LevelView) view {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Level %d: %s</b>\n", l.Level.Number, esc(l.Level.Title))
	if !l.Level.Start.IsZero() {
		fmt.Fprintf(&b, "📅 %s – %s\n", l.Level.Start.Format(model.DayLayout), l.Level.End.Format(model.DayLayout))
	}
	fmt.Fprintf(&b, "Progress: %d/%d", l.Done, l.Total)
	if !l.Open {
		b.WriteString("\n🔒 This level has not started yet.")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, q := range l.Quests {
		label := fmt.Sprintf("%s %s %s", questMark(q.Status), q.Quest.Code, q.Quest.Title)
		rows = append(rows, row(button(label, "quest:"+q.Quest.Code)))
	}
	rows = append(rows, backRow("menu:quests"))
	return view{text: b.String(), markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func lockText(lock *service.LockedError) string {
	switch lock.Reason {
	case service.LockLevelNotOpen:
		return "opens on " + lock.OpensAt.Format(model.DayLayout)
	case service.LockEarlierLevel:
		return fmt.Sprintf("finish level %d first", lock.Level)
	case service.LockPrerequisite:
		return "finish " + lock.Prerequisite + " first"
	}
	return "locked"
}

func renderQuest(q *service.QuestView) view {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s %s</b>\n", esc(q.Quest.Code), esc(q.Quest.Title))
	if q.Quest.Description != "" {
		fmt.Fprintf(&b, "%s\n", esc(q.Quest.Description))
	}
	fmt.Fprintf(&b, "\nRarity: <b>%s</b>\nReward: %d coins", q.Quest.Rarity, q.Quest.Coins)
	if q.Quest.Policy == model.PolicyChoice {
		b.WriteString(" + a reward of your choice")
	} else {
		b.WriteString(" + a reward card")
	}

	if len(q.Unlocks) > 0 {
		fmt.Fprintf(&b, "\nOpens: %s", esc(strings.Join(q.Unlocks, ", ")))
	}

	switch q.Status {
	case model.QuestDone:
		b.WriteString("\n\n✅ Done")
	case model.QuestLocked:
		if q.Lock != nil {
			fmt.Fprintf(&b, "\n\n🔒 Locked: %s", esc(lockText(q.Lock)))
		}
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if q.Status == model.QuestActive {
		rows = append(rows, row(button("✅ Mark done", "complete:"+q.Quest.Code)))
	}
	rows = append(rows, backRow(fmt.Sprintf("level:%d", q.Quest.Level)))
	return view{text: b.String(), markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func writeRewards(b *strings.Builder, rewards []model.Reward) {
	for _, r := range rewards {
		fmt.Fprintf(b, "\n🎁 <b>%s</b>", esc(r.Text))
		if r.Partner {
			b.WriteString(" 💌")
		}
	}
}

func choiceRows(c *model.PendingChoice) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(c.Options))
	for i, option := range c.Options {
		rows = append(rows, row(button("🎁 "+option, fmt.Sprintf("pick:%s:%d", c.Token, i))))
	}
	return rows
}

func renderCompletion(res *service.QuestCompletion) view {
	var b strings.Builder
	b.WriteString("✨ The reward card starts to shimmer...\n")
	fmt.Fprintf(&b, "Rarity: <b>%s</b>\n", res.Quest.Rarity)
	fmt.Fprintf(&b, "Quest <b>%s</b> is done! +%d coins.\n", esc(res.Quest.Title), res.Coins)
	writeRewards(&b, res.Rewards)
	if res.Choice != nil {
		b.WriteString("\n🃏 Choose your reward:")
	}
	if res.LevelFinal != nil {
		fmt.Fprintf(&b, "\n\n🏆 <b>Level %d complete!</b> +%d coins", res.LevelFinal.Level, res.LevelFinal.Coins)
		writeRewards(&b, res.LevelFinal.Rewards)
	}
	if len(res.Unlocked) > 0 {
		fmt.Fprintf(&b, "\n\n🔓 Unlocked: %s", esc(strings.Join(res.Unlocked, ", ")))
	}
	fmt.Fprintf(&b, "\n\n💰 Balance: <b>%d</b>", res.Balance)

	var rows [][]tgbotapi.InlineKeyboardButton
	if res.Choice != nil {
		rows = append(rows, choiceRows(res.Choice)...)
	}
	rows = append(rows, backRow(fmt.Sprintf("level:%d", res.Quest.Level)))
	return view{text: b.String(), markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func renderChoice(c *model.PendingChoice) view {
	text := fmt.Sprintf("🃏 Choose your <b>%s</b> reward:", c.Rarity)
	rows := append(choiceRows(c), backRow("menu:rewards"))
	return view{text: text, markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func renderPick(res *service.RewardPick) view {
	text := fmt.Sprintf("💖 You chose <b>%s</b>. It is waiting in your rewards.\n\n💰 Balance: <b>%d</b>", esc(res.Reward.Text), res.Balance)
	return view{text: text, markup: mainMenu()}
}

func renderDailies(board *service.DailyBoard, header string) view {
	var b strings.Builder
	if header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "📆 <b>Dailies for %s</b>\nTap a task to mark it done, tap again to undo.\n\n💰 Balance: <b>%d</b>", board.Day, board.Balance)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range board.Tasks {
		mark := "⬜"
		if s.Done {
			mark = "✅"
		}
		rows = append(rows, row(button(fmt.Sprintf("%s %s (+%d)", mark, s.Task.Title, s.Task.Coins), "daily:"+s.Task.Code)))
	}
	rows = append(rows, backRow("menu:main"))
	return view{text: b.String(), markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func toggleHeader(res *service.DailyToggle) string {
	if !res.Done {
		return fmt.Sprintf("↩ %s undone, %d coins.", esc(res.Task.Title), res.Delta)
	}
	header := fmt.Sprintf("✅ %s done, +%d coins.", esc(res.Task.Title), res.Delta)
	if res.Suggestion != "" {
		header += "\n💡 " + esc(res.Suggestion)
	}
	return header
}

func renderBoxes(shelf *service.BoxShelf) view {
	text := fmt.Sprintf("💎 <b>Lootboxes</b>\n\n💰 Balance: <b>%d</b>", shelf.Balance)
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, box := range shelf.Boxes {
		label := fmt.Sprintf("%s — %d 🪙", box.Name, box.Cost)
		if !box.Affordable {
			label = "🔒 " + label
		}
		rows = append(rows, row(button(label, fmt.Sprintf("box:%d", int(box.Tier)))))
	}
	rows = append(rows, backRow("menu:main"))
	return view{text: text, markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func renderOpening(res *service.BoxOpening) view {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 You open <b>%s</b>...\nSparks fly out, something rustles inside...\n", res.Tier.Name())
	fmt.Fprintf(&b, "\nd100 = %d", res.Roll)
	writeRewards(&b, res.Rewards)
	if res.MiniEvent != nil {
		fmt.Fprintf(&b, "\n\n🎲 <b>Mini-event of the day:</b> %s\n%s", esc(res.MiniEvent.Title), esc(res.MiniEvent.Text))
	}
	fmt.Fprintf(&b, "\n\n💰 Balance: <b>%d</b>", res.Balance)
	return view{text: b.String(), markup: tgbotapi.NewInlineKeyboardMarkup(
		row(button("💎 Another box", "menu:boxes")),
		backRow("menu:main"),
	)}
}

func rewardSource(r model.Reward) string {
	switch model.OriginKind(r.Origin) {
	case model.OriginLootbox:
		return "Box " + r.Tier.Name()
	case model.OriginLevelFinal:
		return "Level final"
	}
	return "Quest"
}

func renderInventory(inv *service.Inventory) view {
	var b strings.Builder
	if len(inv.Recent) == 0 {
		b.WriteString("No rewards yet. Finish a quest or open a lootbox 💖")
	} else {
		fmt.Fprintf(&b, "🎒 <b>Your rewards</b> (last %d):\n", len(inv.Recent))
		for _, r := range inv.Recent {
			mark := "•"
			if r.Used {
				mark = "✔"
			}
			fmt.Fprintf(&b, "\n%s [%s] %s — <b>%s</b>: %s", mark, r.CreatedAt.Format(model.DayLayout), rewardSource(r), r.Rarity, esc(r.Text))
		}
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range inv.Active {
		rows = append(rows, row(button("✔ Use: "+r.Text, fmt.Sprintf("use:%d", r.ID))))
	}
	rows = append(rows, backRow("menu:main"))
	return view{text: b.String(), markup: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

// progressBar draws done/total as ten blocks.
func progressBar(done, total int) string {
	const steps = 10
	filled := 0
	if total > 0 {
		filled = int(math.Round(float64(done) / float64(total) * steps))
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", steps-filled)
}

func renderProfile(p *service.Profile) view {
	var b strings.Builder
	b.WriteString("👤 <b>Profile</b>\n\n")
	fmt.Fprintf(&b, "💰 Balance: <b>%d</b>\n\n", p.User.Balance)
	for _, l := range p.Levels {
		fmt.Fprintf(&b, "%s Level %d: %d/%d\n", levelMark(l), l.Level.Number, l.Done, l.Total)
	}
	fmt.Fprintf(&b, "\n🏡 Apartment: [%s] %d/%d\n", progressBar(p.Apartment.Done, p.Apartment.Total), p.Apartment.Done, p.Apartment.Total)
	fmt.Fprintf(&b, "\n🎁 Rewards: %d (%d unused)", p.TotalRewards, p.ActiveRewards)
	for _, r := range model.Rarities() {
		if n := p.RarityCounts[r]; n > 0 {
			fmt.Fprintf(&b, "\n  %s: %d", r, n)
		}
	}
	return view{text: b.String(), markup: tgbotapi.NewInlineKeyboardMarkup(
		backRow("menu:main"),
		row(button("♻ Reset progress", "reset:confirm")),
	)}
}

func renderResetConfirm() view {
	return view{
		text: "♻ Reset <b>all</b> progress? Coins, quests, dailies and rewards will be wiped.",
		markup: tgbotapi.NewInlineKeyboardMarkup(
			row(button("✅ Yes, reset", "reset:do"), button("↩ Cancel", "menu:profile")),
		),
	}
}

func renderReset(user *model.User) view {
	return view{text: fmt.Sprintf("Progress reset. A fresh start with %d coins.", user.Balance), markup: mainMenu()}
}
