package catalog

import (
	"time"

	"lifequest_bot/internal/loot"
	"lifequest_bot/internal/model"
)

var defaultBoxCosts = map[model.BoxTier]int{
	model.TierLittle:    10,
	model.TierMiddle:    20,
	model.TierLarge:     40,
	model.TierEpic:      80,
	model.TierLegendary: 150,
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func final(r model.Rarity) model.LevelFinal {
	return model.LevelFinal{Coins: r.Coins() * 2, Cards: []model.Rarity{r}}
}

var defaultLevels = []model.Level{
	{Number: 0, Title: "Setup", Start: date(2024, time.November, 25), End: date(2024, time.November, 30)},
	{Number: 1, Title: "First steps", Start: date(2024, time.December, 1), End: date(2024, time.December, 12), Final: final(model.RarityUncommon)},
	{Number: 2, Title: "Debts and first orders", Start: date(2024, time.December, 13), End: date(2025, time.January, 7), Final: final(model.RarityRare)},
	{Number: 3, Title: "Stable income", Start: date(2025, time.January, 8), End: date(2025, time.February, 20), Final: final(model.RarityEpic)},
	{Number: 4, Title: "Savings and contractors", Start: date(2025, time.February, 21), End: date(2025, time.March, 20), Final: final(model.RarityLegendary)},
	{Number: 5, Title: "Renovation marathon", Start: date(2025, time.March, 21), End: date(2025, time.April, 20), Final: final(model.RarityEpic)},
	{Number: 6, Title: "Renting out", Start: date(2025, time.April, 21), End: date(2025, time.May, 10), Final: final(model.RarityLegendary)},
	{Number: 7, Title: "Moving to Tbilisi", Start: date(2025, time.May, 11), End: date(2025, time.May, 31), Final: final(model.RarityLegendary)},
}

func q(code, title, description string, rarity model.Rarity, prerequisite string) model.Quest {
	policy := model.PolicyRoll
	if rarity >= model.RarityEpic {
		policy = model.PolicyChoice
	}
	return model.Quest{
		Code:         code,
		Title:        title,
		Description:  description,
		Rarity:       rarity,
		Prerequisite: prerequisite,
		Policy:       policy,
	}
}

var defaultQuests = []model.Quest{
	q("0.1", "Set up the game system", "Prepare the bot, the rules and the structure of the game.", model.RarityCommon, ""),
	q("0.2", "Prepare the card stacks", "Print and cut out every card and lootbox.", model.RarityCommon, ""),
	q("0.3", "Financial audit", "Sort out debts, bills and regular expenses.", model.RarityCommon, ""),

	q("1.1", "Pay the 100 GEL fine", "Close the utility bill fine.", model.RarityCommon, ""),
	q("1.2", "Installment payoff plan", "Write a plan for closing the 70 000 RUB installment.", model.RarityCommon, ""),
	q("1.3", "Pay part of the installment", "Make the first noticeable installment payment.", model.RarityUncommon, "1.2"),
	q("1.4", "Refresh the portfolio", "Update works and profile on Upwork and elsewhere.", model.RarityCommon, ""),
	q("1.5", "First 10 proposals", "Send 10 thoughtful proposals.", model.RarityCommon, "1.4"),
	q("1.6", "Apartment work list", "List the renovation tasks.", model.RarityCommon, ""),
	q("1.7", "Collect references", "Gather visual references for the renovation.", model.RarityUncommon, ""),

	q("2.1", "Close the 70 000 RUB installment", "Pay off the installment completely.", model.RarityRare, ""),
	q("2.2", "Pay $500 of the debt", "Pay $500 of the elevator debt.", model.RarityRare, ""),
	q("2.3", "First Upwork order", "Land the first order.", model.RarityUncommon, ""),
	q("2.4", "Earn more than $100", "Deliver and get paid more than $100.", model.RarityRare, "2.3"),
	q("2.5", "Second Upwork order", "Land the second order.", model.RarityUncommon, "2.3"),
	q("2.6", "Save $500", "Build a $500 cushion.", model.RarityUncommon, ""),
	q("2.7", "Save $1000", "Build a $1000 cushion.", model.RarityRare, "2.6"),
	q("2.8", "Get estimates", "Collect renovation estimates.", model.RarityCommon, ""),

	q("3.1", "Close the $500 debt", "Pay off the $500 debt completely.", model.RarityEpic, ""),
	q("3.2", "Income $1000 a month", "Steady $1000 monthly income.", model.RarityRare, ""),
	q("3.3", "Income $1500 a month", "Steady $1500 monthly income.", model.RarityEpic, "3.2"),
	q("3.4", "Save $2000", "Save $2000 for renovation or cushion.", model.RarityRare, ""),
	q("3.5", "Save $3000", "Save $3000.", model.RarityEpic, "3.4"),
	q("3.6", "Final materials list", "Compile the final list of renovation materials.", model.RarityUncommon, ""),
	q("3.7", "Style and palette", "Choose the renovation style and palette.", model.RarityUncommon, ""),

	q("4.1", "Save $4000", "Reach $4000.", model.RarityEpic, ""),
	q("4.2", "Save $5000", "Reach $5000.", model.RarityLegendary, "4.1"),
	q("4.3", "Five orders in a row", "Deliver five orders in a row without a failure.", model.RarityRare, ""),
	q("4.4", "Super productive week", "A week of very active work.", model.RarityRare, ""),
	q("4.5", "Buy materials", "Purchase renovation materials.", model.RarityUncommon, ""),
	q("4.6", "Contract the builders", "Sign the contract with the builders.", model.RarityRare, ""),

	q("5.1", "Bathroom", "Finish the bathroom.", model.RarityRare, ""),
	q("5.2", "Kitchen", "Finish the kitchen.", model.RarityRare, ""),
	q("5.3", "Walls", "Finish the walls.", model.RarityRare, ""),
	q("5.4", "Lighting", "Lighting across the apartment.", model.RarityCommon, ""),
	q("5.5", "Balconies", "Do the balconies.", model.RarityUncommon, ""),

	q("6.1", "Cleaning", "Final cleaning before renting out.", model.RarityCommon, ""),
	q("6.2", "Photos", "Take good photos of the apartment.", model.RarityUncommon, "6.1"),
	q("6.3", "Realtor", "Find and sign with a realtor.", model.RarityUncommon, ""),
	q("6.4", "Listing", "Write and publish the listing.", model.RarityCommon, "6.2"),
	q("6.5", "First booking", "Get the first booking.", model.RarityRare, "6.4"),
	q("6.6", "First payment", "Receive the first payment from a tenant.", model.RarityEpic, "6.5"),

	q("7.1", "$1500 for Tbilisi", "Save $1500 for moving and housing in Tbilisi.", model.RarityRare, ""),
	q("7.2", "$2000 final goal", "Save $2000 for three months plus deposit.", model.RarityEpic, "7.1"),
	q("7.3", "Find an apartment", "Pick an apartment near the metro.", model.RarityRare, ""),
	q("7.4", "Pay 2-3 months of rent", "Pay rent two or three months ahead.", model.RarityEpic, "7.3"),
	q("7.5", "Organize the move", "Logistics and the move itself.", model.RarityUncommon, ""),
	q("7.6", "Make it cozy", "Make the new apartment feel like home.", model.RarityRare, ""),
}

var defaultDaily = []model.DailyTask{
	{
		Code:  "small",
		Title: "Small task",
		Coins: 2,
		Examples: []string{
			"Wash one plate or mug.",
			"Fold one pile of clothes.",
			"Take out one bin.",
			"Answer one important message.",
			"Clear one small corner of the desk.",
			"Stretch for 5 minutes.",
			"Fetch water and drink a glass.",
			"Write down one thought.",
			"Wipe one surface.",
			"Take one small step at work, like opening the project.",
		},
	},
	{
		Code:  "standard",
		Title: "Standard task",
		Coins: 4,
		Examples: []string{
			"25-40 minutes of focused work.",
			"Cook a simple meal at home.",
			"Wipe every surface in one room.",
			"Sort one shelf or drawer.",
			"One study or work session for Upwork.",
			"A 15-20 minute walk.",
			"A shower with full self-care.",
			"Write a short finance note for the day.",
			"Review tomorrow's tasks.",
			"Maintenance cleaning in the zone that matters now.",
		},
	},
	{
		Code:  "unpleasant",
		Title: "Unpleasant or postponed",
		Coins: 6,
		Examples: []string{
			"Deal with one unpleasant paper or payment.",
			"Send the hard message you keep postponing.",
			"Call the office you are afraid of.",
			"Do part of a medical or official errand.",
			"Clear one scary corner of clutter.",
			"Look honestly at the money numbers.",
			"Clean up the messy mailbox.",
			"Delete files and projects that drain energy.",
			"Close the idea you carry around but never do.",
			"Take a step on the task that brings shame or fear.",
		},
	},
	{
		Code:  "focus",
		Title: "Focus block",
		Coins: 8,
		Examples: []string{
			"One 50-minute focus block on Upwork or a project.",
			"One focus block on financial planning.",
			"One focus block on game design or drawing.",
			"One focus block preparing renovation materials.",
			"One focus block organizing files and folders.",
			"One focus block of learning.",
			"One focus block on a big work project.",
			"One focus block of deep cleaning in one room.",
		},
	},
}

var defaultTables = map[model.BoxTier][]loot.Entry{
	model.TierLittle: {
		{Threshold: 20, Text: "Favourite snack"},
		{Threshold: 35, Text: "30 minutes of guilt-free gaming"},
		{Threshold: 50, Text: "Fancy coffee"},
		{Threshold: 62, Text: "Bubble bath evening"},
		{Threshold: 74, Text: "New sticker pack"},
		{Threshold: 86, Text: "An episode of a favourite show"},
		{Threshold: 95, Text: "Flowers from him", Partner: true},
		{Threshold: 100, Text: "Double treat", Components: 2},
	},
	model.TierMiddle: {
		{Threshold: 20, Text: "Takeaway dinner"},
		{Threshold: 38, Text: "A new book"},
		{Threshold: 54, Text: "Lazy morning, no alarm"},
		{Threshold: 68, Text: "Cinema ticket"},
		{Threshold: 80, Text: "Small cosmetics haul"},
		{Threshold: 92, Text: "He cooks dinner", Partner: true},
		{Threshold: 100, Text: "Double treat", Components: 2},
	},
	model.TierLarge: {
		{Threshold: 18, Text: "Restaurant dinner"},
		{Threshold: 34, Text: "New clothes item"},
		{Threshold: 50, Text: "Spa or massage"},
		{Threshold: 64, Text: "Board game of choice"},
		{Threshold: 78, Text: "Day off from all chores"},
		{Threshold: 92, Text: "Date he organizes", Partner: true},
		{Threshold: 100, Text: "Triple treat", Components: 3},
	},
	model.TierEpic: {
		{Threshold: 20, Text: "Weekend trip"},
		{Threshold: 40, Text: "Art supplies set"},
		{Threshold: 58, Text: "New video game"},
		{Threshold: 76, Text: "Concert or show tickets"},
		{Threshold: 92, Text: "Surprise date from him", Partner: true},
		{Threshold: 100, Text: "Double epic", Components: 2},
	},
	model.TierLegendary: {
		{Threshold: 25, Text: "Big wishlist item"},
		{Threshold: 50, Text: "Trip abroad"},
		{Threshold: 70, Text: "New gadget"},
		{Threshold: 90, Text: "Romantic getaway he plans", Partner: true},
		{Threshold: 100, Text: "Double legendary", Components: 2},
	},
}

var defaultMiniEvents = []MiniEvent{
	{Title: "1. Lucky hour", Text: "The next daily task you finish today counts twice in your heart."},
	{Title: "2. Treasure hunt", Text: "Find one forgotten thing at home and decide its fate."},
	{Title: "3. Tea ceremony", Text: "Brew something nice and drink it without a screen."},
	{Title: "4. Photo quest", Text: "Take a photo of something beautiful in the apartment."},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultSource())
	if err != nil {
		panic("built-in catalog is invalid: " + err.Error())
	}
	return c
}

func DefaultSource() Source {
	tables := make(map[model.BoxTier][]loot.Entry, len(defaultTables))
	for tier, entries := range defaultTables {
		tables[tier] = append([]loot.Entry(nil), entries...)
	}
	costs := make(map[model.BoxTier]int, len(defaultBoxCosts))
	for tier, cost := range defaultBoxCosts {
		costs[tier] = cost
	}
	return Source{
		Quests:     append([]model.Quest(nil), defaultQuests...),
		Levels:     append([]model.Level(nil), defaultLevels...),
		Daily:      append([]model.DailyTask(nil), defaultDaily...),
		Tables:     tables,
		BoxCosts:   costs,
		MiniEvents: append([]MiniEvent(nil), defaultMiniEvents...),
	}
}
