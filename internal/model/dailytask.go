package model

// DayLayout formats the civil day key used for daily completion state.
const DayLayout = "2006-01-02"

type DailyTask struct {
	Code     string
	Title    string
	Coins    int
	Examples []string
}

type DailyState struct {
	Task DailyTask
	Done bool
}
