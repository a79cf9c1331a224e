package core

import "time"

// CategorySpending is the total spent on one category within a window.
type CategorySpending struct {
	Category string
	Amount   Money
	Color    Color
}

// DailySpending is the total spent on one calendar day within a window.
type DailySpending struct {
	Day    time.Time // start of day
	Amount Money
}

// Summary holds the tiles shown above the analytics charts.
type Summary struct {
	TopCategory    string
	HasTopCategory bool
	AveragePerDay  Money
	Total          Money
	Days           int
}

// CategoryEntry is a category known to the registry.
type CategoryEntry struct {
	Name    string
	Color   Color
	BuiltIn bool
}
