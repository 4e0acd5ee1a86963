package domain

import (
	"slices"
	"time"
)

// Habit chart dimensions.
const (
	HabitWindowDays = 365
	HabitWeekDays   = 7
	MaxHabitColumns = 53
	MaxHabitLevel   = 5
)

// HabitLevel buckets a day's pages into a 0-5 intensity level.
func HabitLevel(pagesRead int) int {
	switch {
	case pagesRead <= 0:
		return 0
	case pagesRead <= 2:
		return 1
	case pagesRead <= 4:
		return 2
	case pagesRead <= 6:
		return 3
	case pagesRead <= 8:
		return 4
	default:
		return MaxHabitLevel
	}
}

// HabitDay is one cell of the habit chart.
type HabitDay struct {
	Date      string `json:"date"`
	PagesRead int    `json:"pagesRead"`
	Level     int    `json:"level"`
}

// HabitWeek is one column of the habit chart, oldest day first.
type HabitWeek []HabitDay

// BuildHabitChart lays out the trailing 365 days ending today in 7-day
// columns, oldest first. The final column holds the remainder and ends on today.
func BuildHabitChart(l *Ledger, today time.Time) []HabitWeek {
	start := startOfDay(today).AddDate(0, 0, -(HabitWindowDays - 1))

	days := make([]HabitDay, 0, HabitWindowDays)
	for e := range l.EntriesInRange(start, today) {
		days = append(days, HabitDay{
			Date:      e.Date,
			PagesRead: e.PagesRead,
			Level:     HabitLevel(e.PagesRead),
		})
	}

	weeks := make([]HabitWeek, 0, MaxHabitColumns)
	for week := range slices.Chunk(days, HabitWeekDays) {
		if len(weeks) == MaxHabitColumns {
			break
		}
		weeks = append(weeks, HabitWeek(week))
	}
	return weeks
}
