package domain

import (
	"slices"
	"time"
)

// CurrentBooks returns the incomplete books with pinned books first.
// Relative order is otherwise preserved.
func CurrentBooks(books []*Book) []*Book {
	current := make([]*Book, 0, len(books))
	for _, b := range books {
		if !b.Completed {
			current = append(current, b)
		}
	}
	slices.SortStableFunc(current, func(a, b *Book) int {
		switch {
		case a.Pinned == b.Pinned:
			return 0
		case a.Pinned:
			return -1
		default:
			return 1
		}
	})
	return current
}

// CompletedBooks returns the completed books in registry order.
func CompletedBooks(books []*Book) []*Book {
	done := make([]*Book, 0, len(books))
	for _, b := range books {
		if b.Completed {
			done = append(done, b)
		}
	}
	return done
}

// TotalBooksCompleted counts completed books.
func TotalBooksCompleted(books []*Book) int {
	n := 0
	for _, b := range books {
		if b.Completed {
			n++
		}
	}
	return n
}

// TotalPagesRead sums full page counts of completed books and the current
// page of books still in progress.
func TotalPagesRead(books []*Book) int {
	total := 0
	for _, b := range books {
		if b.Completed {
			total += b.TotalPages
		} else {
			total += b.CurrentPage
		}
	}
	return total
}

// AverageCompletionRate is the rounded mean of ProgressPercent over the
// current books, or 0 when there are none.
func AverageCompletionRate(books []*Book) int {
	sum, n := 0, 0
	for _, b := range books {
		if b.Completed {
			continue
		}
		sum += ProgressPercent(b)
		n++
	}
	if n == 0 {
		return 0
	}
	return roundDiv(sum, n)
}

// Streaks returns the current and longest runs of consecutive days with
// pages read. The current streak only counts if it includes today or
// yesterday.
func Streaks(l *Ledger, today time.Time) (current, longest int) {
	var days []string
	for _, e := range l.entries {
		if e.PagesRead > 0 {
			days = append(days, e.Date)
		}
	}
	if len(days) == 0 {
		return 0, 0
	}
	slices.Sort(days)

	loc := today.Location()
	prev, err := ParseDayKey(days[0], loc)
	if err != nil {
		return 0, 0
	}

	run := 1
	longest = 1
	for _, key := range days[1:] {
		day, err := ParseDayKey(key, loc)
		if err != nil {
			continue
		}
		if day.Equal(prev.AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
		prev = day
	}

	todayStart := startOfDay(today)
	last := DayKey(prev)
	if last != DayKey(todayStart) && last != DayKey(todayStart.AddDate(0, 0, -1)) {
		return 0, longest
	}
	return run, longest
}
