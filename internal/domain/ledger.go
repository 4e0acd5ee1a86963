package domain

import (
	"iter"
	"time"
)

// DayKeyLayout is the calendar-day key format used by the ledger.
const DayKeyLayout = "2006-01-02"

// DayKey returns the calendar day of t in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey parses a YYYY-MM-DD day key in loc.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayKeyLayout, key, loc)
}

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DailyProgressEntry is one calendar day's total pages read across all books.
type DailyProgressEntry struct {
	Date      string `json:"date"`
	PagesRead int    `json:"pagesRead"`
}

// Ledger accumulates pages read per calendar day.
// It is grow-only: entries are created lazily and only ever increase.
type Ledger struct {
	entries []DailyProgressEntry
	index   map[string]int
}

// NewLedger builds a ledger from persisted entries. Duplicate dates are
// merged and negative totals are dropped so at most one non-negative
// entry exists per date.
func NewLedger(entries []DailyProgressEntry) *Ledger {
	l := &Ledger{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		if e.PagesRead < 0 {
			e.PagesRead = 0
		}
		if i, ok := l.index[e.Date]; ok {
			l.entries[i].PagesRead += e.PagesRead
			continue
		}
		l.index[e.Date] = len(l.entries)
		l.entries = append(l.entries, e)
	}
	return l
}

// Record adds delta pages to date. Non-positive deltas are ignored.
// Returns true if the ledger changed.
func (l *Ledger) Record(date string, delta int) bool {
	if delta <= 0 {
		return false
	}
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if i, ok := l.index[date]; ok {
		l.entries[i].PagesRead += delta
		return true
	}
	l.index[date] = len(l.entries)
	l.entries = append(l.entries, DailyProgressEntry{Date: date, PagesRead: delta})
	return true
}

// PagesOn returns the pages recorded for date, or 0.
func (l *Ledger) PagesOn(date string) int {
	if i, ok := l.index[date]; ok {
		return l.entries[i].PagesRead
	}
	return 0
}

// Len returns the number of stored entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the stored entries in insertion order.
func (l *Ledger) Entries() []DailyProgressEntry {
	out := make([]DailyProgressEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	return NewLedger(l.entries)
}

// EntriesInRange yields one entry per calendar day in [start, end] inclusive,
// reporting 0 for days without a stored entry. Days are counted in start's
// location. The sequence is empty when end is before start and may be
// ranged over any number of times.
func (l *Ledger) EntriesInRange(start, end time.Time) iter.Seq[DailyProgressEntry] {
	first := startOfDay(start)
	last := startOfDay(end.In(start.Location()))

	return func(yield func(DailyProgressEntry) bool) {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			key := DayKey(day)
			if !yield(DailyProgressEntry{Date: key, PagesRead: l.PagesOn(key)}) {
				return
			}
		}
	}
}
