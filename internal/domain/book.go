// Package domain holds the reading tracker's records and the pure rules
// that keep them consistent.
package domain

import "time"

// Book is one tracked reading item.
//
// Invariants after every mutation:
//   - 0 <= CurrentPage <= TotalPages
//   - Completed == (CurrentPage >= TotalPages)
//   - CompletedDate is stamped once, on the first completion, and never changes.
type Book struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Author        string       `json:"author"`
	TotalPages    int          `json:"totalPages"`
	CurrentPage   int          `json:"currentPage"`
	DateAdded     time.Time    `json:"dateAdded"`
	Completed     bool         `json:"completed"`
	CompletedDate *time.Time   `json:"completedDate,omitempty"`
	DisplayStyle  DisplayStyle `json:"displayStyle"`
	Pinned        bool         `json:"pinned,omitempty"`
}

// PageChange describes the effect of a page update on one book.
type PageChange struct {
	OldPage       int
	NewPage       int
	Delta         int  // pages read forward; regressions contribute 0
	JustCompleted bool // first ever completion of this book
}

// NewBook creates a book with the initial page clamped into [0, totalPages].
// A book that starts complete gets its CompletedDate at creation.
func NewBook(id, title, author string, totalPages, initialPage int, now time.Time) *Book {
	stamp := Timestamp(now)
	b := &Book{
		ID:           id,
		Title:        title,
		Author:       author,
		TotalPages:   totalPages,
		CurrentPage:  ClampPage(initialPage, totalPages),
		DateAdded:    stamp,
		DisplayStyle: DefaultDisplayStyle,
	}
	b.Completed = b.CurrentPage >= b.TotalPages
	if b.Completed {
		b.CompletedDate = &stamp
	}
	return b
}

// SetPage moves the book to newPage (clamped) and recomputes completion.
func (b *Book) SetPage(newPage int, now time.Time) PageChange {
	change := PageChange{OldPage: b.CurrentPage}

	b.CurrentPage = ClampPage(newPage, b.TotalPages)
	change.NewPage = b.CurrentPage
	change.Delta = max(0, change.NewPage-change.OldPage)

	b.Completed = b.CurrentPage >= b.TotalPages
	if b.Completed && b.CompletedDate == nil {
		stamp := Timestamp(now)
		b.CompletedDate = &stamp
		change.JustCompleted = true
	}

	return change
}

// Clone returns a deep copy of the book.
func (b *Book) Clone() *Book {
	c := *b
	if b.CompletedDate != nil {
		d := *b.CompletedDate
		c.CompletedDate = &d
	}
	return &c
}

// ProgressPercent returns CurrentPage/TotalPages as a 0-100 integer,
// rounding halves up.
func (b *Book) ProgressPercent() int {
	return ProgressPercent(b)
}

// ProgressPercent returns round(currentPage / totalPages * 100) with
// round-half-up semantics. Books with no pages report 0.
func ProgressPercent(b *Book) int {
	if b.TotalPages <= 0 {
		return 0
	}
	return roundDiv(b.CurrentPage*100, b.TotalPages)
}

// Timestamp normalizes t for persistence: UTC, millisecond precision,
// no monotonic reading. Matches the ISO-8601 strings of legacy records.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// roundDiv returns num/den rounded half up for non-negative num and positive den.
func roundDiv(num, den int) int {
	return (2*num + den) / (2 * den)
}
