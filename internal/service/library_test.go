package service

import (
	"context"
	stderrors "errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/events"
	"github.com/listenupapp/readtrack/internal/id"
	"github.com/listenupapp/readtrack/internal/store"
	"github.com/listenupapp/readtrack/internal/store/memory"
)

// testClock is a settable clock.
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// recorder collects emitted events.
type recorder struct{ events []events.Event }

func (r *recorder) Emit(e events.Event) { r.events = append(r.events, e) }

func (r *recorder) types() []events.EventType {
	out := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type testLibrary struct {
	*LibraryService
	kv     *memory.KV
	clock  *testClock
	events *recorder
}

func setupTestLibrary(t *testing.T) *testLibrary {
	t.Helper()

	kv := memory.New()
	clock := &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	rec := &recorder{}

	lib := NewLibraryService(store.New(kv, nil), nil,
		WithClock(clock.Now),
		WithIDFunc(id.Sequence()),
		WithEmitter(rec),
	)
	require.NoError(t, lib.Load(context.Background()))
	rec.events = nil

	return &testLibrary{LibraryService: lib, kv: kv, clock: clock, events: rec}
}

func (l *testLibrary) add(t *testing.T, title string, total, initial int) *domain.Book {
	t.Helper()
	b, err := l.AddBook(context.Background(), AddBookRequest{Title: title, Author: "Author", TotalPages: total, InitialPage: initial})
	require.NoError(t, err)
	return b
}

// reload reads persisted state into a fresh service sharing the same storage.
func (l *testLibrary) reload(t *testing.T) *LibraryService {
	t.Helper()
	fresh := NewLibraryService(store.New(l.kv, nil), nil, WithClock(l.clock.Now))
	require.NoError(t, fresh.Load(context.Background()))
	return fresh
}

func TestAddBook_Defaults(t *testing.T) {
	lib := setupTestLibrary(t)

	b, err := lib.AddBook(context.Background(), AddBookRequest{Title: "Dune", Author: "Herbert", TotalPages: 600})
	require.NoError(t, err)

	assert.Equal(t, "book-1", b.ID)
	assert.Equal(t, 0, b.CurrentPage)
	assert.False(t, b.Completed)
	assert.Nil(t, b.CompletedDate)
	assert.Equal(t, domain.DisplayStyleBar, b.DisplayStyle)
	assert.Equal(t, lib.clock.now, b.DateAdded)
	assert.Equal(t, []events.EventType{events.EventBookCreated, events.EventLibraryChanged}, lib.events.types())
}

func TestAddBook_NormalizesText(t *testing.T) {
	lib := setupTestLibrary(t)

	b, err := lib.AddBook(context.Background(), AddBookRequest{Title: "  The   Left Hand\tof Darkness ", Author: " Le Guin ", TotalPages: 300})
	require.NoError(t, err)

	assert.Equal(t, "The Left Hand of Darkness", b.Title)
	assert.Equal(t, "Le Guin", b.Author)
}

func TestAddBook_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   AddBookRequest
		field string
	}{
		{"empty title", AddBookRequest{Author: "A", TotalPages: 10}, "title"},
		{"blank author", AddBookRequest{Title: "T", Author: "   ", TotalPages: 10}, "author"},
		{"zero pages", AddBookRequest{Title: "T", Author: "A"}, "totalPages"},
		{"negative pages", AddBookRequest{Title: "T", Author: "A", TotalPages: -4}, "totalPages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := setupTestLibrary(t)

			b, err := lib.AddBook(context.Background(), tt.req)

			assert.Nil(t, b)
			require.True(t, errors.Is(err, errors.ErrValidation), "got %v", err)
			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Contains(t, domainErr.Details, tt.field)

			assert.Empty(t, lib.Books())
			assert.Empty(t, lib.events.events)
			assert.Zero(t, lib.kv.Writes())
		})
	}
}

func TestAddBook_InitialPageClampedAndAlreadyComplete(t *testing.T) {
	lib := setupTestLibrary(t)
	fired := 0
	lib.OnBookCompleted(func(string) { fired++ })

	b := lib.add(t, "Short", 50, 80)

	assert.Equal(t, 50, b.CurrentPage)
	assert.True(t, b.Completed)
	require.NotNil(t, b.CompletedDate)
	assert.Zero(t, fired, "books added complete do not notify")
	assert.Empty(t, lib.DailyProgress())
}

func TestAddBookFromForm(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()

	b, err := lib.AddBookFromForm(ctx, "Emma", "Austen", "400", "abc")
	require.NoError(t, err)
	assert.Equal(t, 400, b.TotalPages)
	assert.Equal(t, 0, b.CurrentPage)

	b, err = lib.AddBookFromForm(ctx, "Emma", "Austen", "400", "120 pages in")
	require.NoError(t, err)
	assert.Equal(t, 120, b.CurrentPage)

	_, err = lib.AddBookFromForm(ctx, "Emma", "Austen", "lots", "0")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

// Scenario: finishing a book in one jump.
func TestSetCurrentPage_CompletesBook(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	var titles []string
	lib.OnBookCompleted(func(title string) { titles = append(titles, title) })

	b, err := lib.AddBook(ctx, AddBookRequest{Title: "Dune", Author: "Herbert", TotalPages: 600})
	require.NoError(t, err)
	lib.clock.Advance(2 * time.Hour)

	updated, err := lib.SetCurrentPage(ctx, b.ID, 600)
	require.NoError(t, err)

	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedDate)
	assert.Equal(t, lib.clock.now, *updated.CompletedDate)
	assert.Equal(t, []domain.DailyProgressEntry{{Date: "2026-03-14", PagesRead: 600}}, lib.DailyProgress())
	assert.Equal(t, []string{"Dune"}, titles)

	title, ok := lib.ConsumeCompletion()
	assert.True(t, ok)
	assert.Equal(t, "Dune", title)
	_, ok = lib.ConsumeCompletion()
	assert.False(t, ok, "completion is consumed once")
}

// Scenario: moving backward records nothing.
func TestSetCurrentPage_RegressionLeavesLedger(t *testing.T) {
	lib := setupTestLibrary(t)
	b := lib.add(t, "X", 100, 50)

	updated, err := lib.SetCurrentPage(context.Background(), b.ID, 30)
	require.NoError(t, err)

	assert.Equal(t, 30, updated.CurrentPage)
	assert.Empty(t, lib.DailyProgress())
}

// Scenario: same-day deltas accumulate into one entry.
func TestSetCurrentPage_SameDayAccumulates(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	b := lib.add(t, "X", 100, 0)

	_, err := lib.SetCurrentPage(ctx, b.ID, 20)
	require.NoError(t, err)
	lib.clock.Advance(3 * time.Hour)
	_, err = lib.SetCurrentPage(ctx, b.ID, 35)
	require.NoError(t, err)

	assert.Equal(t, []domain.DailyProgressEntry{{Date: "2026-03-14", PagesRead: 35}}, lib.DailyProgress())
}

// Scenario: overshooting the last page clamps.
func TestSetCurrentPage_ClampsOvershoot(t *testing.T) {
	lib := setupTestLibrary(t)
	b := lib.add(t, "X", 200, 0)

	updated, err := lib.SetCurrentPage(context.Background(), b.ID, 9999)
	require.NoError(t, err)

	assert.Equal(t, 200, updated.CurrentPage)
	assert.True(t, updated.Completed)
	assert.Equal(t, 200, lib.Ledger().PagesOn("2026-03-14"))
}

func TestSetCurrentPage_NotFound(t *testing.T) {
	lib := setupTestLibrary(t)

	_, err := lib.SetCurrentPage(context.Background(), "book-404", 10)

	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Empty(t, lib.events.events)
	assert.Zero(t, lib.kv.Writes())
}

func TestSetCurrentPage_StepsEqualOneJump(t *testing.T) {
	stepped := setupTestLibrary(t)
	jumped := setupTestLibrary(t)
	ctx := context.Background()

	a := stepped.add(t, "X", 500, 10)
	for _, p := range []int{10, 25, 25, 90, 140, 333} {
		_, err := stepped.SetCurrentPage(ctx, a.ID, p)
		require.NoError(t, err)
	}

	b := jumped.add(t, "X", 500, 10)
	_, err := jumped.SetCurrentPage(ctx, b.ID, 333)
	require.NoError(t, err)

	assert.Equal(t, jumped.DailyProgress(), stepped.DailyProgress())
	assert.Equal(t, 323, stepped.Ledger().PagesOn("2026-03-14"))
}

func TestSetCurrentPage_BackAndForthNeverNegative(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	b := lib.add(t, "X", 100, 40)

	for _, p := range []int{30, 40, 20, 40, -5, 40} {
		_, err := lib.SetCurrentPage(ctx, b.ID, p)
		require.NoError(t, err)
		for _, e := range lib.DailyProgress() {
			assert.GreaterOrEqual(t, e.PagesRead, 0)
		}
	}

	// 10 + 20 + 40 pages regained after each backward step.
	assert.Equal(t, 70, lib.Ledger().PagesOn("2026-03-14"))
}

func TestSetCurrentPage_InvariantsAfterEveryCall(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	b := lib.add(t, "X", 120, 0)

	for _, p := range []int{-3, 5, 500, 119, 120, 0, 121, 60} {
		got, err := lib.SetCurrentPage(ctx, b.ID, p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.CurrentPage, 0)
		assert.LessOrEqual(t, got.CurrentPage, got.TotalPages)
		assert.Equal(t, got.CurrentPage == got.TotalPages, got.Completed)
	}
}

func TestSetCurrentPage_ReopenKeepsCompletedDate(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	fired := 0
	lib.OnBookCompleted(func(string) { fired++ })
	b := lib.add(t, "X", 100, 0)

	first, err := lib.SetCurrentPage(ctx, b.ID, 100)
	require.NoError(t, err)
	stamp := *first.CompletedDate

	lib.clock.Advance(24 * time.Hour)
	reopened, err := lib.SetCurrentPage(ctx, b.ID, 50)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)
	assert.Equal(t, stamp, *reopened.CompletedDate)

	again, err := lib.SetCurrentPage(ctx, b.ID, 100)
	require.NoError(t, err)
	assert.True(t, again.Completed)
	assert.Equal(t, stamp, *again.CompletedDate)
	assert.Equal(t, 1, fired)
}

func TestSetCurrentPage_EventsInOrder(t *testing.T) {
	lib := setupTestLibrary(t)
	b := lib.add(t, "Dune", 10, 0)
	lib.events.events = nil

	_, err := lib.SetCurrentPage(context.Background(), b.ID, 10)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.EventBookUpdated,
		events.EventBookCompleted,
		events.EventLibraryChanged,
	}, lib.events.types())

	done, ok := lib.events.events[1].Data.(events.BookCompletedEventData)
	require.True(t, ok)
	assert.Equal(t, "Dune", done.Title)

	changed, ok := lib.events.events[2].Data.(events.LibraryEventData)
	require.True(t, ok)
	assert.True(t, changed.Books[0].Completed)
	assert.Equal(t, []domain.DailyProgressEntry{{Date: "2026-03-14", PagesRead: 10}}, changed.DailyProgress)
}

func TestSetCurrentPage_DayBoundaryUsesClockLocation(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	loc := time.FixedZone("UTC-5", -5*60*60)
	lib.clock.now = time.Date(2026, 3, 14, 23, 30, 0, 0, loc)
	b := lib.add(t, "X", 100, 0)

	_, err := lib.SetCurrentPage(ctx, b.ID, 10)
	require.NoError(t, err)
	lib.clock.Advance(time.Hour)
	_, err = lib.SetCurrentPage(ctx, b.ID, 15)
	require.NoError(t, err)

	assert.Equal(t, []domain.DailyProgressEntry{
		{Date: "2026-03-14", PagesRead: 10},
		{Date: "2026-03-15", PagesRead: 5},
	}, lib.DailyProgress())
}

func TestSetCurrentPageInput_CoercesGarbage(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	b := lib.add(t, "X", 100, 40)

	got, err := lib.SetCurrentPageInput(ctx, b.ID, "n/a")
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentPage)

	got, err = lib.SetCurrentPageInput(ctx, b.ID, " 64")
	require.NoError(t, err)
	assert.Equal(t, 64, got.CurrentPage)
}

func TestIncrementDecrementPage(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	b := lib.add(t, "X", 2, 0)

	got, err := lib.DecrementPage(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentPage)

	for range 3 {
		got, err = lib.IncrementPage(ctx, b.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, got.CurrentPage)
	assert.True(t, got.Completed)
	assert.Equal(t, 2, lib.Ledger().PagesOn("2026-03-14"))

	got, err = lib.DecrementPage(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentPage)
	assert.False(t, got.Completed)
}

func TestSetDisplayStyle(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	b := lib.add(t, "X", 100, 10)

	got, err := lib.SetDisplayStyle(ctx, b.ID, domain.DisplayStyleCircular)
	require.NoError(t, err)
	assert.Equal(t, domain.DisplayStyleCircular, got.DisplayStyle)
	assert.Equal(t, 10, got.CurrentPage)
	assert.Empty(t, lib.DailyProgress())

	_, err = lib.SetDisplayStyle(ctx, b.ID, "sparkles")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestCycleDisplayStyle(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	b := lib.add(t, "X", 100, 0)

	var seen []domain.DisplayStyle
	for range 3 {
		got, err := lib.CycleDisplayStyle(ctx, b.ID)
		require.NoError(t, err)
		seen = append(seen, got.DisplayStyle)
	}

	assert.Equal(t, []domain.DisplayStyle{
		domain.DisplayStylePercentage,
		domain.DisplayStyleCircular,
		domain.DisplayStyleBar,
	}, seen)
}

func TestTogglePin_SortsCurrentBooks(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	a := lib.add(t, "A", 100, 0)
	b := lib.add(t, "B", 100, 0)
	c := lib.add(t, "C", 100, 0)

	got, err := lib.TogglePin(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Pinned)

	ordered := lib.CurrentBooks()
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, bookIDs(ordered))

	got, err = lib.TogglePin(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Pinned)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, bookIDs(lib.CurrentBooks()))
}

func TestDeleteBook_KeepsLedger(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	b := lib.add(t, "X", 100, 0)
	_, err := lib.SetCurrentPage(ctx, b.ID, 40)
	require.NoError(t, err)

	require.NoError(t, lib.DeleteBook(ctx, b.ID))

	assert.Empty(t, lib.Books())
	assert.Equal(t, 40, lib.Ledger().PagesOn("2026-03-14"))

	_, err = lib.Book(b.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.True(t, errors.Is(lib.DeleteBook(ctx, b.ID), errors.ErrNotFound))
}

// Scenario: no current books.
func TestAggregates_NoCurrentBooks(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()

	assert.Equal(t, 0, lib.AverageCompletionRate())

	a := lib.add(t, "A", 300, 0)
	b := lib.add(t, "B", 120, 0)
	_, err := lib.SetCurrentPage(ctx, a.ID, 300)
	require.NoError(t, err)
	_, err = lib.SetCurrentPage(ctx, b.ID, 500)
	require.NoError(t, err)

	assert.Empty(t, lib.CurrentBooks())
	assert.Equal(t, 0, lib.AverageCompletionRate())
	assert.Equal(t, 420, lib.TotalPagesRead())
	assert.Equal(t, 2, lib.TotalBooksCompleted())
	assert.Len(t, lib.CompletedBooks(), 2)
}

func TestAggregates_Mixed(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	a := lib.add(t, "A", 200, 0)
	lib.add(t, "B", 100, 25)
	lib.add(t, "C", 100, 50)
	_, err := lib.SetCurrentPage(ctx, a.ID, 200)
	require.NoError(t, err)

	assert.Equal(t, 275, lib.TotalPagesRead())
	assert.Equal(t, 38, lib.AverageCompletionRate())
	assert.Equal(t, 1, lib.TotalBooksCompleted())
}

func TestQueries_ReturnCopies(t *testing.T) {
	lib := setupTestLibrary(t)
	b := lib.add(t, "X", 100, 0)

	got, err := lib.Book(b.ID)
	require.NoError(t, err)
	got.CurrentPage = 99
	lib.Books()[0].Title = "changed"

	fresh, err := lib.Book(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.CurrentPage)
	assert.Equal(t, "X", fresh.Title)
}

func TestEntriesInRange(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	b := lib.add(t, "X", 100, 0)
	_, err := lib.SetCurrentPage(ctx, b.ID, 7)
	require.NoError(t, err)

	today := lib.clock.now
	seq := lib.EntriesInRange(today.AddDate(0, 0, -2), today)

	// Later progress is not visible to a sequence taken earlier.
	_, err = lib.SetCurrentPage(ctx, b.ID, 9)
	require.NoError(t, err)

	assert.Equal(t, []domain.DailyProgressEntry{
		{Date: "2026-03-12", PagesRead: 0},
		{Date: "2026-03-13", PagesRead: 0},
		{Date: "2026-03-14", PagesRead: 7},
	}, slices.Collect(seq))
}

func TestWriteThrough_ReloadMatches(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	a := lib.add(t, "A", 100, 0)
	b := lib.add(t, "B", 50, 0)
	_, err := lib.SetCurrentPage(ctx, a.ID, 30)
	require.NoError(t, err)
	_, err = lib.SetCurrentPage(ctx, b.ID, 50)
	require.NoError(t, err)
	_, err = lib.TogglePin(ctx, a.ID)
	require.NoError(t, err)
	_, err = lib.CycleDisplayStyle(ctx, b.ID)
	require.NoError(t, err)

	fresh := lib.reload(t)

	assert.Equal(t, lib.Books(), fresh.Books())
	assert.Equal(t, lib.DailyProgress(), fresh.DailyProgress())
	_, ok := fresh.ConsumeCompletion()
	assert.False(t, ok, "completion notices are not persisted")
}

func TestSaveFailure_KeepsMemoryAndReports(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	b := lib.add(t, "X", 100, 0)
	lib.events.events = nil
	lib.kv.FailWrites(stderrors.New("quota exceeded"))

	got, err := lib.SetCurrentPage(ctx, b.ID, 60)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersistence))
	require.NotNil(t, got)
	assert.Equal(t, 60, got.CurrentPage)
	assert.Equal(t, 60, lib.Ledger().PagesOn("2026-03-14"))
	assert.Equal(t, []events.EventType{
		events.EventBookUpdated,
		events.EventPersistenceFailed,
		events.EventLibraryChanged,
	}, lib.events.types())

	// Recovered storage receives both collections on the next write.
	lib.kv.FailWrites(nil)
	_, err = lib.SetCurrentPage(ctx, b.ID, 70)
	require.NoError(t, err)

	fresh := lib.reload(t)
	reloaded, err := fresh.Book(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, reloaded.CurrentPage)
	assert.Equal(t, 70, fresh.Ledger().PagesOn("2026-03-14"))
}

func TestLoad_CorruptBooksStartEmpty(t *testing.T) {
	kv := memory.New()
	kv.Put(store.BooksKey, []byte(`[{"id":`))
	kv.Put(store.DailyProgressKey, []byte(`[{"date":"2026-03-10","pagesRead":4}]`))
	lib := NewLibraryService(store.New(kv, nil), nil)

	err := lib.Load(context.Background())

	assert.True(t, errors.Is(err, errors.ErrPersistence))
	assert.Empty(t, lib.Books())
	assert.Equal(t, 4, lib.Ledger().PagesOn("2026-03-10"))

	_, err = lib.AddBook(context.Background(), AddBookRequest{Title: "T", Author: "A", TotalPages: 1})
	assert.NoError(t, err, "library stays usable")
}

func TestOnBookCompleted_Unsubscribe(t *testing.T) {
	lib := setupTestLibrary(t)
	ctx := context.Background()
	calls := 0
	unsubscribe := lib.OnBookCompleted(func(string) { calls++ })
	unsubscribe()

	b := lib.add(t, "X", 1, 0)
	_, err := lib.SetCurrentPage(ctx, b.ID, 1)
	require.NoError(t, err)

	assert.Zero(t, calls)
	title, ok := lib.ConsumeCompletion()
	assert.True(t, ok)
	assert.Equal(t, "X", title)
}

func TestOnBookCompleted_HandlerMayQueryLibrary(t *testing.T) {
	lib := setupTestLibrary(t)
	var completed int
	lib.OnBookCompleted(func(string) { completed = lib.TotalBooksCompleted() })

	b := lib.add(t, "X", 1, 0)
	_, err := lib.SetCurrentPage(context.Background(), b.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, completed)
}

func bookIDs(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}
