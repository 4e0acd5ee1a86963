// Package service provides the reading tracker's library store and the
// read-only services built on top of it.
package service

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/events"
	"github.com/listenupapp/readtrack/internal/id"
	"github.com/listenupapp/readtrack/internal/normalize"
	"github.com/listenupapp/readtrack/internal/store"
	"github.com/listenupapp/readtrack/internal/validation"
)

// AddBookRequest is the input to AddBook.
type AddBookRequest struct {
	Title       string `json:"title" validate:"required,max=500"`
	Author      string `json:"author" validate:"required,max=500"`
	TotalPages  int    `json:"totalPages" validate:"gt=0"`
	InitialPage int    `json:"currentPage"`
}

// LibraryService owns the book registry and the daily progress ledger.
// Every mutating command updates memory, writes both collections through
// to storage in one transaction, and then notifies subscribers.
//
// When a save fails the in-memory state stays authoritative: the command
// still returns the updated book, together with a persistence error.
type LibraryService struct {
	store     *store.Store
	validator *validation.Validator
	emitter   events.Emitter
	logger    *slog.Logger
	now       func() time.Time
	newID     id.Func

	mu     sync.Mutex
	books  []*domain.Book
	ledger *domain.Ledger

	notifyMu    sync.Mutex
	onCompleted map[int]func(title string)
	nextHandler int
	pending     []string // completion titles not yet consumed
}

// Option customizes a LibraryService.
type Option func(*LibraryService)

// WithClock overrides time.Now. Ledger days are taken in the clock's location.
func WithClock(now func() time.Time) Option {
	return func(s *LibraryService) { s.now = now }
}

// WithIDFunc overrides book ID generation.
func WithIDFunc(fn id.Func) Option {
	return func(s *LibraryService) { s.newID = fn }
}

// WithEmitter publishes library events to e.
func WithEmitter(e events.Emitter) Option {
	return func(s *LibraryService) { s.emitter = e }
}

// NewLibraryService creates an empty library backed by st. Call Load to
// read persisted state.
func NewLibraryService(st *store.Store, logger *slog.Logger, opts ...Option) *LibraryService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &LibraryService{
		store:       st,
		validator:   validation.New(),
		emitter:     events.NoopEmitter{},
		logger:      logger,
		now:         time.Now,
		newID:       id.Generate,
		ledger:      domain.NewLedger(nil),
		onCompleted: make(map[int]func(string)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *LibraryService) Now() time.Time {
	return s.now()
}

// Load replaces in-memory state with persisted state. A collection that
// fails to load starts empty; the returned error reports it but the
// library remains usable.
func (s *LibraryService) Load(ctx context.Context) error {
	snap, err := s.store.Load(ctx)

	s.mu.Lock()
	s.books = snap.Books
	s.ledger = domain.NewLedger(snap.DailyProgress)
	data := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("library loaded with errors", "error", err)
	}
	s.logger.Debug("library ready", "books", len(data.Books), "days", len(data.DailyProgress))
	s.emitter.Emit(events.New(events.EventLibraryLoaded, data, s.now()))

	return err
}

// AddBook creates a book. Title and author are normalized before validation;
// the initial page is clamped into range.
func (s *LibraryService) AddBook(ctx context.Context, req AddBookRequest) (*domain.Book, error) {
	req.Title = normalize.Text(req.Title)
	req.Author = normalize.Text(req.Author)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := s.newID(id.BookPrefix)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate book id")
	}

	now := s.now()
	book := domain.NewBook(bookID, req.Title, req.Author, req.TotalPages, req.InitialPage, now)

	s.mu.Lock()
	s.books = append(s.books, book)
	out := book.Clone()
	data, saveErr := s.commitLocked(ctx)
	s.mu.Unlock()

	s.logger.Debug("book added", "book_id", out.ID, "total_pages", out.TotalPages, "current_page", out.CurrentPage)
	s.publish(now, saveErr, data, "add book", events.New(events.EventBookCreated, events.BookEventData{Book: out.Clone()}, now))

	return out, saveErr
}

// AddBookFromForm adds a book from raw form input. totalPages must parse to
// a positive integer; currentPage is coerced permissively (unparseable -> 0).
func (s *LibraryService) AddBookFromForm(ctx context.Context, title, author, totalPages, currentPage string) (*domain.Book, error) {
	total, _ := domain.ParseTotalPages(totalPages)
	return s.AddBook(ctx, AddBookRequest{
		Title:       title,
		Author:      author,
		TotalPages:  total,
		InitialPage: domain.CoercePage(currentPage),
	})
}

// SetCurrentPage moves a book to newPage, clamped into [0, totalPages].
// Forward movement is added to today's ledger entry; backward movement
// contributes nothing. The first completion stamps completedDate and
// notifies OnBookCompleted subscribers before this call returns.
func (s *LibraryService) SetCurrentPage(ctx context.Context, bookID string, newPage int) (*domain.Book, error) {
	return s.updatePage(ctx, bookID, func(int) int { return newPage })
}

// SetCurrentPageInput is SetCurrentPage for raw text input.
func (s *LibraryService) SetCurrentPageInput(ctx context.Context, bookID, raw string) (*domain.Book, error) {
	return s.SetCurrentPage(ctx, bookID, domain.CoercePage(raw))
}

// IncrementPage advances a book by one page.
func (s *LibraryService) IncrementPage(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.updatePage(ctx, bookID, func(current int) int { return current + 1 })
}

// DecrementPage moves a book back by one page.
func (s *LibraryService) DecrementPage(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.updatePage(ctx, bookID, func(current int) int { return current - 1 })
}

func (s *LibraryService) updatePage(ctx context.Context, bookID string, next func(current int) int) (*domain.Book, error) {
	now := s.now()

	s.mu.Lock()
	book, err := s.findLocked(bookID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	change := book.SetPage(next(book.CurrentPage), now)
	s.ledger.Record(domain.DayKey(now), change.Delta)
	if change.JustCompleted {
		s.latchCompletion(book.Title)
	}
	out := book.Clone()
	data, saveErr := s.commitLocked(ctx)
	s.mu.Unlock()

	s.logger.Debug("page set",
		"book_id", bookID,
		"old_page", change.OldPage,
		"new_page", change.NewPage,
		"delta", change.Delta,
		"completed", out.Completed,
	)

	evs := []events.Event{events.New(events.EventBookUpdated, events.BookEventData{Book: out.Clone()}, now)}
	if change.JustCompleted {
		evs = append(evs, events.New(events.EventBookCompleted, events.BookCompletedEventData{
			CompletedAt: *out.CompletedDate,
			BookID:      out.ID,
			Title:       out.Title,
		}, now))
	}
	s.publish(now, saveErr, data, "set page", evs...)

	if change.JustCompleted {
		s.logger.Info("book completed", "book_id", out.ID, "title", out.Title)
		s.notifyCompleted(out.Title)
	}

	return out, saveErr
}

// SetDisplayStyle changes how a book's progress is rendered.
func (s *LibraryService) SetDisplayStyle(ctx context.Context, bookID string, style domain.DisplayStyle) (*domain.Book, error) {
	if !style.Valid() {
		return nil, errors.ValidationWithDetails(
			"validation failed: displayStyle must be one of: percentage circular bar",
			map[string]string{"displayStyle": "must be one of: percentage circular bar"},
		)
	}
	return s.updateMetadata(ctx, bookID, "set display style", func(b *domain.Book) { b.DisplayStyle = style })
}

// CycleDisplayStyle advances a book to the next display style.
func (s *LibraryService) CycleDisplayStyle(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.updateMetadata(ctx, bookID, "cycle display style", func(b *domain.Book) { b.DisplayStyle = b.DisplayStyle.Next() })
}

// TogglePin flips a book's pinned flag.
func (s *LibraryService) TogglePin(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.updateMetadata(ctx, bookID, "toggle pin", func(b *domain.Book) { b.Pinned = !b.Pinned })
}

func (s *LibraryService) updateMetadata(ctx context.Context, bookID, op string, apply func(*domain.Book)) (*domain.Book, error) {
	now := s.now()

	s.mu.Lock()
	book, err := s.findLocked(bookID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	apply(book)
	out := book.Clone()
	data, saveErr := s.commitLocked(ctx)
	s.mu.Unlock()

	s.logger.Debug(op, "book_id", bookID, "display_style", out.DisplayStyle, "pinned", out.Pinned)
	s.publish(now, saveErr, data, op, events.New(events.EventBookUpdated, events.BookEventData{Book: out.Clone()}, now))

	return out, saveErr
}

// DeleteBook removes a book. Ledger history is kept.
func (s *LibraryService) DeleteBook(ctx context.Context, bookID string) error {
	now := s.now()

	s.mu.Lock()
	idx := slices.IndexFunc(s.books, func(b *domain.Book) bool { return b.ID == bookID })
	if idx < 0 {
		s.mu.Unlock()
		return errors.NotFoundf("book %s not found", bookID)
	}
	s.books = slices.Delete(s.books, idx, idx+1)
	data, saveErr := s.commitLocked(ctx)
	s.mu.Unlock()

	s.logger.Debug("book deleted", "book_id", bookID)
	s.publish(now, saveErr, data, "delete book", events.New(events.EventBookDeleted, events.BookDeletedEventData{
		DeletedAt: now,
		BookID:    bookID,
	}, now))

	return saveErr
}

// Book returns a copy of one book.
func (s *LibraryService) Book(bookID string) (*domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.findLocked(bookID)
	if err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// Books returns copies of every book in registry order.
func (s *LibraryService) Books() []*domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBooks(s.books)
}

// CurrentBooks returns incomplete books, pinned first.
func (s *LibraryService) CurrentBooks() []*domain.Book {
	return domain.CurrentBooks(s.Books())
}

// CompletedBooks returns completed books in registry order.
func (s *LibraryService) CompletedBooks() []*domain.Book {
	return domain.CompletedBooks(s.Books())
}

// TotalBooksCompleted counts completed books.
func (s *LibraryService) TotalBooksCompleted() int {
	return domain.TotalBooksCompleted(s.Books())
}

// TotalPagesRead sums completed books' page counts and current books' progress.
func (s *LibraryService) TotalPagesRead() int {
	return domain.TotalPagesRead(s.Books())
}

// AverageCompletionRate is the mean progress of current books, or 0.
func (s *LibraryService) AverageCompletionRate() int {
	return domain.AverageCompletionRate(s.Books())
}

// DailyProgress returns a copy of the ledger entries.
func (s *LibraryService) DailyProgress() []domain.DailyProgressEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Entries()
}

// Ledger returns an independent copy of the ledger.
func (s *LibraryService) Ledger() *domain.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone()
}

// EntriesInRange yields one entry per day in [start, end], zero-filled.
// The sequence reads a copy taken at call time.
func (s *LibraryService) EntriesInRange(start, end time.Time) iter.Seq[domain.DailyProgressEntry] {
	return s.Ledger().EntriesInRange(start, end)
}

// OnBookCompleted registers fn to run synchronously on every completion
// transition. The returned func removes it.
func (s *LibraryService) OnBookCompleted(fn func(title string)) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.nextHandler++
	key := s.nextHandler
	s.onCompleted[key] = fn

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.onCompleted, key)
	}
}

// ConsumeCompletion pops the oldest completion not yet consumed.
// Each completion is returned exactly once and never survives a reload.
func (s *LibraryService) ConsumeCompletion() (title string, ok bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if len(s.pending) == 0 {
		return "", false
	}
	title = s.pending[0]
	s.pending = s.pending[1:]
	return title, true
}

func (s *LibraryService) latchCompletion(title string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.pending = append(s.pending, title)
}

func (s *LibraryService) notifyCompleted(title string) {
	s.notifyMu.Lock()
	keys := make([]int, 0, len(s.onCompleted))
	for k := range s.onCompleted {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	handlers := make([]func(string), 0, len(keys))
	for _, k := range keys {
		handlers = append(handlers, s.onCompleted[k])
	}
	s.notifyMu.Unlock()

	for _, fn := range handlers {
		fn(title)
	}
}

// findLocked returns the live book. Caller holds mu.
func (s *LibraryService) findLocked(bookID string) (*domain.Book, error) {
	for _, b := range s.books {
		if b.ID == bookID {
			return b, nil
		}
	}
	return nil, errors.NotFoundf("book %s not found", bookID)
}

// commitLocked writes both collections and returns the snapshot that was
// written. Caller holds mu.
func (s *LibraryService) commitLocked(ctx context.Context) (events.LibraryEventData, error) {
	data := s.snapshotLocked()
	err := s.store.Save(ctx, &store.Snapshot{Books: data.Books, DailyProgress: data.DailyProgress})
	return data, err
}

func (s *LibraryService) snapshotLocked() events.LibraryEventData {
	return events.LibraryEventData{
		Books:         cloneBooks(s.books),
		DailyProgress: s.ledger.Entries(),
	}
}

// publish emits the command's events, a failure notice if the save failed,
// and the library change snapshot.
func (s *LibraryService) publish(now time.Time, saveErr error, data events.LibraryEventData, op string, evs ...events.Event) {
	for _, e := range evs {
		s.emitter.Emit(e)
	}
	if saveErr != nil {
		s.logger.Warn("library not saved; changes kept in memory", "operation", op, "error", saveErr)
		s.emitter.Emit(events.New(events.EventPersistenceFailed, events.PersistenceFailedEventData{
			Operation: op,
			Error:     saveErr.Error(),
		}, now))
	}
	s.emitter.Emit(events.New(events.EventLibraryChanged, data, now))
}

func cloneBooks(books []*domain.Book) []*domain.Book {
	out := make([]*domain.Book, len(books))
	for i, b := range books {
		out[i] = b.Clone()
	}
	return out
}
