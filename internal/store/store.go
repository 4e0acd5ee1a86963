// Package store persists the book registry and daily progress ledger as
// two JSON documents in a local key-value store.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/errors"
)

// Persisted keys.
const (
	BooksKey         = "bookTracker_books"
	DailyProgressKey = "bookTracker_dailyProgress"
)

// Snapshot is the full persisted state.
type Snapshot struct {
	Books         []*domain.Book
	DailyProgress []domain.DailyProgressEntry
}

// Store encodes snapshots onto a KV backend.
type Store struct {
	kv     KV
	logger *slog.Logger
}

// New wraps kv. A nil logger discards output.
func New(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kv, logger: logger}
}

// KV returns the underlying backend.
func (s *Store) KV() KV {
	return s.kv
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

// Load reads both collections. Each collection is decoded independently:
// a missing key yields an empty collection, and a collection that cannot be
// read or decoded also starts empty while its failure is reported in the
// returned error. The snapshot is always usable.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Books:         []*domain.Book{},
		DailyProgress: []domain.DailyProgressEntry{},
	}

	var errs []error

	books, err := s.loadBooks(ctx)
	if err != nil {
		s.logger.Warn("books could not be loaded, starting empty", "key", BooksKey, "error", err)
		errs = append(errs, err)
	} else {
		snap.Books = books
	}

	entries, err := s.loadDailyProgress(ctx)
	if err != nil {
		s.logger.Warn("daily progress could not be loaded, starting empty", "key", DailyProgressKey, "error", err)
		errs = append(errs, err)
	} else {
		snap.DailyProgress = entries
	}

	s.logger.Debug("library loaded", "books", len(snap.Books), "days", len(snap.DailyProgress))

	return snap, errors.Join(errs...)
}

// Save writes both collections in one atomic backend write.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	books := snap.Books
	if books == nil {
		books = []*domain.Book{}
	}
	entries := snap.DailyProgress
	if entries == nil {
		entries = []domain.DailyProgressEntry{}
	}

	booksJSON, err := json.Marshal(books)
	if err != nil {
		return errors.Persistence(err, "encode books")
	}
	progressJSON, err := json.Marshal(entries)
	if err != nil {
		return errors.Persistence(err, "encode daily progress")
	}

	if err := s.kv.SetAll(ctx,
		Entry{Key: BooksKey, Value: booksJSON},
		Entry{Key: DailyProgressKey, Value: progressJSON},
	); err != nil {
		return errors.Persistence(err, "save library")
	}

	return nil
}

func (s *Store) loadBooks(ctx context.Context) ([]*domain.Book, error) {
	var raw []*domain.Book
	found, err := s.get(ctx, BooksKey, &raw)
	if err != nil || !found {
		return []*domain.Book{}, err
	}

	books := make([]*domain.Book, 0, len(raw))
	migrated := 0
	for _, b := range raw {
		if b == nil {
			continue
		}
		if b.DisplayStyle == "" {
			b.DisplayStyle = domain.DefaultDisplayStyle
			migrated++
		}
		books = append(books, b)
	}
	if migrated > 0 {
		s.logger.Info("migrated legacy books", "field", "displayStyle", "count", migrated)
	}

	return books, nil
}

func (s *Store) loadDailyProgress(ctx context.Context) ([]domain.DailyProgressEntry, error) {
	var entries []domain.DailyProgressEntry
	found, err := s.get(ctx, DailyProgressKey, &entries)
	if err != nil || !found {
		return []domain.DailyProgressEntry{}, err
	}
	if entries == nil {
		entries = []domain.DailyProgressEntry{}
	}
	return entries, nil
}

// get decodes key into dest. Returns false with no error if the key is absent.
func (s *Store) get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Persistencef(err, "read %s", key)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.Persistencef(fmt.Errorf("decode: %w", err), "read %s", key)
	}
	return true, nil
}
