package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/events"
	"github.com/listenupapp/readtrack/internal/normalize"
	"github.com/listenupapp/readtrack/internal/search"
)

// SearchService keeps a title/author index in sync with the library and
// answers searches against it.
type SearchService struct {
	index   *search.SearchIndex
	library *LibraryService
	logger  *slog.Logger
}

// Subscriber is the part of events.Bus used by SearchService.
type Subscriber interface {
	Subscribe(h events.Handler, types ...events.EventType) (unsubscribe func())
}

// NewSearchService creates a search service and subscribes it to library events.
func NewSearchService(index *search.SearchIndex, library *LibraryService, bus Subscriber, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &SearchService{
		index:   index,
		library: library,
		logger:  logger,
	}

	bus.Subscribe(s.handle,
		events.EventLibraryLoaded,
		events.EventBookCreated,
		events.EventBookUpdated,
		events.EventBookDeleted,
	)

	return s
}

func (s *SearchService) handle(e events.Event) {
	var err error

	switch data := e.Data.(type) {
	case events.LibraryEventData:
		err = s.Reindex(data.Books)
	case events.BookEventData:
		err = s.index.IndexDocument(search.BookToDocument(data.Book))
	case events.BookDeletedEventData:
		err = s.index.DeleteDocument(data.BookID)
	}

	if err != nil {
		s.logger.Warn("search index update failed", "event_type", string(e.Type), "error", err)
	}
}

// Reindex rebuilds the index from books.
func (s *SearchService) Reindex(books []*domain.Book) error {
	docs := make([]*search.BookDocument, len(books))
	for i, b := range books {
		docs[i] = search.BookToDocument(b)
	}
	if err := s.index.Rebuild(docs); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	return nil
}

// Search returns books whose title or author matches query, best match first.
// status narrows to search.StatusReading or search.StatusCompleted when set.
func (s *SearchService) Search(ctx context.Context, query, status string, limit int) ([]*domain.Book, error) {
	query = normalize.Text(query)
	if query == "" {
		return nil, errors.Validation("search query is required")
	}
	if status != "" && status != search.StatusReading && status != search.StatusCompleted {
		return nil, errors.Validationf("status must be %s or %s", search.StatusReading, search.StatusCompleted)
	}

	hits, err := s.index.Search(ctx, search.SearchParams{
		Query:  normalize.Fold(query),
		Status: status,
		Limit:  limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "search failed")
	}

	books := make([]*domain.Book, 0, len(hits))
	for _, hit := range hits {
		b, err := s.library.Book(hit.ID)
		if err != nil {
			// Index lagging behind a delete.
			continue
		}
		books = append(books, b)
	}

	s.logger.Debug("search", "query", query, "hits", len(books))
	return books, nil
}
