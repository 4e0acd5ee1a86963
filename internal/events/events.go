// Package events carries library change notifications from the services to
// in-process subscribers such as the search index and the command line.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/listenupapp/readtrack/internal/domain"
)

// EventType represents the type of Event.
type EventType string

const (
	// EventBookCreated represents a book creation event.
	EventBookCreated EventType = "book.created"
	// EventBookUpdated represents a book update event.
	EventBookUpdated EventType = "book.updated"
	// EventBookDeleted represents a book deletion event.
	EventBookDeleted EventType = "book.deleted"
	// EventBookCompleted fires once, on a book's first completion.
	EventBookCompleted EventType = "book.completed"

	// EventLibraryLoaded fires after persisted state has been read.
	EventLibraryLoaded EventType = "library.loaded"
	// EventLibraryChanged fires after every mutating command.
	EventLibraryChanged EventType = "library.changed"

	// EventPersistenceFailed fires when a write-through save fails.
	EventPersistenceFailed EventType = "persistence.failed"
)

// Event is one notification. Data holds one of the *EventData payloads.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
}

// New builds an event with a fresh ID.
func New(eventType EventType, data any, now time.Time) Event {
	return Event{
		Timestamp: now,
		Data:      data,
		ID:        uuid.NewString(),
		Type:      eventType,
	}
}

// BookEventData is the payload for book created/updated events.
type BookEventData struct {
	Book *domain.Book `json:"book"`
}

// BookDeletedEventData is the payload for book delete events.
type BookDeletedEventData struct {
	DeletedAt time.Time `json:"deletedAt"`
	BookID    string    `json:"bookId"`
}

// BookCompletedEventData is the payload for completion events.
type BookCompletedEventData struct {
	CompletedAt time.Time `json:"completedAt"`
	BookID      string    `json:"bookId"`
	Title       string    `json:"title"`
}

// LibraryEventData carries a snapshot copy of both collections.
type LibraryEventData struct {
	Books         []*domain.Book              `json:"books"`
	DailyProgress []domain.DailyProgressEntry `json:"dailyProgress"`
}

// PersistenceFailedEventData is the payload for failed saves.
type PersistenceFailedEventData struct {
	Operation string `json:"operation"`
	Error     string `json:"error"`
}
