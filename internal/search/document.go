// Package search provides full-text search over the book registry using Bleve.
// The index lives in memory and is rebuilt from the registry on load.
package search

import (
	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/normalize"
)

// Status values stored on each document for filtering.
const (
	StatusReading   = "reading"
	StatusCompleted = "completed"
)

// BookDocument is the indexed form of a book.
type BookDocument struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Status string `json:"status"`
}

// ToMap converts the document to a map for Bleve indexing.
// Field names match the index mapping.
func (d *BookDocument) ToMap() map[string]any {
	return map[string]any{
		"id":     d.ID,
		"title":  d.Title,
		"author": d.Author,
		"status": d.Status,
	}
}

// BookToDocument converts a domain book to a search document.
// Text is accent-folded so "Emile" finds "Émile"; queries must be folded the same way.
func BookToDocument(b *domain.Book) *BookDocument {
	status := StatusReading
	if b.Completed {
		status = StatusCompleted
	}
	return &BookDocument{
		ID:     b.ID,
		Title:  normalize.Fold(b.Title),
		Author: normalize.Fold(b.Author),
		Status: status,
	}
}
