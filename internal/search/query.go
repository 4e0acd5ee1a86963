package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit caps results when the caller passes no limit.
const DefaultLimit = 20

// SearchParams configures a search query.
type SearchParams struct {
	Query  string // User's search query
	Status string // StatusReading, StatusCompleted, or empty for all
	Limit  int
}

// SearchHit is a single ranked match.
type SearchHit struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Status string  `json:"status"`
}

// Search executes a query and returns hits ordered by relevance.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) ([]SearchHit, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})
	req.Fields = []string{"title", "author", "status"}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]SearchHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		h := SearchHit{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["author"].(string); ok {
			h.Author = v
		}
		if v, ok := hit.Fields["status"].(string); ok {
			h.Status = v
		}
		hits = append(hits, h)
	}

	return hits, nil
}

// buildSearchQuery matches title (boosted) or author, with fuzzy and prefix
// fallbacks for typos and partial input.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("author")
		authorMatch.SetBoost(2.0)

		textQueries := []query.Query{titleMatch, authorMatch}

		lower := strings.ToLower(q)
		for _, field := range []string{"title", "author"} {
			fuzzy := bleve.NewFuzzyQuery(lower)
			fuzzy.SetFuzziness(1)
			fuzzy.SetField(field)
			fuzzy.SetBoost(0.8)
			textQueries = append(textQueries, fuzzy)

			// Prefix query for autocomplete (minimum 2 chars)
			if len(lower) >= 2 {
				prefix := bleve.NewPrefixQuery(lower)
				prefix.SetField(field)
				prefix.SetBoost(0.5)
				textQueries = append(textQueries, prefix)
			}
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Status != "" {
		status := bleve.NewTermQuery(params.Status)
		status.SetField("status")
		queries = append(queries, status)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
