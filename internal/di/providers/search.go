package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/search"
	"github.com/listenupapp/readtrack/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory Bleve index. It is rebuilt from
// the library on every load, so nothing is written to disk.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(log.Logger)
	if err != nil {
		return nil, err
	}
	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchService provides the search service, subscribed to library events.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	lib := do.MustInvoke[*service.LibraryService](i)
	busHandle := do.MustInvoke[*EventBusHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(indexHandle.SearchIndex, lib, busHandle.Bus, log.Logger), nil
}
