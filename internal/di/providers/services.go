package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/service"
)

// ProvideLibraryService provides the library. It is returned empty;
// di.Bootstrap loads persisted state once every subscriber is wired.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	busHandle := do.MustInvoke[*EventBusHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	lib := service.NewLibraryService(storeHandle.Store, log.Logger,
		service.WithEmitter(busHandle.Bus),
	)
	return lib, nil
}

// ProvideStatsService provides the stats service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	lib := do.MustInvoke[*service.LibraryService](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewStatsService(lib, log.Logger), nil
}
