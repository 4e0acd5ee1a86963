// Package di provides dependency injection configuration for the reading tracker.
package di

import (
	"context"

	"github.com/samber/do/v2"
	"github.com/spf13/pflag"

	"github.com/listenupapp/readtrack/internal/config"
	"github.com/listenupapp/readtrack/internal/di/providers"
	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// fs carries the command's configuration flags and may be nil.
func NewContainer(fs *pflag.FlagSet) *do.RootScope {
	injector := do.New()

	if fs != nil {
		do.ProvideValue(injector, fs)
	}

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideEventBus)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Business services
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideStatsService)

	return injector
}

// Bootstrap initializes the services and loads the library.
//
// A library that loaded with unreadable collections is still returned as
// usable; the persistence error is passed back for the caller to report.
func Bootstrap(ctx context.Context, injector *do.RootScope) error {
	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	lib, err := do.Invoke[*service.LibraryService](injector)
	if err != nil {
		return err
	}
	if _, err := do.Invoke[*service.StatsService](injector); err != nil {
		return err
	}

	// Subscribe the index before loading so it sees library.loaded.
	if cfg.Search.Enabled {
		if _, err := do.Invoke[*service.SearchService](injector); err != nil {
			return err
		}
	}

	return lib.Load(ctx)
}
