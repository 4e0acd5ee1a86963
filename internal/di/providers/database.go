package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/listenupapp/readtrack/internal/config"
	"github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/events"
	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/store"
	"github.com/listenupapp/readtrack/internal/store/badgerstore"
	"github.com/listenupapp/readtrack/internal/store/memory"
	"github.com/listenupapp/readtrack/internal/store/sqlite"
)

// EventBusHandle wraps the event bus with shutdown capability.
type EventBusHandle struct {
	*events.Bus
}

// Shutdown implements do.Shutdownable.
func (h *EventBusHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Bus.Shutdown(ctx)
}

// ProvideEventBus provides the in-process library event bus.
func ProvideEventBus(i do.Injector) (*EventBusHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &EventBusHandle{Bus: events.NewBus(log.Logger)}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
	Backend string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the library store on the configured backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	kv, err := OpenKV(cfg, log)
	if err != nil {
		return nil, errors.Persistencef(err, "open %s storage", cfg.Storage.Backend)
	}

	log.Debug("storage initialized", "backend", cfg.Storage.Backend, "path", cfg.Storage.DataPath)

	return &StoreHandle{
		Store:   store.New(kv, log.Logger),
		Backend: cfg.Storage.Backend,
	}, nil
}

// OpenKV opens the key-value backend named by cfg.
func OpenKV(cfg *config.Config, log *logger.Logger) (store.KV, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		return sqlite.Open(cfg.Storage.SQLitePath(), log.Logger)
	default:
		return badgerstore.Open(cfg.Storage.BadgerPath(), log.Logger)
	}
}
