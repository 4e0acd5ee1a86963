// Package providers contains dependency injection providers for the reading tracker.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/spf13/pflag"

	"github.com/listenupapp/readtrack/internal/config"
	"github.com/listenupapp/readtrack/internal/logger"
)

// ProvideConfig provides the application configuration, read from the
// command's flag set when one was registered.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	fs, _ := do.Invoke[*pflag.FlagSet](i)
	return config.Load(fs)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	log.Debug("configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
		"storage_backend", cfg.Storage.Backend,
		"search", cfg.Search.Enabled,
	)

	return log, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
