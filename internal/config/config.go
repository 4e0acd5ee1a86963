// Package config provides application configuration management with support
// for command-line flags, environment variables, and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Search  SearchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig selects where the library is persisted.
type StorageConfig struct {
	DataPath string // Directory holding the database (default: ~/.readtrack)
	Backend  string // badger, sqlite or memory (default: badger)
}

// SearchConfig toggles the title/author search index.
type SearchConfig struct {
	Enabled bool
}

// BadgerPath is the Badger database directory.
func (s StorageConfig) BadgerPath() string {
	return filepath.Join(s.DataPath, "db")
}

// SQLitePath is the SQLite database file.
func (s StorageConfig) SQLitePath() string {
	return filepath.Join(s.DataPath, "readtrack.db")
}

// flag name -> config key
var flagKeys = map[string]string{
	"env":             "env",
	"log-level":       "log_level",
	"data-path":       "data_path",
	"storage-backend": "storage_backend",
	"search":          "search_enabled",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("env", "", "Environment (development, production, test)")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("data-path", "", "Directory for library storage (default: ~/.readtrack)")
	fs.String("storage-backend", "", "Storage backend (badger, sqlite, memory)")
	fs.Bool("search", true, "Enable title/author search index")
	fs.String("env-file", ".env", "Path to .env file")
}

// Load builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
//
// fs may be nil, in which case only the environment, .env and defaults apply.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("log_level", "info")
	v.SetDefault("data_path", "")
	v.SetDefault("storage_backend", BackendBadger)
	v.SetDefault("search_enabled", true)

	envFile := ".env"
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
	}

	if err := readEnvFile(v, envFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		App:     AppConfig{Environment: v.GetString("env")},
		Logger:  LoggerConfig{Level: v.GetString("log_level")},
		Storage: StorageConfig{
			DataPath: v.GetString("data_path"),
			Backend:  strings.ToLower(v.GetString("storage_backend")),
		},
		Search: SearchConfig{Enabled: v.GetBool("search_enabled")},
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// readEnvFile merges KEY=value pairs from path. A missing file is not an error.
func readEnvFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}
	return nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := []string{EnvDevelopment, EnvProduction, EnvTest}
	if !slices.Contains(validEnvs, c.App.Environment) {
		return fmt.Errorf("invalid environment: %q (must be development, production, or test)", c.App.Environment)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.Logger.Level)) {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	validBackends := []string{BackendBadger, BackendSQLite, BackendMemory}
	if !slices.Contains(validBackends, c.Storage.Backend) {
		return fmt.Errorf("invalid storage backend: %q (must be badger, sqlite, or memory)", c.Storage.Backend)
	}

	if c.Storage.Backend != BackendMemory && c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	return nil
}

// expandDataPath expands ~ and makes the path absolute, defaulting to ~/.readtrack.
func (c *Config) expandDataPath() error {
	path := c.Storage.DataPath
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.Storage.DataPath = filepath.Join(homeDir, ".readtrack")
		return nil
	}

	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, rest)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	c.Storage.DataPath = filepath.Clean(abs)
	return nil
}
