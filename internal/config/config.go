// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Package-specific errors
var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrReadingEnvFile is returned when an explicitly named .env file cannot be read
	ErrReadingEnvFile = errors.New("failed to read env file")
)

// DefaultEnvFile is read when Load is called without files. It may be
// absent.
const DefaultEnvFile = ".env"

// Config is the process configuration.
type Config struct {
	Driver        string `env:"REPOKIT_DB_DRIVER" envDefault:"sqlite3"`    // Driver is the database/sql driver name.
	DSN           string `env:"REPOKIT_DB_DSN" envDefault:"repokit.db"`    // DSN is the database path or connection string.
	SchemaDir     string `env:"REPOKIT_SCHEMA_DIR" envDefault:"schema"`    // SchemaDir holds the CUE entity definitions.
	MigrationsDir string `env:"REPOKIT_MIGRATIONS_DIR"`                    // MigrationsDir holds numbered .sql files applied by migrate.
	PerPage       int    `env:"REPOKIT_PER_PAGE" envDefault:"15"`          // PerPage is the default page size.
	LogLevel      string `env:"REPOKIT_LOG_LEVEL" envDefault:"info"`       // LogLevel is debug, info, warn or error.
	SaveRecursive bool   `env:"REPOKIT_SAVE_RECURSIVE" envDefault:"false"` // SaveRecursive makes saves cascade into attached associations.
}

// Load parses the configuration. Values in files fill in variables the
// process environment does not set. Without files, DefaultEnvFile is used
// when it exists.
func Load(files ...string) (Config, error) {
	vars := map[string]string{}

	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			files = []string{DefaultEnvFile}
		}
	}
	if len(files) > 0 {
		fromFiles, err := godotenv.Read(files...)
		if err != nil {
			return Config{}, errors.Join(ErrReadingEnvFile, err)
		}
		maps.Copy(vars, fromFiles)
	}
	maps.Copy(vars, env.ToMap(os.Environ()))

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if cfg.PerPage <= 0 {
		return Config{}, errors.Join(ErrParsingConfig, fmt.Errorf("REPOKIT_PER_PAGE must be positive, got %d", cfg.PerPage))
	}
	return cfg, nil
}

// Level converts LogLevel to a slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
