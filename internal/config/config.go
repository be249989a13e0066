// Package config reads server settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvLogLevel      = "PIXEL_MCP_LOG_LEVEL"
	EnvWorkers       = "PIXEL_MCP_WORKERS"
	EnvMaxIterations = "PIXEL_MCP_MAX_ITERATIONS"
	EnvSeed          = "PIXEL_MCP_SEED"
)

// Config holds the runtime settings.
type Config struct {
	LogLevel slog.Level
	// Workers bounds the goroutines used by convolution and clustering.
	Workers int
	// MaxIterations caps k-means/k-medians.
	MaxIterations int
	// Seed fixes the clustering shuffle; 0 seeds from the runtime.
	Seed uint64
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		LogLevel:      slog.LevelInfo,
		Workers:       1,
		MaxIterations: 300,
	}
}

// Load reads the given .env files (".env" when none are named) into the
// process environment, without overriding variables that are already set,
// and then parses the settings. Missing files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup parses the settings from lookup, which has the signature of
// os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	if v, ok := lookup(EnvWorkers); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s: want a positive integer, got %q", EnvWorkers, v)
		}
		cfg.Workers = n
	}
	if v, ok := lookup(EnvMaxIterations); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s: want a positive integer, got %q", EnvMaxIterations, v)
		}
		cfg.MaxIterations = n
	}
	if v, ok := lookup(EnvSeed); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSeed, err)
		}
		cfg.Seed = n
	}
	return cfg, nil
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
