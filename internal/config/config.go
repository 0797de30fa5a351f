// Package config loads talondoc settings from a YAML file, the environment and
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
)

// Config is the top-level configuration. Field tags use mapstructure for
// viper unmarshalling.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
}

// AnalysisConfig controls package analysis.
type AnalysisConfig struct {
	// Workers is the number of parse workers. Zero means GOMAXPROCS.
	Workers int `mapstructure:"workers"`
	// MaxFileSize is a human-readable size such as "1MB" or "512KiB".
	MaxFileSize string `mapstructure:"max_file_size"`
}

// OutputConfig controls report output.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig points at an optional SQLite symbol store.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// Output formats.
const (
	FormatTOON = "toon"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Log formats.
const (
	LogText = "text"
	LogJSON = "json"
)

// Sentinel errors for config validation.
var (
	// ErrInvalidWorkers indicates a negative worker count.
	ErrInvalidWorkers = errors.New("analysis.workers must be non-negative")
	// ErrInvalidSize indicates an unparseable analysis.max_file_size.
	ErrInvalidSize = errors.New("analysis.max_file_size is not a valid size")
	// ErrInvalidFormat indicates an unknown output or log format.
	ErrInvalidFormat = errors.New("unknown format")
	// ErrInvalidLevel indicates an unknown log level.
	ErrInvalidLevel = errors.New("log.level must be one of debug, info, warn, error")
)

// Validate checks every field, returning the first problem found.
func (c *Config) Validate() error {
	if c.Analysis.Workers < 0 {
		return ErrInvalidWorkers
	}
	if _, err := c.MaxFileSizeBytes(); err != nil {
		return err
	}
	switch c.Output.Format {
	case FormatTOON, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: output.format %q", ErrInvalidFormat, c.Output.Format)
	}
	switch c.Log.Format {
	case LogText, LogJSON:
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidFormat, c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// MaxFileSizeBytes parses Analysis.MaxFileSize. An empty or zero size means no
// limit.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	s := strings.TrimSpace(c.Analysis.MaxFileSize)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, c.Analysis.MaxFileSize)
	}
	return int64(n), nil
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}
