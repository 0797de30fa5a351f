// Package logging builds the slog logger used for diagnostics.
package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/phobologic/talondoc/internal/config"
)

// New returns a logger writing to w at the configured level and format.
func New(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch cfg.Format {
	case config.LogJSON:
		h = slog.NewJSONHandler(w, opts)
	case config.LogText, "":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("%w: log.format %q", config.ErrInvalidFormat, cfg.Format)
	}
	return slog.New(h), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
