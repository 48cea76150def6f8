// Package logging wires the process-wide slog default: a tint handler for
// humans or a JSON handler for machines, both wrapped so context attrs
// attached with slogctx.With flow into every record.
package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
	slogctx "github.com/veqryn/slog-context"
)

// Options selects the handler and threshold.
type Options struct {
	// Format is "text" (tint) or "json".
	Format string

	// Verbose lowers the threshold from Info to Debug.
	Verbose bool
}

// Setup installs the default logger and returns a context carrying it, so
// slog.InfoContext and friends pick up attrs attached downstream.
func Setup(ctx context.Context, w io.Writer, opts Options) context.Context {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var h slog.Handler
	switch opts.Format {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}

	logger := slog.New(slogctx.NewHandler(h, nil))
	slog.SetDefault(logger)
	return slogctx.NewCtx(ctx, logger)
}
