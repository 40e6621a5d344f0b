// Package logger builds the process-wide slog.Logger.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/samber/oops"
)

const serviceName = "habit-tracker-api"

// New returns a logger for the given deployment stage. format is "json" or
// "text"; an empty format picks json for production and text otherwise.
// If w is nil, output goes to os.Stdout.
func New(stage, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
		if stage == "production" {
			format = "json"
		}
	}

	level := slog.LevelDebug
	if stage == "production" {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", serviceName, "stage", stage)
}

// LogError logs err at error level. oops errors contribute their code and
// context attributes.
func LogError(log *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{"error", oopsErr.Error()}
		if code := oopsErr.Code(); code != nil && code != "" {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		log.Error(msg, attrs...)
		return
	}
	log.Error(msg, "error", err)
}
