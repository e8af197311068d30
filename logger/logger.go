package logger

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// New returns colored tint output for development and JSON everywhere else.
func New(env string, w io.Writer) *slog.Logger {
	if env == "development" || env == "" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
