// internal/logger/logger.go

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Setup builds the process logger: human-readable text locally, JSON
// everywhere else
func Setup(env string) *slog.Logger {
	return New(os.Stdout, env)
}

// New builds a logger writing to w
func New(w io.Writer, env string) *slog.Logger {
	var handler slog.Handler

	switch strings.ToLower(env) {
	case EnvLocal:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	case EnvDev:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return slog.New(handler).With(slog.String("service", "iwitness"))
}
