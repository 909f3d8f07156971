package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the application logger. JSON output is meant for
// production log shipping; the text handler is for local development.
// Every record carries the service name so portal and worker logs can be
// told apart in a shared stream.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("service", "atheneum"))
}
