package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	once     sync.Once
	global   *slog.Logger
	ctxTrace = "trace_id"
)

// SlogConfig configures the process-wide structured logger used by cmd/secidx
// and other long-running hosts; library code under internal/coordinator never
// touches this, it only ever sees a *Logger.
type SlogConfig struct {
	Level     string // DEBUG, INFO, WARN, ERROR
	Format    string // json, text
	AddSource bool
}

// InitSlog initializes the global slog logger exactly once.
func InitSlog(cfg SlogConfig) {
	once.Do(func() {
		var level slog.Level
		switch cfg.Level {
		case "DEBUG":
			level = slog.LevelDebug
		case "WARN":
			level = slog.LevelWarn
		case "ERROR":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{
			Level:     level,
			AddSource: cfg.AddSource,
		}

		var handler slog.Handler
		if cfg.Format == "json" {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(os.Stdout, opts)
		}

		global = slog.New(handler)
		slog.SetDefault(global)
	})
}

// Slog returns the global structured logger, initializing a sane default if
// InitSlog was never called.
func Slog() *slog.Logger {
	if global == nil {
		InitSlog(SlogConfig{Level: "INFO", Format: "text"})
	}
	return global
}

// WithTrace attaches a trace ID pulled from ctx, if present.
func WithTrace(ctx context.Context, l *slog.Logger) *slog.Logger {
	traceID, ok := ctx.Value(ctxTrace).(string)
	if !ok || traceID == "" {
		return l
	}
	return l.With("trace_id", traceID)
}
