// Package logger provides structured logging on top of log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level mirrors slog levels for configuration.
type Level int

const (
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LoggerInterface is the logging contract consumed by application services.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) LoggerInterface
	Slog() *slog.Logger
}

// Logger wraps *slog.Logger with context-aware methods.
type Logger struct {
	log *slog.Logger
}

// New creates a JSON logger writing to w at the given level. The service
// name is attached to every record.
func New(w io.Writer, level Level, service string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.Level(level)})
	l := slog.New(h)
	if service != "" {
		l = l.With(slog.String("service", service))
	}
	return &Logger{log: l}
}

// FromSlog wraps an existing slog.Logger.
func FromSlog(l *slog.Logger) *Logger {
	return &Logger{log: l}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log.DebugContext(ctx, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log.InfoContext(ctx, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log.WarnContext(ctx, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log.ErrorContext(ctx, msg, args...)
}

// With returns a logger with the given attributes attached.
func (l *Logger) With(args ...any) LoggerInterface {
	return &Logger{log: l.log.With(args...)}
}

// Slog exposes the underlying slog.Logger for packages that take one directly.
func (l *Logger) Slog() *slog.Logger {
	return l.log
}
