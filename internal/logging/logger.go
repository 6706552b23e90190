// Package logging wraps log/slog with the run-scoped fields dpsim attaches
// to every simulation log line.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// LevelEnv selects the minimum level: DEBUG, INFO, WARN or ERROR.
const LevelEnv = "DPSIM_LOG_LEVEL"

type Logger struct {
	*slog.Logger
}

// NewLogger writes JSON records to stderr so command output on stdout
// stays machine-readable.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stderr, levelFromEnv())
}

func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{slog.New(handler)}
}

// Discard drops everything. Used by tests and library callers that do not
// want log output.
func Discard() *Logger {
	return &Logger{slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) LogWithContext(ctx context.Context, level slog.Level, msg string, args ...any) {
	if id := GetRunID(ctx); id != "" {
		args = append(args, "run_id", id)
	}
	l.Log(ctx, level, msg, args...)
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelDebug, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelWarn, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.LogWithContext(ctx, slog.LevelError, msg, args...)
}

type runIDKey struct{}

// WithRunID tags ctx with a run ID, generating one when id is empty.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewRunID()
	}
	return context.WithValue(ctx, runIDKey{}, id)
}

func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

func NewRunID() string {
	return uuid.NewString()
}

func levelFromEnv() slog.Level {
	return ParseLevel(os.Getenv(LevelEnv))
}

// ParseLevel falls back to INFO for anything it does not recognise.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WrapError adds a formatted prefix to err and keeps it matchable with
// errors.Is. A nil err stays nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	return fmt.Errorf("%s: %w", format, err)
}
