// Package observability provides structured logging, request correlation
// and health checks for allot.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel is a LOG_LEVEL value: debug, info, warn or error.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Rotation limits for LOG_FILE.
const (
	logFileMaxMB      = 50
	logFileMaxBackups = 5
	logFileMaxDays    = 28
)

// LogConfig configures NewLogger.
type LogConfig struct {
	Level  LogLevel
	Format LogFormat

	// Output defaults to os.Stderr and is ignored when File is set.
	Output io.Writer
	// File writes to a size-rotated log file.
	File string

	AddSource      bool
	ServiceName    string
	ServiceVersion string
}

// DefaultLogConfig is text at info level on stderr.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatText,
		Output:         os.Stderr,
		ServiceName:    "allot",
		ServiceVersion: "dev",
	}
}

// NewLogger builds the process logger. Every record carries the service
// name and version, plus the correlation and request ids found in the
// context passed to the *Context logging methods.
func NewLogger(cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel(), AddSource: cfg.AddSource}

	var h slog.Handler
	if cfg.Format == LogFormatJSON {
		h = slog.NewJSONHandler(cfg.writer(), opts)
	} else {
		h = slog.NewTextHandler(cfg.writer(), opts)
	}

	var service []slog.Attr
	if cfg.ServiceName != "" {
		service = append(service, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		service = append(service, slog.String("version", cfg.ServiceVersion))
	}
	if len(service) > 0 {
		h = h.WithAttrs(service)
	}
	return slog.New(contextHandler{h})
}

func (cfg LogConfig) writer() io.Writer {
	switch {
	case cfg.File != "":
		return &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    logFileMaxMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxDays,
			Compress:   true,
		}
	case cfg.Output != nil:
		return cfg.Output
	default:
		return os.Stderr
	}
}

// slogLevel maps l case-insensitively; unknown values log at info.
func (l LogLevel) slogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(string(l)))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// contextHandler copies the ids stored by WithCorrelationID and
// WithRequestID onto each record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, id))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// LogOperation scopes logger to one plan or assign call.
func LogOperation(logger *slog.Logger, operation string, attrs ...any) *slog.Logger {
	return logger.With(append([]any{OperationKey, operation}, attrs...)...)
}
