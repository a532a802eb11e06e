package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates text logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})
		require.NotNil(t, logger)

		logger.Info("test message", "key", "value")

		assert.Contains(t, buf.String(), "test message")
		assert.Contains(t, buf.String(), "key=value")
	})

	t.Run("creates JSON logger with service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "allot",
			ServiceVersion: "1.0.0",
		})

		logger.Info("test message", "key", "value")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "test message", entry["msg"])
		assert.Equal(t, "value", entry["key"])
		assert.Equal(t, "allot", entry["service"])
		assert.Equal(t, "1.0.0", entry["version"])
	})

	t.Run("respects log level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelWarn, Output: &buf})

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")

		assert.NotContains(t, buf.String(), "debug message")
		assert.NotContains(t, buf.String(), "info message")
		assert.Contains(t, buf.String(), "warn message")
	})

	t.Run("adds ids from context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf})

		ctx := WithRequestID(WithCorrelationID(context.Background(), "corr-123"), "req-456")
		logger.InfoContext(ctx, "with context")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "corr-123", entry[CorrelationIDKey])
		assert.Equal(t, "req-456", entry[RequestIDKey])
	})

	t.Run("writes to a rotated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "allot.log")
		logger := NewLogger(LogConfig{File: path})

		logger.Info("to file")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
	})
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		input LogLevel
		want  slog.Level
	}{
		{LogLevelDebug, slog.LevelDebug},
		{LogLevelInfo, slog.LevelInfo},
		{LogLevelWarn, slog.LevelWarn},
		{LogLevelError, slog.LevelError},
		{"WARN", slog.LevelWarn},
		{" debug ", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.input.slogLevel(), "level %q", tt.input)
	}
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := LogOperation(NewLogger(LogConfig{Output: &buf}), "assign", "batch_id", "b1")

	logger.Info("done")

	assert.Contains(t, buf.String(), "operation=assign")
	assert.Contains(t, buf.String(), "batch_id=b1")
}

func TestContextIDs(t *testing.T) {
	ctx := WithRequestID(WithCorrelationID(context.Background(), "parent"), "")
	assert.Equal(t, "parent", CorrelationIDFromContext(ctx))
	assert.NotEmpty(t, RequestIDFromContext(ctx))

	generated := WithCorrelationID(context.Background(), "")
	assert.NotEmpty(t, CorrelationIDFromContext(generated))
	assert.NotEqual(t, CorrelationIDFromContext(generated), RequestIDFromContext(ctx))

	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestHealthRegistry(t *testing.T) {
	ctx := context.Background()
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("healthy without checkers", func(t *testing.T) {
		assert.Equal(t, HealthStatusHealthy, NewHealthRegistry().Check(ctx).Status)
	})

	t.Run("optional failure degrades", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", PingChecker("database", true, ok))
		r.Register("redis", PingChecker("redis", false, down))

		health := r.Check(ctx)
		assert.Equal(t, HealthStatusDegraded, health.Status)
		assert.Equal(t, HealthStatusHealthy, health.Checks["database"].Status)
		assert.Contains(t, health.Checks["redis"].Message, "connection refused")
	})

	t.Run("required failure is unhealthy", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("redis", PingChecker("redis", false, down))
		r.Register("database", PingChecker("database", true, down))

		assert.Equal(t, HealthStatusUnhealthy, r.Check(ctx).Status)
	})
}
