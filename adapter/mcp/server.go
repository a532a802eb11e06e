package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"

	"github.com/felixgeelhaar/allot/adapter/cli"
	"github.com/felixgeelhaar/allot/pkg/config"
	"github.com/felixgeelhaar/allot/pkg/observability"
)

const (
	serverName    = "allot-mcp"
	serverVersion = "1.0.0"
)

// NewServer returns an MCP server exposing the planning tools.
func NewServer(cliApp *cli.App, health *observability.HealthRegistry) (*mcpgo.Server, error) {
	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:         serverName,
		Version:      serverVersion,
		Capabilities: mcpgo.Capabilities{Tools: true},
	})
	if err := RegisterTools(srv, ToolDependencies{App: cliApp, Health: health}); err != nil {
		return nil, err
	}
	return srv, nil
}

// Serve listens on cfg.MCPAddr until ctx is done. With MCP_AUTH_TOKEN set,
// every request must carry it as a bearer token.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, health *observability.HealthRegistry, logger *slog.Logger) error {
	switch {
	case cfg == nil:
		return errors.New("mcp: config is required")
	case cliApp == nil:
		return errors.New("mcp: app is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := NewServer(cliApp, health)
	if err != nil {
		return err
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr, "auth", cfg.MCPAuthToken != "")
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil,
		mcpgo.WithMiddleware(middlewareStack(cfg.MCPAuthToken, logger)...))
}

// middlewareStack is the default mcp-go stack, preceded by bearer auth when
// token is non-empty.
func middlewareStack(token string, logger *slog.Logger) []middleware.Middleware {
	log := slogFields{logger}
	stack := middleware.DefaultStack(log)
	if token == "" {
		logger.Warn("MCP_AUTH_TOKEN not set, MCP requests are unauthenticated")
		return stack
	}

	tokens := middleware.StaticTokens(map[string]*middleware.Identity{
		token: {ID: "allot-mcp-client", Name: "allot-mcp-client"},
	})
	auth := middleware.Auth(middleware.BearerTokenAuthenticator(tokens), middleware.WithAuthLogger(log))
	return append([]middleware.Middleware{auth}, stack...)
}

// slogFields satisfies the mcp-go middleware logger with slog.
type slogFields struct {
	logger *slog.Logger
}

func (l slogFields) Debug(msg string, fields ...middleware.Field) { l.log(slog.LevelDebug, msg, fields) }
func (l slogFields) Info(msg string, fields ...middleware.Field)  { l.log(slog.LevelInfo, msg, fields) }
func (l slogFields) Warn(msg string, fields ...middleware.Field)  { l.log(slog.LevelWarn, msg, fields) }
func (l slogFields) Error(msg string, fields ...middleware.Field) { l.log(slog.LevelError, msg, fields) }

func (l slogFields) log(level slog.Level, msg string, fields []middleware.Field) {
	attrs := make([]slog.Attr, len(fields))
	for i, f := range fields {
		attrs[i] = slog.Any(f.Key, f.Value)
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
