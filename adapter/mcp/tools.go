// Package mcp exposes the allocation engine as MCP tools.
package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/allot/adapter/cli"
	"github.com/felixgeelhaar/allot/pkg/observability"
)

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App    *cli.App
	Health *observability.HealthRegistry
}

// RegisterTools registers the MCP tools that mirror the CLI.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	registerBatchTools(srv, deps)
	registerAssignmentTools(srv, deps)
	return nil
}
