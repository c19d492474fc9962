// Package mcp exposes the synphora tool registry as an MCP (Model Context
// Protocol) server, so MCP clients can call the article tools directly.
//
//	registry := tool.NewRegistry()
//	article.New(store, model, prompts).Register(registry)
//
//	if err := mcp.ServeStdio(registry); err != nil {
//	    log.Fatal(err)
//	}
//
// Tools called over MCP still create artifacts in the store, but their
// streaming events are dropped: MCP results are a single text payload.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nettee/synphora"
	"github.com/nettee/synphora/event"
	"github.com/nettee/synphora/tool"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
	logger  *slog.Logger
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithLogger sets the logger for tool calls.
func WithLogger(l *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates an MCP server exposing every tool in registry.
func NewServer(registry *tool.Registry, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "synphora",
		version: synphora.Version,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	for _, t := range registry.Tools() {
		s.AddTool(ToMCPTool(t), newHandler(t.Name, registry, cfg.logger))
	}
	return s
}

// newHandler dispatches an MCP tool call through the registry.
func newHandler(name string, registry *tool.Registry, log *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsJSON := "{}"
		if req.Params.Arguments != nil {
			data, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to marshal arguments: %v", err)), nil
			}
			argsJSON = string(data)
		}

		call := synphora.ToolCall{
			ID:        synphora.NewID(),
			Name:      name,
			Arguments: argsJSON,
		}
		log.Info("mcp tool call", "tool", name, "call_id", call.ID)

		result, err := registry.Dispatch(ctx, call, event.Discard)
		if err != nil {
			log.Error("mcp tool call failed", "tool", name, "call_id", call.ID, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}

// ServeStdio serves registry over stdin/stdout until stdin closes.
// This is the standard transport for MCP servers invoked as subprocesses.
func ServeStdio(registry *tool.Registry, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(registry, opts...))
}
