package mcp

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"ycli/config"
)

// Session is a connected MCP server. *client.Client satisfies it.
type Session interface {
	ListTools(ctx context.Context, request mcptypes.ListToolsRequest) (*mcptypes.ListToolsResult, error)
	ListResources(ctx context.Context, request mcptypes.ListResourcesRequest) (*mcptypes.ListResourcesResult, error)
	ListResourceTemplates(ctx context.Context, request mcptypes.ListResourceTemplatesRequest) (*mcptypes.ListResourceTemplatesResult, error)
	CallTool(ctx context.Context, request mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error)
	ReadResource(ctx context.Context, request mcptypes.ReadResourceRequest) (*mcptypes.ReadResourceResult, error)
	Close() error
}

// Connector opens a session for a configured server.
type Connector func(ctx context.Context, server config.MCPServerConfig) (Session, error)

// ServerLookup resolves server names to launch configurations.
type ServerLookup interface {
	Get(name string) (config.MCPServerConfig, bool)
}

// Notifier receives user-facing progress messages.
type Notifier interface {
	Info(text string)
	Success(text string)
	Warn(text string)
	Error(text string)
}
