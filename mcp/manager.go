package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"ycli/config"
)

// skippedServer is never connected even when a bot lists it.
const skippedServer = "git"

// Manager owns the MCP sessions of one chat session.
type Manager struct {
	mu       sync.RWMutex
	servers  ServerLookup
	connect  Connector
	notify   Notifier
	sessions map[string]Session
	order    []string
}

// NewManager creates a manager resolving server names through servers and
// opening sessions with connect.
func NewManager(servers ServerLookup, connect Connector, notify Notifier) *Manager {
	return &Manager{
		servers:  servers,
		connect:  connect,
		notify:   notify,
		sessions: make(map[string]Session),
	}
}

// ConnectAll connects to each named server in order. Failures are reported
// and skipped.
func (m *Manager) ConnectAll(ctx context.Context, names []string) {
	for _, name := range names {
		if name == skippedServer {
			m.notify.Warn(fmt.Sprintf("Skipping server '%s'", name))
			continue
		}
		if err := m.Connect(ctx, name); err != nil {
			m.notify.Error(fmt.Sprintf("Error: %v", err))
		}
	}
}

// Connect opens a session to one configured server.
func (m *Manager) Connect(ctx context.Context, name string) error {
	server, ok := m.servers.Get(name)
	if !ok {
		return fmt.Errorf("no configuration found for server '%s'", name)
	}

	session, err := m.connect(ctx, server)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Connect '%s' failed: %v", name, err)
		}
		return fmt.Errorf("connecting to server '%s': %w", name, err)
	}

	m.mu.Lock()
	if old, exists := m.sessions[name]; exists {
		old.Close()
	} else {
		m.order = append(m.order, name)
	}
	m.sessions[name] = session
	m.mu.Unlock()

	m.notify.Success(fmt.Sprintf("Connected to server '%s'", name))
	return nil
}

// Servers returns the connected server names in connection order.
func (m *Manager) Servers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

func (m *Manager) session(name string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[name]
	return s, ok
}

// ExecuteTool calls a tool and returns its text output. Every failure is
// reported as text so the conversation can continue.
func (m *Manager) ExecuteTool(ctx context.Context, server, tool string, args map[string]any) string {
	session, ok := m.session(server)
	if !ok {
		return fmt.Sprintf("Error: MCP server '%s' not found", server)
	}

	m.notify.Info(fmt.Sprintf("Executing MCP tool '%s' on server '%s'", tool, server))
	result, err := session.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      tool,
			Arguments: args,
		},
	})
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Tool '%s' on '%s' failed: %v", tool, server, err)
		}
		return fmt.Sprintf("Error executing MCP tool: %s", err)
	}

	var texts []string
	for _, content := range result.Content {
		switch c := content.(type) {
		case mcptypes.TextContent:
			texts = append(texts, c.Text)
		case *mcptypes.TextContent:
			texts = append(texts, c.Text)
		}
	}
	if len(texts) == 0 {
		return "No text content found in result"
	}
	return strings.Join(texts, "\n")
}

// ReadResource reads a resource and returns its text contents, with the same
// error reporting as ExecuteTool.
func (m *Manager) ReadResource(ctx context.Context, server, uri string) string {
	session, ok := m.session(server)
	if !ok {
		return fmt.Sprintf("Error: MCP server '%s' not found", server)
	}

	m.notify.Info(fmt.Sprintf("Reading MCP resource '%s' on server '%s'", uri, server))
	result, err := session.ReadResource(ctx, mcptypes.ReadResourceRequest{
		Params: mcptypes.ReadResourceParams{URI: uri},
	})
	if err != nil {
		return fmt.Sprintf("Error accessing MCP resource: %s", err)
	}

	var texts []string
	for _, content := range result.Contents {
		switch c := content.(type) {
		case mcptypes.TextResourceContents:
			texts = append(texts, c.Text)
		case *mcptypes.TextResourceContents:
			texts = append(texts, c.Text)
		}
	}
	if len(texts) == 0 {
		return "No text content found in result"
	}
	return strings.Join(texts, "\n")
}

// Close closes every session. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := m.sessions
	order := m.order
	m.sessions = make(map[string]Session)
	m.order = nil
	m.mu.Unlock()

	var result *multierror.Error
	for _, name := range order {
		if err := sessions[name].Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Closed %d sessions", len(order))
	}
	return result.ErrorOrNil()
}
