package mcp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"ycli/config"
)

const (
	clientName    = "y-cli"
	clientVersion = "1.0.0"
	closeTimeout  = time.Second
)

// stdioSession is a session over a child process. Close kills the process
// when the client does not shut down in time.
type stdioSession struct {
	*client.Client
	name string
	cmd  *exec.Cmd
}

// StdioConnector starts the configured command and initializes an MCP
// session over its stdin and stdout.
func StdioConnector(ctx context.Context, server config.MCPServerConfig) (Session, error) {
	var capturedCmd *exec.Cmd

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Starting '%s': %s %v", server.Name, server.Command, server.Args)
	}

	cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		capturedCmd = cmd
		return cmd, nil
	}

	mcpClient, err := client.NewStdioMCPClientWithOptions(
		server.Command,
		serverEnv(server.Env),
		server.Args,
		transport.WithCommandFunc(cmdFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start MCP server %s: %w", server.Name, err)
	}

	session := &stdioSession{Client: mcpClient, name: server.Name, cmd: capturedCmd}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: mcptypes.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    clientName,
				Version: clientVersion,
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to initialize MCP server %s: %w", server.Name, err)
	}

	if capturedCmd != nil && capturedCmd.Process != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Server '%s' running with PID %d", server.Name, capturedCmd.Process.Pid)
	}
	return session, nil
}

func (s *stdioSession) Close() error {
	closeDone := make(chan error, 1)
	go func() {
		closeDone <- s.Client.Close()
	}()

	select {
	case err := <-closeDone:
		if err == nil {
			return nil
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Error closing client for '%s': %v", s.name, err)
		}
		s.kill()
		return fmt.Errorf("close %s: %w", s.name, err)
	case <-time.After(closeTimeout):
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Close timeout for '%s', killing process", s.name)
		}
		s.kill()
		return nil
	}
}

func (s *stdioSession) kill() {
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	if err := s.cmd.Process.Kill(); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Error killing process for '%s': %v", s.name, err)
	}
}

// serverEnv layers the server's variables over the current environment so
// PATH and friends survive.
func serverEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
