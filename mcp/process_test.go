//go:build unix

package mcp

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ycli/config"
)

// serverModeEnv makes the test binary act as a stdio MCP server.
const serverModeEnv = "YCLI_TEST_MCP_SERVER"

func TestMain(m *testing.M) {
	if mode := os.Getenv(serverModeEnv); mode != "" {
		serveEcho(mode)
		return
	}
	os.Exit(m.Run())
}

// serveEcho runs an MCP server with one "echo" tool. In "linger" mode the
// process keeps running after stdin closes.
func serveEcho(mode string) {
	s := server.NewMCPServer("echo", "1.0.0")
	s.AddTool(
		mcptypes.NewTool("echo", mcptypes.WithString("text", mcptypes.Required())),
		func(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
			return mcptypes.NewToolResultText("echo:" + req.GetString("text", "")), nil
		},
	)
	err := server.ServeStdio(s)
	if mode == "linger" {
		time.Sleep(time.Hour)
	}
	if err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

func processGone(pid int) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := syscall.Kill(pid, 0); errors.Is(err, syscall.ESRCH) {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestStdioServerLifecycle(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}

	for _, mode := range []string{"exit", "linger"} {
		t.Run(mode, func(t *testing.T) {
			servers := fakeServers{"echo": config.MCPServerConfig{
				Name:    "echo",
				Command: exe,
				Env:     map[string]string{serverModeEnv: mode},
			}}
			notify := &recordingNotifier{}
			m := NewManager(servers, StdioConnector, notify)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			m.ConnectAll(ctx, []string{"echo"})

			s, ok := m.session("echo")
			if !ok {
				t.Fatalf("echo server not connected: %v", notify.lines)
			}
			pid := s.(*stdioSession).cmd.Process.Pid

			if got := m.ExecuteTool(ctx, "echo", "echo", map[string]any{"text": "hi"}); got != "echo:hi" {
				t.Errorf("tool output = %q", got)
			}
			if prompt := m.SystemPrompt(ctx); !strings.Contains(prompt, "- echo: ") {
				t.Errorf("system prompt does not list the server: %q", prompt)
			}

			m.Close()
			if !processGone(pid) {
				t.Errorf("server process %d still running after Close", pid)
			}
		})
	}
}
