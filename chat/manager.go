// Package chat runs an interactive conversation: it reads user input, calls
// the provider, gates and dispatches tool use, and persists each completed
// exchange.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"ycli/config"
	"ycli/mcp"
	"ycli/model"
	"ycli/storage"
	"ycli/ui"
)

const (
	cancelledMessage = "Tool execution cancelled by user."
	confirmQuestion  = "Would you like to proceed with tool execution?"
	manualPrompt     = "Tool output: "
)

// errSessionEnded stops the loop after the input was closed mid-exchange.
var errSessionEnded = errors.New("session ended")

// State is the orchestrator's position in an exchange.
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateStreamingReply
	StateToolConfirm
	StateToolDispatch
	StatePersisted
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateStreamingReply:
		return "streaming_reply"
	case StateToolConfirm:
		return "tool_confirm"
	case StateToolDispatch:
		return "tool_dispatch"
	case StatePersisted:
		return "persisted"
	case StateEnded:
		return "ended"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Tools connects MCP servers and runs tool directives. *mcp.Manager
// satisfies it.
type Tools interface {
	ConnectAll(ctx context.Context, names []string)
	SystemPrompt(ctx context.Context) string
	ExecuteTool(ctx context.Context, server, tool string, args map[string]any) string
	ReadResource(ctx context.Context, server, uri string) string
	Close() error
}

// Clipboard receives copied message text.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Options configures one session.
type Options struct {
	// ChatID continues an existing chat when set.
	ChatID  string
	Verbose bool
	// MaxToolRounds limits tool calls per user request. Zero means no limit.
	MaxToolRounds int
	// Clipboard defaults to the system clipboard.
	Clipboard Clipboard
}

// Manager drives one chat session.
type Manager struct {
	service  *storage.ChatService
	provider model.Provider
	console  *ui.Console
	input    *ui.Input
	tools    Tools
	bot      config.BotConfig
	opts     Options

	chat         *model.Chat
	chatID       string
	externalID   string
	messages     []model.Message
	systemPrompt string
	state        State
}

// NewManager creates a session. A new chat id is generated up front unless
// opts.ChatID names a chat to continue. tools may be nil when the bot uses
// no MCP servers.
func NewManager(service *storage.ChatService, provider model.Provider, console *ui.Console, input *ui.Input, tools Tools, bot config.BotConfig, opts Options) *Manager {
	if opts.Clipboard == nil {
		opts.Clipboard = systemClipboard{}
	}
	chatID := opts.ChatID
	if chatID == "" {
		chatID = model.NewChatID()
	}
	return &Manager{
		service:  service,
		provider: provider,
		console:  console,
		input:    input,
		tools:    tools,
		bot:      bot,
		opts:     opts,
		chatID:   chatID,
	}
}

// State returns the current state.
func (m *Manager) State() State {
	return m.state
}

// ChatID returns the id the session persists under.
func (m *Manager) ChatID() string {
	return m.chatID
}

// Messages returns a copy of the conversation so far.
func (m *Manager) Messages() []model.Message {
	return append([]model.Message(nil), m.messages...)
}

// Run loops until the user exits or input closes. It returns an error only
// when the session cannot continue.
func (m *Manager) Run(ctx context.Context) error {
	defer m.teardown()

	if m.opts.Verbose {
		m.console.Info("Starting chat session...")
	}
	if m.opts.ChatID != "" {
		if err := m.load(ctx); err != nil {
			m.console.PrintError(err.Error())
			m.state = StateEnded
			return err
		}
	}

	if m.tools != nil && len(m.bot.MCPServers) > 0 {
		m.tools.ConnectAll(ctx, m.bot.MCPServers)
		m.systemPrompt = m.tools.SystemPrompt(ctx)
	}

	if m.opts.Verbose {
		m.console.DisplayHelp()
	}
	m.console.DisplayHistory(m.messages)

	for {
		m.state = StateAwaitingInput
		in, err := m.input.GetInput()
		if err != nil {
			m.state = StateEnded
			if ui.IsClosed(err) {
				m.console.Warn("\nChat interrupted. Exiting...")
				return nil
			}
			return err
		}

		text := in.Text
		if ui.IsExitCommand(text) {
			m.console.Warn("\nGoodbye!")
			m.state = StateEnded
			return nil
		}
		if text == "" {
			m.console.Warn("Please enter a message.")
			continue
		}
		if index, ok, err := ui.ParseCopyCommand(text); ok {
			m.copyMessage(index, err)
			continue
		}

		m.console.ClearLines(in.Lines)
		if err := m.exchange(ctx, model.NewTextMessage(model.RoleUser, text)); err != nil {
			m.state = StateEnded
			switch {
			case errors.Is(err, errSessionEnded):
				m.console.Warn("\nChat interrupted. Exiting...")
				return nil
			case ctx.Err() != nil:
				m.console.Warn("\nChat interrupted. Exiting...")
				return nil
			}
			m.console.PrintError(err.Error())
			return err
		}
	}
}

func (m *Manager) load(ctx context.Context) error {
	chat, err := m.service.GetChat(ctx, m.opts.ChatID)
	if err != nil {
		return fmt.Errorf("load chat %s: %w", m.opts.ChatID, err)
	}
	if chat == nil {
		return fmt.Errorf("chat %s not found", m.opts.ChatID)
	}
	m.chat = chat
	m.chatID = chat.ID
	m.externalID = chat.ExternalID
	m.messages = append([]model.Message(nil), chat.Messages...)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Chat] Loaded %d messages from chat %s", len(m.messages), chat.ID)
	}
	if m.opts.Verbose {
		m.console.Info(fmt.Sprintf("Loaded %d messages from chat %s", len(m.messages), chat.ID))
	}
	return nil
}

func (m *Manager) teardown() {
	if m.tools == nil {
		return
	}
	if err := m.tools.Close(); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Chat] MCP teardown: %v", err)
	}
}

// exchange runs one top-level request through the tool loop and persists
// the result. A provider failure rolls back the request's turns and is
// reported without ending the session.
func (m *Manager) exchange(ctx context.Context, userMessage model.Message) error {
	checkpoint := len(m.messages)
	previousExternalID := m.externalID

	err := m.processUserMessage(ctx, userMessage, 0)
	switch {
	case err == nil:
		return m.persist(ctx)
	case ctx.Err() != nil:
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Chat] Exchange cancelled, %d turns discarded", len(m.messages)-checkpoint)
		}
		return ctx.Err()
	case ui.IsClosed(err):
		if perr := m.persist(ctx); perr != nil {
			return perr
		}
		return errSessionEnded
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Chat] Provider error, rolling back %d turns: %v", len(m.messages)-checkpoint, err)
	}
	m.messages = m.messages[:checkpoint]
	m.externalID = previousExternalID
	m.console.PrintError(err.Error())
	return nil
}

func (m *Manager) processUserMessage(ctx context.Context, msg model.Message, round int) error {
	m.messages = append(m.messages, msg)
	m.console.DisplayMessage(msg, len(m.messages)-1)

	m.state = StateStreamingReply
	reply, externalID, err := m.provider.CallChatCompletions(ctx, m.messages, m.chatContext(), m.systemPrompt)
	if err != nil {
		return err
	}
	if externalID != "" {
		m.externalID = externalID
	}
	return m.processAssistantMessage(ctx, reply, round)
}

func (m *Manager) processAssistantMessage(ctx context.Context, reply model.Message, round int) error {
	text := reply.Content.Text()
	if !mcp.ContainsToolUse(text) {
		m.appendAndShow(reply)
		return nil
	}

	plain, block, ok := mcp.SplitContent(text)
	reply.Content = model.TextContent(plain)
	m.appendAndShow(reply)
	if !ok {
		return nil
	}

	if m.opts.MaxToolRounds > 0 && round >= m.opts.MaxToolRounds {
		m.console.Warn(fmt.Sprintf("Tool round limit (%d) reached, tool use not executed.", m.opts.MaxToolRounds))
		return nil
	}

	m.state = StateToolConfirm
	m.console.Warn("\nTool use detected in response:")
	m.console.Println(block)
	approved, err := m.input.Confirm(confirmQuestion)
	if err != nil {
		return err
	}
	if !approved {
		m.cancelTool()
		return nil
	}

	m.state = StateToolDispatch
	result, ok := m.dispatch(ctx, block)
	if !ok {
		m.console.Warn("Tool use could not be parsed. Type the tool output (<<EOF for multiple lines):")
		manual, err := m.input.GetBlock(manualPrompt)
		if err != nil {
			return err
		}
		if strings.TrimSpace(manual.Text) == "" {
			m.cancelTool()
			return nil
		}
		result = manual.Text
	}

	return m.processUserMessage(ctx, model.NewTextMessage(model.RoleUser, result), round+1)
}

func (m *Manager) appendAndShow(msg model.Message) {
	m.messages = append(m.messages, msg)
	m.console.DisplayMessage(msg, len(m.messages)-1)
}

func (m *Manager) cancelTool() {
	m.console.Warn("\n" + cancelledMessage)
	m.messages = append(m.messages, model.NewTextMessage(model.RoleUser, cancelledMessage))
}

// dispatch runs a tool block. ok is false when the block cannot be parsed.
func (m *Manager) dispatch(ctx context.Context, block string) (string, bool) {
	if call, ok := mcp.ExtractToolUse(block); ok {
		if m.tools == nil {
			return fmt.Sprintf("Error: MCP server '%s' not found", call.ServerName), true
		}
		return m.tools.ExecuteTool(ctx, call.ServerName, call.ToolName, call.Arguments), true
	}
	if access, ok := mcp.ExtractResourceAccess(block); ok {
		if m.tools == nil {
			return fmt.Sprintf("Error: MCP server '%s' not found", access.ServerName), true
		}
		return m.tools.ReadResource(ctx, access.ServerName, access.URI), true
	}
	return "", false
}

// chatContext is the persisted chat, or a provisional one carrying the
// pre-generated id before the first save.
func (m *Manager) chatContext() *model.Chat {
	if m.chat == nil {
		return &model.Chat{ID: m.chatID, ExternalID: m.externalID}
	}
	c := *m.chat
	c.ExternalID = m.externalID
	return &c
}

func (m *Manager) persist(ctx context.Context) error {
	var (
		chat *model.Chat
		err  error
	)
	if m.chat == nil {
		chat, err = m.service.CreateChat(ctx, m.messages, m.externalID, m.chatID)
	} else {
		chat, err = m.service.UpdateChat(ctx, m.chat.ID, m.messages, m.externalID)
	}
	if err != nil {
		return fmt.Errorf("save chat %s: %w", m.chatID, err)
	}
	m.chat = chat
	m.state = StatePersisted
	return nil
}

func (m *Manager) copyMessage(index int, parseErr error) {
	if parseErr != nil {
		m.console.Warn("Invalid copy command. Use 'copy <number>'")
		return
	}
	if index >= len(m.messages) {
		m.console.Warn("Invalid message number")
		return
	}
	if err := m.opts.Clipboard.WriteAll(strings.TrimSpace(m.messages[index].Content.Text())); err != nil {
		m.console.Warn(fmt.Sprintf("Copy failed: %v", err))
		return
	}
	m.console.Success(fmt.Sprintf("Copied message [%d] to clipboard", index))
}
