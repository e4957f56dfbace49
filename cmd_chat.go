package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"ycli/chat"
	"ycli/config"
	"ycli/mcp"
	"ycli/model"
	"ycli/provider"
	"ycli/storage"
	"ycli/ui"
)

const historyFileName = "input_history"

type chatFlags struct {
	bot     string
	model   string
	chatID  string
	latest  bool
	verbose bool
}

func chatCmd(a *app) *cobra.Command {
	var f chatFlags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start a new chat or continue an existing one",
		Long: `Start a new chat conversation or continue an existing one.

Use --latest/-l to continue from your most recent chat.
Use --chat-id/-c to continue from a specific chat ID.
If neither option is provided, starts a new chat.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVarP(&f.bot, "bot", "b", "", "Use a specific bot")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Override the bot's model")
	cmd.Flags().StringVarP(&f.chatID, "chat-id", "c", "", "Continue from an existing chat")
	cmd.Flags().BoolVarP(&f.latest, "latest", "l", false, "Continue from the latest chat")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Show detailed usage instructions")
	cmd.MarkFlagsMutuallyExclusive("chat-id", "latest")
	return cmd
}

func (a *app) runChat(parent context.Context, f chatFlags) error {
	console := ui.NewConsole()

	bot, found, err := a.bots.GetConfig(f.bot)
	if err != nil {
		console.PrintError(err.Error())
		return shown(err)
	}
	if !found {
		console.Warn(fmt.Sprintf("Bot '%s' not found, using default bot", f.bot))
	}
	if f.model != "" {
		bot.Model = f.model
	}

	store, err := storage.Open(a.cfg)
	if err != nil {
		console.PrintError(err.Error())
		return shown(err)
	}
	defer store.Close()
	service := storage.NewChatService(store)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	chatID := f.chatID
	if f.latest {
		chats, err := service.ListChats(ctx, model.ListOptions{Limit: 1})
		if err != nil {
			console.PrintError(err.Error())
			return shown(err)
		}
		if len(chats) == 0 {
			err := errors.New("no existing chats found")
			console.PrintError(err.Error())
			return shown(err)
		}
		chatID = chats[0].ID
	}

	if f.verbose {
		console.Info(fmt.Sprintf("Using bot: %s (%s)", bot.Name, bot.Model))
		console.Info(fmt.Sprintf("Using API base URL: %s", bot.BaseURL))
		if chatID != "" {
			console.Info(fmt.Sprintf("Continuing from chat %s", chatID))
		} else {
			console.Info("Starting new chat")
		}
	}

	display := ui.NewStreamDisplay(console, bot.PrintSpeed)
	p, err := provider.NewProvider(bot, display, provider.Options{
		HTTPClient: provider.NewHTTPClient(),
		TmpDir:     a.cfg.TmpDir,
	})
	if err != nil {
		console.PrintError(err.Error())
		return shown(err)
	}

	reader := ui.NewTerminalReader(filepath.Join(a.cfg.TmpDir, historyFileName))
	defer reader.Close()

	var tools chat.Tools
	if len(bot.MCPServers) > 0 {
		tools = mcp.NewManager(a.mcps, mcp.StdioConnector, console)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Main] Chat session: bot=%s model=%s chat=%q mcp=%v", bot.Name, bot.Model, chatID, bot.MCPServers)
	}

	manager := chat.NewManager(service, p, console, ui.NewInput(reader, console), tools, bot, chat.Options{
		ChatID:        chatID,
		Verbose:       f.verbose,
		MaxToolRounds: a.cfg.MaxToolRounds,
	})
	// Run renders its own errors.
	return shown(manager.Run(ctx))
}
