package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ycli/config"
)

const Version = "v0.1.0"

// app holds what every subcommand needs once the config has been loaded.
type app struct {
	cfg  *config.Config
	bots *config.BotStore
	mcps *config.MCPRegistry
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		var se *shownError
		if !errors.As(err, &se) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// shownError marks an error that was already rendered to the user.
type shownError struct {
	err error
}

func (e *shownError) Error() string { return e.err.Error() }
func (e *shownError) Unwrap() error { return e.err }

func shown(err error) error {
	if err == nil {
		return nil
	}
	return &shownError{err: err}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ycli",
		Short:         "Chat with LLM bots from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.AddCommand(
		chatCmd(a),
		listCmd(a),
		botCmd(a),
		mcpCmd(a),
	)
	return root
}

func (a *app) load() error {
	config.InitDebugLog(config.GetDefaultDataDir())

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	bots, err := config.NewBotStore(cfg.BotConfigFile)
	if err != nil {
		return fmt.Errorf("load bots: %w", err)
	}

	a.cfg = cfg
	a.bots = bots
	a.mcps = config.NewMCPRegistry(cfg.MCPConfigFile)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Main] Config loaded: storage=%s chat_file=%s", cfg.StorageType, cfg.ChatFile)
	}
	return nil
}
