package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ycli/config"
)

func botCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Manage bot configurations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all bot configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bots, err := a.bots.List()
			if err != nil {
				return err
			}
			if len(bots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bot configurations found")
				return nil
			}
			t := newTable("Name", "API Key", "Base URL", "Model", "Print Speed", "API Type", "Description", "MCP Servers")
			for _, b := range bots {
				t.Row(botRow(b)...)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	var bot config.BotConfig
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a bot configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bot.Name = args[0]
			if err := a.bots.Add(bot.WithDefaults()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bot '%s' added successfully\n", bot.Name)
			return nil
		},
	}
	add.Flags().StringVar(&bot.APIKey, "api-key", "", "API key")
	add.Flags().StringVar(&bot.BaseURL, "base-url", config.DefaultBaseURL, "Base URL")
	add.Flags().StringVar(&bot.Model, "model", config.DefaultBotModel, "Model")
	add.Flags().IntVar(&bot.PrintSpeed, "print-speed", config.DefaultPrintSpeed, "Characters per second when streaming")
	add.Flags().StringVar(&bot.APIType, "api-type", "", "Backend type: openai, dify or topia")
	add.Flags().StringVar(&bot.Description, "description", "", "Description")
	add.Flags().StringSliceVar(&bot.MCPServers, "mcp", nil, "MCP servers to connect (repeatable)")
	add.Flags().IntVar(&bot.MaxTokens, "max-tokens", 0, "Maximum completion tokens")
	add.Flags().StringVar(&bot.CustomAPIPath, "api-path", "", "Custom API path")

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a bot configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if name == config.DefaultBotName {
				return fmt.Errorf("the %s bot cannot be deleted", config.DefaultBotName)
			}
			ok, err := a.bots.Delete(name)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("bot '%s' not found", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bot '%s' deleted successfully\n", name)
			return nil
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

func botRow(b config.BotConfig) []string {
	key := "N/A"
	if b.APIKey != "" {
		key = maskKey(b.APIKey)
	}
	apiType := b.APIType
	if apiType == "" {
		apiType = "openai"
	}
	return []string{
		b.Name,
		key,
		b.BaseURL,
		b.Model,
		strconv.Itoa(b.PrintSpeed),
		apiType,
		orNA(b.Description),
		orNA(strings.Join(b.MCPServers, ", ")),
	}
}

func mcpCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Manage MCP server configurations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all MCP server configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			servers, err := a.mcps.List()
			if err != nil {
				return err
			}
			if len(servers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No MCP server configurations found")
				return nil
			}
			t := newTable("Name", "Command", "Arguments", "Environment")
			for _, s := range servers {
				t.Row(mcpRow(s)...)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	var (
		server config.MCPServerConfig
		env    []string
	)
	add := &cobra.Command{
		Use:   "add [-e KEY=VALUE]... <name> <command> [args...]",
		Short: "Add or replace an MCP server configuration",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseEnv(env)
			if err != nil {
				return err
			}
			server.Name = args[0]
			server.Command = args[1]
			server.Args = args[2:]
			server.Env = parsed
			if err := a.mcps.Add(server); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server '%s' added successfully\n", server.Name)
			return nil
		},
	}
	add.Flags().StringArrayVarP(&env, "env", "e", nil, "Environment variable KEY=VALUE (repeatable)")
	// Flags after <command> belong to the server.
	add.Flags().SetInterspersed(false)

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an MCP server configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.mcps.Delete(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("MCP server '%s' not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "MCP server '%s' deleted successfully\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

// maskKey shows the first 8 characters of an API key.
func maskKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "..."
}

// mcpRow lists environment variable names only.
func mcpRow(s config.MCPServerConfig) []string {
	keys := slices.Sorted(maps.Keys(s.Env))
	return []string{s.Name, s.Command, orNA(strings.Join(s.Args, " ")), orNA(strings.Join(keys, ", "))}
}

// parseEnv turns KEY=VALUE pairs into a map.
func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid environment variable %q, want KEY=VALUE", p)
		}
		env[k] = v
	}
	return env, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
