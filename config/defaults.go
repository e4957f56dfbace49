package config

import (
	"fmt"
	"path/filepath"
)

func DefaultConfig(dataDir, cacheDir string) *Config {
	return &Config{
		ChatFile:      filepath.Join(dataDir, "chat.jsonl"),
		BotConfigFile: filepath.Join(dataDir, "bot_config.jsonl"),
		MCPConfigFile: filepath.Join(dataDir, "mcp_config.jsonl"),
		TmpDir:        filepath.Join(cacheDir, "tmp"),
		StorageType:   StorageFile,
		SQLiteFile:    filepath.Join(dataDir, "chat.db"),
	}
}

func GenerateConfigTemplate(cfg *Config) string {
	return fmt.Sprintf(`# y-cli configuration
# This file uses TOML format: https://toml.io

# Chat history (JSONL, one chat per line)
chat_file = %q

# Bot presets and MCP server definitions (JSONL)
bot_config_file = %q
mcp_config_file = %q

# Scratch space for cached provider tokens
tmp_dir = %q

# "file" or "sqlite"
storage_type = %q
sqlite_file = %q

# Maximum tool rounds per request (0 = unlimited)
max_tool_rounds = %d

# HTTP proxy, applied when both are set
proxy_host = %q
proxy_port = %q
`,
		cfg.ChatFile, cfg.BotConfigFile, cfg.MCPConfigFile, cfg.TmpDir,
		cfg.StorageType, cfg.SQLiteFile, cfg.MaxToolRounds,
		cfg.ProxyHost, cfg.ProxyPort)
}
