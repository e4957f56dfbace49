package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config is the application configuration stored in config.toml.
type Config struct {
	ChatFile      string `toml:"chat_file"`
	BotConfigFile string `toml:"bot_config_file"`
	MCPConfigFile string `toml:"mcp_config_file"`
	TmpDir        string `toml:"tmp_dir"`
	StorageType   string `toml:"storage_type"`
	SQLiteFile    string `toml:"sqlite_file"`
	MaxToolRounds int    `toml:"max_tool_rounds"`
	ProxyHost     string `toml:"proxy_host"`
	ProxyPort     string `toml:"proxy_port"`
}

var Debug = false
var DebugLog *log.Logger

func CheckDebug() bool {
	debug := os.Getenv("Y_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	if err := EnsureDir(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create %s: %v\n", dataDir, err)
		return
	}
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: prompts and replies end up in here
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (Y_DEBUG=%s) ===", os.Getenv("Y_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// Load reads the config file at its platform location, creating it with
// defaults when missing.
func Load() (*Config, error) {
	return LoadFrom(GetConfigFilePath(), GetDefaultDataDir(), GetCacheDir())
}

// LoadFrom reads the config at path. Keys absent from the file keep the
// defaults derived from dataDir and cacheDir. File paths are expanded and
// their parent directories created, and the proxy is exported to the
// environment when both host and port are set.
func LoadFrom(path, dataDir, cacheDir string) (*Config, error) {
	cfg, err := LoadConfigFile(path, DefaultConfig(dataDir, cacheDir))
	if err != nil {
		return nil, err
	}

	cfg.ChatFile = ExpandPath(cfg.ChatFile)
	cfg.BotConfigFile = ExpandPath(cfg.BotConfigFile)
	cfg.MCPConfigFile = ExpandPath(cfg.MCPConfigFile)
	cfg.SQLiteFile = ExpandPath(cfg.SQLiteFile)
	cfg.TmpDir = ExpandPath(cfg.TmpDir)

	for _, p := range []string{cfg.ChatFile, cfg.BotConfigFile, cfg.MCPConfigFile, cfg.SQLiteFile} {
		if err := EnsureDir(filepath.Dir(p)); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}
	if err := EnsureDir(cfg.TmpDir); err != nil {
		return nil, fmt.Errorf("failed to create tmp directory: %w", err)
	}

	if cfg.StorageType == "" {
		cfg.StorageType = StorageFile
	}
	if cfg.StorageType != StorageFile && cfg.StorageType != StorageSQLite {
		return nil, fmt.Errorf("unknown storage_type %q (want %q or %q)", cfg.StorageType, StorageFile, StorageSQLite)
	}
	if cfg.MaxToolRounds < 0 {
		return nil, fmt.Errorf("max_tool_rounds must not be negative, got %d", cfg.MaxToolRounds)
	}

	cfg.applyProxy()
	return cfg, nil
}

// ProxyURL returns the configured proxy, or "" when host or port is unset.
func (c *Config) ProxyURL() string {
	if c.ProxyHost == "" || c.ProxyPort == "" {
		return ""
	}
	return fmt.Sprintf("http://%s:%s", c.ProxyHost, c.ProxyPort)
}

func (c *Config) applyProxy() {
	proxy := c.ProxyURL()
	if proxy == "" {
		return
	}
	os.Setenv("http_proxy", proxy)
	os.Setenv("https_proxy", proxy)
	if DebugLog != nil {
		DebugLog.Printf("[Config] Proxy set to %s", proxy)
	}
}
