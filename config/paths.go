package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "y-cli"

// GetConfigDir returns the platform-specific configuration directory
// Linux: ~/.config/y-cli
// macOS: ~/Library/Preferences/y-cli
func GetConfigDir() string {
	if runtime.GOOS == "darwin" {
		return filepath.Join(GetHomeDir(), "Library", "Preferences", appName)
	}
	return filepath.Join(GetHomeDir(), ".config", appName)
}

// GetDefaultDataDir returns the data directory, honouring Y_DATA_DIR
// Linux: ~/.local/share/y-cli
// macOS: ~/Library/Application Support/y-cli
func GetDefaultDataDir() string {
	if dir := os.Getenv("Y_DATA_DIR"); dir != "" {
		return ExpandPath(dir)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(GetHomeDir(), "Library", "Application Support", appName)
	}
	return filepath.Join(GetHomeDir(), ".local", "share", appName)
}

// GetCacheDir returns the directory for temporary files
// Linux: same as the data directory
// macOS: ~/Library/Caches/y-cli
func GetCacheDir() string {
	if os.Getenv("Y_DATA_DIR") == "" && runtime.GOOS == "darwin" {
		return filepath.Join(GetHomeDir(), "Library", "Caches", appName)
	}
	return GetDefaultDataDir()
}

// GetConfigFilePath returns the path to config.toml
func GetConfigFilePath() string {
	return filepath.Join(GetConfigDir(), "config.toml")
}

// GetHomeDir returns the user's home directory
func GetHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return "/"
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" {
		path = GetHomeDir()
	} else if strings.HasPrefix(path, "~/") {
		path = filepath.Join(GetHomeDir(), path[2:])
	}

	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}

// EnsureDir creates a directory if it doesn't exist (0700 - user-only access)
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
