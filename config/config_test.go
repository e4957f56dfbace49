package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromCreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "conf", "config.toml")
	dataDir := filepath.Join(dir, "data")

	cfg, err := LoadFrom(cfgPath, dataDir, dataDir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if !FileExists(cfgPath) {
		t.Error("config file was not created")
	}
	if cfg.ChatFile != filepath.Join(dataDir, "chat.jsonl") {
		t.Errorf("ChatFile = %q", cfg.ChatFile)
	}
	if cfg.TmpDir != filepath.Join(dataDir, "tmp") {
		t.Errorf("TmpDir = %q", cfg.TmpDir)
	}
	if cfg.StorageType != StorageFile {
		t.Errorf("StorageType = %q, want %q", cfg.StorageType, StorageFile)
	}
	if info, err := os.Stat(cfg.TmpDir); err != nil || !info.IsDir() {
		t.Errorf("tmp dir not created: %v", err)
	}

	// Loading the generated template again yields the same config.
	again, err := LoadFrom(cfgPath, filepath.Join(dir, "other"), filepath.Join(dir, "other"))
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if *again != *cfg {
		t.Errorf("reload mismatch:\n got %+v\nwant %+v", again, cfg)
	}
}

func TestLoadFromMergesMissingKeys(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := `chat_file = "` + filepath.Join(dir, "custom", "chats.jsonl") + `"
max_tool_rounds = 3
`
	if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(cfgPath, dir, dir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.ChatFile != filepath.Join(dir, "custom", "chats.jsonl") {
		t.Errorf("ChatFile = %q", cfg.ChatFile)
	}
	if cfg.MaxToolRounds != 3 {
		t.Errorf("MaxToolRounds = %d", cfg.MaxToolRounds)
	}
	if cfg.BotConfigFile != filepath.Join(dir, "bot_config.jsonl") {
		t.Errorf("BotConfigFile default not merged: %q", cfg.BotConfigFile)
	}
	if _, err := os.Stat(filepath.Join(dir, "custom")); err != nil {
		t.Errorf("chat file parent not created: %v", err)
	}
}

func TestLoadFromRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{name: "unknown storage", content: `storage_type = "cloud"`, errPart: "storage_type"},
		{name: "negative rounds", content: `max_tool_rounds = -1`, errPart: "max_tool_rounds"},
		{name: "bad toml", content: `chat_file = `, errPart: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfgPath := filepath.Join(dir, "config.toml")
			if err := os.WriteFile(cfgPath, []byte(tt.content+"\n"), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFrom(cfgPath, dir, dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q does not mention %q", err, tt.errPart)
			}
		})
	}
}

func TestProxyExported(t *testing.T) {
	t.Setenv("http_proxy", "")
	t.Setenv("https_proxy", "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := "proxy_host = \"127.0.0.1\"\nproxy_port = \"7890\"\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(cfgPath, dir, dir); err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	want := "http://127.0.0.1:7890"
	if got := os.Getenv("http_proxy"); got != want {
		t.Errorf("http_proxy = %q, want %q", got, want)
	}
	if got := os.Getenv("https_proxy"); got != want {
		t.Errorf("https_proxy = %q, want %q", got, want)
	}
}

func TestProxyURLRequiresHostAndPort(t *testing.T) {
	cfg := &Config{ProxyHost: "127.0.0.1"}
	if got := cfg.ProxyURL(); got != "" {
		t.Errorf("ProxyURL() = %q, want empty", got)
	}
}

func TestExpandPath(t *testing.T) {
	home := GetHomeDir()
	t.Setenv("Y_TEST_DIR", "/srv/y")

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~/data", filepath.Join(home, "data")},
		{"$Y_TEST_DIR/chat.jsonl", "/srv/y/chat.jsonl"},
		{"/a/b/../c", "/a/c"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDataDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("Y_DATA_DIR", dir)
	if got := GetDefaultDataDir(); got != dir {
		t.Errorf("GetDefaultDataDir() = %q, want %q", got, dir)
	}
	if got := GetCacheDir(); got != dir {
		t.Errorf("GetCacheDir() = %q, want %q", got, dir)
	}
}

func TestCheckDebug(t *testing.T) {
	for _, v := range []string{"1", "true"} {
		t.Setenv("Y_DEBUG", v)
		if !CheckDebug() {
			t.Errorf("CheckDebug() false for %q", v)
		}
	}
	t.Setenv("Y_DEBUG", "yes")
	if CheckDebug() {
		t.Error("CheckDebug() true for \"yes\"")
	}
}
