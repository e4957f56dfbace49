package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewBotStoreSeedsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_config.jsonl")
	s, err := NewBotStore(path)
	if err != nil {
		t.Fatalf("NewBotStore failed: %v", err)
	}

	bots, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(bots) != 1 || bots[0].Name != DefaultBotName {
		t.Fatalf("expected only the default bot, got %+v", bots)
	}
	if bots[0].BaseURL != DefaultBaseURL || bots[0].PrintSpeed != DefaultPrintSpeed {
		t.Errorf("default bot has unexpected values: %+v", bots[0])
	}

	// Opening again does not duplicate the default.
	if _, err := NewBotStore(path); err != nil {
		t.Fatal(err)
	}
	bots, _ = s.List()
	if len(bots) != 1 {
		t.Errorf("default bot duplicated: %d bots", len(bots))
	}
}

func TestBotStoreGetConfig(t *testing.T) {
	s, err := NewBotStore(filepath.Join(t.TempDir(), "bots.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(BotConfig{Name: "dify", BaseURL: "http://dify.local/v1", APIKey: "k", APIType: "dify"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		query     string
		wantName  string
		wantFound bool
	}{
		{name: "existing bot", query: "dify", wantName: "dify", wantFound: true},
		{name: "empty selects default", query: "", wantName: DefaultBotName, wantFound: true},
		{name: "missing falls back", query: "ghost", wantName: DefaultBotName, wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot, found, err := s.GetConfig(tt.query)
			if err != nil {
				t.Fatalf("GetConfig failed: %v", err)
			}
			if bot.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", bot.Name, tt.wantName)
			}
			if found != tt.wantFound {
				t.Errorf("found = %v, want %v", found, tt.wantFound)
			}
			if bot.PrintSpeed != DefaultPrintSpeed {
				t.Errorf("PrintSpeed = %d, want default %d", bot.PrintSpeed, DefaultPrintSpeed)
			}
		})
	}
}

func TestBotStoreAddReplacesAndDelete(t *testing.T) {
	s, err := NewBotStore(filepath.Join(t.TempDir(), "bots.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(BotConfig{Name: "a", Model: "m1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(BotConfig{Name: "a", Model: "m2"}); err != nil {
		t.Fatal(err)
	}

	b, ok, err := s.Get("a")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if b.Model != "m2" {
		t.Errorf("Model = %q, want m2", b.Model)
	}

	if deleted, _ := s.Delete(DefaultBotName); deleted {
		t.Error("default bot must not be deletable")
	}
	deleted, err := s.Delete("a")
	if err != nil || !deleted {
		t.Fatalf("Delete(a) = %v, %v", deleted, err)
	}
	if deleted, _ := s.Delete("a"); deleted {
		t.Error("second delete reported success")
	}
}

func TestReadJSONLSkipsBlankLinesAndReportsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.jsonl")
	if err := os.WriteFile(path, []byte("{\"name\":\"a\"}\n\n  \n{\"name\":\"b\"}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	items, err := ReadJSONL[MCPServerConfig](path)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2", len(items))
	}

	if err := os.WriteFile(path, []byte("{\"name\":\"a\"}\nnot json\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadJSONL[MCPServerConfig](path); err == nil {
		t.Error("expected error for malformed line")
	}

	items, err = ReadJSONL[MCPServerConfig](filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil || len(items) != 0 {
		t.Errorf("missing file: items=%v err=%v", items, err)
	}
}

func TestMCPRegistry(t *testing.T) {
	r := NewMCPRegistry(filepath.Join(t.TempDir(), "mcp.jsonl"))

	if _, ok := r.Get("todo"); ok {
		t.Fatal("empty registry returned a server")
	}

	srv := MCPServerConfig{Name: "todo", Command: "npx", Args: []string{"-y", "todo-mcp"}, Env: map[string]string{"K": "V"}}
	if err := r.Add(srv); err != nil {
		t.Fatal(err)
	}
	got, ok := r.Get("todo")
	if !ok {
		t.Fatal("server not found after Add")
	}
	if got.Command != "npx" || len(got.Args) != 2 || got.Env["K"] != "V" {
		t.Errorf("unexpected server: %+v", got)
	}

	deleted, err := r.Delete("todo")
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	if _, ok := r.Get("todo"); ok {
		t.Error("server still present after Delete")
	}
}
