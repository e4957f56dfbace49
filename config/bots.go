package config

import (
	"fmt"
	"slices"
)

const (
	DefaultBotName    = "default"
	DefaultBaseURL    = "https://openrouter.ai/api/v1"
	DefaultBotModel   = "anthropic/claude-3.5-sonnet:beta"
	DefaultPrintSpeed = 60
)

// BotConfig is a named provider preset from bot_config.jsonl.
type BotConfig struct {
	Name             string         `json:"name"`
	BaseURL          string         `json:"base_url"`
	APIKey           string         `json:"api_key"`
	Model            string         `json:"model"`
	PrintSpeed       int            `json:"print_speed"`
	APIType          string         `json:"api_type,omitempty"`
	Description      string         `json:"description,omitempty"`
	OpenRouterConfig map[string]any `json:"openrouter_config,omitempty"`
	MCPServers       []string       `json:"mcp_servers,omitempty"`
	MaxTokens        int            `json:"max_tokens,omitempty"`
	CustomAPIPath    string         `json:"custom_api_path,omitempty"`
}

func DefaultBotConfig() BotConfig {
	return BotConfig{
		Name:       DefaultBotName,
		BaseURL:    DefaultBaseURL,
		Model:      DefaultBotModel,
		PrintSpeed: DefaultPrintSpeed,
		OpenRouterConfig: map[string]any{
			"provider": map[string]any{"sort": "throughput"},
		},
	}
}

// WithDefaults fills the zero-valued connection fields.
func (b BotConfig) WithDefaults() BotConfig {
	if b.BaseURL == "" {
		b.BaseURL = DefaultBaseURL
	}
	if b.Model == "" {
		b.Model = DefaultBotModel
	}
	if b.PrintSpeed <= 0 {
		b.PrintSpeed = DefaultPrintSpeed
	}
	return b
}

// BotStore manages bot presets in a JSONL file.
type BotStore struct {
	path string
}

// NewBotStore opens the store and makes sure a "default" bot exists.
func NewBotStore(path string) (*BotStore, error) {
	s := &BotStore{path: path}
	bots, err := s.List()
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(bots, func(b BotConfig) bool { return b.Name == DefaultBotName }) {
		if err := s.Add(DefaultBotConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default bot: %w", err)
		}
	}
	return s, nil
}

func (s *BotStore) List() ([]BotConfig, error) {
	return ReadJSONL[BotConfig](s.path)
}

func (s *BotStore) Get(name string) (BotConfig, bool, error) {
	bots, err := s.List()
	if err != nil {
		return BotConfig{}, false, err
	}
	for _, b := range bots {
		if b.Name == name {
			return b, true, nil
		}
	}
	return BotConfig{}, false, nil
}

// Add inserts or replaces the bot with the same name.
func (s *BotStore) Add(bot BotConfig) error {
	bots, err := s.List()
	if err != nil {
		return err
	}
	bots = slices.DeleteFunc(bots, func(b BotConfig) bool { return b.Name == bot.Name })
	bots = append(bots, bot)
	return WriteJSONL(s.path, bots)
}

// Delete removes a bot. The default bot cannot be deleted.
func (s *BotStore) Delete(name string) (bool, error) {
	if name == DefaultBotName {
		return false, nil
	}
	bots, err := s.List()
	if err != nil {
		return false, err
	}
	kept := slices.DeleteFunc(slices.Clone(bots), func(b BotConfig) bool { return b.Name == name })
	if len(kept) == len(bots) {
		return false, nil
	}
	return true, WriteJSONL(s.path, kept)
}

// GetConfig resolves name to a usable bot. An empty name selects the default
// bot. When the named bot does not exist the default is returned with
// found=false so the caller can warn.
func (s *BotStore) GetConfig(name string) (bot BotConfig, found bool, err error) {
	if name == "" {
		name = DefaultBotName
	}
	b, ok, err := s.Get(name)
	if err != nil {
		return BotConfig{}, false, err
	}
	if ok {
		return b.WithDefaults(), true, nil
	}

	if DebugLog != nil {
		DebugLog.Printf("[BotStore] Bot %q not found, falling back to %q", name, DefaultBotName)
	}
	def, ok, err := s.Get(DefaultBotName)
	if err != nil {
		return BotConfig{}, false, err
	}
	if !ok {
		def = DefaultBotConfig()
	}
	return def.WithDefaults(), name == DefaultBotName, nil
}
