package provider

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ycli/config"
)

// TokenCache persists a bearer token and its expiry in a small JSON file.
// A missing, unreadable or expired file simply means no token.
type TokenCache struct {
	path string
	now  func() time.Time
}

type cachedToken struct {
	AccessToken string  `json:"access_token"`
	ExpiresAt   float64 `json:"expires_at"` // unix seconds
}

func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path, now: time.Now}
}

func (c *TokenCache) unixNow() float64 {
	return float64(c.now().UnixNano()) / float64(time.Second)
}

// Load returns the cached token if it has not expired.
func (c *TokenCache) Load() (string, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return "", false
	}
	var tok cachedToken
	if err := json.Unmarshal(data, &tok); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[TokenCache] Ignoring unreadable cache %s: %v", c.path, err)
		}
		return "", false
	}
	if tok.AccessToken == "" || tok.ExpiresAt <= c.unixNow() {
		return "", false
	}
	return tok.AccessToken, true
}

// Store saves token as valid for expiresIn seconds from now.
func (c *TokenCache) Store(token string, expiresIn float64) error {
	data, err := json.Marshal(cachedToken{AccessToken: token, ExpiresAt: c.unixNow() + expiresIn})
	if err != nil {
		return err
	}
	if err := config.EnsureDir(filepath.Dir(c.path)); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}
	// 0600: bearer token
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}
