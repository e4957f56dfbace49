package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"ycli/config"
	"ycli/model"

	"github.com/tidwall/gjson"
)

const (
	topiaChatPath  = "/orchChat/sendChat"
	topiaLoginPath = "/login"
	topiaTokenFile = ".topia_token"
)

// TopiaProvider talks to a Topia orchestration. The bot's api_key holds
// "appId|appSecret" and its model holds the numeric orchestration id.
type TopiaProvider struct {
	bot       config.BotConfig
	baseURL   string
	appID     string
	appSecret string
	orchID    int
	client    *http.Client
	tokens    *TokenCache
	renderer  model.StreamRenderer
}

type topiaRequest struct {
	AppUserID string `json:"appUserId"`
	Content   string `json:"content"`
	OrchID    int    `json:"orchId"`
	IsStream  bool   `json:"isStream"`
}

func NewTopiaProvider(bot config.BotConfig, renderer model.StreamRenderer, opts Options) (*TopiaProvider, error) {
	if bot.BaseURL == "" {
		return nil, fmt.Errorf("topia bot %q has no base_url", bot.Name)
	}
	appID, appSecret, ok := strings.Cut(bot.APIKey, "|")
	if !ok || appID == "" || appSecret == "" {
		return nil, fmt.Errorf("topia bot %q: api_key must be \"appId|appSecret\"", bot.Name)
	}
	orchID, err := strconv.Atoi(strings.TrimSpace(bot.Model))
	if err != nil {
		return nil, fmt.Errorf("topia bot %q: model must be a numeric orchestration id: %w", bot.Name, err)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient()
	}
	tmpDir := opts.TmpDir
	if tmpDir == "" {
		tmpDir = filepath.Join(config.GetCacheDir(), "tmp")
	}

	return &TopiaProvider{
		bot:       bot,
		baseURL:   strings.TrimRight(bot.BaseURL, "/"),
		appID:     appID,
		appSecret: appSecret,
		orchID:    orchID,
		client:    opts.HTTPClient,
		tokens:    NewTokenCache(filepath.Join(tmpDir, topiaTokenFile)),
		renderer:  renderer,
	}, nil
}

// token returns a cached bearer token or logs in for a fresh one.
func (p *TopiaProvider) token(ctx context.Context) (string, error) {
	if tok, ok := p.tokens.Load(); ok {
		return tok, nil
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Topia] Token missing or expired, logging in as %s", p.appID)
	}

	data, err := json.Marshal(map[string]string{"appId": p.appID, "appSecret": p.appSecret})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+topiaLoginPath, bytes.NewReader(data))
	if err != nil {
		return "", &Error{Provider: "topia", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", transportError(ctx, "topia", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError("topia", resp)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return "", transportError(ctx, "topia", err)
	}
	body := gjson.ParseBytes(buf.Bytes())
	tok := body.Get("data.access_token").String()
	if tok == "" {
		return "", &Error{Provider: "topia", StatusCode: resp.StatusCode, Err: fmt.Errorf("login response has no access token")}
	}

	if err := p.tokens.Store(tok, body.Get("data.expires_in").Float()); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Topia] Could not cache token: %v", err)
	}
	return tok, nil
}

func (p *TopiaProvider) CallChatCompletions(ctx context.Context, messages []model.Message, chat *model.Chat, systemPrompt string) (model.Message, string, error) {
	query, err := lastUserQuery(messages)
	if err != nil {
		return model.Message{}, "", err
	}
	if chat == nil || chat.ID == "" {
		return model.Message{}, "", fmt.Errorf("topia needs a chat id for appUserId")
	}

	tok, err := p.token(ctx)
	if err != nil {
		return model.Message{}, "", err
	}

	data, err := json.Marshal(topiaRequest{
		AppUserID: chat.ID,
		Content:   query,
		OrchID:    p.orchID,
		IsStream:  true,
	})
	if err != nil {
		return model.Message{}, "", fmt.Errorf("failed to encode topia request: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Topia] POST %s%s (orch=%d, user=%s)", p.baseURL, topiaChatPath, p.orchID, chat.ID)
	}

	var messageID string

	chunks := func(yield func(model.StreamChunk, error) bool) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+topiaChatPath, bytes.NewReader(data))
		if err != nil {
			yield(model.StreamChunk{}, &Error{Provider: "topia", Err: err})
			return
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		resp, err := p.client.Do(req)
		if err != nil {
			yield(model.StreamChunk{}, transportError(ctx, "topia", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			yield(model.StreamChunk{}, statusError("topia", resp))
			return
		}

		var tracker cumulativeText
		for payload, err := range scanEvents(resp.Body) {
			if err != nil {
				yield(model.StreamChunk{}, transportError(ctx, "topia", err))
				return
			}
			if !gjson.Valid(payload) {
				yield(model.StreamChunk{}, &Error{Provider: "topia", Err: fmt.Errorf("malformed event: %.80q", payload)})
				return
			}

			ev := gjson.Parse(payload)
			if id := ev.Get("id"); id.Exists() {
				messageID = id.String()
				continue
			}
			delta := tracker.next(ev.Get("content").String())
			if delta == "" {
				continue
			}
			if !yield(model.StreamChunk{Content: delta}, nil) {
				return
			}
		}
	}

	content, _, err := p.renderer.StreamResponse(ctx, chunks)
	if err != nil {
		return model.Message{}, "", err
	}
	return assistantMessage(content, "", p.bot.Model, "topia", messageID), "", nil
}

// cumulativeText turns a sequence of cumulative snapshots into deltas. An
// empty snapshot starts over.
type cumulativeText struct {
	seen []rune
}

func (c *cumulativeText) next(snapshot string) string {
	if snapshot == "" {
		c.seen = nil
		return ""
	}
	runes := []rune(snapshot)
	var delta string
	if len(runes) > len(c.seen) {
		delta = string(runes[len(c.seen):])
	}
	c.seen = runes
	return delta
}
