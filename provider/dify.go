package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ycli/config"
	"ycli/model"

	"github.com/tidwall/gjson"
)

const difyDefaultPath = "/chat-messages"

// DifyProvider talks to a Dify conversational app. Dify keeps the history
// server-side, so only the last user query is sent along with the
// conversation id.
type DifyProvider struct {
	bot      config.BotConfig
	endpoint string
	client   *http.Client
	renderer model.StreamRenderer
}

type difyRequest struct {
	Query          string         `json:"query"`
	ResponseMode   string         `json:"response_mode"`
	User           string         `json:"user"`
	Inputs         map[string]any `json:"inputs"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

func NewDifyProvider(bot config.BotConfig, renderer model.StreamRenderer, opts Options) (*DifyProvider, error) {
	if bot.BaseURL == "" {
		return nil, fmt.Errorf("dify bot %q has no base_url", bot.Name)
	}
	path := bot.CustomAPIPath
	if path == "" {
		path = difyDefaultPath
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient()
	}
	return &DifyProvider{
		bot:      bot,
		endpoint: strings.TrimRight(bot.BaseURL, "/") + "/" + strings.TrimLeft(path, "/"),
		client:   opts.HTTPClient,
		renderer: renderer,
	}, nil
}

func (p *DifyProvider) CallChatCompletions(ctx context.Context, messages []model.Message, chat *model.Chat, systemPrompt string) (model.Message, string, error) {
	query, err := lastUserQuery(messages)
	if err != nil {
		return model.Message{}, "", err
	}

	body := difyRequest{
		Query:        query,
		ResponseMode: "streaming",
		User:         "user",
		Inputs:       map[string]any{},
	}
	if chat != nil {
		body.ConversationID = chat.ExternalID
	}
	data, err := json.Marshal(body)
	if err != nil {
		return model.Message{}, "", fmt.Errorf("failed to encode dify request: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Dify] POST %s (conversation=%q)", p.endpoint, body.ConversationID)
	}

	var messageID, conversationID string

	chunks := func(yield func(model.StreamChunk, error) bool) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(data))
		if err != nil {
			yield(model.StreamChunk{}, &Error{Provider: "dify", Err: err})
			return
		}
		req.Header.Set("Authorization", "Bearer "+p.bot.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		resp, err := p.client.Do(req)
		if err != nil {
			yield(model.StreamChunk{}, transportError(ctx, "dify", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			yield(model.StreamChunk{}, statusError("dify", resp))
			return
		}

		for payload, err := range scanEvents(resp.Body) {
			if err != nil {
				yield(model.StreamChunk{}, transportError(ctx, "dify", err))
				return
			}
			if !gjson.Valid(payload) {
				yield(model.StreamChunk{}, &Error{Provider: "dify", Err: fmt.Errorf("malformed event: %.80q", payload)})
				return
			}

			ev := gjson.Parse(payload)
			switch ev.Get("event").String() {
			case "error":
				msg := ev.Get("message").String()
				if msg == "" {
					msg = "Unknown error"
				}
				yield(model.StreamChunk{}, &Error{Provider: "dify", Err: fmt.Errorf("API Error: %s", msg)})
				return
			case "message", "agent_message":
				if messageID == "" {
					messageID = ev.Get("message_id").String()
				}
				if conversationID == "" {
					conversationID = ev.Get("conversation_id").String()
				}
				answer := ev.Get("answer").String()
				if answer == "" {
					continue
				}
				if !yield(model.StreamChunk{Content: answer}, nil) {
					return
				}
			}
		}
	}

	content, _, err := p.renderer.StreamResponse(ctx, chunks)
	if err != nil {
		return model.Message{}, "", err
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Dify] Reply %s in conversation %s (%d bytes)", messageID, conversationID, len(content))
	}
	return assistantMessage(content, "", p.bot.Model, "dify", messageID), conversationID, nil
}

// transportError prefers the context error so callers can tell a user
// cancellation from a network failure.
func transportError(ctx context.Context, providerName string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &Error{Provider: providerName, Err: err}
}
