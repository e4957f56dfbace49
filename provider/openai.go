package provider

import (
	"context"
	"errors"
	"fmt"

	"ycli/config"
	"ycli/model"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/tidwall/gjson"
)

const (
	appReferer = "https://luohy15.com"
	appTitle   = "y-cli"
)

// OpenAIProvider talks to OpenAI-compatible chat completion endpoints,
// including OpenRouter, through the official SDK.
type OpenAIProvider struct {
	client   openai.Client
	bot      config.BotConfig
	renderer model.StreamRenderer
}

// NewOpenAIProvider creates an OpenAI-compatible provider. The base URL
// defaults to OpenRouter.
func NewOpenAIProvider(bot config.BotConfig, renderer model.StreamRenderer, opts Options) (*OpenAIProvider, error) {
	if bot.BaseURL == "" {
		bot.BaseURL = config.DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient()
	}

	client := openai.NewClient(
		option.WithBaseURL(bot.BaseURL),
		option.WithAPIKey(bot.APIKey),
		option.WithHTTPClient(opts.HTTPClient),
		option.WithMaxRetries(0),
		option.WithHeader("HTTP-Referer", appReferer),
		option.WithHeader("X-Title", appTitle),
	)

	return &OpenAIProvider{
		client:   client,
		bot:      bot,
		renderer: renderer,
	}, nil
}

// requestOptions sets the body fields the typed params cannot express.
func (p *OpenAIProvider) requestOptions(messages []model.Message, systemPrompt string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithJSONSet("messages", PrepareMessages(messages, systemPrompt, p.bot.Model)),
	}
	if prefs, ok := p.bot.OpenRouterConfig["provider"]; ok && prefs != nil {
		opts = append(opts, option.WithJSONSet("provider", prefs))
	}
	if wantsReasoning(p.bot.Model) {
		opts = append(opts, option.WithJSONSet("include_reasoning", true))
	}
	return opts
}

// CallChatCompletions streams a completion for the full message list.
func (p *OpenAIProvider) CallChatCompletions(ctx context.Context, messages []model.Message, chat *model.Chat, systemPrompt string) (model.Message, string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.bot.Model),
	}
	if p.bot.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.bot.MaxTokens))
	}
	reqOpts := p.requestOptions(messages, systemPrompt)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[OpenAI] Streaming %d messages to %s (model=%s)", len(messages), p.bot.BaseURL, p.bot.Model)
	}

	// Written by the renderer's collector, read after StreamResponse returns.
	var respModel, respProvider string

	chunks := func(yield func(model.StreamChunk, error) bool) {
		stream := p.client.Chat.Completions.NewStreaming(ctx, params, reqOpts...)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			raw := chunk.RawJSON()

			if respModel == "" && chunk.Model != "" {
				respModel = chunk.Model
			}
			if respProvider == "" {
				respProvider = gjson.Get(raw, "provider").String()
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			sc := model.StreamChunk{
				Content:   chunk.Choices[0].Delta.Content,
				Reasoning: reasoningDelta(raw),
			}
			if sc.Content == "" && sc.Reasoning == "" {
				continue
			}
			if !yield(sc, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			yield(model.StreamChunk{}, p.wrapError(ctx, err))
		}
	}

	content, reasoning, err := p.renderer.StreamResponse(ctx, chunks)
	if err != nil {
		return model.Message{}, "", err
	}

	if respModel == "" {
		respModel = p.bot.Model
	}
	return assistantMessage(content, reasoning, respModel, respProvider, ""), "", nil
}

// reasoningDelta reads the reasoning text of the first choice. OpenRouter
// uses "reasoning"; DeepSeek-style servers use "reasoning_content".
func reasoningDelta(raw string) string {
	res := gjson.GetMany(raw, "choices.0.delta.reasoning", "choices.0.delta.reasoning_content")
	if s := res[0].String(); s != "" {
		return s
	}
	return res[1].String()
}

func (p *OpenAIProvider) wrapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &Error{Provider: "openai", StatusCode: apiErr.StatusCode, Err: err}
	}
	return &Error{Provider: "openai", Err: fmt.Errorf("stream failed: %w", err)}
}
