package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ycli/config"
	"ycli/provider/testutil"

	"github.com/tidwall/gjson"
)

func TestOpenAIProviderStreams(t *testing.T) {
	var body []byte
	var headers http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ = io.ReadAll(r.Body)
		headers = r.Header.Clone()
		testutil.WriteSSE(w,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"deepseek/deepseek-r1","provider":"Fireworks","choices":[{"index":0,"delta":{"role":"assistant","content":"","reasoning":"think "}}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"deepseek/deepseek-r1","provider":"Other","choices":[{"index":0,"delta":{"reasoning":"hard"}}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"deepseek/deepseek-r1","choices":[{"index":0,"delta":{"content":"Hello"}}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"deepseek/deepseek-r1","choices":[{"index":0,"delta":{"content":" world"}}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"deepseek/deepseek-r1","choices":[]}`,
			`[DONE]`,
		)
	}))
	defer srv.Close()

	bot := config.BotConfig{
		Name:             "r1",
		BaseURL:          srv.URL,
		APIKey:           "sk-test",
		Model:            "deepseek/deepseek-r1",
		MaxTokens:        256,
		OpenRouterConfig: map[string]any{"provider": map[string]any{"sort": "throughput"}},
	}
	renderer := &testutil.CollectingRenderer{}
	p, err := NewOpenAIProvider(bot, renderer, Options{HTTPClient: srv.Client()})
	if err != nil {
		t.Fatal(err)
	}

	msg, externalID, err := p.CallChatCompletions(context.Background(), testutil.SingleUserMessage("hi"), nil, "sys prompt")
	if err != nil {
		t.Fatalf("CallChatCompletions failed: %v", err)
	}

	if got := msg.Content.Text(); got != "Hello world" {
		t.Errorf("content = %q", got)
	}
	if msg.ReasoningContent != "think hard" {
		t.Errorf("reasoning = %q", msg.ReasoningContent)
	}
	if msg.Model != "deepseek/deepseek-r1" {
		t.Errorf("model = %q", msg.Model)
	}
	if msg.Provider != "Fireworks" {
		t.Errorf("provider = %q, want first seen", msg.Provider)
	}
	if msg.Role != "assistant" || msg.UnixTimestamp == 0 {
		t.Errorf("unexpected message metadata: %+v", msg)
	}
	if externalID != "" {
		t.Errorf("externalID = %q, want empty", externalID)
	}
	if n := len(renderer.Seen()); n != 4 {
		t.Errorf("renderer saw %d chunks, want 4", n)
	}

	req := gjson.ParseBytes(body)
	if req.Get("model").String() != "deepseek/deepseek-r1" {
		t.Errorf("request model = %s", req.Get("model"))
	}
	if !req.Get("stream").Bool() {
		t.Error("stream not requested")
	}
	if !req.Get("include_reasoning").Bool() {
		t.Error("include_reasoning not set for deepseek-r1")
	}
	if req.Get("provider.sort").String() != "throughput" {
		t.Errorf("provider prefs = %s", req.Get("provider"))
	}
	if req.Get("max_tokens").Int() != 256 {
		t.Errorf("max_tokens = %s", req.Get("max_tokens"))
	}
	if req.Get("messages.0.role").String() != "system" || req.Get("messages.0.content.0.text").String() != "sys prompt" {
		t.Errorf("system message = %s", req.Get("messages.0"))
	}
	if req.Get("messages.1.content").String() != "hi" {
		t.Errorf("user message = %s", req.Get("messages.1"))
	}
	if headers.Get("X-Title") != "y-cli" || headers.Get("HTTP-Referer") == "" {
		t.Errorf("attribution headers missing: %v", headers)
	}
	if headers.Get("Authorization") != "Bearer sk-test" {
		t.Errorf("Authorization = %q", headers.Get("Authorization"))
	}
}

func TestOpenAIProviderOmitsOptionalFields(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		testutil.WriteSSE(w,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"ok"}}]}`,
			`[DONE]`,
		)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.BotConfig{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o"}, &testutil.CollectingRenderer{}, Options{HTTPClient: srv.Client()})
	if err != nil {
		t.Fatal(err)
	}
	msg, _, err := p.CallChatCompletions(context.Background(), testutil.SingleUserMessage("hi"), nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Provider != "" {
		t.Errorf("provider = %q, want empty", msg.Provider)
	}

	req := gjson.ParseBytes(body)
	for _, key := range []string{"include_reasoning", "provider", "max_tokens"} {
		if req.Get(key).Exists() {
			t.Errorf("%s should not be sent, got %s", key, req.Get(key))
		}
	}
	if req.Get("messages.#").Int() != 1 {
		t.Errorf("expected only the user message, got %s", req.Get("messages"))
	}
}

func TestOpenAIProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(config.BotConfig{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o"}, &testutil.CollectingRenderer{}, Options{HTTPClient: srv.Client()})
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = p.CallChatCompletions(context.Background(), testutil.SingleUserMessage("hi"), nil, "")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if perr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", perr.StatusCode)
	}
}
