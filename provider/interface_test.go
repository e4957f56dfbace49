package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ycli/config"
	"ycli/model"
	"ycli/provider/testutil"
)

// stallingServer sends one event and then goes quiet until the client leaves.
func stallingServer(t *testing.T, event string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteSSE(w, event)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStalledStreamIsTransportError(t *testing.T) {
	tests := []struct {
		name  string
		event string
		bot   func(url string) config.BotConfig
	}{
		{
			name:  "openai",
			event: `{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"Hel"}}]}`,
			bot: func(url string) config.BotConfig {
				return config.BotConfig{Name: "o", BaseURL: url, APIKey: "sk", Model: "m"}
			},
		},
		{
			name:  "dify",
			event: `{"event":"message","answer":"Hel","message_id":"m-1","conversation_id":"c-1"}`,
			bot: func(url string) config.BotConfig {
				return config.BotConfig{Name: "d", APIType: "dify", BaseURL: url, APIKey: "k", Model: "app"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := stallingServer(t, tt.event)
			p, err := NewProvider(tt.bot(srv.URL), &testutil.CollectingRenderer{}, Options{
				HTTPClient: newHTTPClient(100 * time.Millisecond),
			})
			if err != nil {
				t.Fatal(err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			start := time.Now()
			_, _, err = p.CallChatCompletions(ctx, testutil.TestMessages(), &model.Chat{ID: "chat-1"}, "")

			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if !errors.Is(err, ErrStreamStalled) {
				t.Errorf("err = %v, want ErrStreamStalled", err)
			}
			if ctx.Err() != nil {
				t.Error("caller context expired before the stall was detected")
			}
			if elapsed := time.Since(start); elapsed > 5*time.Second {
				t.Errorf("stall detected after %s", elapsed)
			}
		})
	}
}

func TestSteadyStreamOutlivesIdleTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for range 8 {
			testutil.WriteSSE(w, `{"event":"message","answer":"x"}`)
			time.Sleep(50 * time.Millisecond)
		}
	}))
	defer srv.Close()

	renderer := &testutil.CollectingRenderer{}
	p, err := NewDifyProvider(config.BotConfig{Name: "d", BaseURL: srv.URL, APIKey: "k", Model: "app"}, renderer, Options{
		HTTPClient: newHTTPClient(300 * time.Millisecond),
	})
	if err != nil {
		t.Fatal(err)
	}

	msg, _, err := p.CallChatCompletions(context.Background(), testutil.SingleUserMessage("hi"), nil, "")
	if err != nil {
		t.Fatalf("CallChatCompletions failed: %v", err)
	}
	if got := msg.Content.Text(); got != "xxxxxxxx" {
		t.Errorf("content = %q", got)
	}
}
