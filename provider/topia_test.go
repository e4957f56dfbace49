package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"ycli/config"
	"ycli/model"
	"ycli/provider/testutil"

	"github.com/tidwall/gjson"
)

type topiaServer struct {
	logins   atomic.Int32
	lastBody []byte
	lastAuth string
	events   []string
}

func (s *topiaServer) handler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		s.logins.Add(1)
		body, _ := io.ReadAll(r.Body)
		if gjson.GetBytes(body, "appId").String() != "app" || gjson.GetBytes(body, "appSecret").String() != "secret" {
			http.Error(w, "bad credentials", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"access_token":"tok-1","expires_in":3600}}`)
	case "/orchChat/sendChat":
		s.lastBody, _ = io.ReadAll(r.Body)
		s.lastAuth = r.Header.Get("Authorization")
		testutil.WriteSSE(w, s.events...)
	default:
		http.NotFound(w, r)
	}
}

func newTopia(t *testing.T, events ...string) (*TopiaProvider, *topiaServer, string) {
	t.Helper()
	ts := &topiaServer{events: events}
	srv := httptest.NewServer(http.HandlerFunc(ts.handler))
	t.Cleanup(srv.Close)

	tmp := t.TempDir()
	p, err := NewTopiaProvider(config.BotConfig{
		Name:    "topia",
		APIType: "topia",
		BaseURL: srv.URL,
		APIKey:  "app|secret",
		Model:   "7",
	}, &testutil.CollectingRenderer{}, Options{HTTPClient: srv.Client(), TmpDir: tmp})
	if err != nil {
		t.Fatal(err)
	}
	return p, ts, tmp
}

func TestTopiaProviderStreamsCumulativeContent(t *testing.T) {
	p, ts, _ := newTopia(t,
		`{"content":"He"}`,
		`{"content":"Hello"}`,
		`{"content":"Hello"}`,
		`{"content":"Hello 世界"}`,
		`{"id":"msg-9","content":"Hello 世界"}`,
	)

	msg, externalID, err := p.CallChatCompletions(context.Background(), testutil.SingleUserMessage("hi"), &model.Chat{ID: "abc123"}, "")
	if err != nil {
		t.Fatalf("CallChatCompletions failed: %v", err)
	}

	if msg.Content.Text() != "Hello 世界" {
		t.Errorf("content = %q", msg.Content.Text())
	}
	if msg.ID != "msg-9" {
		t.Errorf("id = %q", msg.ID)
	}
	if msg.Provider != "topia" || msg.Model != "7" {
		t.Errorf("provider/model = %q/%q", msg.Provider, msg.Model)
	}
	if externalID != "" {
		t.Errorf("externalID = %q, want empty", externalID)
	}

	req := gjson.ParseBytes(ts.lastBody)
	if req.Get("appUserId").String() != "abc123" || req.Get("content").String() != "hi" ||
		req.Get("orchId").Int() != 7 || !req.Get("isStream").Bool() {
		t.Errorf("unexpected body: %s", ts.lastBody)
	}
	if ts.lastAuth != "Bearer tok-1" {
		t.Errorf("Authorization = %q", ts.lastAuth)
	}
}

func TestTopiaProviderCachesToken(t *testing.T) {
	p, ts, tmp := newTopia(t, `{"content":"ok"}`)
	chat := &model.Chat{ID: "abc123"}

	for i := 0; i < 2; i++ {
		if _, _, err := p.CallChatCompletions(context.Background(), testutil.SingleUserMessage("hi"), chat, ""); err != nil {
			t.Fatal(err)
		}
	}
	if n := ts.logins.Load(); n != 1 {
		t.Errorf("logged in %d times, want 1", n)
	}

	data, err := os.ReadFile(filepath.Join(tmp, ".topia_token"))
	if err != nil {
		t.Fatalf("token cache not written: %v", err)
	}
	var cached cachedToken
	if err := json.Unmarshal(data, &cached); err != nil {
		t.Fatal(err)
	}
	if cached.AccessToken != "tok-1" || cached.ExpiresAt <= float64(time.Now().Unix()) {
		t.Errorf("unexpected cache: %+v", cached)
	}

	// An expired cache forces a new login.
	p.tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, _, err := p.CallChatCompletions(context.Background(), testutil.SingleUserMessage("hi"), chat, ""); err != nil {
		t.Fatal(err)
	}
	if n := ts.logins.Load(); n != 2 {
		t.Errorf("logged in %d times after expiry, want 2", n)
	}
}

func TestTopiaProviderNeedsChat(t *testing.T) {
	p, ts, _ := newTopia(t, `{"content":"ok"}`)
	if _, _, err := p.CallChatCompletions(context.Background(), testutil.SingleUserMessage("hi"), nil, ""); err == nil {
		t.Error("expected error without chat context")
	}
	if ts.logins.Load() != 0 {
		t.Error("login attempted without chat context")
	}
}

func TestCumulativeText(t *testing.T) {
	var c cumulativeText
	steps := []struct {
		snapshot string
		want     string
	}{
		{"a", "a"},
		{"ab", "b"},
		{"ab", ""},
		{"", ""},
		{"xyz", "xyz"},
		{"x", ""},
		{"xy", "y"},
	}
	for i, s := range steps {
		if got := c.next(s.snapshot); got != s.want {
			t.Errorf("step %d: next(%q) = %q, want %q", i, s.snapshot, got, s.want)
		}
	}
}

func TestTokenCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ".token")
	now := time.Unix(1_700_000_000, 0)
	c := NewTokenCache(path)
	c.now = func() time.Time { return now }

	if _, ok := c.Load(); ok {
		t.Fatal("empty cache returned a token")
	}
	if err := c.Store("abc", 60); err != nil {
		t.Fatal(err)
	}
	if tok, ok := c.Load(); !ok || tok != "abc" {
		t.Errorf("Load() = %q, %v", tok, ok)
	}

	now = now.Add(61 * time.Second)
	if _, ok := c.Load(); ok {
		t.Error("expired token returned")
	}

	if err := os.WriteFile(path, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Load(); ok {
		t.Error("unreadable cache returned a token")
	}
}
