// Package provider implements the completion backends a bot can talk to.
//
// Every backend satisfies model.Provider and streams its reply through a
// model.StreamRenderer, so the chat loop never sees wire formats.
//
// # Backends
//
//   - APITypeOpenAI: OpenAI-compatible chat completions (OpenRouter and
//     friends) through the official openai-go SDK
//   - APITypeDify: Dify conversational apps over server-sent events
//   - APITypeTopia: Topia orchestrations with a cached bearer token
//
// # Usage
//
//	p, err := provider.NewProvider(bot, display, provider.Options{TmpDir: cfg.TmpDir})
//	if err != nil {
//	    // handle error
//	}
//	reply, externalID, err := p.CallChatCompletions(ctx, messages, chat, systemPrompt)
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"
)

// APIType selects the backend for a bot.
type APIType string

const (
	APITypeOpenAI APIType = "openai"
	APITypeDify   APIType = "dify"
	APITypeTopia  APIType = "topia"
)

// RequestTimeout bounds connecting, waiting for response headers and every
// gap between reads of a response body.
const RequestTimeout = 60 * time.Second

// ErrStreamStalled is returned when a response body produces no data for
// RequestTimeout.
var ErrStreamStalled = errors.New("stream stalled")

// Error is a transport failure talking to a backend: connection problems,
// timeouts, non-2xx statuses, malformed frames and backend error events.
type Error struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options carries the collaborators shared by all backends.
type Options struct {
	// HTTPClient is used for every request. Nil means NewHTTPClient().
	HTTPClient *http.Client
	// TmpDir holds cached credentials such as the Topia token.
	TmpDir string
}

// NewHTTPClient returns a client that honours the proxy environment and
// applies RequestTimeout to dialing, to the response headers and to each
// read of the response body.
func NewHTTPClient() *http.Client {
	return newHTTPClient(RequestTimeout)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	return &http.Client{
		Transport: &idleTransport{
			base: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          10,
			},
			timeout: timeout,
		},
	}
}

// idleTransport cancels a request whose response body stays silent for
// longer than timeout.
type idleTransport struct {
	base    http.RoundTripper
	timeout time.Duration
}

func (t *idleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancelCause(req.Context())
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel(nil)
		return nil, err
	}
	body := &idleBody{ReadCloser: resp.Body, timeout: t.timeout, cancel: cancel}
	body.timer = time.AfterFunc(t.timeout, body.expire)
	resp.Body = body
	return resp, nil
}

type idleBody struct {
	io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	cancel  context.CancelCauseFunc
	expired atomic.Bool
}

func (b *idleBody) expire() {
	b.expired.Store(true)
	b.cancel(ErrStreamStalled)
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if b.expired.Load() {
		return n, fmt.Errorf("no data for %s: %w", b.timeout, ErrStreamStalled)
	}
	if n > 0 {
		b.timer.Reset(b.timeout)
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	b.cancel(nil)
	return b.ReadCloser.Close()
}
