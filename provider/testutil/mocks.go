package testutil

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"

	"ycli/model"
)

// Reply is one scripted provider response.
type Reply struct {
	Content    string
	Reasoning  string
	ExternalID string
	Err        error
}

// Call records the arguments of one CallChatCompletions invocation.
type Call struct {
	Messages     []model.Message
	ChatID       string
	ExternalID   string
	HadChat      bool
	SystemPrompt string
}

// MockProvider implements model.Provider by replaying scripted replies.
// When Renderer is set each reply is streamed through it as a single chunk.
type MockProvider struct {
	Renderer model.StreamRenderer
	Model    string
	Provider string

	mu      sync.Mutex
	replies []Reply
	calls   []Call
}

// NewMockProvider creates a mock that answers with replies in order.
func NewMockProvider(replies ...Reply) *MockProvider {
	return &MockProvider{
		Model:    "mock-model",
		Provider: "mock",
		replies:  replies,
	}
}

func (m *MockProvider) CallChatCompletions(ctx context.Context, messages []model.Message, chat *model.Chat, systemPrompt string) (model.Message, string, error) {
	m.mu.Lock()
	call := Call{
		Messages:     append([]model.Message(nil), messages...),
		SystemPrompt: systemPrompt,
	}
	if chat != nil {
		call.HadChat = true
		call.ChatID = chat.ID
		call.ExternalID = chat.ExternalID
	}
	m.calls = append(m.calls, call)

	if len(m.replies) == 0 {
		m.mu.Unlock()
		return model.Message{}, "", fmt.Errorf("mock provider: no scripted reply for call %d", len(m.calls))
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	m.mu.Unlock()

	if reply.Err != nil {
		return model.Message{}, "", reply.Err
	}

	content, reasoning := reply.Content, reply.Reasoning
	if m.Renderer != nil {
		var err error
		content, reasoning, err = m.Renderer.StreamResponse(ctx, Chunks(model.StreamChunk{Content: reply.Content, Reasoning: reply.Reasoning}))
		if err != nil {
			return model.Message{}, "", err
		}
	}

	msg := model.NewTextMessage(model.RoleAssistant, content)
	msg.ReasoningContent = reasoning
	msg.Model = m.Model
	msg.Provider = m.Provider
	return msg, reply.ExternalID, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Chunks returns an iterator over fixed chunks.
func Chunks(chunks ...model.StreamChunk) iter.Seq2[model.StreamChunk, error] {
	return func(yield func(model.StreamChunk, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// CollectingRenderer implements model.StreamRenderer without a terminal. It
// records every chunk it sees.
type CollectingRenderer struct {
	mu     sync.Mutex
	chunks []model.StreamChunk
}

func (r *CollectingRenderer) StreamResponse(ctx context.Context, chunks iter.Seq2[model.StreamChunk, error]) (string, string, error) {
	var content, reasoning strings.Builder
	for c, err := range chunks {
		if err != nil {
			return "", "", err
		}
		r.mu.Lock()
		r.chunks = append(r.chunks, c)
		r.mu.Unlock()
		content.WriteString(c.Content)
		reasoning.WriteString(c.Reasoning)
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	return content.String(), reasoning.String(), nil
}

// Seen returns a copy of the recorded chunks.
func (r *CollectingRenderer) Seen() []model.StreamChunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.StreamChunk(nil), r.chunks...)
}
