package model

import (
	"context"
	"iter"
)

// StreamChunk is one delta from a streaming completion. Either field may be
// empty; a chunk with both empty carries nothing.
type StreamChunk struct {
	Content   string
	Reasoning string
}

// StreamRenderer consumes a chunk stream, shows it to the user and returns
// the accumulated content and reasoning. The returned text is never
// truncated by display limits.
type StreamRenderer interface {
	StreamResponse(ctx context.Context, chunks iter.Seq2[StreamChunk, error]) (content string, reasoning string, err error)
}

// Provider sends a conversation to a completion backend and returns the
// assistant reply together with the backend's conversation id, if any.
//
// chat is the conversation context; it is never nil when called by the
// orchestrator but implementations must tolerate nil.
type Provider interface {
	CallChatCompletions(ctx context.Context, messages []Message, chat *Chat, systemPrompt string) (Message, string, error)
}
