package testutil

import (
	"fmt"
	"net/http"

	"ycli/model"
)

// TestMessages returns a sample conversation for testing
func TestMessages() []model.Message {
	return []model.Message{
		{Role: model.RoleUser, Content: model.TextContent("Hello, how are you?"), UnixTimestamp: 1000},
		{Role: model.RoleAssistant, Content: model.TextContent("I'm doing well, thank you!"), UnixTimestamp: 2000},
		{Role: model.RoleUser, Content: model.TextContent("Can you help me with a task?"), UnixTimestamp: 3000},
	}
}

// SingleUserMessage returns a single user message for simple tests
func SingleUserMessage(content string) []model.Message {
	return []model.Message{model.NewTextMessage(model.RoleUser, content)}
}

// WriteSSE writes each payload as a "data: " event and flushes.
func WriteSSE(w http.ResponseWriter, payloads ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)
	for _, p := range payloads {
		fmt.Fprintf(w, "data: %s\n\n", p)
		if flusher != nil {
			flusher.Flush()
		}
	}
}
