package provider

import (
	"errors"
	"strings"

	"ycli/model"
)

var errNoUserMessage = errors.New("no user messages found")

type cacheControl struct {
	Type string `json:"type"`
}

// wirePart is a content part as sent to OpenAI-compatible endpoints. The
// cache hint only exists on the wire.
type wirePart struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

// wireMessage carries either a string or []wirePart as content.
type wireMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// supportsPromptCache reports whether the model takes ephemeral cache hints.
func supportsPromptCache(modelName string) bool {
	return strings.Contains(modelName, "claude-3.5-sonnet")
}

func wantsReasoning(modelName string) bool {
	return strings.Contains(modelName, "deepseek-r1")
}

func toWireParts(parts []model.ContentPart) []wirePart {
	out := make([]wirePart, 0, len(parts))
	for _, p := range parts {
		out = append(out, wirePart{Type: p.Type, Text: p.Text})
	}
	return out
}

// PrepareMessages builds the request message list: the system prompt (if
// any) as a text-part message, then a copy of every message. For models that
// support prompt caching the system parts and the last text part of the last
// user message are marked ephemeral; a "..." part is appended when that
// message has no text part. The input is never modified.
func PrepareMessages(messages []model.Message, systemPrompt, modelName string) []wireMessage {
	cache := supportsPromptCache(modelName)
	out := make([]wireMessage, 0, len(messages)+1)

	if systemPrompt != "" {
		part := wirePart{Type: "text", Text: systemPrompt}
		if cache {
			part.CacheControl = &cacheControl{Type: "ephemeral"}
		}
		out = append(out, wireMessage{Role: model.RoleSystem, Content: []wirePart{part}})
	}

	for _, m := range messages {
		if m.Content.IsParts() {
			out = append(out, wireMessage{Role: m.Role, Content: toWireParts(m.Content.Parts())})
		} else {
			out = append(out, wireMessage{Role: m.Role, Content: m.Content.Text()})
		}
	}

	if !cache {
		return out
	}

	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role != model.RoleUser {
			continue
		}
		var parts []wirePart
		switch c := out[i].Content.(type) {
		case string:
			parts = []wirePart{{Type: "text", Text: c}}
		case []wirePart:
			parts = c
		}
		last := -1
		for j := range parts {
			if parts[j].Type == "text" {
				last = j
			}
		}
		if last < 0 {
			parts = append(parts, wirePart{Type: "text", Text: "..."})
			last = len(parts) - 1
		}
		parts[last].CacheControl = &cacheControl{Type: "ephemeral"}
		out[i].Content = parts
		break
	}

	return out
}

// lastUserQuery flattens the last user message for single-query backends.
func lastUserQuery(messages []model.Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			return messages[i].Content.Text(), nil
		}
	}
	return "", errNoUserMessage
}

func assistantMessage(content, reasoning, modelName, providerName, id string) model.Message {
	msg := model.NewTextMessage(model.RoleAssistant, content)
	msg.ReasoningContent = reasoning
	msg.Model = modelName
	msg.Provider = providerName
	msg.ID = id
	return msg
}
