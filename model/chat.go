package model

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Chat is a persisted conversation.
type Chat struct {
	ID         string    `json:"id"`
	CreateTime string    `json:"create_time"`
	UpdateTime string    `json:"update_time"`
	Messages   []Message `json:"messages"`
	ExternalID string    `json:"external_id,omitempty"`
}

// NewChatID returns a 6 character hex id.
func NewChatID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// NewChat creates a chat with both timestamps set to now.
func NewChat(id string, messages []Message, externalID string) *Chat {
	if id == "" {
		id = NewChatID()
	}
	now := FormatTimestamp(time.Now())
	c := &Chat{
		ID:         id,
		CreateTime: now,
		ExternalID: externalID,
	}
	c.SetMessages(messages)
	c.UpdateTime = now
	return c
}

// SetMessages replaces the message list. System messages are dropped and the
// rest are stably sorted by UnixTimestamp. UpdateTime is refreshed.
func (c *Chat) SetMessages(messages []Message) {
	c.Messages = NormalizeMessages(messages)
	c.UpdateTime = FormatTimestamp(time.Now())
}

// NormalizeMessages returns a new slice without system messages, sorted by
// UnixTimestamp ascending. Equal timestamps keep their order.
func NormalizeMessages(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UnixTimestamp < out[j].UnixTimestamp
	})
	return out
}
