package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TimestampLayout is ISO 8601 with a numeric UTC offset, e.g. 2024-05-01T10:00:00+08:00.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// ContentPart is one typed part of structured message content.
// Only text parts are produced and consumed.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Content holds either a plain string or an ordered list of typed parts.
// It marshals to whichever of the two shapes it was built from.
type Content struct {
	text  string
	parts []ContentPart
}

// TextContent returns plain string content.
func TextContent(s string) Content {
	return Content{text: s}
}

// PartsContent returns structured content. The parts are copied.
func PartsContent(parts ...ContentPart) Content {
	cp := make([]ContentPart, len(parts))
	copy(cp, parts)
	return Content{parts: cp}
}

// IsParts reports whether the content is structured.
func (c Content) IsParts() bool {
	return c.parts != nil
}

// Parts returns a copy of the structured parts, or nil for plain content.
func (c Content) Parts() []ContentPart {
	if c.parts == nil {
		return nil
	}
	cp := make([]ContentPart, len(c.parts))
	copy(cp, c.parts)
	return cp
}

// Text flattens the content. Text parts are joined with a single space.
func (c Content) Text() string {
	if c.parts == nil {
		return c.text
	}
	texts := make([]string, 0, len(c.parts))
	for _, p := range c.parts {
		if p.Type == "text" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, " ")
}

// FirstText returns the first text part, or the plain string.
func (c Content) FirstText() string {
	if c.parts == nil {
		return c.text
	}
	for _, p := range c.parts {
		if p.Type == "text" {
			return p.Text
		}
	}
	return ""
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.parts != nil {
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = Content{}
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("invalid content parts: %w", err)
		}
		if parts == nil {
			parts = []ContentPart{}
		}
		*c = Content{parts: parts}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid content: %w", err)
	}
	*c = Content{text: s}
	return nil
}

// Message is one conversation turn.
//
// UnixTimestamp (milliseconds) is the sort key. Messages loaded without it get
// it derived once from Timestamp.
type Message struct {
	Role             string  `json:"role"`
	Content          Content `json:"content"`
	Timestamp        string  `json:"timestamp"`
	UnixTimestamp    int64   `json:"unix_timestamp"`
	ReasoningContent string  `json:"reasoning_content,omitempty"`
	Model            string  `json:"model,omitempty"`
	Provider         string  `json:"provider,omitempty"`
	ID               string  `json:"id,omitempty"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role string, content Content) Message {
	now := time.Now()
	return Message{
		Role:          role,
		Content:       content,
		Timestamp:     FormatTimestamp(now),
		UnixTimestamp: now.UnixMilli(),
	}
}

// NewTextMessage is NewMessage with plain string content.
func NewTextMessage(role, text string) Message {
	return NewMessage(role, TextContent(text))
}

func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.UnixTimestamp == 0 && p.Timestamp != "" {
		ts, err := ParseTimestamp(p.Timestamp)
		if err != nil {
			return fmt.Errorf("message has no unix_timestamp and an unparseable timestamp %q: %w", p.Timestamp, err)
		}
		p.UnixTimestamp = ts.UnixMilli()
	}
	*m = Message(p)
	return nil
}

// FormatTimestamp renders t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout and RFC 3339 variants.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
