package model

import (
	"regexp"
	"testing"
)

func TestNewChatID(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := NewChatID()
		if !re.MatchString(id) {
			t.Fatalf("id %q is not 6 hex chars", id)
		}
		seen[id] = true
	}
	if len(seen) < 45 {
		t.Errorf("ids look non-random: %d unique of 50", len(seen))
	}
}

func TestSetMessagesDropsSystemAndSorts(t *testing.T) {
	msgs := []Message{
		{Role: RoleAssistant, Content: TextContent("third"), UnixTimestamp: 30},
		{Role: RoleSystem, Content: TextContent("sys"), UnixTimestamp: 1},
		{Role: RoleUser, Content: TextContent("first"), UnixTimestamp: 10},
		{Role: RoleUser, Content: TextContent("second-a"), UnixTimestamp: 20},
		{Role: RoleAssistant, Content: TextContent("second-b"), UnixTimestamp: 20},
	}

	c := &Chat{ID: "abc123"}
	c.SetMessages(msgs)

	want := []string{"first", "second-a", "second-b", "third"}
	if len(c.Messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(c.Messages), len(want))
	}
	for i, w := range want {
		if got := c.Messages[i].Content.Text(); got != w {
			t.Errorf("message %d: got %q, want %q", i, got, w)
		}
		if c.Messages[i].Role == RoleSystem {
			t.Errorf("message %d is a system message", i)
		}
	}
	if c.UpdateTime == "" {
		t.Error("UpdateTime not refreshed")
	}

	// Input slice is left alone.
	if msgs[0].Content.Text() != "third" {
		t.Error("SetMessages mutated its input")
	}
}

func TestNewChat(t *testing.T) {
	c := NewChat("", []Message{{Role: RoleUser, Content: TextContent("hi"), UnixTimestamp: 1}}, "conv-1")
	if len(c.ID) != 6 {
		t.Errorf("generated id %q has wrong length", c.ID)
	}
	if c.CreateTime == "" || c.CreateTime != c.UpdateTime {
		t.Errorf("create/update time mismatch: %q vs %q", c.CreateTime, c.UpdateTime)
	}
	if c.ExternalID != "conv-1" {
		t.Errorf("ExternalID = %q", c.ExternalID)
	}

	c = NewChat("fixed1", nil, "")
	if c.ID != "fixed1" {
		t.Errorf("ID = %q, want fixed1", c.ID)
	}
	if c.Messages == nil {
		t.Error("Messages should be an empty slice, not nil")
	}
}
