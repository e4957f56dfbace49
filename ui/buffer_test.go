package ui

import (
	"testing"
	"time"
)

func TestStreamBufferPacing(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	b := NewStreamBuffer(10, start)
	b.Add("hello world!!")

	steps := []struct {
		at   time.Duration
		want string
	}{
		{0, ""},
		{50 * time.Millisecond, ""},
		{500 * time.Millisecond, "hello"},
		{500 * time.Millisecond, ""},
		{700 * time.Millisecond, " w"},
		{5 * time.Second, "orld!!"},
	}
	for i, s := range steps {
		if got := b.Next(start.Add(s.at)); got != s.want {
			t.Errorf("step %d: Next(+%v) = %q, want %q", i, s.at, got, s.want)
		}
	}
	if b.HasRemaining() {
		t.Error("buffer should be drained")
	}
}

func TestStreamBufferSpendsIdleBudget(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	b := NewStreamBuffer(10, start)

	// Ten seconds idle with an empty buffer.
	if got := b.Next(start.Add(10 * time.Second)); got != "" {
		t.Fatalf("empty buffer returned %q", got)
	}

	b.Add("abcdefghij")
	if got := b.Next(start.Add(10 * time.Second)); got != "" {
		t.Errorf("late text revealed without new budget: %q", got)
	}
	if got := b.Next(start.Add(10*time.Second + 300*time.Millisecond)); got != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}
}

func TestStreamBufferCountsRunes(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	b := NewStreamBuffer(2, start)
	b.Add("你好世界")

	if got := b.Next(start.Add(time.Second)); got != "你好" {
		t.Errorf("got %q, want %q", got, "你好")
	}
	if !b.HasRemaining() {
		t.Error("expected remaining text")
	}
}

func TestStreamBufferDefaultSpeed(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	b := NewStreamBuffer(0, start)
	b.Add(string(make([]rune, 100)))

	got := []rune(b.Next(start.Add(time.Second)))
	if len(got) != DefaultPrintSpeed {
		t.Errorf("revealed %d runes in one second, want %d", len(got), DefaultPrintSpeed)
	}
}
