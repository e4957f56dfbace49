package ui

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultPrintSpeed is the reveal rate in characters per second.
const DefaultPrintSpeed = 60

// StreamBuffer holds text that has arrived but not yet been shown. Writers
// append while a reader reveals at most charsPerSecond runes per second.
type StreamBuffer struct {
	mu      sync.Mutex
	text    []rune
	pos     int
	limiter *rate.Limiter
}

// NewStreamBuffer creates a buffer paced at charsPerSecond runes per second
// starting at now. The limiter starts empty, so nothing is revealed before
// time has passed.
func NewStreamBuffer(charsPerSecond int, now time.Time) *StreamBuffer {
	if charsPerSecond <= 0 {
		charsPerSecond = DefaultPrintSpeed
	}
	limiter := rate.NewLimiter(rate.Limit(charsPerSecond), charsPerSecond)
	limiter.AllowN(now, charsPerSecond)
	return &StreamBuffer{limiter: limiter}
}

// Add appends text to the pending buffer.
func (b *StreamBuffer) Add(s string) {
	if s == "" {
		return
	}
	b.mu.Lock()
	b.text = append(b.text, []rune(s)...)
	b.mu.Unlock()
}

// Next returns the text due for display at t. Budget accumulated while the
// buffer is empty is spent, so a late burst of text is still paced.
func (b *StreamBuffer) Next(t time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	budget := int(b.limiter.TokensAt(t))
	if budget <= 0 {
		return ""
	}
	b.limiter.AllowN(t, budget)

	n := min(budget, len(b.text)-b.pos)
	chunk := string(b.text[b.pos : b.pos+n])
	b.pos += n
	return chunk
}

// HasRemaining reports whether text is still waiting to be revealed.
func (b *StreamBuffer) HasRemaining() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos < len(b.text)
}
