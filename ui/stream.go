package ui

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"ycli/config"
	"ycli/model"
)

const (
	reasoningMarker = "> reasoning\n"
	summaryMarker   = "> summary\n"

	defaultTick = 50 * time.Millisecond
)

// StreamDisplay renders a streamed reply with a typewriter effect in a live
// region of the console. It implements model.StreamRenderer.
type StreamDisplay struct {
	console    *Console
	printSpeed int
	tick       time.Duration
	now        func() time.Time
}

// NewStreamDisplay creates a display revealing printSpeed characters per second.
func NewStreamDisplay(console *Console, printSpeed int) *StreamDisplay {
	if printSpeed <= 0 {
		printSpeed = DefaultPrintSpeed
	}
	return &StreamDisplay{
		console:    console,
		printSpeed: printSpeed,
		tick:       defaultTick,
		now:        time.Now,
	}
}

// spanTracker inserts markers when a reply moves from reasoning to content.
type spanTracker struct {
	reasoning bool
}

func (s *spanTracker) render(c model.StreamChunk) string {
	var out strings.Builder
	if c.Reasoning != "" {
		if !s.reasoning {
			s.reasoning = true
			out.WriteString(reasoningMarker)
		}
		out.WriteString(c.Reasoning)
	}
	if s.reasoning && c.Reasoning == "" && c.Content != "" {
		out.WriteString(summaryMarker)
		s.reasoning = false
	}
	out.WriteString(c.Content)
	return out.String()
}

// StreamResponse collects chunks in the background while revealing them at
// the configured rate. It returns once the stream has ended and everything
// has been shown, or as soon as the stream fails or ctx is cancelled.
func (d *StreamDisplay) StreamResponse(ctx context.Context, chunks iter.Seq2[model.StreamChunk, error]) (string, string, error) {
	buf := NewStreamBuffer(d.printSpeed, d.now())

	var content, reasoning strings.Builder
	var streamErr error
	done := make(chan struct{})

	go func() {
		defer close(done)
		var spans spanTracker
		for chunk, err := range chunks {
			if err != nil {
				streamErr = err
				return
			}
			content.WriteString(chunk.Content)
			reasoning.WriteString(chunk.Reasoning)
			buf.Add(spans.render(chunk))
		}
	}()

	_, height := d.console.Size()
	live := newLiveRegion(d.console, height-1)
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	collecting := done
	for {
		if next := buf.Next(d.now()); next != "" {
			live.append(next)
		}
		if collecting == nil && (streamErr != nil || !buf.HasRemaining()) {
			break
		}

		select {
		case <-collecting:
			collecting = nil
		case <-ticker.C:
		case <-ctx.Done():
			// The chunk iterator is bound to ctx and ends shortly.
			<-done
			live.clear()
			return "", "", ctx.Err()
		}
	}
	live.clear()

	if streamErr != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Stream] stream failed after %d chars: %v", content.Len(), streamErr)
		}
		return "", "", streamErr
	}
	return content.String(), reasoning.String(), nil
}

// liveRegion redraws the trailing rows of a growing text in place.
type liveRegion struct {
	console *Console
	maxRows int
	lines   []string
	drawn   int
}

func newLiveRegion(console *Console, maxRows int) *liveRegion {
	return &liveRegion{console: console, maxRows: max(maxRows, 1)}
}

func (l *liveRegion) append(text string) {
	parts := strings.Split(text, "\n")
	if len(l.lines) == 0 {
		l.lines = append(l.lines, "")
	}
	l.lines[len(l.lines)-1] += parts[0]
	l.lines = append(l.lines, parts[1:]...)

	rows := l.window()
	// Completed lines beyond the window are never shown again.
	if len(l.lines) > l.maxRows {
		l.lines = l.lines[len(l.lines)-l.maxRows:]
	}
	l.redraw(rows)
}

// window wraps the buffered lines to the terminal width and returns the
// trailing rows that fit.
func (l *liveRegion) window() []string {
	width, _ := l.console.Size()
	var rows []string
	for _, line := range l.lines {
		rows = append(rows, wrapRow(line, width-1)...)
	}
	if len(rows) > l.maxRows {
		rows = rows[len(rows)-l.maxRows:]
	}
	return rows
}

func (l *liveRegion) redraw(rows []string) {
	l.erase()
	w := l.console.Writer()
	for _, row := range rows {
		fmt.Fprintln(w, row)
	}
	l.drawn = len(rows)
}

func (l *liveRegion) erase() {
	l.console.ClearLines(l.drawn)
	l.drawn = 0
}

func (l *liveRegion) clear() {
	l.erase()
	l.lines = nil
}

// wrapRow splits a line into rows no wider than width cells.
func wrapRow(line string, width int) []string {
	if width < 1 {
		width = 1
	}
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}
	var rows []string
	var row strings.Builder
	cells := 0
	for _, r := range line {
		rw := runewidth.RuneWidth(r)
		if cells+rw > width && cells > 0 {
			rows = append(rows, row.String())
			row.Reset()
			cells = 0
		}
		row.WriteRune(r)
		cells += rw
	}
	return append(rows, row.String())
}
