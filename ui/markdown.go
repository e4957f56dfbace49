package ui

import (
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"ycli/config"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s\x1b]+)`)
)

const codeBar = "┃"

// RenderMarkdown renders markdown for a terminal of the given width.
func RenderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}
	start := time.Now()

	// Autolink stays off so URLs remain plain text the terminal can detect.
	content = mdLinkRegex.ReplaceAllString(content, "$2")
	p := parser.NewWithExtensions(markdown.Extensions() &^ parser.Autolink)
	r := markdown.NewRenderer(width, 0)
	rendered := string(gomarkdown.Render(p.Parse([]byte(content)), r))

	rendered = inlineCodeRegex.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")
	rendered = colorURLs(rendered)
	rendered = frameCodeBlocks(rendered, width)
	rendered = strings.TrimRight(rendered, "\n")

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Markdown] rendered %d chars in %v", len(content), time.Since(start))
	}
	return rendered
}

func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if !strings.Contains(line, codeBar) {
			lines[i] = urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m")
		}
	}
	return strings.Join(lines, "\n")
}

// frameCodeBlocks replaces the renderer's code gutter with horizontal rules
// above and below each block, so copied code has no prefix characters.
func frameCodeBlocks(s string, width int) string {
	const darkGray, reset = "\x1b[90m", "\x1b[0m"
	rule := darkGray + strings.Repeat("━", width) + reset

	var result []string
	inCode := false
	for _, line := range strings.Split(s, "\n") {
		if idx := strings.Index(line, codeBar); idx >= 0 {
			if !inCode {
				inCode = true
				result = append(result, rule)
			}
			line = line[idx+len(codeBar):]
			result = append(result, strings.TrimPrefix(line, " "))
			continue
		}
		if inCode {
			inCode = false
			result = append(result, rule)
		}
		result = append(result, line)
	}
	if inCode {
		result = append(result, rule)
	}
	return strings.Join(result, "\n")
}
