package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"ycli/model"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Console prints panels and notices to a terminal.
type Console struct {
	out    io.Writer
	output *termenv.Output
	width  int
	height int
	sized  bool
}

// NewConsole returns a console writing to stdout, sized from the terminal.
func NewConsole() *Console {
	return &Console{
		out:    os.Stdout,
		output: termenv.NewOutput(os.Stdout),
	}
}

// NewConsoleWithSize returns a console with a fixed size, for non-terminal writers.
func NewConsoleWithSize(w io.Writer, width, height int) *Console {
	return &Console{
		out:    w,
		output: termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii)),
		width:  width,
		height: height,
		sized:  true,
	}
}

// Size returns the terminal width and height, falling back to 80x24.
func (c *Console) Size() (int, int) {
	if c.sized {
		return c.width, c.height
	}
	if f, ok := c.out.(*os.File); ok {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return defaultWidth, defaultHeight
}

// Writer returns the underlying writer.
func (c *Console) Writer() io.Writer {
	return c.out
}

func (c *Console) Println(text string) {
	fmt.Fprintln(c.out, text)
}

func (c *Console) Info(text string) {
	c.Println(AssistantStyle.Render(text))
}

func (c *Console) Error(text string) {
	c.Println(ErrorStyle.Render(text))
}

func (c *Console) Warn(text string) {
	c.Println(WarningStyle.Render(text))
}

func (c *Console) Success(text string) {
	c.Println(SuccessStyle.Render(text))
}

// DisplayMessage prints a message panel. A negative index omits the index.
func (c *Console) DisplayMessage(msg model.Message, index int) {
	style, border := roleStyle(msg.Role)

	title := style.Render(roleTitle(msg.Role)) + " " + DimStyle.Render(msg.Timestamp)
	if index >= 0 {
		title = fmt.Sprintf("[%d] %s", index, title)
	}
	if msg.Model != "" {
		title += " " + msg.Model
		if msg.Provider != "" {
			title += " via " + msg.Provider
		}
	}

	var body strings.Builder
	if msg.ReasoningContent != "" {
		body.WriteString("```markdown\n" + msg.ReasoningContent + "\n```\n")
	}
	body.WriteString(msg.Content.FirstText())

	c.printPanel(title, c.markdown(body.String()), border)
}

// DisplayHistory prints every non-system message followed by a prompt panel.
func (c *Console) DisplayHistory(messages []model.Message) {
	shown := 0
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			continue
		}
		c.DisplayMessage(msg, shown)
		shown++
	}
	if shown > 0 {
		c.printPanel("", TitleStyle.Render("Type your message to continue the conversation"), warningColor)
	}
}

const helpText = `**Available Commands:**

- Enter 'exit' or 'quit' to end the conversation
- Enter your message and press Enter to send

**Multi-line Input:**

1. Type <<EOF and press Enter
2. Type your multi-line message
3. Type EOF and press Enter to finish

**Message Copying:**

- Messages are indexed starting from 0
- Use 'copy n' to copy message n (e.g., 'copy 0' for first message)
`

func (c *Console) DisplayHelp() {
	c.printPanel(TitleStyle.Render("Help Information"), c.markdown(helpText), warningColor)
}

// PrintError prints an error panel.
func (c *Console) PrintError(text string) {
	c.printPanel(ErrorStyle.Render("Error"), ErrorStyle.Render(text), dangerColor)
}

// ClearLines moves the cursor up n lines, clearing each one.
func (c *Console) ClearLines(n int) {
	for i := 0; i < n; i++ {
		c.output.CursorPrevLine(1)
		c.output.ClearLine()
	}
}

func (c *Console) bodyWidth() int {
	w, _ := c.Size()
	// border and padding on both sides
	return max(w-4, 10)
}

func (c *Console) markdown(text string) string {
	return RenderMarkdown(text, c.bodyWidth())
}

// printPanel draws a rounded box with the title embedded in the top border.
func (c *Console) printPanel(title, body string, color lipgloss.Color) {
	inner := c.bodyWidth() + 2
	border := lipgloss.RoundedBorder()
	edge := lipgloss.NewStyle().Foreground(color)

	top := border.Top + " " + title + " "
	if title == "" {
		top = ""
	}
	if fill := inner - lipgloss.Width(top); fill > 0 {
		top += strings.Repeat(border.Top, fill)
	}
	top = edge.Render(border.TopLeft) + colorBorderRuns(top, title, edge) + edge.Render(border.TopRight)

	box := lipgloss.NewStyle().
		Border(border, false, true, true, true).
		BorderForeground(color).
		Padding(0, 1).
		Width(inner).
		Render(body)

	fmt.Fprintln(c.out, top)
	fmt.Fprintln(c.out, box)
}

// colorBorderRuns colors the border characters around an already styled title.
func colorBorderRuns(line, title string, edge lipgloss.Style) string {
	if title == "" {
		return edge.Render(line)
	}
	before, after, _ := strings.Cut(line, title)
	return edge.Render(before) + title + edge.Render(after)
}
