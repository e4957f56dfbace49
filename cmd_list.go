package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"ycli/config"
	"ycli/model"
	"ycli/storage"
	"ycli/ui"
)

func listCmd(a *app) *cobra.Command {
	var opts model.ListOptions
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chats, newest first",
		Long: `List chat conversations with optional filtering.

Chats are sorted by creation time, newest first. A chat matches when one of
its messages satisfies every given filter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if verbose {
				fmt.Fprintf(out, "Chat data is stored in: %s\n", a.chatLocation())
				fmt.Fprintf(out, "Result limit: %d\n", opts.Limit)
			}

			chats, err := storage.NewChatService(store).ListChats(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(chats) == 0 {
				if f := describeFilters(opts); f != "" {
					fmt.Fprintf(out, "No chats found matching filters: %s\n", f)
				} else {
					fmt.Fprintln(out, "No chats found")
				}
				return nil
			}
			if verbose {
				fmt.Fprintf(out, "Found %d chat(s)\n", len(chats))
			}

			width, _ := ui.NewConsole().Size()
			renderChats(out, chats, width)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Keyword, "keyword", "k", "", "Filter chats by message content")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "Filter chats by model name")
	cmd.Flags().StringVarP(&opts.Provider, "provider", "p", "", "Filter chats by provider name")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", model.DefaultListLimit, "Maximum number of chats to show")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed information")
	return cmd
}

func (a *app) chatLocation() string {
	if a.cfg.StorageType == config.StorageSQLite {
		return a.cfg.SQLiteFile
	}
	return a.cfg.ChatFile
}

func describeFilters(opts model.ListOptions) string {
	var f []string
	if opts.Keyword != "" {
		f = append(f, fmt.Sprintf("keyword '%s'", opts.Keyword))
	}
	if opts.Model != "" {
		f = append(f, fmt.Sprintf("model '%s'", opts.Model))
	}
	if opts.Provider != "" {
		f = append(f, fmt.Sprintf("provider '%s'", opts.Provider))
	}
	return strings.Join(f, ", ")
}

// Column weights for ID, Created, Title, Context, Model, Provider.
var listWeights = []int{1, 2, 5, 8, 2, 2}

func columnWidths(termWidth int) []int {
	total := 0
	for _, w := range listWeights {
		total += w
	}
	available := termWidth - 10
	widths := make([]int, len(listWeights))
	for i, w := range listWeights {
		widths[i] = max(3, available*w/total)
	}
	return widths
}

// chatRow summarizes a chat for the list table.
func chatRow(c *model.Chat, widths []int) []string {
	title := "No messages"
	if len(c.Messages) > 0 {
		title = truncate(oneLine(c.Messages[0].Content.Text()), widths[2])
	}

	perMessage := widths[3]
	if len(c.Messages) > 0 {
		perMessage = max(1, widths[3]/len(c.Messages))
	}
	parts := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		parts = append(parts, m.Role+": "+truncate(oneLine(m.Content.Text()), perMessage))
	}
	summary := truncate(strings.Join(parts, " | "), widths[3])

	modelName, providerName := "N/A", "N/A"
	for i := len(c.Messages) - 1; i >= 0; i-- {
		m := c.Messages[i]
		if m.Role != model.RoleAssistant {
			continue
		}
		if m.Model != "" {
			modelName = truncate(m.Model, widths[4])
		}
		if m.Provider != "" {
			providerName = truncate(m.Provider, widths[5])
		}
		break
	}

	return []string{c.ID, createdAt(c.CreateTime), title, summary, modelName, providerName}
}

// createdAt shortens a stored timestamp to "2006-01-02 15:04".
func createdAt(ts string) string {
	date, clock, ok := strings.Cut(ts, "T")
	if !ok {
		return ts
	}
	if len(clock) > 5 {
		clock = clock[:5]
	}
	return date + " " + clock
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

func renderChats(w io.Writer, chats []*model.Chat, termWidth int) {
	widths := columnWidths(termWidth)
	rows := make([][]string, 0, len(chats))
	for _, c := range chats {
		rows = append(rows, chatRow(c, widths))
	}
	fmt.Fprintln(w, newTable("ID", "Created", "Title", "Context", "Model", "Provider").Rows(rows...).Render())
}

// newTable returns a borderless table with bold headers.
func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Bold(true).PaddingRight(2)
	cell := lipgloss.NewStyle().PaddingRight(2)
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...)
}
