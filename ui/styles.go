package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("14")
	successColor = lipgloss.Color("10")
	warningColor = lipgloss.Color("11")
	dangerColor  = lipgloss.Color("9")

	// User message style
	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	// Assistant message style
	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	SystemStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	// Timestamp style
	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor)
)

// roleStyle returns the text style and border color for a message role.
func roleStyle(role string) (lipgloss.Style, lipgloss.Color) {
	switch role {
	case "user":
		return UserStyle, successColor
	case "assistant":
		return AssistantStyle, accentColor
	case "system":
		return SystemStyle, warningColor
	default:
		return DimStyle, dimColor
	}
}

// roleTitle capitalizes a role name for panel titles.
func roleTitle(role string) string {
	if role == "" {
		return ""
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
