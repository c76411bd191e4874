package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/afkmon/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar with key hints on the left
// and status on the right.
func RenderStatusBar(width int, status string) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)

	left := " [?]help  [f]ilter  [r]efresh  [q]uit"
	right := ""
	if status != "" {
		right = status + " "
	}

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
