package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/afkmon/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  rune // shortcut, always the first letter of Name
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o'},
	{Name: "Languages", Key: 'l'},
	{Name: "Projects", Key: 'p'},
	{Name: "Sessions", Key: 's'},
}

// TabWidth is the rendered width of tab i, including its padding.
func TabWidth(i int) int {
	return lipgloss.Width(Tabs[i].Name) + 2
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Padding(0, 1)
	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true).
		Underline(true)
	restStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	sepStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = activeStyle.Render(tab.Name)
			continue
		}
		// Highlight the shortcut letter; padding stays equal to the active style.
		parts[i] = inactiveStyle.Render(keyStyle.Render(tab.Name[:1]) + restStyle.Render(tab.Name[1:]))
	}

	bar := strings.Join(parts, sepStyle.Render("│"))
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(bar)
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

// TabAtX returns the tab under column x of the tab bar, or -1.
func TabAtX(x int) int {
	pos := 0
	for i := range Tabs {
		w := TabWidth(i)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}
