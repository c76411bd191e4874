package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/afkmon/internal/cli"
	"github.com/theirongolddev/afkmon/internal/tui/components"
	"github.com/theirongolddev/afkmon/internal/tui/theme"
)

func (a App) emptyCard(title string, cw int) string {
	t := theme.Active
	return components.ContentCard(title,
		lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No sessions in this window"),
		cw)
}

func (a App) renderLanguagesTab(cw int) string {
	t := theme.Active
	langs := a.snap.Languages
	if len(langs) == 0 {
		return a.emptyCard("Languages", cw)
	}

	innerW := components.CardInnerWidth(cw)
	labelW := 16
	durW, sessW := 10, 8
	barW := max(innerW-labelW-durW-sessW-10, 8)

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var body strings.Builder
	for _, l := range langs {
		body.WriteString(components.ShareBar(l.Name, l.Value, l.Color, labelW, barW))
		body.WriteString(rowStyle.Render(fmt.Sprintf(" %*s", durW, cli.FormatDuration(l.DurationSecs))))
		body.WriteString(mutedStyle.Render(fmt.Sprintf(" %*s", sessW, cli.FormatNumber(int64(l.Sessions))+" sess")))
		body.WriteString("\n")
	}

	title := fmt.Sprintf("Languages (%d)", len(langs))
	return components.ContentCard(title, strings.TrimRight(body.String(), "\n"), cw)
}

func (a App) renderProjectsTab(cw int) string {
	t := theme.Active
	projects := a.snap.Projects
	if len(projects) == 0 {
		return a.emptyCard("Projects", cw)
	}

	innerW := components.CardInnerWidth(cw)
	durW, sessW, shareW := 10, 9, 7
	barW := 0
	if !a.isCompactLayout() {
		barW = min(30, innerW/4)
	}
	nameW := max(innerW-durW-sessW-shareW-barW-4, 12)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	durStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(t.Blue).Background(t.Surface)

	var total, peak int64
	for _, p := range projects {
		total += p.DurationSecs
		peak = max(peak, p.DurationSecs)
	}

	var body strings.Builder
	body.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s", nameW, "Project", durW, "Time", sessW, "Sessions", shareW, "Share")))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", innerW)))
	body.WriteString("\n")

	for _, p := range projects {
		share := 0.0
		if total > 0 {
			share = float64(p.DurationSecs) / float64(total) * 100
		}
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(p.Name, nameW))))
		body.WriteString(durStyle.Render(fmt.Sprintf(" %*s", durW, cli.FormatDuration(p.DurationSecs))))
		body.WriteString(mutedStyle.Render(fmt.Sprintf(" %*s %*s", sessW, cli.FormatNumber(int64(p.Sessions)), shareW, cli.FormatPercent(share))))
		if barW > 0 && peak > 0 {
			n := int(float64(p.DurationSecs) / float64(peak) * float64(barW))
			body.WriteString(barStyle.Render(" " + strings.Repeat("█", n)))
		}
		body.WriteString("\n")
	}

	title := fmt.Sprintf("Projects (%d)", len(projects))
	return components.ContentCard(title, strings.TrimRight(body.String(), "\n"), cw)
}
