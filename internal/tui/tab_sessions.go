package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/afkmon/internal/cli"
	"github.com/theirongolddev/afkmon/internal/model"
	"github.com/theirongolddev/afkmon/internal/tui/components"
	"github.com/theirongolddev/afkmon/internal/tui/theme"
)

func (a App) renderSessionsTab(cw, h int) string {
	page := a.snap.Recent
	if len(page.Sessions) == 0 {
		return a.emptyCard("Sessions", cw)
	}
	cursor := min(a.sessCursor, len(page.Sessions)-1)
	sel := page.Sessions[cursor]

	if a.sessDetail {
		return components.ContentCard("Session "+shortID(sel.ID), a.sessionDetailBody(sel, cw), cw)
	}

	leftW := max(cw*2/5, 36)
	rightW := cw - leftW
	list := a.sessionList(page, cursor, components.CardInnerWidth(leftW), h)

	title := fmt.Sprintf("Sessions (%d of %d)", len(page.Sessions), page.Total)
	leftCard := components.ContentCard(title, list, leftW)
	rightCard := components.ContentCard("Session "+shortID(sel.ID), a.sessionDetailBody(sel, rightW), rightW)
	return components.CardRow([]string{leftCard, rightCard})
}

func (a App) sessionList(page model.SessionPage, cursor, innerW, h int) string {
	t := theme.Active
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	// border, title and footer
	visible := max(h-5, 3)
	offset := 0
	if cursor >= visible {
		offset = cursor - visible + 1
	}
	end := min(offset+visible, len(page.Sessions))

	var b strings.Builder
	for i := offset; i < end; i++ {
		s := page.Sessions[i]
		start := s.StartTime.Local().Format("Jan 02 15:04")
		dur := cli.FormatDuration(s.TotalDurationSecs)
		nameW := max(innerW-len(start)-len(dur)-2, 4)
		line := fmt.Sprintf("%s %-*s %s", start, nameW, truncStr(s.FileName, nameW), dur)
		if i == cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("total %s", cli.FormatDuration(page.TotalDurationSecs))))
	return b.String()
}

func (a App) sessionDetailBody(s model.Session, w int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(w)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	addStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	delStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	modStyle := lipgloss.NewStyle().Foreground(t.Yellow).Background(t.Surface)

	field := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-10s ", label)) + valueStyle.Render(truncStr(value, max(innerW-11, 4))) + "\n"
	}

	var b strings.Builder
	b.WriteString(valueStyle.Bold(true).Render(truncStr(s.FilePath, innerW)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(strings.Repeat("─", innerW)))
	b.WriteString("\n")

	state := "ended"
	if s.IsActive {
		state = "active"
	}
	b.WriteString(field("Project", cli.OrDash(s.ProjectName)))
	b.WriteString(field("Path", cli.OrDash(s.ProjectPath)))
	b.WriteString(field("Language", cli.OrDash(s.Language)))
	b.WriteString(field("Editor", fmt.Sprintf("%s on %s", s.Editor, cli.OrDash(s.Platform))))
	b.WriteString(field("Started", cli.FormatTime(&s.StartTime)))
	b.WriteString(field("Ended", cli.FormatTime(s.EndTime)))
	b.WriteString(field("Duration", cli.FormatDuration(s.TotalDurationSecs)+" ("+state+")"))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %10s %10s %10s", "", "Added", "Deleted", "Modified")))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", "Lines")))
	b.WriteString(addStyle.Render(fmt.Sprintf(" %10s", "+"+cli.FormatNumber(s.LinesAdded))))
	b.WriteString(delStyle.Render(fmt.Sprintf(" %10s", "-"+cli.FormatNumber(s.LinesDeleted))))
	b.WriteString(modStyle.Render(fmt.Sprintf(" %10s", "~"+cli.FormatNumber(s.LinesModified))))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", "Characters")))
	b.WriteString(addStyle.Render(fmt.Sprintf(" %10s", "+"+cli.FormatNumber(s.CharsAdded))))
	b.WriteString(delStyle.Render(fmt.Sprintf(" %10s", "-"+cli.FormatNumber(s.CharsDeleted))))
	b.WriteString(modStyle.Render(fmt.Sprintf(" %10s", "~"+cli.FormatNumber(s.CharsModified))))
	b.WriteString("\n")
	b.WriteString(field("Edits", cli.FormatNumber(s.TotalEdits)))
	b.WriteString("\n")

	hint := "[enter] expand  [j/k] navigate"
	if a.sessDetail {
		hint = "[esc] back  [j/k] navigate"
	}
	b.WriteString(labelStyle.Render(hint))
	return b.String()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
