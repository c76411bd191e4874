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

const overviewTopN = 5

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.snap.Summary
	var b strings.Builder

	activeDays := len(a.snap.Daily)
	perDay := "-"
	if activeDays > 0 {
		perDay = cli.FormatDuration(s.TotalDurationSecs/int64(activeDays)) + "/day"
	}

	metrics := []components.Metric{
		{Label: "Sessions", Value: cli.FormatNumber(int64(s.TotalSessions)), Hint: fmt.Sprintf("%d active days", activeDays)},
		{Label: "Coding time", Value: cli.FormatDuration(s.TotalDurationSecs), Hint: perDay},
		{Label: "Avg session", Value: cli.FormatAverage(s.AverageDurationSecs)},
		{Label: "Lines", Value: "+" + cli.FormatCount(s.TotalLinesAdded),
			Hint: fmt.Sprintf("-%s ~%s", cli.FormatCount(s.TotalLinesDeleted), cli.FormatCount(s.TotalLinesModified))},
		{Label: "Edits", Value: cli.FormatCount(s.TotalEdits)},
	}
	if a.isCompactLayout() {
		b.WriteString(components.MetricCardRow(metrics[:3], cw))
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(metrics[3:], cw))
	} else {
		b.WriteString(components.MetricCardRow(metrics, cw))
	}
	b.WriteString("\n")

	if s.TotalSessions == 0 {
		b.WriteString(components.ContentCard("No activity",
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
				Render("No sessions recorded for "+filterLabel(a.snap.Filter)+". Press f to widen the window."),
			cw))
		return b.String()
	}

	chartH := 8
	if a.isCompactLayout() {
		chartH = 5
	}

	if len(a.snap.Daily) > 0 {
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily coding time (%d days)", len(a.snap.Daily)),
			dailyChart(a.snap.Daily, components.CardInnerWidth(cw), chartH),
			cw,
		))
		b.WriteString("\n")
	}

	halves := components.LayoutRow(cw, 2)
	hourCard := components.ContentCard(
		"Time of day (UTC)",
		hourlyChart(a.snap.Hourly, components.CardInnerWidth(halves[0]), chartH),
		halves[0],
	)
	topCard := components.ContentCard(
		"Top languages",
		topLanguages(a.snap.Languages, components.CardInnerWidth(halves[1])),
		halves[1],
	)
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Time of day (UTC)",
			hourlyChart(a.snap.Hourly, components.CardInnerWidth(cw), chartH), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Top languages",
			topLanguages(a.snap.Languages, components.CardInnerWidth(cw)), cw))
	} else {
		b.WriteString(components.CardRow([]string{hourCard, topCard}))
	}
	return b.String()
}

// dailyChart draws the most recent days that fit in width.
func dailyChart(days []model.DailyStats, width, height int) string {
	maxCols := max((width+1)/2, 1)
	if len(days) > maxCols {
		days = days[len(days)-maxCols:]
	}
	colW := max((width+1)/len(days)-1, 1)

	vals := make([]float64, len(days))
	labels := make([]string, len(days))
	for i, d := range days {
		vals[i] = float64(d.DurationSecs)
		if len(d.Date) == len("2006-01-02") {
			labels[i] = d.Date[5:]
		} else {
			labels[i] = d.Date
		}
	}
	every := max((6+colW)/(colW+1), 1)
	return components.ColumnChart(vals, labels, theme.Active.Blue, height, colW, every)
}

func hourlyChart(hours []model.HourlyStats, width, height int) string {
	if len(hours) == 0 {
		return ""
	}
	colW := max((width+1)/len(hours)-1, 1)
	vals := make([]float64, len(hours))
	labels := make([]string, len(hours))
	for i, h := range hours {
		vals[i] = float64(h.DurationSecs)
		labels[i] = h.Hour
	}
	every := max((3+colW)/(colW+1), 1)
	if colW == 1 {
		every = 3
	}
	return components.ColumnChart(vals, labels, theme.Active.Accent, height, colW, every)
}

func topLanguages(langs []model.LanguageStats, width int) string {
	t := theme.Active
	if len(langs) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("none")
	}
	labelW := min(14, width/3)
	barW := max(width-labelW-8, 4)

	lines := make([]string, 0, overviewTopN)
	for _, l := range langs[:min(len(langs), overviewTopN)] {
		lines = append(lines, components.ShareBar(l.Name, l.Value, l.Color, labelW, barW))
	}
	return strings.Join(lines, "\n")
}
