// Package tui provides the interactive Bubble Tea dashboard for afkmon.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/tui/components"
	"github.com/theirongolddev/afkmon/internal/tui/theme"
)

const (
	minTerminalWidth = 80
	compactWidth     = 110
	maxContentWidth  = 160
	minContentHeight = 5

	defaultRefreshInterval = 30 * time.Second
)

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabLanguages
	tabProjects
	tabSessions
)

// Options configures a dashboard.
type Options struct {
	Owner string
	Query pipeline.Query
	// RefreshInterval reloads data periodically when positive.
	RefreshInterval time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	src   Source
	owner string
	query pipeline.Query

	snap        Snapshot
	loaded      bool
	loading     bool
	err         error
	lastRefresh time.Time
	refresh     time.Duration

	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model

	sessCursor int
	sessDetail bool
}

// NewApp creates a dashboard reading from src.
func NewApp(src Source, opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	if opts.RefreshInterval < 0 {
		opts.RefreshInterval = 0
	}
	return App{
		src:     src,
		owner:   opts.Owner,
		query:   opts.Query,
		refresh: opts.RefreshInterval,
		spinner: sp,
		loading: true,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		loadCmd(a.src, a.owner, a.query),
	}
	if a.refresh > 0 {
		cmds = append(cmds, tickCmd(a.refresh))
	}
	return tea.Batch(cmds...)
}

func (a *App) reload() tea.Cmd {
	a.loading = true
	return tea.Batch(a.spinner.Tick, loadCmd(a.src, a.owner, a.query))
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabSessions {
				a.moveCursor(-1)
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabSessions {
				a.moveCursor(1)
			}
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := components.TabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loading = false
		a.lastRefresh = time.Now()
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.err = nil
		a.snap = msg.Snapshot
		a.loaded = true
		a.clampCursor()
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(a.refresh)}
		if !a.loading {
			cmds = append(cmds, a.reload())
		}
		return a, tea.Batch(cmds...)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "?":
		a.showHelp = !a.showHelp
		return a, nil
	}

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "r":
		if a.loading {
			return a, nil
		}
		return a, a.reload()
	case "f", "F":
		step := 1
		if key == "F" {
			step = -1
		}
		a.query.TimeFilter = nextFilter(a.query.TimeFilter, step)
		a.query.Start, a.query.End = nil, nil
		a.sessCursor = 0
		return a, a.reload()
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	}

	if a.activeTab == tabSessions {
		switch key {
		case "j", "down":
			a.moveCursor(1)
			return a, nil
		case "k", "up":
			a.moveCursor(-1)
			return a, nil
		case "g", "home":
			a.sessCursor = 0
			return a, nil
		case "G", "end":
			a.sessCursor = len(a.snap.Recent.Sessions) - 1
			a.clampCursor()
			return a, nil
		case "enter":
			a.sessDetail = len(a.snap.Recent.Sessions) > 0
			return a, nil
		case "esc":
			a.sessDetail = false
			return a, nil
		}
	}

	if len(msg.Runes) == 1 {
		if tab := components.TabIdxByKey(msg.Runes[0]); tab >= 0 {
			a.activeTab = tab
		}
	}
	return a, nil
}

func (a *App) moveCursor(delta int) {
	a.sessCursor += delta
	a.clampCursor()
}

func (a *App) clampCursor() {
	n := len(a.snap.Recent.Sessions)
	a.sessCursor = max(0, min(a.sessCursor, n-1))
	if n == 0 {
		a.sessDetail = false
	}
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		if a.err != nil {
			return a.viewError()
		}
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  afkmon needs at least %d columns.\n",
		a.width, minTerminalWidth)
	h := max(a.height, 5)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) centeredCard(body string) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3).
		Render(body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true).Render("◈ afkmon")
	sub := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	return a.centeredCard(logo + sub.Render(" · coding activity") + "\n\n" +
		a.spinner.View() + sub.Render(" Loading "+filterLabel(a.query.TimeFilter)+"..."))
}

func (a App) viewError() string {
	t := theme.Active
	title := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true).Render("Could not load sessions")
	body := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
		Width(min(70, a.width-10)).Render(a.err.Error())
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("[r] retry  [q] quit")
	return a.centeredCard(title + "\n\n" + body + "\n\n" + hint)
}

func (a App) viewHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	bindings := []struct{ key, desc string }{
		{"o l p s", "Jump to tab"},
		{"← → / tab", "Previous / next tab"},
		{"f / F", "Next / previous time filter"},
		{"r", "Reload"},
		{"j k g G", "Move through sessions"},
		{"enter / esc", "Open / close session detail"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true).Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, kb := range bindings {
		b.WriteString(keyStyle.Render(fmt.Sprintf("%-12s", kb.key)))
		b.WriteString(descStyle.Render(kb.desc))
		b.WriteString("\n")
	}
	return a.centeredCard(strings.TrimRight(b.String(), "\n"))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	filterStr := pill.Render(" ") + accent.Render(filterLabel(a.snap.Filter))
	if a.query.Project != "" {
		filterStr += pill.Render(" │ project ") + accent.Render(a.query.Project)
	}
	if a.query.Language != "" {
		filterStr += pill.Render(" │ language ") + accent.Render(a.query.Language)
	}
	if a.owner != "" {
		filterStr += pill.Render(" │ owner ") + accent.Render(a.owner)
	}

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filterStr)

	status := fmt.Sprintf("loaded in %s", a.snap.LoadTime.Round(time.Millisecond))
	switch {
	case a.loading:
		status = a.spinner.View() + " refreshing"
	case a.err != nil:
		status = "refresh failed: " + a.err.Error()
	}
	statusBar := components.RenderStatusBar(w, status)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabLanguages:
		content = a.renderLanguagesTab(cw)
	case tabProjects:
		content = a.renderProjectsTab(cw)
	case tabSessions:
		content = a.renderSessionsTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 {
		return ""
	}
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
