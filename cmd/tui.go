package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/timewindow"
	"github.com/theirongolddev/afkmon/internal/tui"
	"github.com/theirongolddev/afkmon/internal/tui/theme"
)

var flagTUIRefresh time.Duration

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().DurationVar(&flagTUIRefresh, "refresh", 30*time.Second, "Reload interval, 0 to disable")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	q, err := statsQuery(timewindow.Last7Days)
	if err != nil {
		return err
	}

	theme.SetActive(cfg.Appearance.Theme)
	// Force TrueColor so background fills render even when detection fails.
	lipgloss.SetColorProfile(termenv.TrueColor)

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	app := tui.NewApp(pipeline.NewStats(db, nil), tui.Options{
		Owner:           ownerID(cfg),
		Query:           q,
		RefreshInterval: flagTUIRefresh,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
