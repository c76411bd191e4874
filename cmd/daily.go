package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/afkmon/internal/cli"
	"github.com/theirongolddev/afkmon/internal/config"
	"github.com/theirongolddev/afkmon/internal/model"
	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Coding time per day",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, _ []string) error {
	q, err := statsQuery(timewindow.Last7Days)
	if err != nil {
		return err
	}

	return withStats(func(cfg config.Config, st *pipeline.Stats) error {
		days, err := st.Daily(cmdContext(cmd), ownerID(cfg), q)
		if err != nil {
			return err
		}
		if len(days) == 0 {
			fmt.Println("\n  No data for " + windowTitle(q) + ".")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("DAILY ACTIVITY  " + windowTitle(q)))
		fmt.Println()

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Date", "Day", "Sessions", "Time", ""},
			Rows:    dailyRows(days),
		}))
		return nil
	})
}

// dailyRows renders one table row per day with a bar scaled to the busiest day.
func dailyRows(days []model.DailyStats) [][]string {
	var peak int64
	for _, d := range days {
		peak = max(peak, d.DurationSecs)
	}

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date,
			cli.FormatDate(d.Date),
			cli.FormatNumber(int64(d.Sessions)),
			cli.FormatDuration(d.DurationSecs),
			cli.RenderBar(float64(d.DurationSecs), float64(peak), 24, string(cli.ColorAccent)),
		})
	}
	return rows
}
