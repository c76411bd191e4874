package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/afkmon/internal/cli"
	"github.com/theirongolddev/afkmon/internal/config"
	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

var hourlyCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Coding time by hour of day (UTC)",
	RunE:  runHourly,
}

func init() {
	rootCmd.AddCommand(hourlyCmd)
}

func runHourly(cmd *cobra.Command, _ []string) error {
	q, err := statsQuery(timewindow.Last7Days)
	if err != nil {
		return err
	}

	return withStats(func(cfg config.Config, st *pipeline.Stats) error {
		hours, err := st.Hourly(cmdContext(cmd), ownerID(cfg), q)
		if err != nil {
			return err
		}

		var peak int64
		for _, h := range hours {
			peak = max(peak, h.DurationSecs)
		}
		if peak == 0 {
			fmt.Println("\n  No data for " + windowTitle(q) + ".")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("HOURLY ACTIVITY  " + windowTitle(q)))
		fmt.Println()

		rows := make([][]string, 0, len(hours))
		for _, h := range hours {
			rows = append(rows, []string{
				h.Hour + ":00",
				cli.FormatNumber(int64(h.Sessions)),
				cli.FormatDuration(h.DurationSecs),
				cli.RenderBar(float64(h.DurationSecs), float64(peak), 30, ""),
			})
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Hour", "Sessions", "Time", ""},
			Rows:    rows,
		}))
		return nil
	})
}
