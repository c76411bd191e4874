package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/afkmon/internal/cli"
	"github.com/theirongolddev/afkmon/internal/config"
	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals for the selected window",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	q, err := statsQuery(timewindow.None)
	if err != nil {
		return err
	}

	return withStats(func(cfg config.Config, st *pipeline.Stats) error {
		ctx := cmdContext(cmd)
		owner := ownerID(cfg)

		s, err := st.Summary(ctx, owner, q)
		if err != nil {
			return err
		}
		if s.TotalSessions == 0 {
			fmt.Println("\n  No sessions found for " + windowTitle(q) + ".")
			return nil
		}
		days, err := st.Daily(ctx, owner, q)
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("CODING ACTIVITY  " + windowTitle(q)))
		fmt.Println()

		rows := [][]string{
			{"Sessions", cli.FormatNumber(int64(s.TotalSessions))},
			{"Total Time", cli.FormatDuration(s.TotalDurationSecs)},
			{"Avg Session", cli.FormatAverage(s.AverageDurationSecs)},
			{"---"},
			{"Lines Added", cli.FormatNumber(s.TotalLinesAdded)},
			{"Lines Deleted", cli.FormatNumber(s.TotalLinesDeleted)},
			{"Lines Modified", cli.FormatNumber(s.TotalLinesModified)},
			{"Edits", cli.FormatNumber(s.TotalEdits)},
		}
		if len(days) > 1 {
			vals := make([]float64, len(days))
			for i, d := range days {
				vals[i] = float64(d.DurationSecs)
			}
			rows = append(rows,
				[]string{"---"},
				[]string{"Active Days", cli.FormatNumber(int64(len(days)))},
				[]string{"Per Day", cli.FormatDuration(s.TotalDurationSecs / int64(len(days)))},
				[]string{"Trend", cli.RenderSparkline(vals)},
			)
		}

		fmt.Print(cli.RenderTable(cli.Table{Rows: rows}))
		return nil
	})
}

// cmdContext returns the command's context, falling back to Background.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
