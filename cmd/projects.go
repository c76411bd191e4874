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

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Coding time per project",
	RunE:  runProjects,
}

func init() {
	projectsCmd.Flags().BoolVar(&flagNamesOnly, "names", false, "List distinct project names only")
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, _ []string) error {
	if flagNamesOnly {
		return printNames(cmd, (*pipeline.Stats).ProjectNames)
	}

	q, err := statsQuery(timewindow.None)
	if err != nil {
		return err
	}

	return withStats(func(cfg config.Config, st *pipeline.Stats) error {
		projects, err := st.Projects(cmdContext(cmd), ownerID(cfg), q)
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("\n  No data for " + windowTitle(q) + ".")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("PROJECTS  " + windowTitle(q)))
		fmt.Println()

		var total int64
		for _, p := range projects {
			total += p.DurationSecs
		}

		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			share := 0.0
			if total > 0 {
				share = float64(p.DurationSecs) / float64(total) * 100
			}
			rows = append(rows, []string{
				p.Name,
				cli.FormatNumber(int64(p.Sessions)),
				cli.FormatDuration(p.DurationSecs),
				cli.FormatPercent(share),
			})
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Project", "Sessions", "Time", "Share"},
			Rows:    rows,
		}))
		return nil
	})
}

type namesFunc func(*pipeline.Stats, context.Context, string) ([]string, error)

func printNames(cmd *cobra.Command, list namesFunc) error {
	return withStats(func(cfg config.Config, st *pipeline.Stats) error {
		names, err := list(st, cmdContext(cmd), ownerID(cfg))
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	})
}
