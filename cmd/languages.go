package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/afkmon/internal/cli"
	"github.com/theirongolddev/afkmon/internal/config"
	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "Coding time per language",
	RunE:  runLanguages,
}

var flagNamesOnly bool

func init() {
	languagesCmd.Flags().BoolVar(&flagNamesOnly, "names", false, "List distinct language names only")
	rootCmd.AddCommand(languagesCmd)
}

func runLanguages(cmd *cobra.Command, _ []string) error {
	if flagNamesOnly {
		return printNames(cmd, (*pipeline.Stats).LanguageNames)
	}

	q, err := statsQuery(timewindow.None)
	if err != nil {
		return err
	}

	return withStats(func(cfg config.Config, st *pipeline.Stats) error {
		langs, err := st.Languages(cmdContext(cmd), ownerID(cfg), q)
		if err != nil {
			return err
		}
		if len(langs) == 0 {
			fmt.Println("\n  No data for " + windowTitle(q) + ".")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle("LANGUAGES  " + windowTitle(q)))
		fmt.Println()

		rows := make([][]string, 0, len(langs))
		for _, l := range langs {
			rows = append(rows, []string{
				l.Name,
				cli.FormatNumber(int64(l.Sessions)),
				cli.FormatDuration(l.DurationSecs),
				cli.FormatPercent(l.Value),
				cli.RenderBar(l.Value, 100, 20, l.Color),
			})
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Language", "Sessions", "Time", "Share", ""},
			Rows:    rows,
		}))
		return nil
	})
}
