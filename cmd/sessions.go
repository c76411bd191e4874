package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/afkmon/internal/cli"
	"github.com/theirongolddev/afkmon/internal/config"
	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/server"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions, newest first",
	RunE:  runSessions,
}

var (
	flagSessionsLimit  int
	flagSessionsOffset int
)

func init() {
	sessionsCmd.Flags().IntVar(&flagSessionsLimit, "limit", 20, "Number of sessions to show")
	sessionsCmd.Flags().IntVar(&flagSessionsOffset, "offset", 0, "Sessions to skip")
	rootCmd.AddCommand(sessionsCmd)
}

// listQuery maps the shared flags onto a list query. A named time filter is
// resolved to explicit bounds; otherwise --start and --end are used as is.
func listQuery(st *pipeline.Stats) (pipeline.ListQuery, error) {
	v := filterValues()
	v.Del("time_filter")
	v.Del("start_date")
	v.Del("end_date")
	v.Del("project_name")
	setIf(v, "projectName", flagProject)
	v.Set("limit", strconv.Itoa(flagSessionsLimit))
	v.Set("offset", strconv.Itoa(flagSessionsOffset))

	if flagFilter == "" || flagFilter == string(timewindow.Custom) {
		setIf(v, "from", flagStart)
		setIf(v, "to", flagEnd)
		return server.ParseListQuery(v)
	}

	lq, err := server.ParseListQuery(v)
	if err != nil {
		return lq, err
	}
	sq, err := statsQuery(timewindow.None)
	if err != nil {
		return lq, err
	}
	if w := st.Window(sq); !w.IsZero() {
		from, to := w.Start, w.End
		if w.EndExclusive {
			to = to.Add(-time.Nanosecond)
		}
		lq.From, lq.To = &from, &to
	}
	return lq, nil
}

func runSessions(cmd *cobra.Command, _ []string) error {
	return withStats(func(cfg config.Config, st *pipeline.Stats) error {
		lq, err := listQuery(st)
		if err != nil {
			return err
		}
		page, err := st.List(cmdContext(cmd), ownerID(cfg), lq)
		if err != nil {
			return err
		}
		if len(page.Sessions) == 0 {
			fmt.Println("\n  No sessions found.")
			return nil
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSIONS  %d-%d of %d",
			page.Offset+1, page.Offset+len(page.Sessions), page.Total)))
		fmt.Println()

		rows := make([][]string, 0, len(page.Sessions))
		for _, s := range page.Sessions {
			state := ""
			if s.IsActive {
				state = "●"
			}
			rows = append(rows, []string{
				s.StartTime.Local().Format("Jan 02 15:04"),
				s.FileName,
				cli.OrDash(s.Language),
				cli.OrDash(s.ProjectName),
				cli.FormatDuration(s.TotalDurationSecs),
				fmt.Sprintf("+%d -%d", s.LinesAdded, s.LinesDeleted),
				string(s.Editor),
				state,
			})
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Started", "File", "Language", "Project", "Time", "Lines", "Editor", ""},
			Rows:    rows,
		}))
		fmt.Printf("\n  %s on this page\n", cli.FormatDuration(page.TotalDurationSecs))
		return nil
	})
}
