package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/cli"
	"github.com/theirongolddev/afkmon/internal/config"
	"github.com/theirongolddev/afkmon/internal/logging"
	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/server"
	"github.com/theirongolddev/afkmon/internal/store"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

var (
	flagDB       string
	flagOwner    string
	flagFilter   string
	flagStart    string
	flagEnd      string
	flagProject  string
	flagLanguage string
	flagVerbose  int
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:           "afkmon",
	Short:         "Coding activity tracker",
	Long:          "Collect coding sessions from editor extensions and report where your time goes.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "  "+renderErr(err))
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDB, "db", "", "Session database path (default from config)")
	pf.StringVarP(&flagOwner, "owner", "o", "", "Owner id (default from config)")
	pf.StringVarP(&flagFilter, "filter", "f", "", "Time filter: "+filterNames())
	pf.StringVar(&flagStart, "start", "", "Custom range start (date or RFC 3339)")
	pf.StringVar(&flagEnd, "end", "", "Custom range end (date or RFC 3339)")
	pf.StringVarP(&flagProject, "project", "p", "", "Only sessions in this project")
	pf.StringVarP(&flagLanguage, "language", "l", "", "Only sessions in this language")
	pf.CountVarP(&flagVerbose, "verbose", "v", "Increase log verbosity")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

func filterNames() string {
	names := ""
	for i, f := range timewindow.Filters() {
		if i > 0 {
			names += ", "
		}
		names += string(f)
	}
	return names + ", none"
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	if flagVerbose > cfg.Log.Verbosity {
		cfg.Log.Verbosity = flagVerbose
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", config.Path(), err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) logr.Logger {
	return logging.New(os.Stderr, cfg.Log.Verbosity)
}

func openStore(cfg config.Config) (*store.Store, error) {
	return store.Open(cfg.DBPath(), store.WithTimeout(cfg.DBTimeout()))
}

func ownerID(cfg config.Config) string {
	if flagOwner != "" {
		return flagOwner
	}
	return cfg.Server.OwnerID
}

// statsQuery builds a query from the shared filter flags using the same
// rules as the HTTP API. Passing --start or --end selects a custom range,
// which needs both.
func statsQuery(defaultFilter timewindow.Filter) (pipeline.Query, error) {
	q, err := server.ParseStatsQuery(filterValues(), defaultFilter)
	if err != nil {
		return q, err
	}
	if q.TimeFilter == timewindow.Custom && (q.Start == nil || q.End == nil) {
		return q, apperr.Validation("a custom range needs both --start and --end", nil)
	}
	return q, nil
}

func filterValues() url.Values {
	v := url.Values{}
	switch {
	case flagFilter != "":
		v.Set("time_filter", flagFilter)
	case flagStart != "" || flagEnd != "":
		v.Set("time_filter", string(timewindow.Custom))
	}
	setIf(v, "start_date", flagStart)
	setIf(v, "end_date", flagEnd)
	setIf(v, "project_name", flagProject)
	setIf(v, "language", flagLanguage)
	return v
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

// withStats opens the store and hands a Stats reader to fn.
func withStats(fn func(cfg config.Config, st *pipeline.Stats) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return fn(cfg, pipeline.NewStats(db, nil))
}

// windowTitle describes the active filter for report headings.
func windowTitle(q pipeline.Query) string {
	switch q.TimeFilter {
	case timewindow.None:
		return "all time"
	case timewindow.Custom:
		if q.Start != nil && q.End != nil {
			return q.Start.Format("2006-01-02") + " to " + q.End.Format("2006-01-02")
		}
		return "all time"
	}
	return string(q.TimeFilter)
}

// renderErr formats err for the terminal. Validation failures list each
// problem on its own line.
func renderErr(err error) string {
	if me, ok := err.(*multierror.Error); ok {
		msg := cli.RenderError(fmt.Sprintf("%d records failed", len(me.Errors)))
		for _, e := range me.Errors {
			msg += "\n    " + cli.RenderMuted("- "+e.Error())
		}
		return msg
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return cli.RenderError("error: " + err.Error())
	}

	msg := cli.RenderError(ae.Message)
	var me *multierror.Error
	if errors.As(ae.Cause, &me) {
		for _, e := range me.Errors {
			msg += "\n    " + cli.RenderMuted("- "+e.Error())
		}
	} else if ae.Cause != nil {
		msg += "\n    " + cli.RenderMuted(ae.Cause.Error())
	}
	return msg
}
