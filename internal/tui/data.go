package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/afkmon/internal/model"
	"github.com/theirongolddev/afkmon/internal/pipeline"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

// sessionsPageSize is how many recent sessions the Sessions tab loads.
const sessionsPageSize = 100

// Snapshot is everything the dashboard renders for one filter.
type Snapshot struct {
	Filter    timewindow.Filter
	Summary   model.SummaryStats
	Daily     []model.DailyStats
	Hourly    []model.HourlyStats
	Languages []model.LanguageStats
	Projects  []model.ProjectStats
	Recent    model.SessionPage
	LoadTime  time.Duration
}

// Source answers the dashboard's queries.
type Source interface {
	Window(q pipeline.Query) timewindow.Window
	Summary(ctx context.Context, owner string, q pipeline.Query) (model.SummaryStats, error)
	Daily(ctx context.Context, owner string, q pipeline.Query) ([]model.DailyStats, error)
	Hourly(ctx context.Context, owner string, q pipeline.Query) ([]model.HourlyStats, error)
	Languages(ctx context.Context, owner string, q pipeline.Query) ([]model.LanguageStats, error)
	Projects(ctx context.Context, owner string, q pipeline.Query) ([]model.ProjectStats, error)
	List(ctx context.Context, owner string, q pipeline.ListQuery) (model.SessionPage, error)
}

// DataLoadedMsg is sent when a snapshot load finishes.
type DataLoadedMsg struct {
	Snapshot Snapshot
	Err      error
}

type tickMsg struct{}

// loadSnapshot runs every dashboard query for q. The session list is
// restricted to the same window as the aggregates.
func loadSnapshot(ctx context.Context, src Source, owner string, q pipeline.Query) (Snapshot, error) {
	start := time.Now()
	snap := Snapshot{Filter: q.TimeFilter}

	var err error
	if snap.Summary, err = src.Summary(ctx, owner, q); err != nil {
		return snap, err
	}
	if snap.Daily, err = src.Daily(ctx, owner, q); err != nil {
		return snap, err
	}
	if snap.Hourly, err = src.Hourly(ctx, owner, q); err != nil {
		return snap, err
	}
	if snap.Languages, err = src.Languages(ctx, owner, q); err != nil {
		return snap, err
	}
	if snap.Projects, err = src.Projects(ctx, owner, q); err != nil {
		return snap, err
	}

	lq := pipeline.ListQuery{Project: q.Project, Language: q.Language, Limit: sessionsPageSize}
	if w := src.Window(q); w.Bounded() {
		from, to := w.Start, w.End
		lq.From = &from
		if w.EndExclusive {
			to = to.Add(-time.Nanosecond)
		}
		lq.To = &to
	}
	if snap.Recent, err = src.List(ctx, owner, lq); err != nil {
		return snap, err
	}

	snap.LoadTime = time.Since(start)
	return snap, nil
}

func loadCmd(src Source, owner string, q pipeline.Query) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		snap, err := loadSnapshot(ctx, src, owner, q)
		return DataLoadedMsg{Snapshot: snap, Err: err}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// cycleFilters is the order the f key steps through.
var cycleFilters = []timewindow.Filter{
	timewindow.Today,
	timewindow.Yesterday,
	timewindow.ThisWeek,
	timewindow.LastWeek,
	timewindow.Last7Days,
	timewindow.ThisMonth,
	timewindow.LastMonth,
	timewindow.Last30Days,
	timewindow.None,
}

// nextFilter returns the filter step positions after f, wrapping around.
// Filters outside the cycle start from the first entry.
func nextFilter(f timewindow.Filter, step int) timewindow.Filter {
	idx := -1
	for i, c := range cycleFilters {
		if c == f {
			idx = i
			break
		}
	}
	if idx < 0 {
		return cycleFilters[0]
	}
	n := len(cycleFilters)
	return cycleFilters[((idx+step)%n+n)%n]
}

func filterLabel(f timewindow.Filter) string {
	switch f {
	case timewindow.None:
		return "all time"
	case timewindow.Custom:
		return "custom range"
	default:
		return string(f)
	}
}
