package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/model"
	"github.com/theirongolddev/afkmon/internal/store"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

// Listing limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// SessionReader is the read side of the session store.
type SessionReader interface {
	Find(ctx context.Context, owner string, f store.Filter) ([]model.Session, error)
	Count(ctx context.Context, owner string, f store.Filter) (int, error)
	DistinctValues(ctx context.Context, owner string, field store.Field) ([]string, error)
}

// Query selects sessions for the aggregate operations. Start and End are
// only used with the custom time filter.
type Query struct {
	TimeFilter timewindow.Filter
	Start      *time.Time
	End        *time.Time
	Project    string
	Language   string
}

// ListQuery selects one page of sessions by explicit instants.
type ListQuery struct {
	Project  string
	Language string
	From     *time.Time
	To       *time.Time
	Offset   int
	Limit    int // 0 means DefaultListLimit
}

// Stats answers listing and aggregate queries from a SessionReader.
type Stats struct {
	store SessionReader
	now   func() time.Time
}

// NewStats returns a Stats reading from r. A nil now uses the UTC wall clock.
func NewStats(r SessionReader, now func() time.Time) *Stats {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Stats{store: r, now: now}
}

// Window resolves q's time filter against the current clock.
func (st *Stats) Window(q Query) timewindow.Window {
	return timewindow.Resolve(q.TimeFilter, st.now(), q.Start, q.End)
}

func (st *Stats) filter(q Query) store.Filter {
	w := st.Window(q)
	return store.Filter{
		Project:     q.Project,
		Language:    q.Language,
		From:        w.Start,
		To:          w.End,
		ToExclusive: w.EndExclusive,
	}
}

func (st *Stats) sessions(ctx context.Context, owner string, q Query) ([]model.Session, error) {
	return st.store.Find(ctx, owner, st.filter(q))
}

// List returns one page of sessions, newest first. Total counts every match;
// TotalDurationSecs covers the returned page only.
func (st *Stats) List(ctx context.Context, owner string, q ListQuery) (model.SessionPage, error) {
	limit := q.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return model.SessionPage{}, apperr.InvalidQuery(
			fmt.Sprintf("limit must be between 1 and %d", MaxListLimit), nil).WithDetail("limit", q.Limit)
	}
	if q.Offset < 0 {
		return model.SessionPage{}, apperr.InvalidQuery("offset must be >= 0", nil).WithDetail("offset", q.Offset)
	}

	f := store.Filter{
		Project:   q.Project,
		Language:  q.Language,
		OrderDesc: true,
		Limit:     limit,
		Offset:    q.Offset,
	}
	if q.From != nil {
		f.From = *q.From
	}
	if q.To != nil {
		f.To = *q.To
	}

	total, err := st.store.Count(ctx, owner, f)
	if err != nil {
		return model.SessionPage{}, err
	}
	sessions, err := st.store.Find(ctx, owner, f)
	if err != nil {
		return model.SessionPage{}, err
	}
	if sessions == nil {
		sessions = []model.Session{}
	}

	return model.SessionPage{
		Sessions:          sessions,
		Total:             total,
		TotalDurationSecs: PageDuration(sessions),
		Offset:            q.Offset,
		Limit:             limit,
	}, nil
}

// Summary returns totals over the matching sessions.
func (st *Stats) Summary(ctx context.Context, owner string, q Query) (model.SummaryStats, error) {
	sessions, err := st.sessions(ctx, owner, q)
	if err != nil {
		return model.SummaryStats{}, err
	}
	return Aggregate(sessions), nil
}

// Daily returns sparse per-day buckets in ascending date order.
func (st *Stats) Daily(ctx context.Context, owner string, q Query) ([]model.DailyStats, error) {
	sessions, err := st.sessions(ctx, owner, q)
	if err != nil {
		return nil, err
	}
	return AggregateDays(sessions), nil
}

// Hourly returns all 24 hour-of-day buckets.
func (st *Stats) Hourly(ctx context.Context, owner string, q Query) ([]model.HourlyStats, error) {
	sessions, err := st.sessions(ctx, owner, q)
	if err != nil {
		return nil, err
	}
	return AggregateHourly(sessions), nil
}

// Languages returns per-language buckets, longest first.
func (st *Stats) Languages(ctx context.Context, owner string, q Query) ([]model.LanguageStats, error) {
	sessions, err := st.sessions(ctx, owner, q)
	if err != nil {
		return nil, err
	}
	return AggregateLanguages(sessions), nil
}

// Projects returns per-project buckets, longest first.
func (st *Stats) Projects(ctx context.Context, owner string, q Query) ([]model.ProjectStats, error) {
	sessions, err := st.sessions(ctx, owner, q)
	if err != nil {
		return nil, err
	}
	return AggregateProjects(sessions), nil
}

// ProjectNames lists the owner's distinct non-empty project names.
func (st *Stats) ProjectNames(ctx context.Context, owner string) ([]string, error) {
	return st.store.DistinctValues(ctx, owner, store.FieldProject)
}

// LanguageNames lists the owner's distinct non-empty languages.
func (st *Stats) LanguageNames(ctx context.Context, owner string) ([]string, error) {
	return st.store.DistinctValues(ctx, owner, store.FieldLanguage)
}
