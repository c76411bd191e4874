package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/model"
	"github.com/theirongolddev/afkmon/internal/store"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func seededStats(t *testing.T) *Stats {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	rows := []model.Session{
		sess("old", "web", "Go", "2024-02-10T12:00:00Z", 1000),
		sess("mon", "web", "Python", "2024-03-11T00:00:00Z", 300),
		sess("wed", "api", "Go", "2024-03-13T14:00:00Z", 100),
		sess("yday", "api", "", "2024-03-14T23:59:59Z", 60),
		sess("today", "", "Python", "2024-03-15T09:00:00Z", 40),
	}
	for _, s := range rows {
		s.OwnerID = "u1"
		s.FilePath = "/x/" + s.ID
		s.FileName = s.ID
		s.Editor = model.EditorCursor
		if _, err := st.Upsert(context.Background(), s); err != nil {
			t.Fatalf("Upsert %s: %v", s.ID, err)
		}
	}
	return NewStats(st, func() time.Time { return testNow })
}

func TestStats_ListPaging(t *testing.T) {
	st := seededStats(t)
	ctx := context.Background()

	page, err := st.List(ctx, "u1", ListQuery{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 5 {
		t.Errorf("Total = %d, want 5", page.Total)
	}
	if len(page.Sessions) != 2 || page.Sessions[0].ID != "today" || page.Sessions[1].ID != "yday" {
		t.Errorf("page = %v", idsOf(page.Sessions))
	}
	if page.TotalDurationSecs != 100 {
		t.Errorf("TotalDurationSecs = %d, want page sum 100", page.TotalDurationSecs)
	}
	if page.Limit != 2 || page.Offset != 0 {
		t.Errorf("Limit/Offset = %d/%d", page.Limit, page.Offset)
	}

	page, err = st.List(ctx, "u1", ListQuery{Offset: 4})
	if err != nil {
		t.Fatal(err)
	}
	if page.Limit != DefaultListLimit || len(page.Sessions) != 1 || page.TotalDurationSecs != 1000 {
		t.Errorf("last page = %+v", page)
	}
}

func TestStats_ListFilters(t *testing.T) {
	st := seededStats(t)
	from := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 14, 23, 59, 59, 0, time.UTC)

	page, err := st.List(context.Background(), "u1", ListQuery{Project: "api", From: &from, To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(idsOf(page.Sessions)) != "[yday wed]" || page.Total != 2 {
		t.Errorf("page = %v total %d", idsOf(page.Sessions), page.Total)
	}
}

func TestStats_ListRejectsBadPaging(t *testing.T) {
	st := seededStats(t)
	for _, q := range []ListQuery{{Limit: 101}, {Limit: -1}, {Offset: -1}} {
		if _, err := st.List(context.Background(), "u1", q); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("List(%+v) err = %v, want validation error", q, err)
		}
	}
}

func TestStats_SummaryWindows(t *testing.T) {
	st := seededStats(t)
	ctx := context.Background()

	tests := []struct {
		filter timewindow.Filter
		want   int
	}{
		{timewindow.None, 5},
		{timewindow.Today, 1},
		{timewindow.Yesterday, 1},
		{timewindow.ThisWeek, 4},
		{timewindow.LastMonth, 1},
		{timewindow.Last7Days, 4},
	}
	for _, tt := range tests {
		got, err := st.Summary(ctx, "u1", Query{TimeFilter: tt.filter})
		if err != nil {
			t.Fatalf("%s: %v", tt.filter, err)
		}
		if got.TotalSessions != tt.want {
			t.Errorf("%s: TotalSessions = %d, want %d", tt.filter, got.TotalSessions, tt.want)
		}
	}

	empty, err := st.Summary(ctx, "nobody", Query{})
	if err != nil {
		t.Fatal(err)
	}
	if empty.TotalSessions != 0 || empty.AverageDurationSecs != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestStats_CustomWindowNeedsBothBounds(t *testing.T) {
	st := seededStats(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 14, 23, 59, 59, 0, time.UTC)

	got, err := st.Summary(ctx, "u1", Query{TimeFilter: timewindow.Custom, Start: &start, End: &end})
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalSessions != 2 {
		t.Errorf("bounded TotalSessions = %d, want 2", got.TotalSessions)
	}

	got, err = st.Summary(ctx, "u1", Query{TimeFilter: timewindow.Custom, Start: &start})
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalSessions != 5 {
		t.Errorf("start-only TotalSessions = %d, want 5 (unfiltered)", got.TotalSessions)
	}

	got, err = st.Summary(ctx, "u1", Query{Start: &start, End: &end})
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalSessions != 5 {
		t.Errorf("bounds without filter TotalSessions = %d, want 5 (unfiltered)", got.TotalSessions)
	}
}

func TestStats_Buckets(t *testing.T) {
	st := seededStats(t)
	ctx := context.Background()

	daily, err := st.Daily(ctx, "u1", Query{TimeFilter: timewindow.Last7Days})
	if err != nil {
		t.Fatal(err)
	}
	var dates []string
	for _, d := range daily {
		dates = append(dates, d.Date)
	}
	if fmt.Sprint(dates) != "[2024-03-11 2024-03-13 2024-03-14 2024-03-15]" {
		t.Errorf("daily dates = %v", dates)
	}

	hourly, err := st.Hourly(ctx, "u1", Query{TimeFilter: timewindow.Today})
	if err != nil {
		t.Fatal(err)
	}
	if len(hourly) != 24 || hourly[9].Sessions != 1 {
		t.Errorf("hourly = %+v", hourly)
	}

	langs, err := st.Languages(ctx, "u1", Query{Project: "api"})
	if err != nil {
		t.Fatal(err)
	}
	if len(langs) != 2 || langs[0].Name != "Go" || langs[1].Name != UnknownBucket {
		t.Errorf("languages = %+v", langs)
	}

	projects, err := st.Projects(ctx, "u1", Query{Language: "Python"})
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 || projects[0].Name != "web" || projects[1].Name != UnknownBucket {
		t.Errorf("projects = %+v", projects)
	}
}

func TestStats_DistinctNames(t *testing.T) {
	st := seededStats(t)
	ctx := context.Background()

	projects, err := st.ProjectNames(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(projects) != "[api web]" {
		t.Errorf("projects = %v", projects)
	}
	langs, err := st.LanguageNames(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(langs) != "[Go Python]" {
		t.Errorf("languages = %v", langs)
	}
}

type brokenReader struct{}

func (brokenReader) Find(context.Context, string, store.Filter) ([]model.Session, error) {
	return nil, apperr.Storage("querying sessions", errors.New("database is locked"))
}

func (brokenReader) Count(context.Context, string, store.Filter) (int, error) {
	return 0, apperr.Storage("counting sessions", errors.New("database is locked"))
}

func (brokenReader) DistinctValues(context.Context, string, store.Field) ([]string, error) {
	return nil, apperr.Storage("querying distinct", errors.New("database is locked"))
}

func TestStats_StorageFailurePropagates(t *testing.T) {
	st := NewStats(brokenReader{}, nil)
	ctx := context.Background()

	if _, err := st.Summary(ctx, "u1", Query{}); !apperr.Is(err, apperr.KindStorage) {
		t.Errorf("Summary err = %v", err)
	}
	if h, err := st.Hourly(ctx, "u1", Query{}); !apperr.Is(err, apperr.KindStorage) || h != nil {
		t.Errorf("Hourly = %v, %v; want no buckets on failure", h, err)
	}
	if _, err := st.List(ctx, "u1", ListQuery{}); !apperr.Is(err, apperr.KindStorage) {
		t.Errorf("List err = %v", err)
	}
	if _, err := st.ProjectNames(ctx, "u1"); !apperr.Is(err, apperr.KindStorage) {
		t.Errorf("ProjectNames err = %v", err)
	}
}

func idsOf(sessions []model.Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.ID
	}
	return out
}
