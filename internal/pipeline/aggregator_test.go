package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/afkmon/internal/model"
)

func sess(id, project, lang, start string, secs int64) model.Session {
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		panic(err)
	}
	return model.Session{
		ID:                id,
		ProjectName:       project,
		Language:          lang,
		StartTime:         t,
		TotalDurationSecs: secs,
		LinesAdded:        2,
		LinesDeleted:      1,
		LinesModified:     3,
		TotalEdits:        6,
	}
}

func TestAggregate(t *testing.T) {
	sessions := []model.Session{
		sess("a", "app", "Go", "2024-03-15T09:00:00Z", 100),
		sess("b", "app", "Go", "2024-03-15T10:00:00Z", 300),
	}
	got := Aggregate(sessions)

	if got.TotalSessions != 2 || got.TotalDurationSecs != 400 {
		t.Errorf("totals = %+v", got)
	}
	if got.TotalLinesAdded != 4 || got.TotalLinesDeleted != 2 || got.TotalLinesModified != 6 || got.TotalEdits != 12 {
		t.Errorf("counters = %+v", got)
	}
	if got.AverageDurationSecs != 200 {
		t.Errorf("AverageDurationSecs = %v, want 200", got.AverageDurationSecs)
	}
}

func TestAggregate_EmptyAverageIsZero(t *testing.T) {
	got := Aggregate(nil)
	if got.TotalSessions != 0 || got.AverageDurationSecs != 0 {
		t.Errorf("empty summary = %+v", got)
	}
}

func TestAggregate_SaturatesInsteadOfWrapping(t *testing.T) {
	big := int64(math.MaxInt64/2 + 1)
	sessions := []model.Session{
		sess("a", "app", "Python", "2024-03-15T09:00:00Z", big),
		sess("b", "app", "Python", "2024-03-15T10:00:00Z", big),
	}

	sum := Aggregate(sessions)
	if sum.TotalDurationSecs != math.MaxInt64 || sum.AverageDurationSecs <= 0 {
		t.Errorf("summary = %+v, want saturated positive totals", sum)
	}
	langs := AggregateLanguages(sessions)
	if len(langs) != 1 || langs[0].DurationSecs != math.MaxInt64 || langs[0].Value != 100 {
		t.Errorf("languages = %+v", langs)
	}
	if d := AggregateDays(sessions); len(d) != 1 || d[0].DurationSecs != math.MaxInt64 {
		t.Errorf("days = %+v", d)
	}
	if got := PageDuration(sessions); got != math.MaxInt64 {
		t.Errorf("PageDuration = %d", got)
	}
}

func TestAggregateDays_SparseAscending(t *testing.T) {
	sessions := []model.Session{
		sess("c", "", "", "2024-03-14T23:30:00Z", 50),
		sess("a", "", "", "2024-03-12T08:00:00Z", 10),
		sess("b", "", "", "2024-03-12T20:00:00Z", 20),
	}
	got := AggregateDays(sessions)

	if len(got) != 2 {
		t.Fatalf("days = %+v, want 2 (no 2024-03-13)", got)
	}
	if got[0].Date != "2024-03-12" || got[0].Sessions != 2 || got[0].DurationSecs != 30 {
		t.Errorf("day 0 = %+v", got[0])
	}
	if got[1].Date != "2024-03-14" || got[1].Sessions != 1 || got[1].DurationSecs != 50 {
		t.Errorf("day 1 = %+v", got[1])
	}
}

func TestAggregateDays_UsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	s := model.Session{StartTime: time.Date(2024, 3, 14, 22, 0, 0, 0, loc), TotalDurationSecs: 1}
	got := AggregateDays([]model.Session{s})
	if len(got) != 1 || got[0].Date != "2024-03-15" {
		t.Errorf("days = %+v, want 2024-03-15", got)
	}
}

func TestAggregateHourly_Dense(t *testing.T) {
	for _, sessions := range [][]model.Session{
		nil,
		{
			sess("a", "", "", "2024-03-12T09:15:00Z", 60),
			sess("b", "", "", "2024-03-13T09:45:00Z", 40),
			sess("c", "", "", "2024-03-13T23:00:00Z", 5),
		},
	} {
		got := AggregateHourly(sessions)
		if len(got) != 24 {
			t.Fatalf("len = %d, want 24", len(got))
		}
		for i, h := range got {
			want := []string{"00", "01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11",
				"12", "13", "14", "15", "16", "17", "18", "19", "20", "21", "22", "23"}[i]
			if h.Hour != want {
				t.Errorf("hour[%d] = %q, want %q", i, h.Hour, want)
			}
		}
		if len(sessions) > 0 {
			if got[9].Sessions != 2 || got[9].DurationSecs != 100 {
				t.Errorf("hour 09 = %+v", got[9])
			}
			if got[23].Sessions != 1 || got[0].Sessions != 0 {
				t.Errorf("hour 23 = %+v, hour 00 = %+v", got[23], got[0])
			}
		}
	}
}

func TestAggregateLanguages_Percentages(t *testing.T) {
	sessions := []model.Session{
		sess("a", "", "Python", "2024-03-12T09:00:00Z", 300),
		sess("b", "", "Go", "2024-03-12T10:00:00Z", 100),
	}
	got := AggregateLanguages(sessions)

	if len(got) != 2 {
		t.Fatalf("langs = %+v", got)
	}
	if got[0].Name != "Python" || got[0].Value != 75.0 || got[0].Color != "#3776ab" {
		t.Errorf("first = %+v, want Python 75.0", got[0])
	}
	if got[1].Name != "Go" || got[1].Value != 25.0 || got[1].Color != "#00add8" {
		t.Errorf("second = %+v, want Go 25.0", got[1])
	}
	if got[0].Value+got[1].Value != 100.0 {
		t.Errorf("sum = %v", got[0].Value+got[1].Value)
	}
}

func TestAggregateLanguages_UnknownAndRounding(t *testing.T) {
	sessions := []model.Session{
		sess("a", "", "", "2024-03-12T09:00:00Z", 1),
		sess("b", "", "Elixir", "2024-03-12T10:00:00Z", 2),
	}
	got := AggregateLanguages(sessions)

	if got[0].Name != "Elixir" || got[0].Value != 66.7 || got[0].Color != DefaultLanguageColor {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Name != UnknownBucket || got[1].Value != 33.3 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestAggregateLanguages_ZeroDuration(t *testing.T) {
	got := AggregateLanguages([]model.Session{sess("a", "", "Go", "2024-03-12T09:00:00Z", 0)})
	if len(got) != 1 || got[0].Value != 0 || got[0].Sessions != 1 {
		t.Errorf("langs = %+v", got)
	}
}

func TestAggregateProjects(t *testing.T) {
	sessions := []model.Session{
		sess("a", "web", "", "2024-03-12T09:00:00Z", 10),
		sess("b", "", "", "2024-03-12T10:00:00Z", 50),
		sess("c", "api", "", "2024-03-12T11:00:00Z", 10),
		sess("d", "web", "", "2024-03-12T12:00:00Z", 30),
	}
	got := AggregateProjects(sessions)

	want := []model.ProjectStats{
		{Name: UnknownBucket, DurationSecs: 50, Sessions: 1},
		{Name: "web", DurationSecs: 40, Sessions: 2},
		{Name: "api", DurationSecs: 10, Sessions: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("projects = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("projects[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLanguageColor(t *testing.T) {
	if LanguageColor("TypeScript") != "#3178c6" {
		t.Error("TypeScript color")
	}
	if LanguageColor("Unknown") != DefaultLanguageColor {
		t.Error("Unknown should use default color")
	}
}

func BenchmarkAggregateLanguages(b *testing.B) {
	langs := []string{"Go", "Python", "Rust", "", "TypeScript"}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sessions := make([]model.Session, 10000)
	for i := range sessions {
		sessions[i] = model.Session{
			Language:          langs[i%len(langs)],
			StartTime:         start.Add(time.Duration(i) * time.Minute),
			TotalDurationSecs: int64(i % 600),
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AggregateLanguages(sessions)
	}
}
