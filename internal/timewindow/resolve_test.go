package timewindow

import (
	"testing"
	"time"

	"github.com/theirongolddev/afkmon/internal/apperr"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestResolve(t *testing.T) {
	// Friday.
	now := ts(t, "2024-03-15T10:00:00Z")

	tests := []struct {
		filter    Filter
		start     string
		end       string
		exclusive bool
	}{
		{Today, "2024-03-15T00:00:00Z", "2024-03-15T10:00:00Z", false},
		{Yesterday, "2024-03-14T00:00:00Z", "2024-03-15T00:00:00Z", true},
		{ThisWeek, "2024-03-11T00:00:00Z", "2024-03-15T10:00:00Z", false},
		{LastWeek, "2024-03-04T00:00:00Z", "2024-03-11T00:00:00Z", true},
		{ThisMonth, "2024-03-01T00:00:00Z", "2024-03-15T10:00:00Z", false},
		{LastMonth, "2024-02-01T00:00:00Z", "2024-02-29T23:59:59Z", false},
		{Last7Days, "2024-03-08T10:00:00Z", "2024-03-15T10:00:00Z", false},
		{Last30Days, "2024-02-14T10:00:00Z", "2024-03-15T10:00:00Z", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			w := Resolve(tt.filter, now, nil, nil)
			if !w.Start.Equal(ts(t, tt.start)) {
				t.Errorf("Start = %v, want %s", w.Start, tt.start)
			}
			if !w.End.Equal(ts(t, tt.end)) {
				t.Errorf("End = %v, want %s", w.End, tt.end)
			}
			if w.EndExclusive != tt.exclusive {
				t.Errorf("EndExclusive = %v, want %v", w.EndExclusive, tt.exclusive)
			}
		})
	}
}

func TestResolve_LastMonthRollsOverYear(t *testing.T) {
	w := Resolve(LastMonth, ts(t, "2024-01-20T08:00:00Z"), nil, nil)
	if !w.Start.Equal(ts(t, "2023-12-01T00:00:00Z")) {
		t.Errorf("Start = %v, want 2023-12-01", w.Start)
	}
	if !w.End.Equal(ts(t, "2023-12-31T23:59:59Z")) {
		t.Errorf("End = %v, want 2023-12-31T23:59:59Z", w.End)
	}
}

func TestResolve_LastMonthDays(t *testing.T) {
	tests := []struct {
		now string
		end string
	}{
		{"2023-03-31T12:00:00Z", "2023-02-28T23:59:59Z"},
		{"2024-05-01T00:00:00Z", "2024-04-30T23:59:59Z"},
		{"2024-08-31T23:00:00Z", "2024-07-31T23:59:59Z"},
	}
	for _, tt := range tests {
		w := Resolve(LastMonth, ts(t, tt.now), nil, nil)
		if !w.End.Equal(ts(t, tt.end)) {
			t.Errorf("now=%s: End = %v, want %s", tt.now, w.End, tt.end)
		}
	}
}

func TestResolve_WeekStartsMonday(t *testing.T) {
	// Sunday belongs to the week that started six days earlier.
	w := Resolve(ThisWeek, ts(t, "2024-03-17T22:00:00Z"), nil, nil)
	if !w.Start.Equal(ts(t, "2024-03-11T00:00:00Z")) {
		t.Errorf("Sunday Start = %v, want 2024-03-11", w.Start)
	}
	// Monday is the first day of its own week.
	w = Resolve(ThisWeek, ts(t, "2024-03-18T01:00:00Z"), nil, nil)
	if !w.Start.Equal(ts(t, "2024-03-18T00:00:00Z")) {
		t.Errorf("Monday Start = %v, want 2024-03-18", w.Start)
	}
}

func TestResolve_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2024, 3, 15, 1, 0, 0, 0, loc)
	w := Resolve(Today, now, nil, nil)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)
	if !w.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", w.Start, want)
	}
}

func TestResolve_CustomAndNone(t *testing.T) {
	now := ts(t, "2024-03-15T10:00:00Z")
	start := ts(t, "2024-01-01T00:00:00Z")
	end := ts(t, "2024-02-01T00:00:00Z")

	w := Resolve(Custom, now, &start, &end)
	if !w.Start.Equal(start) || !w.End.Equal(end) || w.EndExclusive {
		t.Errorf("custom window = %+v", w)
	}

	if !w.Bounded() {
		t.Errorf("custom window with both bounds should be bounded: %+v", w)
	}

	// A half-open custom range restricts nothing.
	if w := Resolve(Custom, now, &start, nil); !w.IsZero() {
		t.Errorf("custom start-only window = %+v, want zero", w)
	}
	if w := Resolve(Custom, now, nil, &end); !w.IsZero() {
		t.Errorf("custom end-only window = %+v, want zero", w)
	}

	if w := Resolve(Custom, now, nil, nil); !w.IsZero() {
		t.Errorf("custom without bounds = %+v, want zero", w)
	}
	if w := Resolve(None, now, &start, &end); !w.IsZero() {
		t.Errorf("none = %+v, want zero (bounds ignored)", w)
	}
}

func TestWindowContains(t *testing.T) {
	now := ts(t, "2024-03-15T10:00:00Z")

	today := Resolve(Today, now, nil, nil)
	if !today.Contains(now) {
		t.Error("today should include now")
	}
	if today.Contains(now.Add(time.Second)) {
		t.Error("today should exclude the future")
	}

	yesterday := Resolve(Yesterday, now, nil, nil)
	if yesterday.Contains(ts(t, "2024-03-15T00:00:00Z")) {
		t.Error("yesterday should exclude today's midnight")
	}
	if !yesterday.Contains(ts(t, "2024-03-14T00:00:00Z")) {
		t.Error("yesterday should include its own midnight")
	}

	if !(Window{}).Contains(ts(t, "1999-01-01T00:00:00Z")) {
		t.Error("zero window should contain everything")
	}
}

func TestParseFilter(t *testing.T) {
	for _, f := range Filters() {
		got, err := ParseFilter(string(f))
		if err != nil || got != f {
			t.Errorf("ParseFilter(%q) = %q, %v", f, got, err)
		}
	}
	for _, s := range []string{"", "none"} {
		got, err := ParseFilter(s)
		if err != nil || got != None {
			t.Errorf("ParseFilter(%q) = %q, %v, want None", s, got, err)
		}
	}

	_, err := ParseFilter("fortnight")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("ParseFilter(fortnight) err = %v, want validation error", err)
	}
}
