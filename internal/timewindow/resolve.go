// Package timewindow maps named time filters to concrete instant ranges.
package timewindow

import (
	"fmt"
	"time"

	"github.com/theirongolddev/afkmon/internal/apperr"
)

// Filter names a relative time range.
type Filter string

// Named filters.
const (
	None       Filter = ""
	Today      Filter = "today"
	Yesterday  Filter = "yesterday"
	ThisWeek   Filter = "this_week"
	LastWeek   Filter = "last_week"
	ThisMonth  Filter = "this_month"
	LastMonth  Filter = "last_month"
	Last7Days  Filter = "last_7_days"
	Last30Days Filter = "last_30_days"
	Custom     Filter = "custom"
)

var known = []Filter{Today, Yesterday, ThisWeek, LastWeek, ThisMonth, LastMonth, Last7Days, Last30Days, Custom}

// Filters returns every named filter in display order.
func Filters() []Filter {
	out := make([]Filter, len(known))
	copy(out, known)
	return out
}

// ParseFilter validates a filter name. "" and "none" mean no restriction.
func ParseFilter(s string) (Filter, error) {
	if s == "" || s == "none" {
		return None, nil
	}
	for _, f := range known {
		if string(f) == s {
			return f, nil
		}
	}
	return None, apperr.InvalidQuery(fmt.Sprintf("unknown time_filter %q", s), nil).
		WithDetail("time_filter", s)
}

// Window is a resolved time range over session start times. A zero Start or
// End means that side is unbounded.
type Window struct {
	Start time.Time
	End   time.Time

	// EndExclusive marks [Start, End) ranges (yesterday, last_week).
	EndExclusive bool
}

// IsZero reports whether the window imposes no restriction.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Bounded reports whether either side of the window is set.
func (w Window) Bounded() bool { return !w.IsZero() }

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() {
		if w.EndExclusive {
			return t.Before(w.End)
		}
		return !t.After(w.End)
	}
	return true
}

// Resolve returns the window for f relative to now. start and end are used
// only by Custom, which restricts nothing unless both are set. Calendar
// boundaries are computed in now's location.
func Resolve(f Filter, now time.Time, start, end *time.Time) Window {
	midnight := startOfDay(now)

	switch f {
	case Today:
		return Window{Start: midnight, End: now}
	case Yesterday:
		return Window{Start: midnight.AddDate(0, 0, -1), End: midnight, EndExclusive: true}
	case ThisWeek:
		return Window{Start: startOfWeek(now), End: now}
	case LastWeek:
		weekStart := startOfWeek(now)
		return Window{Start: weekStart.AddDate(0, 0, -7), End: weekStart, EndExclusive: true}
	case ThisMonth:
		return Window{Start: startOfMonth(now), End: now}
	case LastMonth:
		thisMonth := startOfMonth(now)
		prev := thisMonth.AddDate(0, -1, 0)
		lastDay := thisMonth.AddDate(0, 0, -1)
		return Window{
			Start: prev,
			End:   time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), 23, 59, 59, 0, now.Location()),
		}
	case Last7Days:
		return Window{Start: now.AddDate(0, 0, -7), End: now}
	case Last30Days:
		return Window{Start: now.AddDate(0, 0, -30), End: now}
	case Custom:
		if start == nil || end == nil {
			return Window{}
		}
		return Window{Start: *start, End: *end}
	default:
		return Window{}
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns Monday 00:00 of t's week.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
