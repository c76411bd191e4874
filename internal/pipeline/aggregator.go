// Package pipeline filters sessions by time window and aggregates them into
// summary, daily, hourly, language and project metrics.
package pipeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/theirongolddev/afkmon/internal/model"
)

// addSat adds non-negative counters, stopping at math.MaxInt64 instead of wrapping.
func addSat(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// UnknownBucket names the bucket for sessions with no language or project.
const UnknownBucket = "Unknown"

// Aggregate computes summary totals over sessions.
func Aggregate(sessions []model.Session) model.SummaryStats {
	var stats model.SummaryStats

	for _, s := range sessions {
		stats.TotalSessions++
		stats.TotalDurationSecs = addSat(stats.TotalDurationSecs, s.TotalDurationSecs)
		stats.TotalLinesAdded = addSat(stats.TotalLinesAdded, s.LinesAdded)
		stats.TotalLinesDeleted = addSat(stats.TotalLinesDeleted, s.LinesDeleted)
		stats.TotalLinesModified = addSat(stats.TotalLinesModified, s.LinesModified)
		stats.TotalEdits = addSat(stats.TotalEdits, s.TotalEdits)
	}

	if stats.TotalSessions > 0 {
		stats.AverageDurationSecs = float64(stats.TotalDurationSecs) / float64(stats.TotalSessions)
	}
	return stats
}

// AggregateDays groups sessions by the UTC date of their start time. Days
// without sessions are omitted. Output is ascending by date.
func AggregateDays(sessions []model.Session) []model.DailyStats {
	dayMap := make(map[string]*model.DailyStats)

	for _, s := range sessions {
		dayKey := s.StartTime.UTC().Format("2006-01-02")
		ds, ok := dayMap[dayKey]
		if !ok {
			ds = &model.DailyStats{Date: dayKey}
			dayMap[dayKey] = ds
		}
		ds.Sessions++
		ds.DurationSecs = addSat(ds.DurationSecs, s.TotalDurationSecs)
	}

	days := make([]model.DailyStats, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
	return days
}

// AggregateHourly groups sessions by the UTC hour of their start time,
// ignoring the date. All 24 hours are always returned, in order.
func AggregateHourly(sessions []model.Session) []model.HourlyStats {
	hours := make([]model.HourlyStats, 24)
	for i := range hours {
		hours[i].Hour = fmt.Sprintf("%02d", i)
	}

	for _, s := range sessions {
		h := s.StartTime.UTC().Hour()
		hours[h].Sessions++
		hours[h].DurationSecs = addSat(hours[h].DurationSecs, s.TotalDurationSecs)
	}
	return hours
}

// AggregateLanguages groups sessions by language. Value is each language's
// share of total duration in percent, rounded to one decimal.
func AggregateLanguages(sessions []model.Session) []model.LanguageStats {
	langMap := make(map[string]*model.LanguageStats)
	var total int64

	for _, s := range sessions {
		name := s.Language
		if name == "" {
			name = UnknownBucket
		}
		ls, ok := langMap[name]
		if !ok {
			ls = &model.LanguageStats{Name: name, Color: LanguageColor(name)}
			langMap[name] = ls
		}
		ls.Sessions++
		ls.DurationSecs = addSat(ls.DurationSecs, s.TotalDurationSecs)
		total = addSat(total, s.TotalDurationSecs)
	}

	langs := make([]model.LanguageStats, 0, len(langMap))
	for _, ls := range langMap {
		if total > 0 {
			ls.Value = roundTenth(float64(ls.DurationSecs) / float64(total) * 100)
		}
		langs = append(langs, *ls)
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].DurationSecs != langs[j].DurationSecs {
			return langs[i].DurationSecs > langs[j].DurationSecs
		}
		return langs[i].Name < langs[j].Name
	})
	return langs
}

// AggregateProjects groups sessions by project, longest first.
func AggregateProjects(sessions []model.Session) []model.ProjectStats {
	projMap := make(map[string]*model.ProjectStats)

	for _, s := range sessions {
		name := s.ProjectName
		if name == "" {
			name = UnknownBucket
		}
		ps, ok := projMap[name]
		if !ok {
			ps = &model.ProjectStats{Name: name}
			projMap[name] = ps
		}
		ps.Sessions++
		ps.DurationSecs = addSat(ps.DurationSecs, s.TotalDurationSecs)
	}

	projects := make([]model.ProjectStats, 0, len(projMap))
	for _, ps := range projMap {
		projects = append(projects, *ps)
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].DurationSecs != projects[j].DurationSecs {
			return projects[i].DurationSecs > projects[j].DurationSecs
		}
		return projects[i].Name < projects[j].Name
	})
	return projects
}

// PageDuration sums durations over one page of sessions.
func PageDuration(sessions []model.Session) int64 {
	var total int64
	for _, s := range sessions {
		total = addSat(total, s.TotalDurationSecs)
	}
	return total
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
