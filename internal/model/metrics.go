package model

// SummaryStats holds the top-level totals across matching sessions.
type SummaryStats struct {
	TotalSessions       int
	TotalDurationSecs   int64
	TotalLinesAdded     int64
	TotalLinesDeleted   int64
	TotalLinesModified  int64
	TotalEdits          int64
	AverageDurationSecs float64
}

// DailyStats holds metrics for one UTC calendar day.
type DailyStats struct {
	Date         string // YYYY-MM-DD
	DurationSecs int64
	Sessions     int
}

// HourlyStats holds metrics for one hour of the day, across all dates.
type HourlyStats struct {
	Hour         string // "00".."23"
	DurationSecs int64
	Sessions     int
}

// LanguageStats holds aggregated metrics for a single language.
type LanguageStats struct {
	Name         string
	DurationSecs int64
	Sessions     int
	Value        float64 // share of total duration, percent, one decimal
	Color        string
}

// ProjectStats holds aggregated metrics for a single project.
type ProjectStats struct {
	Name         string
	DurationSecs int64
	Sessions     int
}
