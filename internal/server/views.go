package server

import (
	"time"

	"github.com/theirongolddev/afkmon/internal/extsync"
	"github.com/theirongolddev/afkmon/internal/model"
)

// JSON shapes served by the API. Field names follow the extension's camelCase contract.

type healthView struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type sessionView struct {
	ID                 string     `json:"id"`
	FilePath           string     `json:"filePath"`
	FileName           string     `json:"fileName"`
	FileExtension      string     `json:"fileExtension"`
	Language           string     `json:"language"`
	ProjectName        string     `json:"projectName"`
	ProjectPath        string     `json:"projectPath"`
	SessionStartTime   time.Time  `json:"sessionStartTime"`
	SessionEndTime     *time.Time `json:"sessionEndTime"`
	TotalDuration      int64      `json:"totalDuration"`
	LinesAdded         int64      `json:"linesAdded"`
	LinesDeleted       int64      `json:"linesDeleted"`
	LinesModified      int64      `json:"linesModified"`
	CharactersAdded    int64      `json:"charactersAdded"`
	CharactersDeleted  int64      `json:"charactersDeleted"`
	CharactersModified int64      `json:"charactersModified"`
	TotalEdits         int64      `json:"totalEdits"`
	Editor             string     `json:"editor"`
	Platform           string     `json:"platform"`
	IsActive           bool       `json:"isActive"`
}

type sessionPageView struct {
	Sessions      []sessionView `json:"sessions"`
	Total         int           `json:"total"`
	TotalDuration int64         `json:"totalDuration"`
	Offset        int           `json:"offset"`
	Limit         int           `json:"limit"`
}

type summaryView struct {
	TotalSessions          int     `json:"totalSessions"`
	TotalDuration          int64   `json:"totalDuration"`
	TotalLinesAdded        int64   `json:"totalLinesAdded"`
	TotalLinesDeleted      int64   `json:"totalLinesDeleted"`
	TotalLinesModified     int64   `json:"totalLinesModified"`
	TotalEdits             int64   `json:"totalEdits"`
	AverageSessionDuration float64 `json:"averageSessionDuration"`
}

type dailyView struct {
	Date     string `json:"date"`
	Duration int64  `json:"duration"`
	Sessions int    `json:"sessions"`
}

type hourlyView struct {
	Hour     string `json:"hour"`
	Duration int64  `json:"duration"`
	Sessions int    `json:"sessions"`
}

type languageView struct {
	Name     string  `json:"name"`
	Duration int64   `json:"duration"`
	Sessions int     `json:"sessions"`
	Value    float64 `json:"value"`
	Color    string  `json:"color"`
}

type projectView struct {
	Name     string `json:"name"`
	Duration int64  `json:"duration"`
	Sessions int    `json:"sessions"`
}

// Status is the body of GET /api/status.
type Status struct {
	StartedAt     time.Time `json:"startedAt"`
	LastTickAt    time.Time `json:"lastTickAt"`
	TickCount     int64     `json:"tickCount"`
	SyncInterval  int       `json:"syncIntervalSec"`
	LastSyncAt    time.Time `json:"lastSyncAt"`
	LastSyncError string    `json:"lastSyncError,omitempty"`
	Extensions    int       `json:"extensions"`
	Version       string    `json:"version"`
}

type registerRequest struct {
	URL      string `json:"url"`
	Editor   string `json:"editor"`
	Platform string `json:"platform"`
	Token    string `json:"token"`
}

type syncView struct {
	extsync.Report
	Errors []string `json:"errors,omitempty"`
}

func toSessionView(s model.Session) sessionView {
	return sessionView{
		ID:                 s.ID,
		FilePath:           s.FilePath,
		FileName:           s.FileName,
		FileExtension:      s.FileExtension,
		Language:           s.Language,
		ProjectName:        s.ProjectName,
		ProjectPath:        s.ProjectPath,
		SessionStartTime:   s.StartTime,
		SessionEndTime:     s.EndTime,
		TotalDuration:      s.TotalDurationSecs,
		LinesAdded:         s.LinesAdded,
		LinesDeleted:       s.LinesDeleted,
		LinesModified:      s.LinesModified,
		CharactersAdded:    s.CharsAdded,
		CharactersDeleted:  s.CharsDeleted,
		CharactersModified: s.CharsModified,
		TotalEdits:         s.TotalEdits,
		Editor:             string(s.Editor),
		Platform:           s.Platform,
		IsActive:           s.IsActive,
	}
}

func toPageView(p model.SessionPage) sessionPageView {
	views := make([]sessionView, len(p.Sessions))
	for i, s := range p.Sessions {
		views[i] = toSessionView(s)
	}
	return sessionPageView{
		Sessions:      views,
		Total:         p.Total,
		TotalDuration: p.TotalDurationSecs,
		Offset:        p.Offset,
		Limit:         p.Limit,
	}
}

func toSummaryView(s model.SummaryStats) summaryView {
	return summaryView{
		TotalSessions:          s.TotalSessions,
		TotalDuration:          s.TotalDurationSecs,
		TotalLinesAdded:        s.TotalLinesAdded,
		TotalLinesDeleted:      s.TotalLinesDeleted,
		TotalLinesModified:     s.TotalLinesModified,
		TotalEdits:             s.TotalEdits,
		AverageSessionDuration: s.AverageDurationSecs,
	}
}

func toDailyViews(days []model.DailyStats) []dailyView {
	out := make([]dailyView, len(days))
	for i, d := range days {
		out[i] = dailyView{Date: d.Date, Duration: d.DurationSecs, Sessions: d.Sessions}
	}
	return out
}

func toHourlyViews(hours []model.HourlyStats) []hourlyView {
	out := make([]hourlyView, len(hours))
	for i, h := range hours {
		out[i] = hourlyView{Hour: h.Hour, Duration: h.DurationSecs, Sessions: h.Sessions}
	}
	return out
}

func toLanguageViews(langs []model.LanguageStats) []languageView {
	out := make([]languageView, len(langs))
	for i, l := range langs {
		out[i] = languageView{Name: l.Name, Duration: l.DurationSecs, Sessions: l.Sessions, Value: l.Value, Color: l.Color}
	}
	return out
}

func toProjectViews(projects []model.ProjectStats) []projectView {
	out := make([]projectView, len(projects))
	for i, p := range projects {
		out[i] = projectView{Name: p.Name, Duration: p.DurationSecs, Sessions: p.Sessions}
	}
	return out
}
