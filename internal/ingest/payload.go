package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/model"
)

// Payload is one session as sent by an editor extension.
type Payload struct {
	Session    Record     `json:"session"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

// Record carries the session fields. Field names are the extension's wire contract.
type Record struct {
	ID                 string  `json:"id"`
	FilePath           string  `json:"filePath"`
	FileName           string  `json:"fileName"`
	FileExtension      string  `json:"fileExtension"`
	Language           string  `json:"language"`
	ProjectName        string  `json:"projectName"`
	ProjectPath        string  `json:"projectPath"`
	SessionStartTime   string  `json:"sessionStartTime"`
	SessionEndTime     *string `json:"sessionEndTime,omitempty"`
	TotalDuration      int64   `json:"totalDuration"`
	LinesAdded         int64   `json:"linesAdded"`
	LinesDeleted       int64   `json:"linesDeleted"`
	LinesModified      int64   `json:"linesModified"`
	CharactersAdded    int64   `json:"charactersAdded"`
	CharactersDeleted  int64   `json:"charactersDeleted"`
	CharactersModified int64   `json:"charactersModified"`
	TotalEdits         int64   `json:"totalEdits"`
	IsActive           bool    `json:"isActive"`
}

// SystemInfo describes the editor that produced the session.
type SystemInfo struct {
	Editor   string `json:"editor"`
	Platform string `json:"platform"`
}

// FieldError is one rejected input field.
type FieldError struct {
	Field   string
	Problem string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Problem
}

// MaxCounter is the largest counter value accepted: the largest integer a
// JavaScript number represents exactly.
const MaxCounter = 1<<53 - 1

// Instants are stored as Unix nanoseconds, which bounds the representable range.
var (
	minInstant = time.Unix(0, math.MinInt64).UTC()
	maxInstant = time.Unix(0, math.MaxInt64).UTC()
)

// Storable reports whether t survives a round trip through the store.
func Storable(t time.Time) bool {
	return !t.Before(minInstant) && !t.After(maxInstant)
}

// timestampLayouts are tried in order. Offset-less layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 instant. A "Z" suffix and "+00:00" are
// equivalent. The result is normalized to UTC and must be Storable.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if !Storable(t) {
				return time.Time{}, fmt.Errorf("timestamp %q is outside %d..%d", s, minInstant.Year(), maxInstant.Year())
			}
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// toSession validates p and converts it to a Session owned by owner. Every
// problem is reported in one validation error.
func (p Payload) toSession(owner string) (model.Session, error) {
	var errs *multierror.Error
	reject := func(field, problem string) {
		errs = multierror.Append(errs, &FieldError{Field: field, Problem: problem})
	}

	r := p.Session
	if owner == "" {
		reject("ownerId", "is required")
	}
	if strings.TrimSpace(r.ID) == "" {
		reject("id", "is required")
	}
	if strings.TrimSpace(r.FilePath) == "" {
		reject("filePath", "is required")
	}
	if strings.TrimSpace(r.FileName) == "" {
		reject("fileName", "is required")
	}

	var start time.Time
	if r.SessionStartTime == "" {
		reject("sessionStartTime", "is required")
	} else if t, err := ParseTimestamp(r.SessionStartTime); err != nil {
		reject("sessionStartTime", err.Error())
	} else {
		start = t
	}

	var end *time.Time
	if r.SessionEndTime != nil && *r.SessionEndTime != "" {
		t, err := ParseTimestamp(*r.SessionEndTime)
		switch {
		case err != nil:
			reject("sessionEndTime", err.Error())
		case !start.IsZero() && t.Before(start):
			reject("sessionEndTime", "is before sessionStartTime")
		default:
			end = &t
		}
	}

	counters := []struct {
		field string
		value int64
	}{
		{"totalDuration", r.TotalDuration},
		{"linesAdded", r.LinesAdded},
		{"linesDeleted", r.LinesDeleted},
		{"linesModified", r.LinesModified},
		{"charactersAdded", r.CharactersAdded},
		{"charactersDeleted", r.CharactersDeleted},
		{"charactersModified", r.CharactersModified},
		{"totalEdits", r.TotalEdits},
	}
	for _, c := range counters {
		switch {
		case c.value < 0:
			reject(c.field, "must be >= 0")
		case c.value > MaxCounter:
			reject(c.field, fmt.Sprintf("must be <= %d", MaxCounter))
		}
	}

	editor := model.Editor(p.SystemInfo.Editor)
	if !editor.Valid() {
		reject("systemInfo.editor", fmt.Sprintf("must be %q or %q", model.EditorVSCode, model.EditorCursor))
	}

	if err := errs.ErrorOrNil(); err != nil {
		fields := make(map[string]string, len(errs.Errors))
		for _, e := range errs.Errors {
			if fe, ok := e.(*FieldError); ok {
				fields[fe.Field] = fe.Problem
			}
		}
		return model.Session{}, apperr.Validation("invalid session payload", err).WithDetail("fields", fields)
	}

	return model.Session{
		ID:                r.ID,
		OwnerID:           owner,
		FilePath:          r.FilePath,
		FileName:          r.FileName,
		FileExtension:     r.FileExtension,
		Language:          r.Language,
		ProjectName:       r.ProjectName,
		ProjectPath:       r.ProjectPath,
		StartTime:         start,
		EndTime:           end,
		TotalDurationSecs: r.TotalDuration,
		LinesAdded:        r.LinesAdded,
		LinesDeleted:      r.LinesDeleted,
		LinesModified:     r.LinesModified,
		CharsAdded:        r.CharactersAdded,
		CharsDeleted:      r.CharactersDeleted,
		CharsModified:     r.CharactersModified,
		TotalEdits:        r.TotalEdits,
		Editor:            editor,
		Platform:          p.SystemInfo.Platform,
		IsActive:          r.IsActive,
	}, nil
}

// RecordFromSession renders s in the wire format, e.g. for exports and listings.
func RecordFromSession(s model.Session) Record {
	r := Record{
		ID:                 s.ID,
		FilePath:           s.FilePath,
		FileName:           s.FileName,
		FileExtension:      s.FileExtension,
		Language:           s.Language,
		ProjectName:        s.ProjectName,
		ProjectPath:        s.ProjectPath,
		SessionStartTime:   s.StartTime.UTC().Format(time.RFC3339Nano),
		TotalDuration:      s.TotalDurationSecs,
		LinesAdded:         s.LinesAdded,
		LinesDeleted:       s.LinesDeleted,
		LinesModified:      s.LinesModified,
		CharactersAdded:    s.CharsAdded,
		CharactersDeleted:  s.CharsDeleted,
		CharactersModified: s.CharsModified,
		TotalEdits:         s.TotalEdits,
		IsActive:           s.IsActive,
	}
	if s.EndTime != nil {
		end := s.EndTime.UTC().Format(time.RFC3339Nano)
		r.SessionEndTime = &end
	}
	return r
}
