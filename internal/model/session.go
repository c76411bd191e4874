// Package model defines domain types for afkmon sessions and metrics.
package model

import "time"

// DefaultOwner is the owner partition used when a request names none.
const DefaultOwner = "dev-user"

// Editor identifies the editor that produced a session.
type Editor string

// Supported editors.
const (
	EditorVSCode Editor = "vscode"
	EditorCursor Editor = "cursor"
)

// Valid reports whether e is a supported editor.
func (e Editor) Valid() bool {
	return e == EditorVSCode || e == EditorCursor
}

// Session is one tracked span of editing activity on a single file.
// (ID, OwnerID) is unique; a Session is the unit of upsert.
type Session struct {
	ID      string
	OwnerID string

	FilePath      string
	FileName      string
	FileExtension string
	Language      string
	ProjectName   string
	ProjectPath   string

	StartTime         time.Time
	EndTime           *time.Time // nil while the session is ongoing
	TotalDurationSecs int64

	LinesAdded    int64
	LinesDeleted  int64
	LinesModified int64
	CharsAdded    int64
	CharsDeleted  int64
	CharsModified int64
	TotalEdits    int64

	Editor   Editor
	Platform string
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionPage is one page of a session listing.
type SessionPage struct {
	Sessions []Session
	// Total counts every matching session, not just this page.
	Total int
	// TotalDurationSecs sums durations of the sessions in this page only.
	TotalDurationSecs int64
	Offset            int
	Limit             int
}
