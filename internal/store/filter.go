package store

import (
	"strings"
	"time"
)

// Field names a column that DistinctValues can enumerate.
type Field string

// Enumerable fields.
const (
	FieldProject  Field = "project_name"
	FieldLanguage Field = "language"
)

// Filter is an independently-optional conjunction of session predicates.
// Zero values mean "no restriction".
type Filter struct {
	Project  string
	Language string
	From     time.Time // start_time >= From
	To       time.Time // start_time <= To (< To when ToExclusive)

	ToExclusive bool

	// Ordering and paging apply to Find only.
	OrderDesc bool
	Limit     int
	Offset    int
}

// where returns a WHERE clause body and its args for owner and f.
func (f Filter) where(owner string) (string, []any) {
	preds := []string{"owner_id = ?"}
	args := []any{owner}

	if f.Project != "" {
		preds = append(preds, "project_name = ?")
		args = append(args, f.Project)
	}
	if f.Language != "" {
		preds = append(preds, "language = ?")
		args = append(args, f.Language)
	}
	if !f.From.IsZero() {
		preds = append(preds, "start_time >= ?")
		args = append(args, toNanos(f.From))
	}
	if !f.To.IsZero() {
		if f.ToExclusive {
			preds = append(preds, "start_time < ?")
		} else {
			preds = append(preds, "start_time <= ?")
		}
		args = append(args, toNanos(f.To))
	}

	return strings.Join(preds, " AND "), args
}

// page returns the ORDER BY / LIMIT suffix and its args.
func (f Filter) page() (string, []any) {
	var b strings.Builder
	var args []any

	if f.OrderDesc {
		b.WriteString(" ORDER BY start_time DESC, id ASC")
	}
	switch {
	case f.Limit > 0:
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, f.Limit, f.Offset)
	case f.Offset > 0:
		b.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, f.Offset)
	}
	return b.String(), args
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
