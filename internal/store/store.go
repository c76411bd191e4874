// Package store provides the SQLite-backed, owner-partitioned session store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// DefaultTimeout bounds every storage operation.
const DefaultTimeout = 5 * time.Second

// Store persists sessions keyed by (id, owner).
type Store struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout sets the per-operation timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides the clock used for created_at / updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens or creates the session database at the given path.
func Open(dbPath string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, apperr.Storage("creating database dir", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, apperr.Storage("opening database", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, apperr.Storage("creating schema", err)
	}

	s := &Store{db: db, timeout: DefaultTimeout, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Upsert inserts sess, or overwrites every mutable field of the existing
// (id, owner) row. created_at is kept from the first insert; updated_at is
// set to now and never moves backwards. The stored row is returned.
func (s *Store) Upsert(ctx context.Context, sess model.Session) (model.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Session{}, apperr.Storage("beginning upsert", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := toNanos(s.now())
	var endTime sql.NullInt64
	if sess.EndTime != nil {
		endTime = sql.NullInt64{Int64: toNanos(*sess.EndTime), Valid: true}
	}
	isActive := 0
	if sess.IsActive {
		isActive = 1
	}

	_, err = tx.ExecContext(ctx, upsertSQL,
		sess.ID, sess.OwnerID, sess.FilePath, sess.FileName, sess.FileExtension, sess.Language,
		sess.ProjectName, sess.ProjectPath, toNanos(sess.StartTime), endTime, sess.TotalDurationSecs,
		sess.LinesAdded, sess.LinesDeleted, sess.LinesModified, sess.CharsAdded, sess.CharsDeleted,
		sess.CharsModified, sess.TotalEdits, string(sess.Editor), sess.Platform, isActive, now, now,
	)
	if err != nil {
		return model.Session{}, apperr.Storage(fmt.Sprintf("upserting session %s", sess.ID), err)
	}

	row := tx.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ? AND owner_id = ?",
		sess.ID, sess.OwnerID)
	stored, err := scanSession(row)
	if err != nil {
		return model.Session{}, apperr.Storage(fmt.Sprintf("reading back session %s", sess.ID), err)
	}

	if err := tx.Commit(); err != nil {
		return model.Session{}, apperr.Storage(fmt.Sprintf("committing session %s", sess.ID), err)
	}
	return stored, nil
}

// Find returns the owner's sessions matching f.
func (s *Store) Find(ctx context.Context, owner string, f Filter) ([]model.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	where, args := f.where(owner)
	suffix, pageArgs := f.page()
	args = append(args, pageArgs...)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE "+where+suffix, args...)
	if err != nil {
		return nil, apperr.Storage("querying sessions", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, apperr.Storage("scanning session", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterating sessions", err)
	}
	return sessions, nil
}

// Count returns the number of the owner's sessions matching f, ignoring paging.
func (s *Store) Count(ctx context.Context, owner string, f Filter) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	where, args := f.where(owner)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE "+where, args...).Scan(&count)
	if err != nil {
		return 0, apperr.Storage("counting sessions", err)
	}
	return count, nil
}

// DistinctValues returns the sorted non-empty values of field across the owner's sessions.
func (s *Store) DistinctValues(ctx context.Context, owner string, field Field) ([]string, error) {
	switch field {
	case FieldProject, FieldLanguage:
	default:
		return nil, apperr.Validation(fmt.Sprintf("unsupported field %q", field), nil)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	col := string(field)
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT "+col+" FROM sessions WHERE owner_id = ? AND "+col+" IS NOT NULL AND "+col+" != '' ORDER BY "+col,
		owner)
	if err != nil {
		return nil, apperr.Storage("querying distinct "+col, err)
	}
	defer func() { _ = rows.Close() }()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, apperr.Storage("scanning distinct "+col, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("iterating distinct "+col, err)
	}
	return values, nil
}

// LastSyncTime returns the last recorded sync for owner, or the newest
// session start when no sync was recorded. ok is false when neither exists.
func (s *Store) LastSyncTime(ctx context.Context, owner string) (t time.Time, ok bool, err error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var at int64
	err = s.db.QueryRowContext(ctx, "SELECT last_sync_at FROM sync_state WHERE owner_id = ?", owner).Scan(&at)
	switch {
	case err == nil:
		return fromNanos(at), true, nil
	case !errors.Is(err, sql.ErrNoRows):
		return time.Time{}, false, apperr.Storage("reading sync state", err)
	}

	var latest sql.NullInt64
	err = s.db.QueryRowContext(ctx, "SELECT MAX(start_time) FROM sessions WHERE owner_id = ?", owner).Scan(&latest)
	if err != nil {
		return time.Time{}, false, apperr.Storage("reading latest session", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return fromNanos(latest.Int64), true, nil
}

// RecordSync stores at as the owner's last sync time. It never moves backwards.
func (s *Store) RecordSync(ctx context.Context, owner string, at time.Time) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, recordSyncSQL, owner, toNanos(at)); err != nil {
		return apperr.Storage("recording sync state", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (model.Session, error) {
	var (
		sess                model.Session
		start, created, upd int64
		end                 sql.NullInt64
		editor              string
		isActive            int
	)
	err := r.Scan(
		&sess.ID, &sess.OwnerID, &sess.FilePath, &sess.FileName, &sess.FileExtension, &sess.Language,
		&sess.ProjectName, &sess.ProjectPath, &start, &end, &sess.TotalDurationSecs,
		&sess.LinesAdded, &sess.LinesDeleted, &sess.LinesModified, &sess.CharsAdded, &sess.CharsDeleted,
		&sess.CharsModified, &sess.TotalEdits, &editor, &sess.Platform, &isActive, &created, &upd,
	)
	if err != nil {
		return model.Session{}, err
	}

	sess.StartTime = fromNanos(start)
	if end.Valid {
		t := fromNanos(end.Int64)
		sess.EndTime = &t
	}
	sess.Editor = model.Editor(editor)
	sess.IsActive = isActive != 0
	sess.CreatedAt = fromNanos(created)
	sess.UpdatedAt = fromNanos(upd)
	return sess, nil
}
