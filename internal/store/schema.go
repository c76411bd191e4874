package store

// Timestamps are INTEGER unix nanoseconds (UTC) so range predicates on
// start_time compare exactly.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id                   TEXT NOT NULL,
    owner_id             TEXT NOT NULL,
    file_path            TEXT NOT NULL,
    file_name            TEXT NOT NULL,
    file_extension       TEXT NOT NULL DEFAULT '',
    language             TEXT NOT NULL DEFAULT '',
    project_name         TEXT NOT NULL DEFAULT '',
    project_path         TEXT NOT NULL DEFAULT '',
    start_time           INTEGER NOT NULL,
    end_time             INTEGER,
    total_duration       INTEGER NOT NULL DEFAULT 0 CHECK (total_duration >= 0),
    lines_added          INTEGER NOT NULL DEFAULT 0 CHECK (lines_added >= 0),
    lines_deleted        INTEGER NOT NULL DEFAULT 0 CHECK (lines_deleted >= 0),
    lines_modified       INTEGER NOT NULL DEFAULT 0 CHECK (lines_modified >= 0),
    chars_added          INTEGER NOT NULL DEFAULT 0 CHECK (chars_added >= 0),
    chars_deleted        INTEGER NOT NULL DEFAULT 0 CHECK (chars_deleted >= 0),
    chars_modified       INTEGER NOT NULL DEFAULT 0 CHECK (chars_modified >= 0),
    total_edits          INTEGER NOT NULL DEFAULT 0 CHECK (total_edits >= 0),
    editor               TEXT NOT NULL,
    platform             TEXT NOT NULL DEFAULT '',
    is_active            INTEGER NOT NULL DEFAULT 1,
    created_at           INTEGER NOT NULL,
    updated_at           INTEGER NOT NULL,
    PRIMARY KEY (id, owner_id)
);

CREATE TABLE IF NOT EXISTS sync_state (
    owner_id             TEXT PRIMARY KEY,
    last_sync_at         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_owner_start ON sessions(owner_id, start_time);
CREATE INDEX IF NOT EXISTS idx_sessions_owner_project ON sessions(owner_id, project_name);
CREATE INDEX IF NOT EXISTS idx_sessions_owner_language ON sessions(owner_id, language);
`

const sessionColumns = `id, owner_id, file_path, file_name, file_extension, language,
	project_name, project_path, start_time, end_time, total_duration,
	lines_added, lines_deleted, lines_modified, chars_added, chars_deleted,
	chars_modified, total_edits, editor, platform, is_active, created_at, updated_at`

const upsertSQL = `INSERT INTO sessions (` + sessionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id, owner_id) DO UPDATE SET
		file_path      = excluded.file_path,
		file_name      = excluded.file_name,
		file_extension = excluded.file_extension,
		language       = excluded.language,
		project_name   = excluded.project_name,
		project_path   = excluded.project_path,
		start_time     = excluded.start_time,
		end_time       = excluded.end_time,
		total_duration = excluded.total_duration,
		lines_added    = excluded.lines_added,
		lines_deleted  = excluded.lines_deleted,
		lines_modified = excluded.lines_modified,
		chars_added    = excluded.chars_added,
		chars_deleted  = excluded.chars_deleted,
		chars_modified = excluded.chars_modified,
		total_edits    = excluded.total_edits,
		editor         = excluded.editor,
		platform       = excluded.platform,
		is_active      = excluded.is_active,
		updated_at     = MAX(sessions.updated_at, excluded.updated_at)`

const recordSyncSQL = `INSERT INTO sync_state (owner_id, last_sync_at) VALUES (?, ?)
	ON CONFLICT(owner_id) DO UPDATE SET
		last_sync_at = MAX(sync_state.last_sync_at, excluded.last_sync_at)`
