package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tastebook.io/tastebook/internal/domain"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS drafts (
	draft_id        TEXT PRIMARY KEY,
	parent_draft_id TEXT,
	regen_count     INTEGER NOT NULL DEFAULT 0,
	draft_json      TEXT NOT NULL,
	created_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	draft_id     TEXT NOT NULL,
	client_token TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'READING',
	created_at   INTEGER NOT NULL,
	UNIQUE(draft_id, client_token)
);

CREATE TABLE IF NOT EXISTS telemetry_events (
	event_id     TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	draft_id     TEXT,
	page_id      TEXT,
	event_type   TEXT NOT NULL,
	payload      TEXT,
	ts_client_ms INTEGER,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	session_id   TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	try_level    TEXT,
	abort_reason TEXT,
	notes        TEXT,
	created_at   INTEGER NOT NULL
);
`

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens (and migrates) a SQLite-backed store at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL keeps concurrent readers unblocked while enrichment merges write.
	// modernc.org/sqlite only honors pragmas in _pragma=name(value) form,
	// which applies them to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// InsertDraft stores a root draft.
func (s *SQLiteStore) InsertDraft(ctx context.Context, rec *domain.DraftRecord) error {
	body, err := json.Marshal(rec.Draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", rec.DraftID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts (draft_id, parent_draft_id, regen_count, draft_json, created_at)
		 VALUES (?, NULL, 0, ?, ?)`,
		rec.DraftID, string(body), rec.CreatedAt.Unix(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("draft %s: %w", rec.DraftID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("insert draft %s: %w", rec.DraftID, err)
	}
	return nil
}

// InsertRegeneratedDraft inserts a child draft and bumps the parent's
// regen_count in one transaction. The conditional UPDATE re-checks the quota
// so a racing regeneration cannot slip past the use case pre-check.
func (s *SQLiteStore) InsertRegeneratedDraft(ctx context.Context, rec *domain.DraftRecord) error {
	body, err := json.Marshal(rec.Draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", rec.DraftID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		`UPDATE drafts SET regen_count = regen_count + 1
		 WHERE draft_id = ? AND regen_count < ?`,
		rec.ParentDraftID, domain.RegenLimit,
	)
	if err != nil {
		return fmt.Errorf("bump regen_count for %s: %w", rec.ParentDraftID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bump regen_count for %s: %w", rec.ParentDraftID, err)
	}
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM drafts WHERE draft_id = ?`, rec.ParentDraftID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check parent draft %s: %w", rec.ParentDraftID, err)
		}
		if exists == 0 {
			return fmt.Errorf("parent draft %s: %w", rec.ParentDraftID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("parent draft %s: %w", rec.ParentDraftID, apperrors.ErrQuotaExhausted)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO drafts (draft_id, parent_draft_id, regen_count, draft_json, created_at)
		 VALUES (?, ?, 0, ?, ?)`,
		rec.DraftID, rec.ParentDraftID, string(body), rec.CreatedAt.Unix(),
	); err != nil {
		return fmt.Errorf("insert draft %s: %w", rec.DraftID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit regenerated draft %s: %w", rec.DraftID, err)
	}
	return nil
}

// GetDraft returns a stored draft record by id.
func (s *SQLiteStore) GetDraft(ctx context.Context, draftID string) (*domain.DraftRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT draft_id, parent_draft_id, regen_count, draft_json, created_at
		 FROM drafts WHERE draft_id = ?`, draftID,
	)

	var (
		rec       domain.DraftRecord
		parentID  sql.NullString
		body      string
		createdAt int64
	)
	err := row.Scan(&rec.DraftID, &parentID, &rec.RegenCount, &body, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", draftID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan draft %s: %w", draftID, err)
	}

	rec.ParentDraftID = parentID.String
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	rec.Draft = &domain.Draft{}
	if err := json.Unmarshal([]byte(body), rec.Draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft %s: %w", draftID, err)
	}
	return &rec, nil
}

// UpdateDraftContent overwrites the stored draft body.
func (s *SQLiteStore) UpdateDraftContent(ctx context.Context, draftID string, draft *domain.Draft) error {
	body, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", draftID, err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE drafts SET draft_json = ? WHERE draft_id = ?`,
		string(body), draftID,
	)
	if err != nil {
		return fmt.Errorf("update draft %s: %w", draftID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update draft %s: %w", draftID, err)
	}
	if affected == 0 {
		return fmt.Errorf("draft %s: %w", draftID, apperrors.ErrNotFound)
	}
	return nil
}

// InsertSession stores a new reading session.
func (s *SQLiteStore) InsertSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, draft_id, client_token, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.SessionID, sess.DraftID, sess.ClientToken, string(sess.Status), sess.CreatedAt.Unix(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("session for draft %s: %w", sess.DraftID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("insert session %s: %w", sess.SessionID, err)
	}
	return nil
}

// GetSession returns a session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.scanSession(s.db.QueryRowContext(ctx,
		`SELECT session_id, draft_id, client_token, status, created_at
		 FROM sessions WHERE session_id = ?`, sessionID,
	), sessionID)
}

// GetSessionByKey returns the session for the (draft, client token) pair.
func (s *SQLiteStore) GetSessionByKey(ctx context.Context, draftID, clientToken string) (*domain.Session, error) {
	return s.scanSession(s.db.QueryRowContext(ctx,
		`SELECT session_id, draft_id, client_token, status, created_at
		 FROM sessions WHERE draft_id = ? AND client_token = ?`, draftID, clientToken,
	), draftID+"/"+clientToken)
}

func (s *SQLiteStore) scanSession(row *sql.Row, key string) (*domain.Session, error) {
	var (
		sess      domain.Session
		status    string
		createdAt int64
	)
	err := row.Scan(&sess.SessionID, &sess.DraftID, &sess.ClientToken, &status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", key, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session %s: %w", key, err)
	}
	sess.Status = domain.SessionStatus(status)
	sess.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &sess, nil
}

// InsertTelemetryEvent inserts an event unless its event_id already exists.
func (s *SQLiteStore) InsertTelemetryEvent(ctx context.Context, ev *domain.TelemetryEvent) (bool, error) {
	var payload sql.NullString
	if ev.Payload != nil {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			return false, fmt.Errorf("marshal payload for event %s: %w", ev.EventID, err)
		}
		payload = sql.NullString{String: string(raw), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO telemetry_events
		 (event_id, session_id, draft_id, page_id, event_type, payload, ts_client_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(event_id) DO NOTHING`,
		ev.EventID, ev.SessionID, nullable(ev.StoryID), nullable(ev.PageID),
		ev.EventType, payload, ev.TsClientMs, time.Now().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("insert telemetry event %s: %w", ev.EventID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert telemetry event %s: %w", ev.EventID, err)
	}
	return affected > 0, nil
}

// DeleteTelemetryEventsBefore removes telemetry rows older than cutoff.
func (s *SQLiteStore) DeleteTelemetryEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM telemetry_events WHERE created_at < ?`, cutoff.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete telemetry events before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return res.RowsAffected()
}

// InsertFeedback inserts the one-shot feedback row and transitions the
// session status in the same transaction.
func (s *SQLiteStore) InsertFeedback(ctx context.Context, fb *domain.Feedback) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT session_id FROM sessions WHERE session_id = ?`, fb.SessionID,
	).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("session %s: %w", fb.SessionID, apperrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check session %s: %w", fb.SessionID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO feedback (session_id, status, try_level, abort_reason, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		fb.SessionID, string(fb.Status), nullable(fb.TryLevel),
		nullable(fb.AbortReason), nullable(fb.Notes), fb.CreatedAt.Unix(),
	); err != nil {
		if isSQLiteUniqueViolation(err) {
			return fmt.Errorf("feedback for session %s: %w", fb.SessionID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("insert feedback for session %s: %w", fb.SessionID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE session_id = ?`,
		string(fb.Status), fb.SessionID,
	); err != nil {
		return fmt.Errorf("update session %s status: %w", fb.SessionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit feedback for session %s: %w", fb.SessionID, err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
