package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tastebook.io/tastebook/internal/domain"
	apperrors "tastebook.io/tastebook/internal/pkg/errors"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS drafts (
	draft_id        TEXT PRIMARY KEY,
	parent_draft_id TEXT,
	regen_count     INTEGER NOT NULL DEFAULT 0,
	draft_json      JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	draft_id     TEXT NOT NULL,
	client_token TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'READING',
	created_at   TIMESTAMPTZ NOT NULL,
	UNIQUE(draft_id, client_token)
);

CREATE TABLE IF NOT EXISTS telemetry_events (
	event_id     TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	draft_id     TEXT,
	page_id      TEXT,
	event_type   TEXT NOT NULL,
	payload      JSONB,
	ts_client_ms BIGINT,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	session_id   TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	try_level    TEXT,
	abort_reason TEXT,
	notes        TEXT,
	created_at   TIMESTAMPTZ NOT NULL
);
`

// PostgresStore implements Store on a shared pgx connection pool. The pool
// is owned by the caller (it is also handed to River) and is not closed by
// Close.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres wraps an existing pool and ensures the schema exists.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// InsertDraft stores a root draft.
func (s *PostgresStore) InsertDraft(ctx context.Context, rec *domain.DraftRecord) error {
	body, err := json.Marshal(rec.Draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", rec.DraftID, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO drafts (draft_id, parent_draft_id, regen_count, draft_json, created_at)
		 VALUES ($1, NULL, 0, $2, $3)`,
		rec.DraftID, body, rec.CreatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return fmt.Errorf("draft %s: %w", rec.DraftID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("insert draft %s: %w", rec.DraftID, err)
	}
	return nil
}

// InsertRegeneratedDraft inserts a child draft and bumps the parent's
// regen_count in one transaction, re-checking the quota under the row lock.
func (s *PostgresStore) InsertRegeneratedDraft(ctx context.Context, rec *domain.DraftRecord) error {
	body, err := json.Marshal(rec.Draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", rec.DraftID, err)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE drafts SET regen_count = regen_count + 1
			 WHERE draft_id = $1 AND regen_count < $2`,
			rec.ParentDraftID, domain.RegenLimit,
		)
		if err != nil {
			return fmt.Errorf("bump regen_count for %s: %w", rec.ParentDraftID, err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM drafts WHERE draft_id = $1)`, rec.ParentDraftID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("check parent draft %s: %w", rec.ParentDraftID, err)
			}
			if !exists {
				return fmt.Errorf("parent draft %s: %w", rec.ParentDraftID, apperrors.ErrNotFound)
			}
			return fmt.Errorf("parent draft %s: %w", rec.ParentDraftID, apperrors.ErrQuotaExhausted)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO drafts (draft_id, parent_draft_id, regen_count, draft_json, created_at)
			 VALUES ($1, $2, 0, $3, $4)`,
			rec.DraftID, rec.ParentDraftID, body, rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert draft %s: %w", rec.DraftID, err)
		}
		return nil
	})
}

// GetDraft returns a stored draft record by id.
func (s *PostgresStore) GetDraft(ctx context.Context, draftID string) (*domain.DraftRecord, error) {
	var (
		rec      domain.DraftRecord
		parentID *string
		body     []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT draft_id, parent_draft_id, regen_count, draft_json, created_at
		 FROM drafts WHERE draft_id = $1`, draftID,
	).Scan(&rec.DraftID, &parentID, &rec.RegenCount, &body, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", draftID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan draft %s: %w", draftID, err)
	}

	if parentID != nil {
		rec.ParentDraftID = *parentID
	}
	rec.Draft = &domain.Draft{}
	if err := json.Unmarshal(body, rec.Draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft %s: %w", draftID, err)
	}
	return &rec, nil
}

// UpdateDraftContent overwrites the stored draft body.
func (s *PostgresStore) UpdateDraftContent(ctx context.Context, draftID string, draft *domain.Draft) error {
	body, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", draftID, err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE drafts SET draft_json = $1 WHERE draft_id = $2`, body, draftID,
	)
	if err != nil {
		return fmt.Errorf("update draft %s: %w", draftID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("draft %s: %w", draftID, apperrors.ErrNotFound)
	}
	return nil
}

// InsertSession stores a new reading session.
func (s *PostgresStore) InsertSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (session_id, draft_id, client_token, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sess.SessionID, sess.DraftID, sess.ClientToken, string(sess.Status), sess.CreatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return fmt.Errorf("session for draft %s: %w", sess.DraftID, apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("insert session %s: %w", sess.SessionID, err)
	}
	return nil
}

// GetSession returns a session by id.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.scanSession(ctx,
		`SELECT session_id, draft_id, client_token, status, created_at
		 FROM sessions WHERE session_id = $1`, sessionID)
}

// GetSessionByKey returns the session for the (draft, client token) pair.
func (s *PostgresStore) GetSessionByKey(ctx context.Context, draftID, clientToken string) (*domain.Session, error) {
	return s.scanSession(ctx,
		`SELECT session_id, draft_id, client_token, status, created_at
		 FROM sessions WHERE draft_id = $1 AND client_token = $2`, draftID, clientToken)
}

func (s *PostgresStore) scanSession(ctx context.Context, query string, args ...any) (*domain.Session, error) {
	var (
		sess   domain.Session
		status string
	)
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&sess.SessionID, &sess.DraftID, &sess.ClientToken, &status, &sess.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.Status = domain.SessionStatus(status)
	return &sess, nil
}

// InsertTelemetryEvent inserts an event unless its event_id already exists.
func (s *PostgresStore) InsertTelemetryEvent(ctx context.Context, ev *domain.TelemetryEvent) (bool, error) {
	var payload []byte
	if ev.Payload != nil {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			return false, fmt.Errorf("marshal payload for event %s: %w", ev.EventID, err)
		}
		payload = raw
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO telemetry_events
		 (event_id, session_id, draft_id, page_id, event_type, payload, ts_client_ms, created_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8)
		 ON CONFLICT (event_id) DO NOTHING`,
		ev.EventID, ev.SessionID, ev.StoryID, ev.PageID,
		ev.EventType, payload, ev.TsClientMs, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert telemetry event %s: %w", ev.EventID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteTelemetryEventsBefore removes telemetry rows older than cutoff.
func (s *PostgresStore) DeleteTelemetryEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM telemetry_events WHERE created_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete telemetry events before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// InsertFeedback inserts the one-shot feedback row and transitions the
// session status in the same transaction.
func (s *PostgresStore) InsertFeedback(ctx context.Context, fb *domain.Feedback) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM sessions WHERE session_id = $1)`, fb.SessionID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check session %s: %w", fb.SessionID, err)
		}
		if !exists {
			return fmt.Errorf("session %s: %w", fb.SessionID, apperrors.ErrNotFound)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO feedback (session_id, status, try_level, abort_reason, notes, created_at)
			 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)`,
			fb.SessionID, string(fb.Status), fb.TryLevel, fb.AbortReason, fb.Notes, fb.CreatedAt,
		); err != nil {
			if isPgUniqueViolation(err) {
				return fmt.Errorf("feedback for session %s: %w", fb.SessionID, apperrors.ErrAlreadyExists)
			}
			return fmt.Errorf("insert feedback for session %s: %w", fb.SessionID, err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE sessions SET status = $1 WHERE session_id = $2`,
			string(fb.Status), fb.SessionID,
		); err != nil {
			return fmt.Errorf("update session %s status: %w", fb.SessionID, err)
		}
		return nil
	})
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close is a no-op: the shared pool is owned by the infrastructure layer.
func (s *PostgresStore) Close() error {
	return nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
