// Package repository is the persistent draft store: transactional CRUD over
// draft, session, telemetry, and feedback records.
//
// The store is the single source of truth and the only shared mutable
// resource in the system. Every multi-write operation here is one
// transaction; conflict resolution is pushed into the database (unique
// constraints, conditional updates) rather than application-level locks.
//
// Two backends implement Store: SQLite (embedded, single node) and
// PostgreSQL (production, also hosts the River maintenance queue).
package repository

import (
	"context"
	"time"

	"tastebook.io/tastebook/internal/domain"
)

// Store is the persistence contract consumed by the use case layer.
//
// Error conventions: absent rows yield errors wrapping apperrors.ErrNotFound,
// uniqueness conflicts wrap apperrors.ErrAlreadyExists, and an exhausted
// regeneration quota wraps apperrors.ErrQuotaExhausted.
type Store interface {
	// InsertDraft stores a freshly generated root draft.
	InsertDraft(ctx context.Context, rec *domain.DraftRecord) error

	// InsertRegeneratedDraft atomically inserts a child draft and increments
	// the parent's regen_count, guarded by domain.RegenLimit. Both writes
	// succeed or both fail; a concurrent regeneration racing past the use
	// case pre-check is stopped here.
	InsertRegeneratedDraft(ctx context.Context, rec *domain.DraftRecord) error

	// GetDraft returns the stored draft record by id.
	GetDraft(ctx context.Context, draftID string) (*domain.DraftRecord, error)

	// UpdateDraftContent overwrites the stored draft body in a single write.
	// Lineage columns (parent, regen_count) are untouched: enrichment merges
	// and the quota bump deliberately operate on disjoint fields.
	UpdateDraftContent(ctx context.Context, draftID string, draft *domain.Draft) error

	// InsertSession stores a new session; (draft_id, client_token)
	// uniqueness is enforced by the store.
	InsertSession(ctx context.Context, s *domain.Session) error

	// GetSession returns a session by id.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// GetSessionByKey returns the session for the idempotency pair.
	GetSessionByKey(ctx context.Context, draftID, clientToken string) (*domain.Session, error)

	// InsertTelemetryEvent inserts the event if its event_id is new and
	// reports whether a row was written. Duplicates are absorbed silently.
	InsertTelemetryEvent(ctx context.Context, ev *domain.TelemetryEvent) (inserted bool, err error)

	// DeleteTelemetryEventsBefore removes events older than cutoff and
	// returns the number of deleted rows. Used by retention maintenance.
	DeleteTelemetryEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// InsertFeedback atomically inserts the one-shot feedback row and
	// transitions the session status to match.
	InsertFeedback(ctx context.Context, fb *domain.Feedback) error

	// Ping verifies connectivity for readiness checks.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
