package domain

import "time"

// SessionStatus is the reading session lifecycle state.
type SessionStatus string

const (
	// SessionReading is the initial state set at session start.
	SessionReading SessionStatus = "READING"

	// SessionCompleted and SessionAborted are terminal; they are only set
	// by a feedback submission, in the same transaction as the feedback row.
	SessionCompleted SessionStatus = "COMPLETED"
	SessionAborted   SessionStatus = "ABORTED"
)

// Session is one reader's pass over a draft. (DraftID, ClientToken) is the
// idempotency key: repeated start calls for the same pair return the same
// session instead of creating a new one.
type Session struct {
	SessionID   string
	DraftID     string
	ClientToken string
	Status      SessionStatus
	CreatedAt   time.Time
}
