package domain

import (
	"fmt"
	"time"
)

// Feedback is the one-shot terminal report for a session. Exactly one row
// may exist per session; it is never updated in place.
type Feedback struct {
	SessionID   string
	Status      SessionStatus
	TryLevel    string
	AbortReason string
	Notes       string
	CreatedAt   time.Time
}

// Validate enforces the conditional field contract: COMPLETED requires
// try_level, ABORTED requires abort_reason. Nothing is silently defaulted.
func (f *Feedback) Validate() error {
	switch f.Status {
	case SessionCompleted:
		if f.TryLevel == "" {
			return fmt.Errorf("try_level is required when status is %s", SessionCompleted)
		}
	case SessionAborted:
		if f.AbortReason == "" {
			return fmt.Errorf("abort_reason is required when status is %s", SessionAborted)
		}
	default:
		return fmt.Errorf("status must be %s or %s, got %q", SessionCompleted, SessionAborted, f.Status)
	}
	return nil
}
