package domain

import "fmt"

// RecommendedTelemetryEvents is attached to every assembled draft so the
// client knows which event types the backend expects.
var RecommendedTelemetryEvents = []string{
	"page_view",
	"page_dwell",
	"interaction",
	"branch_select",
	"story_complete",
}

// TelemetryEvent is a client-reported reading event. EventID is caller
// supplied and is the idempotency key: at most one stored row per EventID.
type TelemetryEvent struct {
	EventID       string                 `json:"event_id"`
	SchemaVersion string                 `json:"schema_version,omitempty"`
	TsClientMs    int64                  `json:"ts_client_ms"`
	SessionID     string                 `json:"session_id"`
	StoryID       string                 `json:"story_id,omitempty"`
	PageID        string                 `json:"page_id,omitempty"`
	EventType     string                 `json:"event_type"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}

// Validate checks the structural minimum an event needs before storage.
func (e *TelemetryEvent) Validate() error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if e.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	return nil
}
