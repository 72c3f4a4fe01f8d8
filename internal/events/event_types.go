package events

import (
	"time"

	"github.com/spec-kit/oirs-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseCreated       EventType = "case_created"
	EventCaseStatusChanged EventType = "case_status_changed"
	EventCaseFileChanged   EventType = "case_file_changed"
	EventCaseNoteAdded     EventType = "case_note_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	CaseID    string    `json:"case_id"`
	Folio     string    `json:"folio"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// CaseCreatedPayload payload.
type CaseCreatedPayload struct {
	RequestType domain.RequestType `json:"request_type"`
	SectorID    string             `json:"sector_id"`
	DueAt       time.Time          `json:"due_at"`
}

// CaseStatusChangedPayload payload.
type CaseStatusChangedPayload struct {
	Action    string            `json:"action,omitempty"`
	OldStatus domain.CaseStatus `json:"old_status"`
	NewStatus domain.CaseStatus `json:"new_status"`
}

// CaseFileChangedPayload payload.
type CaseFileChangedPayload struct {
	Slot   domain.FileSlot   `json:"slot"`
	Action domain.FileAction `json:"action"`
	Name   string            `json:"name"`
}

// CaseNoteAddedPayload payload.
type CaseNoteAddedPayload struct {
	Preview string `json:"preview"`
}
