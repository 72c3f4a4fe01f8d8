package domain

import "time"

// CaseEventType captures what happened to a case.
type CaseEventType string

const (
	EventStatusChange CaseEventType = "status_change"
	EventNote         CaseEventType = "note"
	EventFileUpload   CaseEventType = "file_upload"
	EventSendToStaff  CaseEventType = "send_to_staff"
)

// FileAction distinguishes file_upload events.
type FileAction string

const (
	FileActionUpload FileAction = "upload"
	FileActionRemove FileAction = "remove"
)

// CaseEvent is an immutable audit entry owned by one case.
type CaseEvent struct {
	ID      string
	CaseID  string
	Type    CaseEventType
	By      string
	At      time.Time
	Payload map[string]any
}

// NewStatusChangeEvent records a workflow move.
func NewStatusChangeEvent(by string, at time.Time, from, to CaseStatus) CaseEvent {
	return CaseEvent{
		Type: EventStatusChange,
		By:   by,
		At:   at,
		Payload: map[string]any{
			"from": string(from),
			"to":   string(to),
		},
	}
}

// NewFileEvent records an upload or removal in a file slot.
func NewFileEvent(by string, at time.Time, slot FileSlot, action FileAction, name string) CaseEvent {
	return CaseEvent{
		Type: EventFileUpload,
		By:   by,
		At:   at,
		Payload: map[string]any{
			"field":  string(slot),
			"action": string(action),
			"name":   name,
		},
	}
}

// NewNoteEvent records a free-text note.
func NewNoteEvent(by string, at time.Time, text string) CaseEvent {
	return CaseEvent{
		Type:    EventNote,
		By:      by,
		At:      at,
		Payload: map[string]any{"text": text},
	}
}
