package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/oirs-service/internal/domain"
)

// CreateCaseRequest payload. Dates are YYYY-MM-DD.
type CreateCaseRequest struct {
	Folio           string              `json:"folio"`
	RequestType     string              `json:"request_type"`
	IntakeChannel   string              `json:"intake_channel"`
	Topic           string              `json:"topic"`
	SectorID        string              `json:"sector_id"`
	ReceivedAt      string              `json:"received_at"`
	DueAt           *string             `json:"due_at"`
	AllegedStaffIDs []string            `json:"alleged_staff_ids"`
	Response        domain.CaseResponse `json:"response"`
	Requester       domain.Requester    `json:"requester"`
	Notes           string              `json:"notes"`
}

// UpdateCaseRequest is a partial update; absent fields are left untouched.
// Instants accept RFC 3339 or YYYY-MM-DD.
type UpdateCaseRequest struct {
	Folio            *string              `json:"folio"`
	RequestType      *string              `json:"request_type"`
	IntakeChannel    *string              `json:"intake_channel"`
	Topic            *string              `json:"topic"`
	SectorID         *string              `json:"sector_id"`
	ReceivedAt       *string              `json:"received_at"`
	DueAt            *string              `json:"due_at"`
	RespondedAt      *string              `json:"responded_at"`
	ClearRespondedAt bool                 `json:"clear_responded_at"`
	Status           *string              `json:"status"`
	AllegedStaffIDs  *[]string            `json:"alleged_staff_ids"`
	Response         *domain.CaseResponsePatch `json:"response"`
	StaffReplyText   *string              `json:"staff_reply_text"`
	Requester        *domain.Requester    `json:"requester"`
	Notes            *string              `json:"notes"`
	// SLA is derived; a request that sets it is rejected.
	SLA json.RawMessage `json:"sla"`
}

// CaseActionRequest carries arguments for workflow actions.
type CaseActionRequest struct {
	RebuttalText string `json:"rebuttal_text"`
	ResponseType string `json:"response_type"`
}

// NoteRequest payload.
type NoteRequest struct {
	Text string `json:"text"`
}

// CaseResponse is the API view of a case.
type CaseResponse struct {
	ID                string               `json:"id"`
	Folio             string               `json:"folio"`
	RequestType       domain.RequestType   `json:"request_type"`
	IntakeChannel     domain.IntakeChannel `json:"intake_channel"`
	Topic             domain.Topic         `json:"topic"`
	SectorID          string               `json:"sector_id"`
	Status            domain.CaseStatus    `json:"status"`
	SLA               domain.SlaStatus     `json:"sla"`
	ReceivedAt        string               `json:"received_at"`
	DueAt             string               `json:"due_at"`
	RespondedAt       *time.Time           `json:"responded_at"`
	SentToStaffAt     *time.Time           `json:"sent_to_staff_at"`
	SentToDireccionAt *time.Time           `json:"sent_to_direccion_at"`
	StaffReplyAt      *time.Time           `json:"staff_reply_at"`
	DireccionReplyAt  *time.Time           `json:"direccion_reply_at"`
	AllegedStaffIDs   []string             `json:"alleged_staff_ids"`
	Response          domain.CaseResponse  `json:"response"`
	StaffReplyText    string               `json:"staff_reply_text,omitempty"`
	Files             domain.CaseFiles     `json:"files"`
	Requester         domain.Requester     `json:"requester"`
	Notes             string               `json:"notes,omitempty"`
	CreatedBy         string               `json:"created_by"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// CasePageResponse is one page of a listing.
type CasePageResponse struct {
	Items      []CaseResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// CaseEventResponse is one history entry.
type CaseEventResponse struct {
	ID      string               `json:"id"`
	Type    domain.CaseEventType `json:"type"`
	By      string               `json:"by"`
	At      time.Time            `json:"at"`
	Payload map[string]any       `json:"payload"`
}

// DueDateResponse answers a due-date preview.
type DueDateResponse struct {
	ReceivedAt   string `json:"received_at"`
	RequestType  string `json:"request_type"`
	BusinessDays int    `json:"business_days"`
	DueAt        string `json:"due_at"`
}
