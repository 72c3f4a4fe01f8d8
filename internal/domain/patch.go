package domain

import "time"

// CasePatch is a partial update. Nil fields are left untouched.
type CasePatch struct {
	Folio         *string
	RequestType   *RequestType
	IntakeChannel *IntakeChannel
	Topic         *Topic
	SectorID      *string

	ReceivedAt        *time.Time
	DueAt             *time.Time
	RespondedAt       *time.Time
	ClearRespondedAt  bool
	SentToStaffAt     *time.Time
	SentToDireccionAt *time.Time
	StaffReplyAt      *time.Time
	DireccionReplyAt  *time.Time

	// Status must be the successor of the stored status.
	Status *CaseStatus
	// ExpectStatus, when set, makes the update fail unless the stored status
	// still equals it when the write happens.
	ExpectStatus *CaseStatus

	AllegedStaffIDs *[]string
	Response        *CaseResponsePatch
	ResponseType    *ResponseType
	StaffReplyText  *string
	Files           map[FileSlot]*FileMeta
	Requester       *Requester
	Notes           *string
}

// TouchesDeadline reports whether the patch changes an input of the SLA.
func (p CasePatch) TouchesDeadline() bool {
	return p.DueAt != nil || p.RespondedAt != nil || p.ClearRespondedAt
}

// Apply copies the patch onto c. Status and SLA rules are enforced by the
// repository, not here.
func (p CasePatch) Apply(c *Case) {
	if p.Folio != nil {
		c.Folio = *p.Folio
	}
	if p.RequestType != nil {
		c.RequestType = *p.RequestType
	}
	if p.IntakeChannel != nil {
		c.IntakeChannel = *p.IntakeChannel
	}
	if p.Topic != nil {
		c.Topic = *p.Topic
	}
	if p.SectorID != nil {
		c.SectorID = *p.SectorID
	}
	if p.ReceivedAt != nil {
		c.ReceivedAt = *p.ReceivedAt
	}
	if p.DueAt != nil {
		c.DueAt = *p.DueAt
	}
	if p.ClearRespondedAt {
		c.RespondedAt = nil
	} else if p.RespondedAt != nil {
		t := *p.RespondedAt
		c.RespondedAt = &t
	}
	c.SentToStaffAt = pickTime(p.SentToStaffAt, c.SentToStaffAt)
	c.SentToDireccionAt = pickTime(p.SentToDireccionAt, c.SentToDireccionAt)
	c.StaffReplyAt = pickTime(p.StaffReplyAt, c.StaffReplyAt)
	c.DireccionReplyAt = pickTime(p.DireccionReplyAt, c.DireccionReplyAt)
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.AllegedStaffIDs != nil {
		c.AllegedStaffIDs = append([]string(nil), (*p.AllegedStaffIDs)...)
	}
	if p.Response != nil {
		p.Response.Apply(&c.Response)
	}
	if p.ResponseType != nil {
		c.Response.Type = *p.ResponseType
	}
	if p.StaffReplyText != nil {
		c.StaffReplyText = *p.StaffReplyText
	}
	for slot, meta := range p.Files {
		c.Files.Set(slot, meta)
	}
	if p.Requester != nil {
		c.Requester = *p.Requester
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
}

func pickTime(next, current *time.Time) *time.Time {
	if next == nil {
		return current
	}
	t := *next
	return &t
}
