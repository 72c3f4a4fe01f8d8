package domain

import "time"

// RequestType enumerates the kinds of citizen requests.
type RequestType string

const (
	RequestTypeReclamo      RequestType = "reclamo"
	RequestTypeSolicitud    RequestType = "solicitud"
	RequestTypeFelicitacion RequestType = "felicitacion"
	RequestTypeSugerencia   RequestType = "sugerencia"
	RequestTypeConsulta     RequestType = "consulta"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeReclamo, RequestTypeSolicitud, RequestTypeFelicitacion, RequestTypeSugerencia, RequestTypeConsulta:
		return true
	}
	return false
}

// IntakeChannel enumerates how a request reached the organization.
type IntakeChannel string

const (
	IntakeChannelPlataforma       IntakeChannel = "plataforma"
	IntakeChannelFormulario       IntakeChannel = "formulario"
	IntakeChannelSuperintendencia IntakeChannel = "superintendencia"
	IntakeChannelCorreo           IntakeChannel = "correo"
	IntakeChannelAloSantiago      IntakeChannel = "alo santiago"
	IntakeChannelCartaPresidente  IntakeChannel = "carta presidente"
	IntakeChannelOtro             IntakeChannel = "otro"
)

// Valid reports whether c is a known intake channel.
func (c IntakeChannel) Valid() bool {
	switch c {
	case IntakeChannelPlataforma, IntakeChannelFormulario, IntakeChannelSuperintendencia,
		IntakeChannelCorreo, IntakeChannelAloSantiago, IntakeChannelCartaPresidente, IntakeChannelOtro:
		return true
	}
	return false
}

// ResponseType is the channel used to deliver the final response.
type ResponseType string

const (
	ResponseTypeCorreo     ResponseType = "correo"
	ResponseTypeCarta      ResponseType = "carta"
	ResponseTypePlataforma ResponseType = "plataforma"
	ResponseTypeOtro       ResponseType = "otro"
)

// Valid reports whether r is a known response channel.
func (r ResponseType) Valid() bool {
	switch r {
	case ResponseTypeCorreo, ResponseTypeCarta, ResponseTypePlataforma, ResponseTypeOtro:
		return true
	}
	return false
}

// FileSlot names one of the three document slots on a case.
type FileSlot string

const (
	FileSlotCaseOriginal FileSlot = "caseOriginalFile"
	FileSlotStaffReply   FileSlot = "staffReplyFile"
	FileSlotResponseMain FileSlot = "responseMainFile"
)

// Valid reports whether s is a known slot.
func (s FileSlot) Valid() bool {
	switch s {
	case FileSlotCaseOriginal, FileSlotStaffReply, FileSlotResponseMain:
		return true
	}
	return false
}

// FileMeta describes a stored document.
type FileMeta struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Mime string `json:"mime"`
	Size int64  `json:"size"`
	URL  string `json:"url,omitempty"`
}

// CaseFiles holds the attachment slots.
type CaseFiles struct {
	CaseOriginal *FileMeta `json:"caseOriginalFile,omitempty"`
	StaffReply   *FileMeta `json:"staffReplyFile,omitempty"`
	ResponseMain *FileMeta `json:"responseMainFile,omitempty"`
}

// Get returns the file in slot, nil when empty.
func (f CaseFiles) Get(slot FileSlot) *FileMeta {
	switch slot {
	case FileSlotCaseOriginal:
		return f.CaseOriginal
	case FileSlotStaffReply:
		return f.StaffReply
	case FileSlotResponseMain:
		return f.ResponseMain
	}
	return nil
}

// Set replaces the file in slot; nil clears it.
func (f *CaseFiles) Set(slot FileSlot, meta *FileMeta) {
	switch slot {
	case FileSlotCaseOriginal:
		f.CaseOriginal = meta
	case FileSlotStaffReply:
		f.StaffReply = meta
	case FileSlotResponseMain:
		f.ResponseMain = meta
	}
}

// CaseResponse carries the narrative of the case and its answer.
type CaseResponse struct {
	Type         ResponseType `json:"type,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	CaseText     string       `json:"caseText,omitempty"`
	ResponseText string       `json:"responseText,omitempty"`
}

// CaseResponsePatch edits the response field by field. Nil fields are kept.
type CaseResponsePatch struct {
	Type         *ResponseType `json:"type"`
	Summary      *string       `json:"summary"`
	CaseText     *string       `json:"caseText"`
	ResponseText *string       `json:"responseText"`
}

// Apply merges the set fields onto r.
func (p CaseResponsePatch) Apply(r *CaseResponse) {
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.Summary != nil {
		r.Summary = *p.Summary
	}
	if p.CaseText != nil {
		r.CaseText = *p.CaseText
	}
	if p.ResponseText != nil {
		r.ResponseText = *p.ResponseText
	}
}

// Requester holds the citizen's contact details.
type Requester struct {
	Name            string `json:"name,omitempty"`
	Rut             string `json:"rut,omitempty"`
	Email           string `json:"email,omitempty"`
	Address         string `json:"address,omitempty"`
	Gender          string `json:"gender,omitempty"`
	MigratoryStatus string `json:"migratoryStatus,omitempty"`
}

// Case is the aggregate for a citizen service request.
type Case struct {
	ID            string
	Folio         string
	RequestType   RequestType
	IntakeChannel IntakeChannel
	Topic         Topic
	SectorID      string

	ReceivedAt        time.Time
	DueAt             time.Time
	RespondedAt       *time.Time
	SentToStaffAt     *time.Time
	SentToDireccionAt *time.Time
	StaffReplyAt      *time.Time
	DireccionReplyAt  *time.Time

	Status CaseStatus
	SLA    SlaStatus

	AllegedStaffIDs []string
	Response        CaseResponse
	StaffReplyText  string
	Files           CaseFiles
	Requester       Requester
	Notes           string

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefreshSLA recomputes the derived SLA field relative to now.
func (c *Case) RefreshSLA(now time.Time) {
	c.SLA = ClassifySLA(c.DueAt, c.RespondedAt, now)
}
