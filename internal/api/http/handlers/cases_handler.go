package handlers

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oirs-service/internal/api/dto"
	"github.com/spec-kit/oirs-service/internal/auth"
	"github.com/spec-kit/oirs-service/internal/calendar"
	"github.com/spec-kit/oirs-service/internal/domain"
	"github.com/spec-kit/oirs-service/internal/repository"
	"github.com/spec-kit/oirs-service/internal/service"
	"github.com/spec-kit/oirs-service/internal/workflow"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

// CasesHandler serves case intake, edits, workflow actions, files and history.
type CasesHandler struct {
	service *service.CaseService
}

// NewCasesHandler constructs handler.
func NewCasesHandler(caseService *service.CaseService) *CasesHandler {
	return &CasesHandler{service: caseService}
}

// CreateCase POST /cases.
func (h *CasesHandler) CreateCase(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	receivedAt, err := calendar.ParseDate(req.ReceivedAt)
	if err != nil {
		return err
	}
	input := service.CaseCreateInput{
		Folio:           req.Folio,
		RequestType:     domain.RequestType(req.RequestType),
		IntakeChannel:   domain.IntakeChannel(req.IntakeChannel),
		Topic:           req.Topic,
		SectorID:        req.SectorID,
		ReceivedAt:      receivedAt,
		AllegedStaffIDs: req.AllegedStaffIDs,
		Response:        req.Response,
		Requester:       req.Requester,
		Notes:           req.Notes,
	}
	if req.DueAt != nil && *req.DueAt != "" {
		due, err := calendar.ParseDate(*req.DueAt)
		if err != nil {
			return err
		}
		input.DueAt = &due
	}

	created, err := h.service.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": caseResponse(created)})
}

// ListCases GET /cases.
func (h *CasesHandler) ListCases(c *fiber.Ctx) error {
	filter, err := parseCaseFilter(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), filter, parseInt(c.Query("page_size"), repository.DefaultPageSize), c.Query("cursor"))
	if err != nil {
		return err
	}
	resp := dto.CasePageResponse{Items: caseResponses(page.Items), NextCursor: page.NextCursor}
	return c.JSON(fiber.Map{"data": resp})
}

// ExportCases GET /cases/export.
func (h *CasesHandler) ExportCases(c *fiber.Ctx) error {
	filter, err := parseCaseFilter(c)
	if err != nil {
		return err
	}
	cases, err := h.service.ListAll(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponses(cases)})
}

// GetCase GET /cases/:id.
func (h *CasesHandler) GetCase(c *fiber.Ctx) error {
	found, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(found)})
}

// UpdateCase PATCH /cases/:id.
func (h *CasesHandler) UpdateCase(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch, err := casePatch(req)
	if err != nil {
		return err
	}
	updated, err := h.service.Update(c.UserContext(), actor, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// DeleteCase DELETE /cases/:id.
func (h *CasesHandler) DeleteCase(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RunAction POST /cases/:id/actions/:action.
func (h *CasesHandler) RunAction(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	action, err := workflow.ParseAction(c.Params("action"))
	if err != nil {
		return err
	}
	var req dto.CaseActionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	updated, err := h.service.Advance(c.UserContext(), actor, c.Params("id"), action, workflow.Input{
		RebuttalText: req.RebuttalText,
		ResponseType: domain.ResponseType(req.ResponseType),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// ListEvents GET /cases/:id/events.
func (h *CasesHandler) ListEvents(c *fiber.Ctx) error {
	history, err := h.service.ListEvents(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CaseEventResponse, 0, len(history))
	for i := range history {
		items = append(items, caseEventResponse(&history[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddNote POST /cases/:id/notes.
func (h *CasesHandler) AddNote(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	note, err := h.service.AddNote(c.UserContext(), actor, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": caseEventResponse(note)})
}

// UploadFile PUT /cases/:id/files/:slot with a multipart "file" field.
func (h *CasesHandler) UploadFile(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart field \"file\" required", nil)
	}
	f, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	updated, err := h.service.AttachFile(c.UserContext(), actor, c.Params("id"), domain.FileSlot(c.Params("slot")), service.FileUpload{
		Name: header.Filename,
		Mime: header.Header.Get("Content-Type"),
		Body: body,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// RemoveFile DELETE /cases/:id/files/:slot.
func (h *CasesHandler) RemoveFile(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	updated, err := h.service.RemoveFile(c.UserContext(), actor, c.Params("id"), domain.FileSlot(c.Params("slot")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseResponse(updated)})
}

// DueDate GET /due-date?received_at=YYYY-MM-DD&request_type=...
func (h *CasesHandler) DueDate(c *fiber.Ctx) error {
	receivedAt, err := calendar.ParseDate(c.Query("received_at"))
	if err != nil {
		return err
	}
	requestType := domain.RequestType(c.Query("request_type"))
	due, err := h.service.PreviewDueDate(c.UserContext(), receivedAt, requestType)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DueDateResponse{
		ReceivedAt:   receivedAt.Format(calendar.DateLayout),
		RequestType:  string(requestType),
		BusinessDays: calendar.BusinessDaysFor(requestType),
		DueAt:        due.Format(calendar.DateLayout),
	}})
}

func parseCaseFilter(c *fiber.Ctx) (repository.CaseFilter, error) {
	filter := repository.CaseFilter{
		SectorID:    strings.TrimSpace(c.Query("sector_id")),
		RequestType: domain.RequestType(c.Query("request_type")),
		Status:      domain.CaseStatus(strings.ToUpper(c.Query("status"))),
		StaffID:     strings.TrimSpace(c.Query("staff_id")),
		FolioPrefix: c.Query("folio"),
		SLA:         domain.SlaStatus(strings.ToUpper(c.Query("sla"))),
	}
	if v := c.Query("received_from"); v != "" {
		from, err := calendar.ParseDate(v)
		if err != nil {
			return filter, err
		}
		filter.ReceivedFrom = &from
	}
	if v := c.Query("received_to"); v != "" {
		to, err := calendar.ParseDate(v)
		if err != nil {
			return filter, err
		}
		filter.ReceivedTo = &to
	}
	return filter, filter.Validate()
}

func casePatch(req dto.UpdateCaseRequest) (domain.CasePatch, error) {
	if len(req.SLA) > 0 && string(req.SLA) != "null" {
		return domain.CasePatch{}, apperrors.NewValidationError("sla is derived and cannot be set", nil)
	}
	patch := domain.CasePatch{
		Folio:            req.Folio,
		SectorID:         req.SectorID,
		ClearRespondedAt: req.ClearRespondedAt,
		AllegedStaffIDs:  req.AllegedStaffIDs,
		Response:         req.Response,
		StaffReplyText:   req.StaffReplyText,
		Requester:        req.Requester,
		Notes:            req.Notes,
	}
	if req.RequestType != nil {
		rt := domain.RequestType(*req.RequestType)
		patch.RequestType = &rt
	}
	if req.IntakeChannel != nil {
		ic := domain.IntakeChannel(*req.IntakeChannel)
		patch.IntakeChannel = &ic
	}
	if req.Status != nil {
		st := domain.CaseStatus(strings.ToUpper(*req.Status))
		patch.Status = &st
	}
	if req.Topic != nil {
		topic := domain.TopicNotApplicable
		if name := strings.TrimSpace(*req.Topic); name != "" {
			parsed, err := domain.SpecificTopic(name)
			if err != nil {
				return patch, apperrors.NewValidationError("unknown topic", map[string]any{"topic": name})
			}
			topic = parsed
		}
		patch.Topic = &topic
	}

	var err error
	if patch.ReceivedAt, err = optionalInstant(req.ReceivedAt); err != nil {
		return patch, err
	}
	if patch.DueAt, err = optionalInstant(req.DueAt); err != nil {
		return patch, err
	}
	if patch.RespondedAt, err = optionalInstant(req.RespondedAt); err != nil {
		return patch, err
	}
	return patch, nil
}

// optionalInstant accepts RFC 3339 or a bare date.
func optionalInstant(v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := calendar.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func caseResponses(cases []domain.Case) []dto.CaseResponse {
	items := make([]dto.CaseResponse, 0, len(cases))
	for i := range cases {
		items = append(items, caseResponse(&cases[i]))
	}
	return items
}

func caseResponse(c *domain.Case) dto.CaseResponse {
	staff := c.AllegedStaffIDs
	if staff == nil {
		staff = []string{}
	}
	return dto.CaseResponse{
		ID:                c.ID,
		Folio:             c.Folio,
		RequestType:       c.RequestType,
		IntakeChannel:     c.IntakeChannel,
		Topic:             c.Topic,
		SectorID:          c.SectorID,
		Status:            c.Status,
		SLA:               c.SLA,
		ReceivedAt:        c.ReceivedAt.UTC().Format(calendar.DateLayout),
		DueAt:             c.DueAt.UTC().Format(calendar.DateLayout),
		RespondedAt:       c.RespondedAt,
		SentToStaffAt:     c.SentToStaffAt,
		SentToDireccionAt: c.SentToDireccionAt,
		StaffReplyAt:      c.StaffReplyAt,
		DireccionReplyAt:  c.DireccionReplyAt,
		AllegedStaffIDs:   staff,
		Response:          c.Response,
		StaffReplyText:    c.StaffReplyText,
		Files:             c.Files,
		Requester:         c.Requester,
		Notes:             c.Notes,
		CreatedBy:         c.CreatedBy,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func caseEventResponse(e *domain.CaseEvent) dto.CaseEventResponse {
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return dto.CaseEventResponse{
		ID:      e.ID,
		Type:    e.Type,
		By:      e.By,
		At:      e.At,
		Payload: payload,
	}
}
