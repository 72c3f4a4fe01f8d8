package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/oirs-service/internal/calendar"
	"github.com/spec-kit/oirs-service/internal/domain"
	"github.com/spec-kit/oirs-service/internal/events"
	"github.com/spec-kit/oirs-service/internal/repository"
	"github.com/spec-kit/oirs-service/internal/storage"
	"github.com/spec-kit/oirs-service/internal/workflow"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

// HolidaySource resolves the holidays that apply to a due date computed from
// receivedAt. *holidays.Resolver satisfies it.
type HolidaySource interface {
	ForDueDate(ctx context.Context, receivedAt time.Time) calendar.HolidaySet
}

// CaseService coordinates case intake, edits and the response workflow.
type CaseService struct {
	cases      repository.CaseRepository
	history    repository.CaseEventRepository
	sectors    repository.SectorRepository
	staff      repository.StaffRepository
	holidays   HolidaySource
	calculator calendar.Calculator
	files      storage.FileStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// CaseDependencies bundles collaborators for the case service.
type CaseDependencies struct {
	CaseRepo   repository.CaseRepository
	EventRepo  repository.CaseEventRepository
	SectorRepo repository.SectorRepository
	StaffRepo  repository.StaffRepository
	Holidays   HolidaySource
	Calculator calendar.Calculator
	Files      storage.FileStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewCaseService constructs the service.
func NewCaseService(deps CaseDependencies) *CaseService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	files := deps.Files
	if files == nil {
		files = storage.NoopStore{}
	}
	return &CaseService{
		cases:      deps.CaseRepo,
		history:    deps.EventRepo,
		sectors:    deps.SectorRepo,
		staff:      deps.StaffRepo,
		holidays:   deps.Holidays,
		calculator: calendar.NewCalculator(deps.Calculator.Weekend),
		files:      files,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// CaseCreateInput describes a new case. Folio and DueAt are optional.
type CaseCreateInput struct {
	Folio           string
	RequestType     domain.RequestType
	IntakeChannel   domain.IntakeChannel
	Topic           string
	SectorID        string
	ReceivedAt      time.Time
	DueAt           *time.Time
	AllegedStaffIDs []string
	Response        domain.CaseResponse
	Requester       domain.Requester
	Notes           string
}

// FileUpload is a document to place in a case slot.
type FileUpload struct {
	Name string
	Mime string
	Body []byte
}

// Create validates the classification, computes the due date and stores the case.
func (s *CaseService) Create(ctx context.Context, actor string, input CaseCreateInput) (*domain.Case, error) {
	if !input.RequestType.Valid() {
		return nil, apperrors.NewValidationError("invalid request_type", map[string]any{"request_type": string(input.RequestType)})
	}
	if !input.IntakeChannel.Valid() {
		return nil, apperrors.NewValidationError("invalid intake_channel", map[string]any{"intake_channel": string(input.IntakeChannel)})
	}
	if strings.TrimSpace(input.SectorID) == "" {
		return nil, apperrors.NewValidationError("sector_id required", nil)
	}
	if input.ReceivedAt.IsZero() {
		return nil, apperrors.NewValidationError("received_at required", nil)
	}
	topic, err := resolveTopic(input.RequestType, input.Topic)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, &input.SectorID, input.AllegedStaffIDs); err != nil {
		return nil, err
	}

	receivedAt := calendar.Day(input.ReceivedAt)
	var dueAt time.Time
	if input.DueAt != nil {
		dueAt = calendar.Day(*input.DueAt)
	} else {
		dueAt, err = s.dueDate(ctx, receivedAt, input.RequestType)
		if err != nil {
			return nil, err
		}
	}

	c := &domain.Case{
		Folio:           input.Folio,
		RequestType:     input.RequestType,
		IntakeChannel:   input.IntakeChannel,
		Topic:           topic,
		SectorID:        input.SectorID,
		ReceivedAt:      receivedAt,
		DueAt:           dueAt,
		AllegedStaffIDs: input.AllegedStaffIDs,
		Response:        input.Response,
		Requester:       input.Requester,
		Notes:           input.Notes,
		CreatedBy:       actor,
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventCaseCreated, c, actor, events.CaseCreatedPayload{
		RequestType: c.RequestType,
		SectorID:    c.SectorID,
		DueAt:       c.DueAt,
	})
	return c, nil
}

// Get returns a case with its SLA derived from the current clock.
func (s *CaseService) Get(ctx context.Context, id string) (*domain.Case, error) {
	return s.cases.Get(ctx, id)
}

// List returns one page of cases.
func (s *CaseService) List(ctx context.Context, filter repository.CaseFilter, pageSize int, cursor string) (repository.CasePage, error) {
	return s.cases.List(ctx, filter, pageSize, cursor)
}

// ListAll returns every case matching filter.
func (s *CaseService) ListAll(ctx context.Context, filter repository.CaseFilter) ([]domain.Case, error) {
	return s.cases.ListAll(ctx, filter)
}

// Update applies a generic edit. The due date is never recomputed here. A
// status change runs the workflow step it names, so it must be the next step
// and it stamps the same milestones and history as the matching action.
func (s *CaseService) Update(ctx context.Context, actor, id string, patch domain.CasePatch) (*domain.Case, error) {
	current, err := s.cases.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.normalizePatch(ctx, current, &patch); err != nil {
		return nil, err
	}

	var step *workflow.Transition
	if patch.Status != nil {
		if *patch.Status == current.Status {
			patch.Status = nil
		} else {
			plan, err := planStatusEdit(current, patch, actor, s.now())
			if err != nil {
				return nil, err
			}
			plan.Overlay(&patch)
			step = &plan
		}
	}

	updated, err := s.cases.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if step != nil {
		s.appendEvents(ctx, id, step.Events...)
		s.publish(ctx, events.EventCaseStatusChanged, updated, actor, events.CaseStatusChangedPayload{
			Action:    string(step.Action),
			OldStatus: step.From,
			NewStatus: step.To,
		})
	}
	return updated, nil
}

// planStatusEdit maps a requested status to its workflow action. Arguments the
// action needs come from the same edit, falling back to what the case holds.
func planStatusEdit(current *domain.Case, patch domain.CasePatch, actor string, now time.Time) (workflow.Transition, error) {
	target := *patch.Status
	action, ok := workflow.ActionFor(target)
	if !ok {
		return workflow.Transition{}, apperrors.NewStateTransition(string(current.Status), string(target))
	}
	in := workflow.Input{ResponseType: current.Response.Type}
	if patch.Response != nil && patch.Response.Type != nil {
		in.ResponseType = *patch.Response.Type
	}
	if patch.StaffReplyText != nil {
		in.RebuttalText = *patch.StaffReplyText
	}
	return workflow.Plan(current.Status, action, in, actor, now)
}

// Delete removes the case, its folio and its history. Stored documents are
// removed afterwards on a best-effort basis.
func (s *CaseService) Delete(ctx context.Context, id string) error {
	current, err := s.cases.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.cases.Delete(ctx, id); err != nil {
		return err
	}
	for _, slot := range fileSlots {
		if meta := current.Files.Get(slot); meta != nil {
			s.deleteObject(ctx, id, meta.Path)
		}
	}
	return nil
}

// Advance runs a workflow action. The write is guarded on the status the plan
// was made from, so a concurrent action on the same case fails with a state
// transition error.
func (s *CaseService) Advance(ctx context.Context, actor, id string, action workflow.Action, input workflow.Input) (*domain.Case, error) {
	current, err := s.cases.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := workflow.Plan(current.Status, action, input, actor, s.now())
	if err != nil {
		return nil, err
	}
	updated, err := s.cases.Update(ctx, id, plan.Patch)
	if err != nil {
		return nil, err
	}

	s.appendEvents(ctx, id, plan.Events...)
	s.publish(ctx, events.EventCaseStatusChanged, updated, actor, events.CaseStatusChangedPayload{
		Action:    string(action),
		OldStatus: plan.From,
		NewStatus: plan.To,
	})
	return updated, nil
}

func (s *CaseService) SendToStaff(ctx context.Context, actor, id string) (*domain.Case, error) {
	return s.Advance(ctx, actor, id, workflow.ActionSendToStaff, workflow.Input{})
}

func (s *CaseService) RecordRebuttal(ctx context.Context, actor, id, text string) (*domain.Case, error) {
	return s.Advance(ctx, actor, id, workflow.ActionRecordRebuttal, workflow.Input{RebuttalText: text})
}

func (s *CaseService) SendToDirectorate(ctx context.Context, actor, id string) (*domain.Case, error) {
	return s.Advance(ctx, actor, id, workflow.ActionSendToDirectorate, workflow.Input{})
}

func (s *CaseService) RecordDirectorateReply(ctx context.Context, actor, id string) (*domain.Case, error) {
	return s.Advance(ctx, actor, id, workflow.ActionRecordDirectorateReply, workflow.Input{})
}

func (s *CaseService) SendResponse(ctx context.Context, actor, id string, responseType domain.ResponseType) (*domain.Case, error) {
	return s.Advance(ctx, actor, id, workflow.ActionSendResponse, workflow.Input{ResponseType: responseType})
}

func (s *CaseService) Archive(ctx context.Context, actor, id string) (*domain.Case, error) {
	return s.Advance(ctx, actor, id, workflow.ActionArchive, workflow.Input{})
}

var fileSlots = []domain.FileSlot{domain.FileSlotCaseOriginal, domain.FileSlotStaffReply, domain.FileSlotResponseMain}

// AttachFile stores a document in slot, replacing any previous one.
func (s *CaseService) AttachFile(ctx context.Context, actor, id string, slot domain.FileSlot, upload FileUpload) (*domain.Case, error) {
	if !slot.Valid() {
		return nil, apperrors.NewValidationError("invalid file slot", map[string]any{"slot": string(slot)})
	}
	if len(upload.Body) == 0 {
		return nil, apperrors.NewValidationError("file is empty", nil)
	}
	current, err := s.cases.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	meta, err := s.files.Store(ctx, storage.Object{
		Prefix: "cases/" + id + "/" + string(slot),
		Name:   upload.Name,
		Mime:   upload.Mime,
		Body:   upload.Body,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	updated, err := s.cases.Update(ctx, id, domain.CasePatch{Files: map[domain.FileSlot]*domain.FileMeta{slot: meta}})
	if err != nil {
		s.deleteObject(ctx, id, meta.Path)
		return nil, err
	}
	if previous := current.Files.Get(slot); previous != nil && previous.Path != meta.Path {
		s.deleteObject(ctx, id, previous.Path)
	}

	s.appendEvents(ctx, id, domain.NewFileEvent(actor, s.now(), slot, domain.FileActionUpload, meta.Name))
	s.publish(ctx, events.EventCaseFileChanged, updated, actor, events.CaseFileChangedPayload{
		Slot: slot, Action: domain.FileActionUpload, Name: meta.Name,
	})
	return updated, nil
}

// RemoveFile clears slot and deletes its document.
func (s *CaseService) RemoveFile(ctx context.Context, actor, id string, slot domain.FileSlot) (*domain.Case, error) {
	if !slot.Valid() {
		return nil, apperrors.NewValidationError("invalid file slot", map[string]any{"slot": string(slot)})
	}
	current, err := s.cases.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := current.Files.Get(slot)
	if previous == nil {
		return nil, apperrors.NewNotFound("file", map[string]any{"case_id": id, "slot": string(slot)})
	}

	updated, err := s.cases.Update(ctx, id, domain.CasePatch{Files: map[domain.FileSlot]*domain.FileMeta{slot: nil}})
	if err != nil {
		return nil, err
	}
	s.deleteObject(ctx, id, previous.Path)

	s.appendEvents(ctx, id, domain.NewFileEvent(actor, s.now(), slot, domain.FileActionRemove, previous.Name))
	s.publish(ctx, events.EventCaseFileChanged, updated, actor, events.CaseFileChangedPayload{
		Slot: slot, Action: domain.FileActionRemove, Name: previous.Name,
	})
	return updated, nil
}

// AddNote appends a free-text note to the case history.
func (s *CaseService) AddNote(ctx context.Context, actor, id, text string) (*domain.CaseEvent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("note text required", nil)
	}
	c, err := s.cases.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	event := domain.NewNoteEvent(actor, s.now(), text)
	if err := s.history.Append(ctx, id, &event); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventCaseNoteAdded, c, actor, events.CaseNoteAddedPayload{Preview: preview(text, 120)})
	return &event, nil
}

// ListEvents returns the case history newest first.
func (s *CaseService) ListEvents(ctx context.Context, id string) ([]domain.CaseEvent, error) {
	if _, err := s.cases.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.history.ListByCase(ctx, id)
}

// PreviewDueDate runs the creation-time calculation without storing anything.
func (s *CaseService) PreviewDueDate(ctx context.Context, receivedAt time.Time, requestType domain.RequestType) (time.Time, error) {
	return s.dueDate(ctx, calendar.Day(receivedAt), requestType)
}

func (s *CaseService) dueDate(ctx context.Context, receivedAt time.Time, requestType domain.RequestType) (time.Time, error) {
	holidays := calendar.HolidaySet{}
	if s.holidays != nil && !receivedAt.IsZero() {
		holidays = s.holidays.ForDueDate(ctx, receivedAt)
	}
	return s.calculator.DueDate(receivedAt, requestType, holidays)
}

func (s *CaseService) normalizePatch(ctx context.Context, current *domain.Case, patch *domain.CasePatch) error {
	if patch.RequestType != nil && !patch.RequestType.Valid() {
		return apperrors.NewValidationError("invalid request_type", map[string]any{"request_type": string(*patch.RequestType)})
	}
	if patch.IntakeChannel != nil && !patch.IntakeChannel.Valid() {
		return apperrors.NewValidationError("invalid intake_channel", map[string]any{"intake_channel": string(*patch.IntakeChannel)})
	}
	if patch.ResponseType != nil && !patch.ResponseType.Valid() {
		return apperrors.NewValidationError("invalid response type", map[string]any{"response_type": string(*patch.ResponseType)})
	}
	if patch.Response != nil && patch.Response.Type != nil {
		rt := *patch.Response.Type
		if rt != "" && !rt.Valid() {
			return apperrors.NewValidationError("invalid response type", map[string]any{"response_type": string(rt)})
		}
		if rt != current.Response.Type && current.Status.Index() >= domain.CaseStatusResponseSent.Index() {
			return apperrors.NewValidationError("response type is fixed once the response is sent", map[string]any{
				"response_type": string(current.Response.Type),
				"status":        string(current.Status),
			})
		}
		if patch.ExpectStatus == nil {
			from := current.Status
			patch.ExpectStatus = &from
		}
	}
	for slot := range patch.Files {
		if !slot.Valid() {
			return apperrors.NewValidationError("invalid file slot", map[string]any{"slot": string(slot)})
		}
	}
	if patch.ReceivedAt != nil {
		day := calendar.Day(*patch.ReceivedAt)
		patch.ReceivedAt = &day
	}
	if patch.DueAt != nil {
		day := calendar.Day(*patch.DueAt)
		patch.DueAt = &day
	}

	requestType := current.RequestType
	if patch.RequestType != nil {
		requestType = *patch.RequestType
	}
	topic := current.Topic
	if patch.Topic != nil {
		topic = *patch.Topic
	}
	switch {
	case requestType != domain.RequestTypeReclamo:
		na := domain.TopicNotApplicable
		patch.Topic = &na
	case !topic.Applicable():
		return apperrors.NewValidationError("topic required for reclamo", nil)
	}

	var staffIDs []string
	if patch.AllegedStaffIDs != nil {
		staffIDs = *patch.AllegedStaffIDs
	}
	return s.checkReferences(ctx, patch.SectorID, staffIDs)
}

// checkReferences verifies the sector (when given) and every alleged staff id exist.
func (s *CaseService) checkReferences(ctx context.Context, sectorID *string, staffIDs []string) error {
	if sectorID != nil && s.sectors != nil {
		id := strings.TrimSpace(*sectorID)
		if id == "" {
			return apperrors.NewValidationError("sector_id required", nil)
		}
		if _, err := s.sectors.GetByID(ctx, id); err != nil {
			return err
		}
	}
	if len(staffIDs) > 0 && s.staff != nil {
		missing, err := s.staff.Missing(ctx, staffIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return apperrors.NewNotFound("staff", map[string]any{"ids": missing})
		}
	}
	return nil
}

// appendEvents writes history entries. The status write already happened, so
// failures are logged and not returned.
func (s *CaseService) appendEvents(ctx context.Context, caseID string, evs ...domain.CaseEvent) {
	for i := range evs {
		if err := s.history.Append(ctx, caseID, &evs[i]); err != nil {
			s.logger.Warn("case event append failed",
				zap.String("case_id", caseID),
				zap.String("event_type", string(evs[i].Type)),
				zap.Error(err))
		}
	}
}

func (s *CaseService) deleteObject(ctx context.Context, caseID, path string) {
	if err := s.files.Delete(ctx, path); err != nil {
		s.logger.Warn("stored file delete failed", zap.String("case_id", caseID), zap.String("path", path), zap.Error(err))
	}
}

func (s *CaseService) publish(ctx context.Context, eventType events.EventType, c *domain.Case, actor string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		CaseID:    c.ID,
		Folio:     c.Folio,
		Actor:     actor,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	})
}

func resolveTopic(requestType domain.RequestType, name string) (domain.Topic, error) {
	if requestType != domain.RequestTypeReclamo {
		return domain.TopicNotApplicable, nil
	}
	if strings.TrimSpace(name) == "" {
		return domain.Topic{}, apperrors.NewValidationError("topic required for reclamo", nil)
	}
	topic, err := domain.SpecificTopic(strings.TrimSpace(name))
	if err != nil {
		return domain.Topic{}, apperrors.NewValidationError("unknown topic", map[string]any{"topic": name})
	}
	return topic, nil
}

func preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
