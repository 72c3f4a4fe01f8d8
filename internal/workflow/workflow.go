// Package workflow turns named case actions into guarded status patches and
// the audit events each one emits.
package workflow

import (
	"strings"
	"time"

	"github.com/spec-kit/oirs-service/internal/domain"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

// Action is a named workflow step.
type Action string

const (
	ActionSendToStaff            Action = "send-to-staff"
	ActionRecordRebuttal         Action = "record-rebuttal"
	ActionSendToDirectorate      Action = "send-to-directorate"
	ActionRecordDirectorateReply Action = "record-directorate-reply"
	ActionSendResponse           Action = "send-response"
	ActionArchive                Action = "archive"
)

var targets = map[Action]domain.CaseStatus{
	ActionSendToStaff:            domain.CaseStatusSentToStaff,
	ActionRecordRebuttal:         domain.CaseStatusRebuttalReceived,
	ActionSendToDirectorate:      domain.CaseStatusSentToDirectorate,
	ActionRecordDirectorateReply: domain.CaseStatusDirectorateResponseReceived,
	ActionSendResponse:           domain.CaseStatusResponseSent,
	ActionArchive:                domain.CaseStatusArchived,
}

// Actions lists the steps in workflow order.
func Actions() []Action {
	return []Action{
		ActionSendToStaff,
		ActionRecordRebuttal,
		ActionSendToDirectorate,
		ActionRecordDirectorateReply,
		ActionSendResponse,
		ActionArchive,
	}
}

// ParseAction resolves an action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := targets[a]; !ok {
		return "", apperrors.NewValidationError("unknown workflow action", map[string]any{"action": s})
	}
	return a, nil
}

// Target returns the status the action moves a case into.
func (a Action) Target() domain.CaseStatus {
	return targets[a]
}

// ActionFor returns the action whose target is status.
func ActionFor(status domain.CaseStatus) (Action, bool) {
	for a, to := range targets {
		if to == status {
			return a, true
		}
	}
	return "", false
}

// Input carries the action-specific arguments.
type Input struct {
	RebuttalText string
	ResponseType domain.ResponseType
}

// Transition is the planned effect of an action on one case.
type Transition struct {
	Action Action
	From   domain.CaseStatus
	To     domain.CaseStatus
	// Patch carries ExpectStatus = From so a concurrent move makes the write fail.
	Patch  domain.CasePatch
	Events []domain.CaseEvent
}

// Plan validates that action is enabled from current and returns the patch and
// events it produces. The action is enabled only when current is exactly the
// predecessor of the action's target.
func Plan(current domain.CaseStatus, action Action, in Input, actor string, now time.Time) (Transition, error) {
	to, ok := targets[action]
	if !ok {
		return Transition{}, apperrors.NewValidationError("unknown workflow action", map[string]any{"action": string(action)})
	}
	if !current.CanAdvanceTo(to) {
		return Transition{}, apperrors.NewStateTransition(string(current), string(to))
	}

	now = now.UTC()
	from := current
	patch := domain.CasePatch{Status: &to, ExpectStatus: &from}
	statusEvent := domain.NewStatusChangeEvent(actor, now, from, to)
	events := []domain.CaseEvent{statusEvent}

	switch action {
	case ActionSendToStaff:
		patch.SentToStaffAt = &now
		events = append(events, domain.CaseEvent{
			Type:    domain.EventSendToStaff,
			By:      actor,
			At:      now,
			Payload: map[string]any{},
		})
	case ActionRecordRebuttal:
		patch.StaffReplyAt = &now
		if text := strings.TrimSpace(in.RebuttalText); text != "" {
			patch.StaffReplyText = &text
		}
	case ActionSendToDirectorate:
		patch.SentToDireccionAt = &now
	case ActionRecordDirectorateReply:
		patch.DireccionReplyAt = &now
	case ActionSendResponse:
		if !in.ResponseType.Valid() {
			return Transition{}, apperrors.NewValidationError("response type required", map[string]any{"response_type": string(in.ResponseType)})
		}
		responseType := in.ResponseType
		patch.RespondedAt = &now
		patch.ResponseType = &responseType
		events[0].Payload["responseType"] = string(responseType)
	case ActionArchive:
	}

	return Transition{
		Action: action,
		From:   from,
		To:     to,
		Patch:  patch,
		Events: events,
	}, nil
}

// Overlay copies the status move and the milestones stamped by the transition
// onto p. Fields the transition does not set are left as p has them.
func (t Transition) Overlay(p *domain.CasePatch) {
	p.Status = t.Patch.Status
	p.ExpectStatus = t.Patch.ExpectStatus
	if t.Patch.SentToStaffAt != nil {
		p.SentToStaffAt = t.Patch.SentToStaffAt
	}
	if t.Patch.StaffReplyAt != nil {
		p.StaffReplyAt = t.Patch.StaffReplyAt
	}
	if t.Patch.StaffReplyText != nil {
		p.StaffReplyText = t.Patch.StaffReplyText
	}
	if t.Patch.SentToDireccionAt != nil {
		p.SentToDireccionAt = t.Patch.SentToDireccionAt
	}
	if t.Patch.DireccionReplyAt != nil {
		p.DireccionReplyAt = t.Patch.DireccionReplyAt
	}
	if t.Patch.RespondedAt != nil {
		p.RespondedAt = t.Patch.RespondedAt
		p.ClearRespondedAt = false
	}
	if t.Patch.ResponseType != nil {
		p.ResponseType = t.Patch.ResponseType
	}
}
