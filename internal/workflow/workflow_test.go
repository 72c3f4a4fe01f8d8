package workflow

import (
	"testing"
	"time"

	"github.com/spec-kit/oirs-service/internal/domain"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

var now = time.Date(2025, time.January, 6, 15, 4, 5, 0, time.UTC)

func TestPlanWalksTheWholeWorkflow(t *testing.T) {
	status := domain.CaseStatusInReview
	in := Input{RebuttalText: "descargo", ResponseType: domain.ResponseTypeCorreo}

	for _, action := range Actions() {
		tr, err := Plan(status, action, in, "ana", now)
		if err != nil {
			t.Fatalf("%s from %s: %v", action, status, err)
		}
		if tr.From != status || tr.To != action.Target() {
			t.Fatalf("%s: from=%s to=%s", action, tr.From, tr.To)
		}
		if tr.Patch.ExpectStatus == nil || *tr.Patch.ExpectStatus != status {
			t.Fatalf("%s: patch must guard on the current status", action)
		}

		statusChanges := 0
		for _, ev := range tr.Events {
			if ev.Type == domain.EventStatusChange {
				statusChanges++
				if ev.Payload["from"] != string(status) || ev.Payload["to"] != string(tr.To) {
					t.Fatalf("%s: payload %+v", action, ev.Payload)
				}
			}
			if ev.By != "ana" || !ev.At.Equal(now) {
				t.Fatalf("%s: event attribution %+v", action, ev)
			}
		}
		if statusChanges != 1 {
			t.Fatalf("%s: expected one status_change event, got %d", action, statusChanges)
		}
		status = tr.To
	}
	if status != domain.CaseStatusArchived {
		t.Fatalf("final status = %s", status)
	}
}

func TestPlanStampsMilestones(t *testing.T) {
	cases := []struct {
		from   domain.CaseStatus
		action Action
		check  func(p domain.CasePatch) bool
	}{
		{domain.CaseStatusInReview, ActionSendToStaff, func(p domain.CasePatch) bool { return p.SentToStaffAt != nil && p.SentToStaffAt.Equal(now) }},
		{domain.CaseStatusSentToStaff, ActionRecordRebuttal, func(p domain.CasePatch) bool { return p.StaffReplyAt != nil && p.StaffReplyText == nil }},
		{domain.CaseStatusRebuttalReceived, ActionSendToDirectorate, func(p domain.CasePatch) bool { return p.SentToDireccionAt != nil }},
		{domain.CaseStatusSentToDirectorate, ActionRecordDirectorateReply, func(p domain.CasePatch) bool { return p.DireccionReplyAt != nil }},
		{domain.CaseStatusResponseSent, ActionArchive, func(p domain.CasePatch) bool {
			return p.RespondedAt == nil && p.SentToStaffAt == nil && *p.Status == domain.CaseStatusArchived
		}},
	}
	for _, tc := range cases {
		tr, err := Plan(tc.from, tc.action, Input{}, "ana", now)
		if err != nil {
			t.Fatalf("%s: %v", tc.action, err)
		}
		if !tc.check(tr.Patch) {
			t.Fatalf("%s: unexpected patch %+v", tc.action, tr.Patch)
		}
	}
}

func TestSendToStaffEmitsExtraEvent(t *testing.T) {
	tr, err := Plan(domain.CaseStatusInReview, ActionSendToStaff, Input{}, "ana", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Events) != 2 || tr.Events[1].Type != domain.EventSendToStaff {
		t.Fatalf("events = %+v", tr.Events)
	}
}

func TestRecordRebuttalKeepsText(t *testing.T) {
	tr, err := Plan(domain.CaseStatusSentToStaff, ActionRecordRebuttal, Input{RebuttalText: "  no fue así "}, "ana", now)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Patch.StaffReplyText == nil || *tr.Patch.StaffReplyText != "no fue así" {
		t.Fatalf("text = %v", tr.Patch.StaffReplyText)
	}
}

func TestSendResponseRequiresType(t *testing.T) {
	_, err := Plan(domain.CaseStatusDirectorateResponseReceived, ActionSendResponse, Input{}, "ana", now)
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	tr, err := Plan(domain.CaseStatusDirectorateResponseReceived, ActionSendResponse, Input{ResponseType: domain.ResponseTypeCarta}, "ana", now)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Patch.RespondedAt == nil || !tr.Patch.RespondedAt.Equal(now) {
		t.Fatal("respondedAt must be stamped")
	}
	if *tr.Patch.ResponseType != domain.ResponseTypeCarta {
		t.Fatalf("response type = %s", *tr.Patch.ResponseType)
	}
	if tr.Events[0].Payload["responseType"] != "carta" {
		t.Fatalf("payload = %+v", tr.Events[0].Payload)
	}
}

func TestPlanRejectsNonAdjacentMoves(t *testing.T) {
	cases := []struct {
		current domain.CaseStatus
		action  Action
	}{
		{domain.CaseStatusInReview, ActionSendToDirectorate},
		{domain.CaseStatusInReview, ActionArchive},
		{domain.CaseStatusDirectorateResponseReceived, ActionArchive},
		{domain.CaseStatusSentToStaff, ActionSendToStaff},
		{domain.CaseStatusArchived, ActionSendToStaff},
		{domain.CaseStatusResponseSent, ActionRecordRebuttal},
	}
	for _, tc := range cases {
		_, err := Plan(tc.current, tc.action, Input{ResponseType: domain.ResponseTypeOtro}, "ana", now)
		if !apperrors.HasCode(err, apperrors.CodeStateTransition) {
			t.Fatalf("%s from %s: expected state transition error, got %v", tc.action, tc.current, err)
		}
		de := apperrors.ToDomainError(err)
		if de.Details["current"] != string(tc.current) || de.Details["target"] != string(tc.action.Target()) {
			t.Fatalf("details = %+v", de.Details)
		}
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Send-Response ")
	if err != nil || a != ActionSendResponse {
		t.Fatalf("got %q %v", a, err)
	}
	if _, err := ParseAction("reopen"); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestActionForEveryTarget(t *testing.T) {
	for _, action := range Actions() {
		got, ok := ActionFor(action.Target())
		if !ok || got != action {
			t.Fatalf("ActionFor(%s) = %s, %v", action.Target(), got, ok)
		}
	}
	if _, ok := ActionFor(domain.CaseStatusInReview); ok {
		t.Fatal("IN_REVIEW is not the target of any action")
	}
}

func TestOverlayKeepsEditsAndAddsMilestones(t *testing.T) {
	tr, err := Plan(domain.CaseStatusDirectorateResponseReceived, ActionSendResponse, Input{ResponseType: domain.ResponseTypeCarta}, "ana", now)
	if err != nil {
		t.Fatal(err)
	}
	notes := "llamar al usuario"
	edited := now.Add(-time.Hour)
	p := domain.CasePatch{Notes: &notes, RespondedAt: &edited, ClearRespondedAt: true}
	tr.Overlay(&p)

	if p.Notes == nil || *p.Notes != notes {
		t.Fatalf("notes lost: %v", p.Notes)
	}
	if p.Status == nil || *p.Status != domain.CaseStatusResponseSent {
		t.Fatalf("status = %v", p.Status)
	}
	if p.ExpectStatus == nil || *p.ExpectStatus != domain.CaseStatusDirectorateResponseReceived {
		t.Fatalf("expect status = %v", p.ExpectStatus)
	}
	if p.ClearRespondedAt || p.RespondedAt == nil || !p.RespondedAt.Equal(now) {
		t.Fatalf("respondedAt = %v clear = %v", p.RespondedAt, p.ClearRespondedAt)
	}
	if p.ResponseType == nil || *p.ResponseType != domain.ResponseTypeCarta {
		t.Fatalf("response type = %v", p.ResponseType)
	}
}
