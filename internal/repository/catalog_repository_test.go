package repository

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/oirs-service/internal/domain"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

func TestCaseEventsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewCaseEventRepository(db)

	at := time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC)
	first := domain.NewStatusChangeEvent("ana", at, domain.CaseStatusInReview, domain.CaseStatusSentToStaff)
	second := domain.CaseEvent{Type: domain.EventSendToStaff, By: "ana", At: at}
	third := domain.NewNoteEvent("bea", at.Add(time.Hour), "llamar")
	other := domain.NewNoteEvent("bea", at, "otro caso")
	for _, ev := range []*domain.CaseEvent{&first, &second, &third} {
		if err := repo.Append(ctx, "case-1", ev); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.Append(ctx, "case-2", &other); err != nil {
		t.Fatal(err)
	}

	events, err := repo.ListByCase(ctx, "case-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Type != domain.EventNote || events[1].Type != domain.EventSendToStaff || events[2].Type != domain.EventStatusChange {
		t.Fatalf("unexpected order: %s %s %s", events[0].Type, events[1].Type, events[2].Type)
	}
	if events[2].Payload["from"] != string(domain.CaseStatusInReview) || events[2].Payload["to"] != string(domain.CaseStatusSentToStaff) {
		t.Fatalf("payload = %+v", events[2].Payload)
	}
	if events[0].By != "bea" || !events[0].At.Equal(at.Add(time.Hour)) {
		t.Fatalf("unexpected event %+v", events[0])
	}

	empty, err := repo.ListByCase(ctx, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no events, got %d", len(empty))
	}
}

func TestHolidayRepositoryUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewHolidayRepository(db)

	if _, ok, err := repo.Get(ctx, "CL-2026"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := repo.Put(ctx, "CL-2026", []string{"2026-01-01"}, "admin"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Put(ctx, "CL-2026", []string{"2026-01-01", "2026-05-01"}, "admin"); err != nil {
		t.Fatal(err)
	}
	days, ok, err := repo.Get(ctx, "CL-2026")
	if err != nil || !ok {
		t.Fatalf("Get failed ok=%v err=%v", ok, err)
	}
	if len(days) != 2 || days[1] != "2026-05-01" {
		t.Fatalf("days = %v", days)
	}
}

func TestSectorRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewSectorRepository(db)

	active := &domain.Sector{Name: "Urgencias", Code: "URG", Active: true}
	inactive := &domain.Sector{Name: "Archivo", Code: "ARC"}
	for _, s := range []*domain.Sector{active, inactive} {
		if err := repo.Upsert(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	active.Name = "Urgencia Adulto"
	if err := repo.Upsert(ctx, active); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetByID(ctx, active.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Urgencia Adulto" || !got.Active {
		t.Fatalf("unexpected sector %+v", got)
	}

	list, err := repo.List(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != active.ID {
		t.Fatalf("active list = %+v", list)
	}
	all, _ := repo.List(ctx, false)
	if len(all) != 2 {
		t.Fatalf("expected 2 sectors, got %d", len(all))
	}

	if _, err := repo.GetByID(ctx, "missing"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStaffRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewStaffRepository(db)

	chief := &domain.Staff{Email: "Jefa@Example.com", Name: "Jefa", Role: "jefatura", IsChief: true, Active: true, SectorIDs: []string{"s-1"}}
	nurse := &domain.Staff{Email: "enf@example.com", Name: "Enfermero", Role: "enfermeria", Active: true, SectorIDs: []string{"s-1", "s-2"}}
	if err := repo.Upsert(ctx, chief); err != nil {
		t.Fatal(err)
	}
	nurse.ChiefID = &chief.ID
	if err := repo.Upsert(ctx, nurse); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByID(ctx, nurse.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ChiefID == nil || *got.ChiefID != chief.ID || len(got.SectorIDs) != 2 {
		t.Fatalf("unexpected staff %+v", got)
	}

	inS2, err := repo.List(ctx, StaffFilter{SectorID: "s-2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(inS2) != 1 || inS2[0].ID != nurse.ID {
		t.Fatalf("sector filter = %+v", inS2)
	}

	missing, err := repo.Missing(ctx, []string{chief.ID, "ghost", nurse.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 1 || missing[0] != "ghost" {
		t.Fatalf("missing = %v", missing)
	}

	dup := &domain.Staff{Email: "jefa@example.com", Name: "Otra", Active: true}
	if err := repo.Upsert(ctx, dup); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error for duplicate email, got %v", err)
	}
}
