package calendar

import (
	"testing"
	"time"

	"github.com/spec-kit/oirs-service/internal/domain"
)

func TestBusinessDaysFor(t *testing.T) {
	for _, rt := range []domain.RequestType{
		domain.RequestTypeReclamo,
		domain.RequestTypeSolicitud,
		domain.RequestTypeSugerencia,
		domain.RequestTypeConsulta,
	} {
		if got := BusinessDaysFor(rt); got != 15 {
			t.Errorf("%s: got %d want 15", rt, got)
		}
	}
	if got := BusinessDaysFor(domain.RequestTypeFelicitacion); got != 20 {
		t.Fatalf("felicitacion: got %d want 20", got)
	}
}

func TestDueDate(t *testing.T) {
	holidays, _ := Baseline(HolidayKey("CL", 2025))
	calc := NewCalculator(0)

	cases := []struct {
		name        string
		received    string
		requestType domain.RequestType
		want        string
	}{
		{"solicitud in January", "2025-01-02", domain.RequestTypeSolicitud, "2025-01-23"},
		{"felicitacion in January", "2025-01-02", domain.RequestTypeFelicitacion, "2025-01-30"},
		{"easter and labour day", "2025-04-14", domain.RequestTypeReclamo, "2025-05-07"},
		{"fiestas patrias", "2025-09-15", domain.RequestTypeFelicitacion, "2025-10-15"},
		{"received on a weekend", "2025-01-04", domain.RequestTypeConsulta, "2025-01-24"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := calc.DueDate(mustDate(t, tc.received), tc.requestType, holidays)
			if err != nil {
				t.Fatal(err)
			}
			if got.Format(DateLayout) != tc.want {
				t.Fatalf("got %s want %s", got.Format(DateLayout), tc.want)
			}
		})
	}
}

func TestDueDateCountsExactlyNWorkingDays(t *testing.T) {
	holidays, _ := Baseline(HolidayKey("CL", 2025))
	calc := NewCalculator(DefaultWeekend)
	start := mustDate(t, "2025-03-03")
	for i := 0; i < 250; i++ {
		received := start.AddDate(0, 0, i)
		for _, rt := range []domain.RequestType{domain.RequestTypeSolicitud, domain.RequestTypeFelicitacion} {
			due, err := calc.DueDate(received, rt, holidays)
			if err != nil {
				t.Fatal(err)
			}
			if !IsWorkingDay(due, DefaultWeekend, holidays) {
				t.Fatalf("%s: due date %s is not a working day", received.Format(DateLayout), due.Format(DateLayout))
			}
			working := 0
			for d := received.AddDate(0, 0, 1); !d.After(due); d = d.AddDate(0, 0, 1) {
				if IsWorkingDay(d, DefaultWeekend, holidays) {
					working++
				}
			}
			if working != BusinessDaysFor(rt) {
				t.Fatalf("%s %s: counted %d working days", received.Format(DateLayout), rt, working)
			}
		}
	}
}

func TestDueDateValidation(t *testing.T) {
	calc := NewCalculator(0)
	if _, err := calc.DueDate(mustDate(t, "2025-01-02"), domain.RequestType("queja"), nil); err == nil {
		t.Fatal("expected error for unknown request type")
	}
	if _, err := calc.DueDate(time.Time{}, domain.RequestTypeSolicitud, nil); err == nil {
		t.Fatal("expected error for missing receivedAt")
	}
}

func TestYearsSpanned(t *testing.T) {
	years := YearsSpanned(mustDate(t, "2025-12-20"))
	if len(years) != 2 || years[0] != 2025 || years[1] != 2026 {
		t.Fatalf("got %v", years)
	}
}
