package calendar

import (
	"testing"
	"time"

	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestParseWeekendMask(t *testing.T) {
	mask, err := ParseWeekendMask("0000011")
	if err != nil {
		t.Fatal(err)
	}
	if mask != DefaultWeekend {
		t.Fatalf("got %s want %s", mask, DefaultWeekend)
	}
	if mask.String() != "0000011" {
		t.Fatalf("String() = %s", mask.String())
	}
	for _, bad := range []string{"", "000001", "00000x1", "1111111"} {
		if _, err := ParseWeekendMask(bad); !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Errorf("mask %q: expected validation error, got %v", bad, err)
		}
	}
}

func TestIsWorkingDayWeekends(t *testing.T) {
	holidays := HolidaySet{}
	if !IsWorkingDay(mustDate(t, "2025-01-03"), DefaultWeekend, holidays) {
		t.Fatal("Friday should be a working day")
	}
	if IsWorkingDay(mustDate(t, "2025-01-04"), DefaultWeekend, holidays) {
		t.Fatal("Saturday should not be a working day")
	}
	if IsWorkingDay(mustDate(t, "2025-01-05"), DefaultWeekend, holidays) {
		t.Fatal("Sunday should not be a working day")
	}
	fridayOff, _ := ParseWeekendMask("0000100")
	if IsWorkingDay(mustDate(t, "2025-01-03"), fridayOff, holidays) {
		t.Fatal("custom mask should exclude Friday")
	}
	if !IsWorkingDay(mustDate(t, "2025-01-04"), fridayOff, holidays) {
		t.Fatal("custom mask should include Saturday")
	}
}

func TestIsWorkingDayFalseForEveryBaselineHoliday(t *testing.T) {
	set, ok := Baseline(HolidayKey("CL", 2025))
	if !ok {
		t.Fatal("CL-2025 baseline missing")
	}
	noWeekend := WeekendMask(0)
	for _, raw := range CL2025Holidays {
		d := mustDate(t, raw)
		if IsWorkingDay(d, DefaultWeekend, set) {
			t.Errorf("%s should not be a working day", raw)
		}
		if IsWorkingDay(d, noWeekend, set) {
			t.Errorf("%s should not be a working day even without a weekend", raw)
		}
	}
}

func TestIsWorkingDayIgnoresTimeOfDayAndZone(t *testing.T) {
	set, _ := Baseline(HolidayKey("CL", 2025))
	lateUTC := time.Date(2025, time.May, 1, 23, 59, 0, 0, time.UTC)
	if IsWorkingDay(lateUTC, DefaultWeekend, set) {
		t.Fatal("late on a holiday is still the holiday")
	}
	// 2025-05-01 21:00 at UTC-4 is 2025-05-02 01:00 UTC, a working Friday.
	zoned := time.Date(2025, time.May, 1, 21, 0, 0, 0, time.FixedZone("UTC-4", -4*3600))
	if !IsWorkingDay(zoned, DefaultWeekend, set) {
		t.Fatal("dates are evaluated in UTC")
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "2025-13-01", "02/01/2025", "yesterday"} {
		if _, err := ParseDate(bad); !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Errorf("ParseDate(%q) = %v, want validation error", bad, err)
		}
	}
	d := mustDate(t, "2025-01-02T23:30:00-03:00")
	if d.Format(DateLayout) != "2025-01-03" {
		t.Fatalf("RFC3339 input normalizes to UTC date, got %s", d.Format(DateLayout))
	}
}

func TestAddBusinessDaysNeverCountsStart(t *testing.T) {
	friday := mustDate(t, "2025-01-03")
	got, err := AddBusinessDays(friday, 1, DefaultWeekend, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Format(DateLayout) != "2025-01-06" {
		t.Fatalf("got %s want Monday 2025-01-06", got.Format(DateLayout))
	}
	same, _ := AddBusinessDays(friday, 0, DefaultWeekend, nil)
	if !same.Equal(friday) {
		t.Fatalf("zero days should return the start date, got %s", same)
	}
	if _, err := AddBusinessDays(friday, 1, allDays, nil); err == nil {
		t.Fatal("a mask without working days must be rejected")
	}
}

func TestHolidaySetUnionAndDays(t *testing.T) {
	a, _ := ParseHolidaySet([]string{"2025-12-25"})
	b, _ := ParseHolidaySet([]string{"2026-01-01", "2025-12-25"})
	u := a.Union(b)
	days := u.Days()
	if len(days) != 2 || days[0] != "2025-12-25" || days[1] != "2026-01-01" {
		t.Fatalf("unexpected union %v", days)
	}
	if _, err := ParseHolidaySet([]string{"not-a-date"}); err == nil {
		t.Fatal("expected parse error")
	}
}
