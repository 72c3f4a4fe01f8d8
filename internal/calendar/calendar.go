// Package calendar implements business-day arithmetic on UTC calendar dates.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// WeekendMask marks non-working weekdays. Bit 0 is Monday, bit 6 is Sunday.
type WeekendMask uint8

const (
	allDays WeekendMask = 1<<7 - 1

	// DefaultWeekend is Saturday and Sunday.
	DefaultWeekend WeekendMask = 1<<5 | 1<<6
)

// ParseWeekendMask reads a 7 character Monday..Sunday mask where '1' marks a
// non-working day, e.g. "0000011".
func ParseWeekendMask(s string) (WeekendMask, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 {
		return 0, apperrors.NewValidationError("weekend mask must have 7 characters", map[string]any{"mask": s})
	}
	var mask WeekendMask
	for i, ch := range s {
		switch ch {
		case '0':
		case '1':
			mask |= 1 << i
		default:
			return 0, apperrors.NewValidationError("weekend mask accepts only 0 and 1", map[string]any{"mask": s})
		}
	}
	if !mask.Valid() {
		return 0, apperrors.NewValidationError("weekend mask leaves no working day", map[string]any{"mask": s})
	}
	return mask, nil
}

// Valid reports whether at least one weekday is a working day.
func (m WeekendMask) Valid() bool {
	return m&allDays != allDays
}

// IsWeekend reports whether the UTC weekday of t is marked non-working.
func (m WeekendMask) IsWeekend(t time.Time) bool {
	idx := (int(t.UTC().Weekday()) + 6) % 7
	return m&(1<<idx) != 0
}

func (m WeekendMask) String() string {
	var b strings.Builder
	for i := 0; i < 7; i++ {
		if m&(1<<i) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// HolidaySet is a set of calendar dates keyed by their YYYY-MM-DD form.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a set from instants, keeping only their UTC date.
func NewHolidaySet(dates ...time.Time) HolidaySet {
	set := make(HolidaySet, len(dates))
	for _, d := range dates {
		set[Day(d).Format(DateLayout)] = struct{}{}
	}
	return set
}

// ParseHolidaySet builds a set from YYYY-MM-DD strings.
func ParseHolidaySet(days []string) (HolidaySet, error) {
	set := make(HolidaySet, len(days))
	for _, raw := range days {
		d, err := ParseDate(raw)
		if err != nil {
			return nil, err
		}
		set[d.Format(DateLayout)] = struct{}{}
	}
	return set, nil
}

// Contains reports whether the UTC date of t is a holiday.
func (h HolidaySet) Contains(t time.Time) bool {
	if h == nil {
		return false
	}
	_, ok := h[Day(t).Format(DateLayout)]
	return ok
}

// Union returns a new set holding both sets' dates.
func (h HolidaySet) Union(other HolidaySet) HolidaySet {
	out := make(HolidaySet, len(h)+len(other))
	for k := range h {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Days returns the dates in ascending order.
func (h HolidaySet) Days() []string {
	days := make([]string, 0, len(h))
	for k := range h {
		days = append(days, k)
	}
	sort.Strings(days)
	return days
}

// Day truncates t to midnight of its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the UTC
// calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperrors.NewValidationError("date required", nil)
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(fmt.Sprintf("invalid date %q", s), map[string]any{"value": s})
	}
	return Day(t), nil
}

// IsWorkingDay reports whether the UTC date of t is neither a weekend day nor
// a holiday.
func IsWorkingDay(t time.Time, weekend WeekendMask, holidays HolidaySet) bool {
	return !weekend.IsWeekend(t) && !holidays.Contains(t)
}

// NextWorkingDay returns the first working day strictly after t.
func NextWorkingDay(t time.Time, weekend WeekendMask, holidays HolidaySet) time.Time {
	d := Day(t)
	for {
		d = d.AddDate(0, 0, 1)
		if IsWorkingDay(d, weekend, holidays) {
			return d
		}
	}
}

// AddBusinessDays steps forward from start one calendar day at a time and
// returns the n-th working day. The start date itself is never counted.
func AddBusinessDays(start time.Time, n int, weekend WeekendMask, holidays HolidaySet) (time.Time, error) {
	if !weekend.Valid() {
		return time.Time{}, apperrors.NewValidationError("weekend mask leaves no working day", nil)
	}
	if n < 0 {
		return time.Time{}, apperrors.NewValidationError("business day count must not be negative", map[string]any{"days": n})
	}
	d := Day(start)
	for added := 0; added < n; added++ {
		d = NextWorkingDay(d, weekend, holidays)
	}
	return d, nil
}
