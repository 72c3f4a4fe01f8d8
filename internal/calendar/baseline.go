package calendar

import "fmt"

// CL2025Holidays is the built-in Chilean public holiday list for 2025, used
// when neither a curated list nor the external source is available.
var CL2025Holidays = []string{
	"2025-04-18",
	"2025-04-19",
	"2025-05-01",
	"2025-05-21",
	"2025-06-20",
	"2025-06-29",
	"2025-07-16",
	"2025-08-15",
	"2025-09-18",
	"2025-09-19",
	"2025-10-12",
	"2025-10-31",
	"2025-11-01",
	"2025-12-08",
	"2025-12-25",
}

var baselines = map[string][]string{
	HolidayKey("CL", 2025): CL2025Holidays,
}

// HolidayKey builds the jurisdiction-year key, e.g. "CL-2025".
func HolidayKey(jurisdiction string, year int) string {
	return fmt.Sprintf("%s-%d", jurisdiction, year)
}

// Baseline returns the built-in holidays for a key. ok is false when none are
// compiled in.
func Baseline(key string) (HolidaySet, bool) {
	days, ok := baselines[key]
	if !ok {
		return nil, false
	}
	set, err := ParseHolidaySet(days)
	if err != nil {
		return nil, false
	}
	return set, true
}
