package holidays

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/oirs-service/internal/calendar"
)

// File is an organization holiday list kept under version control:
//
//	jurisdiction: CL
//	years:
//	  2026:
//	    - 2026-01-01
//	    - 2026-04-03
type File struct {
	Jurisdiction string           `yaml:"jurisdiction"`
	Years        map[int][]string `yaml:"years"`
}

// LoadFile reads and validates a holiday file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holiday file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile decodes YAML and checks every date belongs to its year.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse holiday yaml: %w", err)
	}
	f.Jurisdiction = strings.ToUpper(strings.TrimSpace(f.Jurisdiction))
	if f.Jurisdiction == "" {
		return nil, fmt.Errorf("holiday file: jurisdiction required")
	}
	if len(f.Years) == 0 {
		return nil, fmt.Errorf("holiday file: no years listed")
	}
	for year, days := range f.Years {
		set, err := calendar.ParseHolidaySet(days)
		if err != nil {
			return nil, fmt.Errorf("holiday file year %d: %w", year, err)
		}
		for _, d := range set.Days() {
			if !strings.HasPrefix(d, fmt.Sprintf("%04d-", year)) {
				return nil, fmt.Errorf("holiday file: %s listed under %d", d, year)
			}
		}
		f.Years[year] = set.Days()
	}
	return &f, nil
}

// Entry is one jurisdiction-year list ready to be stored.
type Entry struct {
	Key  string
	Days []string
}

// Entries returns the file's lists ordered by year.
func (f *File) Entries() []Entry {
	years := make([]int, 0, len(f.Years))
	for y := range f.Years {
		years = append(years, y)
	}
	sort.Ints(years)

	entries := make([]Entry, 0, len(years))
	for _, y := range years {
		entries = append(entries, Entry{Key: calendar.HolidayKey(f.Jurisdiction, y), Days: f.Years[y]})
	}
	return entries
}
