package domain

import "time"

// SlaStatus is the four-valued deadline compliance classification.
type SlaStatus string

const (
	SlaWithinDeadline        SlaStatus = "WITHIN_DEADLINE"
	SlaPastDeadline          SlaStatus = "PAST_DEADLINE"
	SlaPendingWithinDeadline SlaStatus = "PENDING_WITHIN_DEADLINE"
	SlaPendingPastDeadline   SlaStatus = "PENDING_PAST_DEADLINE"
)

// Valid reports whether s is one of the four classifications.
func (s SlaStatus) Valid() bool {
	switch s {
	case SlaWithinDeadline, SlaPastDeadline, SlaPendingWithinDeadline, SlaPendingPastDeadline:
		return true
	}
	return false
}

// Pending reports whether the case has not been answered yet.
func (s SlaStatus) Pending() bool {
	return s == SlaPendingWithinDeadline || s == SlaPendingPastDeadline
}

// ClassifySLA derives the SLA state. Instants are compared as UTC calendar
// dates, so an answer given at any time on the due day is within deadline.
func ClassifySLA(dueAt time.Time, respondedAt *time.Time, now time.Time) SlaStatus {
	due := utcDay(dueAt)
	if respondedAt != nil {
		if !utcDay(*respondedAt).After(due) {
			return SlaWithinDeadline
		}
		return SlaPastDeadline
	}
	if !utcDay(now).After(due) {
		return SlaPendingWithinDeadline
	}
	return SlaPendingPastDeadline
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
