package domain

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassifySLA(t *testing.T) {
	due := day(2025, time.January, 23)
	onDueAfternoon := time.Date(2025, time.January, 23, 17, 30, 0, 0, time.UTC)
	early := day(2025, time.January, 10)
	late := day(2025, time.January, 24)

	cases := []struct {
		name      string
		responded *time.Time
		now       time.Time
		want      SlaStatus
	}{
		{"answered early", &early, late, SlaWithinDeadline},
		{"answered on due day", &onDueAfternoon, late, SlaWithinDeadline},
		{"answered late", &late, late, SlaPastDeadline},
		{"open before due", nil, early, SlaPendingWithinDeadline},
		{"open on due day", nil, onDueAfternoon, SlaPendingWithinDeadline},
		{"open after due", nil, late, SlaPendingPastDeadline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifySLA(due, tc.responded, tc.now)
			if got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
			if again := ClassifySLA(due, tc.responded, tc.now); again != got {
				t.Fatalf("not deterministic: %s then %s", got, again)
			}
		})
	}
}

func TestClassifySLARespondedSwitchesBranch(t *testing.T) {
	due := day(2025, time.March, 3)
	now := day(2025, time.March, 10)
	responded := day(2025, time.March, 1)

	open := ClassifySLA(due, nil, now)
	closed := ClassifySLA(due, &responded, now)
	if !open.Pending() {
		t.Fatalf("expected pending classification, got %s", open)
	}
	if closed.Pending() {
		t.Fatalf("expected answered classification, got %s", closed)
	}
}

func TestClassifySLAUsesUTCDates(t *testing.T) {
	santiago := time.FixedZone("CLT", -3*3600)
	due := day(2025, time.June, 2)
	// 22:00 on June 2 in Santiago is already June 3 in UTC.
	responded := time.Date(2025, time.June, 2, 22, 0, 0, 0, santiago)
	if got := ClassifySLA(due, &responded, responded); got != SlaPastDeadline {
		t.Fatalf("got %s want %s", got, SlaPastDeadline)
	}
}
