package domain

import "testing"

func TestCaseStatusNextIsStrictSuccessor(t *testing.T) {
	statuses := CaseStatuses()
	for i, status := range statuses {
		next, ok := status.Next()
		if i == len(statuses)-1 {
			if ok {
				t.Fatalf("%s should be terminal, got next %s", status, next)
			}
			if !status.Terminal() {
				t.Fatalf("%s should report Terminal", status)
			}
			continue
		}
		if !ok || next != statuses[i+1] {
			t.Fatalf("%s.Next() = %s,%v want %s", status, next, ok, statuses[i+1])
		}
	}
}

func TestCanAdvanceToRejectsSkipsAndRegressions(t *testing.T) {
	cases := []struct {
		from, to CaseStatus
		want     bool
	}{
		{CaseStatusInReview, CaseStatusSentToStaff, true},
		{CaseStatusInReview, CaseStatusSentToDirectorate, false},
		{CaseStatusInReview, CaseStatusInReview, false},
		{CaseStatusRebuttalReceived, CaseStatusSentToStaff, false},
		{CaseStatusDirectorateResponseReceived, CaseStatusArchived, false},
		{CaseStatusResponseSent, CaseStatusArchived, true},
		{CaseStatusArchived, CaseStatusInReview, false},
		{CaseStatus("BOGUS"), CaseStatusSentToStaff, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanAdvanceTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCaseStatusesReturnsCopy(t *testing.T) {
	list := CaseStatuses()
	list[0] = CaseStatusArchived
	if CaseStatuses()[0] != CaseStatusInReview {
		t.Fatal("workflow order must not be mutable through CaseStatuses")
	}
}
