package domain

// CaseStatus enumerates the workflow states of a case, in workflow order.
type CaseStatus string

const (
	CaseStatusInReview                    CaseStatus = "IN_REVIEW"
	CaseStatusSentToStaff                 CaseStatus = "SENT_TO_STAFF"
	CaseStatusRebuttalReceived            CaseStatus = "REBUTTAL_RECEIVED"
	CaseStatusSentToDirectorate           CaseStatus = "SENT_TO_DIRECTORATE"
	CaseStatusDirectorateResponseReceived CaseStatus = "DIRECTORATE_RESPONSE_RECEIVED"
	CaseStatusResponseSent                CaseStatus = "RESPONSE_SENT"
	CaseStatusArchived                    CaseStatus = "ARCHIVED"
)

// caseStatusOrder is the only place the workflow order is written down.
var caseStatusOrder = []CaseStatus{
	CaseStatusInReview,
	CaseStatusSentToStaff,
	CaseStatusRebuttalReceived,
	CaseStatusSentToDirectorate,
	CaseStatusDirectorateResponseReceived,
	CaseStatusResponseSent,
	CaseStatusArchived,
}

// CaseStatuses returns the workflow states in order.
func CaseStatuses() []CaseStatus {
	return append([]CaseStatus(nil), caseStatusOrder...)
}

// Index returns the position of the status in the workflow, or -1 when unknown.
func (s CaseStatus) Index() int {
	for i, candidate := range caseStatusOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known workflow state.
func (s CaseStatus) Valid() bool {
	return s.Index() >= 0
}

// Next returns the single state reachable from s. ok is false for the terminal
// state and for unknown values.
func (s CaseStatus) Next() (CaseStatus, bool) {
	idx := s.Index()
	if idx < 0 || idx+1 >= len(caseStatusOrder) {
		return "", false
	}
	return caseStatusOrder[idx+1], true
}

// CanAdvanceTo reports whether target is exactly the successor of s.
func (s CaseStatus) CanAdvanceTo(target CaseStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

// Terminal reports whether no further workflow step exists.
func (s CaseStatus) Terminal() bool {
	_, ok := s.Next()
	return s.Valid() && !ok
}
