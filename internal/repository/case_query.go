package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spec-kit/oirs-service/internal/domain"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// CaseFilter captures list predicates. SLA is derived, so it is applied to
// each fetched page rather than pushed into the query.
type CaseFilter struct {
	SectorID     string
	RequestType  domain.RequestType
	Status       domain.CaseStatus
	StaffID      string
	FolioPrefix  string
	ReceivedFrom *time.Time
	ReceivedTo   *time.Time
	SLA          domain.SlaStatus
}

// CasePage is one page of a keyset listing. NextCursor is empty on the last page.
type CasePage struct {
	Items      []domain.Case
	NextCursor string
}

type pageCursor struct {
	ReceivedAt time.Time `json:"r"`
	ID         string    `json:"i"`
}

func encodeCursor(c domain.Case) string {
	raw, _ := json.Marshal(pageCursor{ReceivedAt: c.ReceivedAt.UTC(), ID: c.ID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(s string) (*pageCursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid cursor", nil)
	}
	var cur pageCursor
	if err := json.Unmarshal(raw, &cur); err != nil || cur.ID == "" {
		return nil, apperrors.NewValidationError("invalid cursor", nil)
	}
	return &cur, nil
}

func normalizePageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// buildCaseWhere renders the SQL predicates of filter and cursor.
func buildCaseWhere(filter CaseFilter, cursor *pageCursor) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SectorID != "" {
		args = append(args, filter.SectorID)
		clauses = append(clauses, fmt.Sprintf("sector_id=$%d", len(args)))
	}
	if filter.RequestType != "" {
		args = append(args, string(filter.RequestType))
		clauses = append(clauses, fmt.Sprintf("request_type=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.StaffID != "" {
		args = append(args, filter.StaffID)
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM case_alleged_staff s WHERE s.case_id = cases.id AND s.staff_id=$%d)", len(args)))
	}
	if prefix := strings.TrimSpace(filter.FolioPrefix); prefix != "" {
		args = append(args, prefix)
		clauses = append(clauses, fmt.Sprintf("substr(folio, 1, %d)=$%d", utf8.RuneCountInString(prefix), len(args)))
	}
	if filter.ReceivedFrom != nil {
		args = append(args, filter.ReceivedFrom.UTC())
		clauses = append(clauses, fmt.Sprintf("received_at >= $%d", len(args)))
	}
	if filter.ReceivedTo != nil {
		args = append(args, filter.ReceivedTo.UTC())
		clauses = append(clauses, fmt.Sprintf("received_at <= $%d", len(args)))
	}
	if cursor != nil {
		args = append(args, cursor.ReceivedAt.UTC(), cursor.ID)
		clauses = append(clauses, fmt.Sprintf(
			"(received_at < $%d OR (received_at = $%d AND id < $%d))", len(args)-1, len(args)-1, len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

// Validate rejects filter values outside their enumerations.
func (f CaseFilter) Validate() error {
	if f.RequestType != "" && !f.RequestType.Valid() {
		return apperrors.NewValidationError("invalid request_type filter", map[string]any{"request_type": string(f.RequestType)})
	}
	if f.Status != "" && !f.Status.Valid() {
		return apperrors.NewValidationError("invalid status filter", map[string]any{"status": string(f.Status)})
	}
	if f.SLA != "" && !f.SLA.Valid() {
		return apperrors.NewValidationError("invalid sla filter", map[string]any{"sla": string(f.SLA)})
	}
	if f.ReceivedFrom != nil && f.ReceivedTo != nil && f.ReceivedFrom.After(*f.ReceivedTo) {
		return apperrors.NewValidationError("received_from is after received_to", nil)
	}
	return nil
}
