package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/oirs-service/internal/domain"
	"github.com/spec-kit/oirs-service/internal/persistence"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

// CaseRepository encapsulates case persistence and the folio index.
type CaseRepository interface {
	// Create stores a new case in IN_REVIEW, generating ID and folio when empty.
	Create(ctx context.Context, c *domain.Case) error
	Get(ctx context.Context, id string) (*domain.Case, error)
	// Update applies patch in one transaction and returns the stored case.
	Update(ctx context.Context, id string, patch domain.CasePatch) (*domain.Case, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter CaseFilter, pageSize int, cursor string) (CasePage, error)
	ListAll(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
}

type caseRepository struct {
	db  persistence.DB
	now func() time.Time
}

// NewCaseRepository builds the repository. now is the clock used for audit
// stamps and SLA derivation.
func NewCaseRepository(db persistence.DB, now func() time.Time) CaseRepository {
	if now == nil {
		now = time.Now
	}
	return &caseRepository{db: db, now: now}
}

// GenerateFolio returns a random 8 character uppercase folio.
func GenerateFolio() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

const caseColumns = `id, folio, request_type, intake_channel, topic, sector_id, status,
               received_at, due_at, responded_at, sent_to_staff_at, sent_to_direccion_at,
               staff_reply_at, direccion_reply_at, details, created_by, created_at, updated_at`

type caseDetails struct {
	Response       domain.CaseResponse `json:"response"`
	StaffReplyText string              `json:"staffReplyText,omitempty"`
	Files          domain.CaseFiles    `json:"files"`
	Requester      domain.Requester    `json:"requester"`
	Notes          string              `json:"notes,omitempty"`
}

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	now := r.now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Folio = strings.TrimSpace(c.Folio)
	if c.Folio == "" {
		c.Folio = GenerateFolio()
	}
	c.Status = domain.CaseStatusInReview
	c.AllegedStaffIDs = normalizeIDs(c.AllegedStaffIDs)
	c.CreatedAt = now
	c.UpdatedAt = now
	c.RefreshSLA(now)

	details, err := encodeDetails(c)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(ctx context.Context, q persistence.Querier) error {
		if err := claimFolio(ctx, q, c.Folio, c.ID, now); err != nil {
			return err
		}

		const query = `
        INSERT INTO cases (id, folio, request_type, intake_channel, topic, sector_id, status, sla,
            received_at, due_at, responded_at, sent_to_staff_at, sent_to_direccion_at,
            staff_reply_at, direccion_reply_at, details, created_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`
		if _, err := q.Exec(ctx, query,
			c.ID,
			c.Folio,
			string(c.RequestType),
			string(c.IntakeChannel),
			topicColumn(c.Topic),
			c.SectorID,
			string(c.Status),
			string(c.SLA),
			c.ReceivedAt.UTC(),
			c.DueAt.UTC(),
			c.RespondedAt,
			c.SentToStaffAt,
			c.SentToDireccionAt,
			c.StaffReplyAt,
			c.DireccionReplyAt,
			details,
			c.CreatedBy,
			c.CreatedAt,
			c.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert case: %w", err)
		}

		return replaceAllegedStaff(ctx, q, c.ID, c.AllegedStaffIDs)
	})
}

func (r *caseRepository) Get(ctx context.Context, id string) (*domain.Case, error) {
	c, err := r.fetch(ctx, r.db, id, false)
	if err != nil {
		return nil, err
	}
	c.RefreshSLA(r.now())
	return c, nil
}

func (r *caseRepository) Update(ctx context.Context, id string, patch domain.CasePatch) (*domain.Case, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(*patch.Status)})
	}

	var updated *domain.Case
	err := r.db.WithTx(ctx, func(ctx context.Context, q persistence.Querier) error {
		now := r.now().UTC()
		current, err := r.fetch(ctx, q, id, true)
		if err != nil {
			return err
		}

		target := current.Status
		if patch.Status != nil {
			target = *patch.Status
		}
		if patch.ExpectStatus != nil && current.Status != *patch.ExpectStatus {
			return apperrors.NewStateTransition(string(current.Status), string(target))
		}
		if target != current.Status && !current.Status.CanAdvanceTo(target) {
			return apperrors.NewStateTransition(string(current.Status), string(target))
		}

		if patch.Folio != nil {
			folio := strings.TrimSpace(*patch.Folio)
			if folio == "" {
				return apperrors.NewValidationError("folio must not be empty", nil)
			}
			if folio != current.Folio {
				if err := swapFolio(ctx, q, current.Folio, folio, current.ID, now); err != nil {
					return err
				}
			}
			patch.Folio = &folio
		}

		next := *current
		patch.Apply(&next)
		next.AllegedStaffIDs = normalizeIDs(next.AllegedStaffIDs)
		next.UpdatedAt = now
		next.RefreshSLA(now)

		details, err := encodeDetails(&next)
		if err != nil {
			return err
		}

		const query = `
        UPDATE cases SET folio=$1, request_type=$2, intake_channel=$3, topic=$4, sector_id=$5,
            status=$6, sla=$7, received_at=$8, due_at=$9, responded_at=$10, sent_to_staff_at=$11,
            sent_to_direccion_at=$12, staff_reply_at=$13, direccion_reply_at=$14, details=$15, updated_at=$16
        WHERE id=$17`
		n, err := q.Exec(ctx, query,
			next.Folio,
			string(next.RequestType),
			string(next.IntakeChannel),
			topicColumn(next.Topic),
			next.SectorID,
			string(next.Status),
			string(next.SLA),
			next.ReceivedAt.UTC(),
			next.DueAt.UTC(),
			next.RespondedAt,
			next.SentToStaffAt,
			next.SentToDireccionAt,
			next.StaffReplyAt,
			next.DireccionReplyAt,
			details,
			next.UpdatedAt,
			next.ID,
		)
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		if n == 0 {
			return apperrors.NewNotFound("case", map[string]any{"id": id})
		}

		if patch.AllegedStaffIDs != nil {
			if err := replaceAllegedStaff(ctx, q, next.ID, next.AllegedStaffIDs); err != nil {
				return err
			}
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *caseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(ctx context.Context, q persistence.Querier) error {
		var folio string
		err := q.QueryRow(ctx, `SELECT folio FROM cases WHERE id=$1`+r.db.Dialect().LockClause(), id).Scan(&folio)
		if errors.Is(err, persistence.ErrNoRows) {
			return apperrors.NewNotFound("case", map[string]any{"id": id})
		}
		if err != nil {
			return err
		}

		for _, stmt := range []struct {
			query string
			args  []any
		}{
			{`DELETE FROM folios WHERE folio=$1 AND case_id=$2`, []any{folio, id}},
			{`DELETE FROM case_alleged_staff WHERE case_id=$1`, []any{id}},
			{`DELETE FROM case_events WHERE case_id=$1`, []any{id}},
			{`DELETE FROM cases WHERE id=$1`, []any{id}},
		} {
			if _, err := q.Exec(ctx, stmt.query, stmt.args...); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *caseRepository) List(ctx context.Context, filter CaseFilter, pageSize int, cursor string) (CasePage, error) {
	if err := filter.Validate(); err != nil {
		return CasePage{}, err
	}
	cur, err := decodeCursor(cursor)
	if err != nil {
		return CasePage{}, err
	}
	pageSize = normalizePageSize(pageSize)

	where, args := buildCaseWhere(filter, cur)
	args = append(args, pageSize)
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE %s ORDER BY received_at DESC, id DESC LIMIT $%d`,
		caseColumns, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return CasePage{}, err
	}
	var raw []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			rows.Close()
			return CasePage{}, err
		}
		raw = append(raw, *c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return CasePage{}, err
	}

	if err := loadAllegedStaff(ctx, r.db, raw); err != nil {
		return CasePage{}, err
	}

	page := CasePage{Items: make([]domain.Case, 0, len(raw))}
	now := r.now()
	for i := range raw {
		raw[i].RefreshSLA(now)
		if filter.SLA != "" && raw[i].SLA != filter.SLA {
			continue
		}
		page.Items = append(page.Items, raw[i])
	}
	if len(raw) == pageSize {
		page.NextCursor = encodeCursor(raw[len(raw)-1])
	}
	return page, nil
}

func (r *caseRepository) ListAll(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	var all []domain.Case
	cursor := ""
	for {
		page, err := r.List(ctx, filter, MaxPageSize, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

func (r *caseRepository) fetch(ctx context.Context, q persistence.Querier, id string, lock bool) (*domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id=$1`
	if lock {
		query += r.db.Dialect().LockClause()
	}
	c, err := scanCase(q.QueryRow(ctx, query, id))
	if errors.Is(err, persistence.ErrNoRows) {
		return nil, apperrors.NewNotFound("case", map[string]any{"id": id})
	}
	if err != nil {
		return nil, err
	}
	cases := []domain.Case{*c}
	if err := loadAllegedStaff(ctx, q, cases); err != nil {
		return nil, err
	}
	return &cases[0], nil
}

// claimFolio writes the folio index record for caseID or fails with a
// duplicate folio error when another case holds it.
func claimFolio(ctx context.Context, q persistence.Querier, folio, caseID string, now time.Time) error {
	var count int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM folios WHERE folio=$1`, folio).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewDuplicateFolio(folio)
	}
	_, err := q.Exec(ctx, `INSERT INTO folios (folio, case_id, created_at, updated_at) VALUES ($1,$2,$3,$3)`, folio, caseID, now)
	if errors.Is(err, persistence.ErrUniqueViolation) {
		return apperrors.NewDuplicateFolio(folio)
	}
	return err
}

func swapFolio(ctx context.Context, q persistence.Querier, oldFolio, newFolio, caseID string, now time.Time) error {
	if err := claimFolio(ctx, q, newFolio, caseID, now); err != nil {
		return err
	}
	_, err := q.Exec(ctx, `DELETE FROM folios WHERE folio=$1 AND case_id=$2`, oldFolio, caseID)
	return err
}

func replaceAllegedStaff(ctx context.Context, q persistence.Querier, caseID string, staffIDs []string) error {
	if _, err := q.Exec(ctx, `DELETE FROM case_alleged_staff WHERE case_id=$1`, caseID); err != nil {
		return err
	}
	for _, staffID := range staffIDs {
		if _, err := q.Exec(ctx, `INSERT INTO case_alleged_staff (case_id, staff_id) VALUES ($1,$2)`, caseID, staffID); err != nil {
			return err
		}
	}
	return nil
}

func loadAllegedStaff(ctx context.Context, q persistence.Querier, cases []domain.Case) error {
	if len(cases) == 0 {
		return nil
	}
	index := make(map[string]int, len(cases))
	placeholders := make([]string, len(cases))
	args := make([]any, len(cases))
	for i, c := range cases {
		index[c.ID] = i
		args[i] = c.ID
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	rows, err := q.Query(ctx, fmt.Sprintf(
		`SELECT case_id, staff_id FROM case_alleged_staff WHERE case_id IN (%s) ORDER BY case_id, staff_id`,
		strings.Join(placeholders, ",")), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var caseID, staffID string
		if err := rows.Scan(&caseID, &staffID); err != nil {
			return err
		}
		if i, ok := index[caseID]; ok {
			cases[i].AllegedStaffIDs = append(cases[i].AllegedStaffIDs, staffID)
		}
	}
	return rows.Err()
}

func scanCase(row persistence.Row) (*domain.Case, error) {
	var (
		c             domain.Case
		requestType   string
		intakeChannel string
		topic         *string
		status        string
		details       []byte
	)
	if err := row.Scan(
		&c.ID,
		&c.Folio,
		&requestType,
		&intakeChannel,
		&topic,
		&c.SectorID,
		&status,
		&c.ReceivedAt,
		&c.DueAt,
		&c.RespondedAt,
		&c.SentToStaffAt,
		&c.SentToDireccionAt,
		&c.StaffReplyAt,
		&c.DireccionReplyAt,
		&details,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	c.RequestType = domain.RequestType(requestType)
	c.IntakeChannel = domain.IntakeChannel(intakeChannel)
	c.Status = domain.CaseStatus(status)
	if topic != nil && *topic != "" {
		t, err := domain.SpecificTopic(*topic)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.ID, err)
		}
		c.Topic = t
	}

	var d caseDetails
	if len(details) > 0 {
		if err := json.Unmarshal(details, &d); err != nil {
			return nil, fmt.Errorf("decode case %s details: %w", c.ID, err)
		}
	}
	c.Response = d.Response
	c.StaffReplyText = d.StaffReplyText
	c.Files = d.Files
	c.Requester = d.Requester
	c.Notes = d.Notes

	c.ReceivedAt = c.ReceivedAt.UTC()
	c.DueAt = c.DueAt.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	c.RespondedAt = utcPtr(c.RespondedAt)
	c.SentToStaffAt = utcPtr(c.SentToStaffAt)
	c.SentToDireccionAt = utcPtr(c.SentToDireccionAt)
	c.StaffReplyAt = utcPtr(c.StaffReplyAt)
	c.DireccionReplyAt = utcPtr(c.DireccionReplyAt)
	return &c, nil
}

func encodeDetails(c *domain.Case) (string, error) {
	raw, err := json.Marshal(caseDetails{
		Response:       c.Response,
		StaffReplyText: c.StaffReplyText,
		Files:          c.Files,
		Requester:      c.Requester,
		Notes:          c.Notes,
	})
	if err != nil {
		return "", fmt.Errorf("encode case details: %w", err)
	}
	return string(raw), nil
}

func topicColumn(t domain.Topic) *string {
	if !t.Applicable() {
		return nil
	}
	name := t.Name()
	return &name
}

func normalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
