package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/oirs-service/internal/domain"
	"github.com/spec-kit/oirs-service/internal/persistence"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

// StaffRepository handles persistence for the staff directory.
type StaffRepository interface {
	Upsert(ctx context.Context, staff *domain.Staff) error
	GetByID(ctx context.Context, id string) (*domain.Staff, error)
	// Missing returns the ids among ids that have no staff record.
	Missing(ctx context.Context, ids []string) ([]string, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	SectorID string
	Active   *bool
}

type staffRepository struct {
	db persistence.DB
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(db persistence.DB) StaffRepository {
	return &staffRepository{db: db}
}

const staffColumns = `id, email, name, role, is_chief, chief_id, active, created_at, updated_at`

func (r *staffRepository) Upsert(ctx context.Context, staff *domain.Staff) error {
	now := time.Now().UTC()
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now
	staff.SectorIDs = normalizeIDs(staff.SectorIDs)

	return r.db.WithTx(ctx, func(ctx context.Context, q persistence.Querier) error {
		const query = `
        INSERT INTO staff (id, email, name, role, is_chief, chief_id, active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (id) DO UPDATE SET email=excluded.email, name=excluded.name, role=excluded.role,
            is_chief=excluded.is_chief, chief_id=excluded.chief_id, active=excluded.active, updated_at=excluded.updated_at`
		_, err := q.Exec(ctx, query,
			staff.ID,
			strings.ToLower(strings.TrimSpace(staff.Email)),
			staff.Name,
			staff.Role,
			staff.IsChief,
			staff.ChiefID,
			staff.Active,
			staff.CreatedAt,
			staff.UpdatedAt,
		)
		if errors.Is(err, persistence.ErrUniqueViolation) {
			return apperrors.NewValidationError("staff email already registered", map[string]any{"email": staff.Email})
		}
		if err != nil {
			return err
		}

		if _, err := q.Exec(ctx, `DELETE FROM staff_sectors WHERE staff_id=$1`, staff.ID); err != nil {
			return err
		}
		for _, sectorID := range staff.SectorIDs {
			if _, err := q.Exec(ctx, `INSERT INTO staff_sectors (staff_id, sector_id) VALUES ($1,$2)`, staff.ID, sectorID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	staff, err := scanStaff(r.db.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id=$1`, id))
	if errors.Is(err, persistence.ErrNoRows) {
		return nil, apperrors.NewNotFound("staff", map[string]any{"id": id})
	}
	if err != nil {
		return nil, err
	}
	sectors, err := r.sectorsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	staff.SectorIDs = sectors
	return staff, nil
}

func (r *staffRepository) Missing(ctx context.Context, ids []string) ([]string, error) {
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT id FROM staff WHERE id IN (%s)`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff`
	args := []any{}
	clauses := []string{}

	if filter.SectorID != "" {
		args = append(args, filter.SectorID)
		clauses = append(clauses, fmt.Sprintf("EXISTS (SELECT 1 FROM staff_sectors ss WHERE ss.staff_id = staff.id AND ss.sector_id=$%d)", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	result := []domain.Staff{}
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		result = append(result, *staff)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		sectors, err := r.sectorsOf(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].SectorIDs = sectors
	}
	return result, nil
}

func (r *staffRepository) sectorsOf(ctx context.Context, staffID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT sector_id FROM staff_sectors WHERE staff_id=$1 ORDER BY sector_id`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sectors []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		sectors = append(sectors, id)
	}
	return sectors, rows.Err()
}

func scanStaff(row persistence.Row) (*domain.Staff, error) {
	var staff domain.Staff
	if err := row.Scan(
		&staff.ID,
		&staff.Email,
		&staff.Name,
		&staff.Role,
		&staff.IsChief,
		&staff.ChiefID,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}
