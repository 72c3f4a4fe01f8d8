package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/oirs-service/internal/domain"
	"github.com/spec-kit/oirs-service/internal/persistence"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

// SectorRepository manages sector reference data.
type SectorRepository interface {
	Upsert(ctx context.Context, sector *domain.Sector) error
	GetByID(ctx context.Context, id string) (*domain.Sector, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Sector, error)
}

type sectorRepository struct {
	db persistence.Querier
}

// NewSectorRepository builds the repository.
func NewSectorRepository(db persistence.Querier) SectorRepository {
	return &sectorRepository{db: db}
}

func (r *sectorRepository) Upsert(ctx context.Context, sector *domain.Sector) error {
	now := time.Now().UTC()
	if sector.ID == "" {
		sector.ID = uuid.NewString()
	}
	if sector.CreatedAt.IsZero() {
		sector.CreatedAt = now
	}
	sector.UpdatedAt = now

	const query = `
        INSERT INTO sectors (id, name, code, active, chief_id, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (id) DO UPDATE SET name=excluded.name, code=excluded.code, active=excluded.active,
            chief_id=excluded.chief_id, updated_at=excluded.updated_at`
	_, err := r.db.Exec(ctx, query,
		sector.ID,
		sector.Name,
		sector.Code,
		sector.Active,
		sector.ChiefID,
		sector.CreatedAt,
		sector.UpdatedAt,
	)
	return err
}

func (r *sectorRepository) GetByID(ctx context.Context, id string) (*domain.Sector, error) {
	const query = `
        SELECT id, name, code, active, chief_id, created_at, updated_at
        FROM sectors WHERE id=$1`
	var sector domain.Sector
	err := r.db.QueryRow(ctx, query, id).Scan(
		&sector.ID,
		&sector.Name,
		&sector.Code,
		&sector.Active,
		&sector.ChiefID,
		&sector.CreatedAt,
		&sector.UpdatedAt,
	)
	if errors.Is(err, persistence.ErrNoRows) {
		return nil, apperrors.NewNotFound("sector", map[string]any{"id": id})
	}
	if err != nil {
		return nil, err
	}
	return &sector, nil
}

func (r *sectorRepository) List(ctx context.Context, activeOnly bool) ([]domain.Sector, error) {
	query := `
        SELECT id, name, code, active, chief_id, created_at, updated_at
        FROM sectors`
	args := []any{}
	if activeOnly {
		query += ` WHERE active=$1`
		args = append(args, true)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Sector{}
	for rows.Next() {
		var sector domain.Sector
		if err := rows.Scan(&sector.ID, &sector.Name, &sector.Code, &sector.Active, &sector.ChiefID, &sector.CreatedAt, &sector.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, sector)
	}
	return result, rows.Err()
}
