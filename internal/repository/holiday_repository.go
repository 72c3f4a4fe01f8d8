package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/oirs-service/internal/persistence"
)

// HolidayRepository stores organization-curated holiday lists keyed by
// jurisdiction and year, e.g. "CL-2025".
type HolidayRepository interface {
	// Get returns the stored dates. ok is false when no list exists for key.
	Get(ctx context.Context, key string) (days []string, ok bool, err error)
	Put(ctx context.Context, key string, days []string, updatedBy string) error
}

type holidayRepository struct {
	db persistence.Querier
}

// NewHolidayRepository builds the repository.
func NewHolidayRepository(db persistence.Querier) HolidayRepository {
	return &holidayRepository{db: db}
}

func (r *holidayRepository) Get(ctx context.Context, key string) ([]string, bool, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT days FROM holidays WHERE holiday_key=$1`, key).Scan(&raw)
	if errors.Is(err, persistence.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var days []string
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, false, fmt.Errorf("decode holidays %s: %w", key, err)
	}
	return days, true, nil
}

func (r *holidayRepository) Put(ctx context.Context, key string, days []string, updatedBy string) error {
	if days == nil {
		days = []string{}
	}
	raw, err := json.Marshal(days)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO holidays (holiday_key, days, updated_by, updated_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (holiday_key) DO UPDATE SET days=excluded.days, updated_by=excluded.updated_by, updated_at=excluded.updated_at`
	_, err = r.db.Exec(ctx, query, key, string(raw), updatedBy, time.Now().UTC())
	return err
}
