package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/spec-kit/oirs-service/internal/calendar"
	"github.com/spec-kit/oirs-service/internal/domain"
	"github.com/spec-kit/oirs-service/internal/holidays"
	"github.com/spec-kit/oirs-service/internal/repository"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

var holidayKeyPattern = regexp.MustCompile(`^[A-Z]{2}-(\d{4})$`)

// CatalogService manages reference data: sectors, staff and curated holidays.
type CatalogService struct {
	sectors  repository.SectorRepository
	staff    repository.StaffRepository
	holidays repository.HolidayRepository
	resolver *holidays.Resolver
}

// CatalogDependencies bundles repositories for the catalog service.
type CatalogDependencies struct {
	SectorRepo  repository.SectorRepository
	StaffRepo   repository.StaffRepository
	HolidayRepo repository.HolidayRepository
	Resolver    *holidays.Resolver
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		sectors:  deps.SectorRepo,
		staff:    deps.StaffRepo,
		holidays: deps.HolidayRepo,
		resolver: deps.Resolver,
	}
}

// UpsertSector creates or replaces a sector.
func (s *CatalogService) UpsertSector(ctx context.Context, sector *domain.Sector) error {
	sector.Name = strings.TrimSpace(sector.Name)
	if sector.Name == "" {
		return apperrors.NewValidationError("sector name required", nil)
	}
	if sector.ChiefID != nil {
		if _, err := s.staff.GetByID(ctx, *sector.ChiefID); err != nil {
			return err
		}
	}
	return s.sectors.Upsert(ctx, sector)
}

// ListSectors returns sectors ordered by name.
func (s *CatalogService) ListSectors(ctx context.Context, activeOnly bool) ([]domain.Sector, error) {
	return s.sectors.List(ctx, activeOnly)
}

// UpsertStaff creates or replaces a staff member and their sector memberships.
func (s *CatalogService) UpsertStaff(ctx context.Context, staff *domain.Staff) error {
	staff.Name = strings.TrimSpace(staff.Name)
	staff.Email = strings.TrimSpace(staff.Email)
	if staff.Name == "" || !strings.Contains(staff.Email, "@") {
		return apperrors.NewValidationError("staff name and a valid email are required", nil)
	}
	for _, sectorID := range staff.SectorIDs {
		if _, err := s.sectors.GetByID(ctx, sectorID); err != nil {
			return err
		}
	}
	return s.staff.Upsert(ctx, staff)
}

// ListStaff returns staff matching filter.
func (s *CatalogService) ListStaff(ctx context.Context, filter repository.StaffFilter) ([]domain.Staff, error) {
	return s.staff.List(ctx, filter)
}

// PutHolidays replaces the curated list stored under key (for example CL-2025).
// Every date must fall in the key's year.
func (s *CatalogService) PutHolidays(ctx context.Context, actor, key string, days []string) ([]string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	m := holidayKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return nil, apperrors.NewValidationError("holiday key must look like CL-2025", map[string]any{"key": key})
	}
	set, err := calendar.ParseHolidaySet(days)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid holiday date", map[string]any{"error": err.Error()})
	}
	normalized := set.Days()
	for _, d := range normalized {
		if !strings.HasPrefix(d, m[1]+"-") {
			return nil, apperrors.NewValidationError(fmt.Sprintf("%s is outside %s", d, key), map[string]any{"date": d})
		}
	}
	if err := s.holidays.Put(ctx, key, normalized, actor); err != nil {
		return nil, err
	}
	return normalized, nil
}

// ImportHolidayFile stores every year listed in f.
func (s *CatalogService) ImportHolidayFile(ctx context.Context, actor string, f *holidays.File) (int, error) {
	imported := 0
	for _, entry := range f.Entries() {
		if _, err := s.PutHolidays(ctx, actor, entry.Key, entry.Days); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// ResolveHolidays returns the effective holiday list of a year and where it came from.
func (s *CatalogService) ResolveHolidays(ctx context.Context, year int) ([]string, holidays.Source) {
	set, source := s.resolver.ForYear(ctx, year)
	return set.Days(), source
}
