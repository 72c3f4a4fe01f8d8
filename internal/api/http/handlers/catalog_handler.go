package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oirs-service/internal/api/dto"
	"github.com/spec-kit/oirs-service/internal/domain"
	"github.com/spec-kit/oirs-service/internal/repository"
	"github.com/spec-kit/oirs-service/internal/service"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

// CatalogHandler exposes sector and staff reference data.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListSectors GET /sectors?active=true.
func (h *CatalogHandler) ListSectors(c *fiber.Ctx) error {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	sectors, err := h.catalog.ListSectors(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	items := make([]dto.SectorResponse, 0, len(sectors))
	for i := range sectors {
		items = append(items, sectorResponse(&sectors[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpsertSector POST /sectors.
func (h *CatalogHandler) UpsertSector(c *fiber.Ctx) error {
	var req dto.SectorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sector := &domain.Sector{
		ID:      req.ID,
		Name:    req.Name,
		Code:    req.Code,
		Active:  req.Active == nil || *req.Active,
		ChiefID: req.ChiefID,
	}
	if err := h.catalog.UpsertSector(c.UserContext(), sector); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": sectorResponse(sector)})
}

// ListStaff GET /staff?sector_id=&active=.
func (h *CatalogHandler) ListStaff(c *fiber.Ctx) error {
	filter := repository.StaffFilter{SectorID: c.Query("sector_id")}
	if v := c.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return apperrors.NewValidationError("active must be a boolean", nil)
		}
		filter.Active = &active
	}
	staff, err := h.catalog.ListStaff(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.StaffResponse, 0, len(staff))
	for i := range staff {
		items = append(items, staffResponse(&staff[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpsertStaff POST /staff.
func (h *CatalogHandler) UpsertStaff(c *fiber.Ctx) error {
	var req dto.StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	staff := &domain.Staff{
		ID:        req.ID,
		Email:     req.Email,
		Name:      req.Name,
		Role:      req.Role,
		SectorIDs: req.SectorIDs,
		IsChief:   req.IsChief,
		ChiefID:   req.ChiefID,
		Active:    req.Active == nil || *req.Active,
	}
	if err := h.catalog.UpsertStaff(c.UserContext(), staff); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": staffResponse(staff)})
}

func sectorResponse(s *domain.Sector) dto.SectorResponse {
	return dto.SectorResponse{
		ID:        s.ID,
		Name:      s.Name,
		Code:      s.Code,
		Active:    s.Active,
		ChiefID:   s.ChiefID,
		UpdatedAt: s.UpdatedAt,
	}
}

func staffResponse(s *domain.Staff) dto.StaffResponse {
	sectors := s.SectorIDs
	if sectors == nil {
		sectors = []string{}
	}
	return dto.StaffResponse{
		ID:        s.ID,
		Email:     s.Email,
		Name:      s.Name,
		Role:      s.Role,
		SectorIDs: sectors,
		IsChief:   s.IsChief,
		ChiefID:   s.ChiefID,
		Active:    s.Active,
		UpdatedAt: s.UpdatedAt,
	}
}
