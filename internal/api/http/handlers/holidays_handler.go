package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oirs-service/internal/api/dto"
	"github.com/spec-kit/oirs-service/internal/auth"
	"github.com/spec-kit/oirs-service/internal/service"
	apperrors "github.com/spec-kit/oirs-service/pkg/util/errorutil"
)

// HolidaysHandler curates and inspects holiday lists.
type HolidaysHandler struct {
	catalog      *service.CatalogService
	jurisdiction string
}

// NewHolidaysHandler constructs handler.
func NewHolidaysHandler(catalog *service.CatalogService, jurisdiction string) *HolidaysHandler {
	return &HolidaysHandler{catalog: catalog, jurisdiction: jurisdiction}
}

// Put PUT /holidays/:key.
func (h *HolidaysHandler) Put(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.HolidaysRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	days, err := h.catalog.PutHolidays(c.UserContext(), actor, c.Params("key"), req.Days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HolidaysResponse{Key: c.Params("key"), Days: days}})
}

// Resolve GET /holidays/:year returns the effective list and its source.
func (h *HolidaysHandler) Resolve(c *fiber.Ctx) error {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil || year < 1900 || year > 9999 {
		return apperrors.NewValidationError("year must be a four digit number", nil)
	}
	days, source := h.catalog.ResolveHolidays(c.UserContext(), year)
	return c.JSON(fiber.Map{"data": dto.HolidaysResponse{
		Key:    h.jurisdiction + "-" + strconv.Itoa(year),
		Days:   days,
		Source: string(source),
	}})
}
