package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oirs-service/internal/api/http/handlers"
	"github.com/spec-kit/oirs-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Cases          *handlers.CasesHandler
	Catalog        *handlers.CatalogHandler
	Holidays       *handlers.HolidaysHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("", cfg.AuthMiddleware.Handle)
	adminOnly := auth.RequireRole(auth.RoleAdmin)

	api.Get("/due-date", cfg.Cases.DueDate)

	cases := api.Group("/cases")
	cases.Post("/", cfg.Cases.CreateCase)
	cases.Get("/", cfg.Cases.ListCases)
	cases.Get("/export", cfg.Cases.ExportCases)
	cases.Get("/:id", cfg.Cases.GetCase)
	cases.Patch("/:id", cfg.Cases.UpdateCase)
	cases.Delete("/:id", adminOnly, cfg.Cases.DeleteCase)
	cases.Post("/:id/actions/:action", cfg.Cases.RunAction)
	cases.Get("/:id/events", cfg.Cases.ListEvents)
	cases.Post("/:id/notes", cfg.Cases.AddNote)
	cases.Put("/:id/files/:slot", cfg.Cases.UploadFile)
	cases.Delete("/:id/files/:slot", cfg.Cases.RemoveFile)

	api.Get("/sectors", cfg.Catalog.ListSectors)
	api.Post("/sectors", adminOnly, cfg.Catalog.UpsertSector)
	api.Get("/staff", cfg.Catalog.ListStaff)
	api.Post("/staff", adminOnly, cfg.Catalog.UpsertStaff)

	api.Get("/holidays/:year<int>", cfg.Holidays.Resolve)
	api.Put("/holidays/:key", adminOnly, cfg.Holidays.Put)
}
