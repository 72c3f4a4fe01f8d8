package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/oirs-service/internal/api/http"
	"github.com/spec-kit/oirs-service/internal/api/http/handlers"
	"github.com/spec-kit/oirs-service/internal/auth"
	"github.com/spec-kit/oirs-service/internal/config"
	"github.com/spec-kit/oirs-service/internal/domain"
	"github.com/spec-kit/oirs-service/internal/events"
	"github.com/spec-kit/oirs-service/internal/holidays"
	"github.com/spec-kit/oirs-service/internal/observability"
	"github.com/spec-kit/oirs-service/internal/persistence"
	"github.com/spec-kit/oirs-service/internal/repository"
	"github.com/spec-kit/oirs-service/internal/service"
	"github.com/spec-kit/oirs-service/internal/storage"
)

type testServer struct {
	app      *fiber.App
	operator string
	admin    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := persistence.NewSQLite(ctx, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "router.db")}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(db.Close)
	if err := persistence.RunMigrations(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	now := func() time.Time { return time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC) }
	files, err := storage.NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	holidayRepo := repository.NewHolidayRepository(db)
	sectorRepo := repository.NewSectorRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	resolver := holidays.NewResolver(holidays.Options{Store: holidayRepo})

	cases := service.NewCaseService(service.CaseDependencies{
		CaseRepo:   repository.NewCaseRepository(db, now),
		EventRepo:  repository.NewCaseEventRepository(db),
		SectorRepo: sectorRepo,
		StaffRepo:  staffRepo,
		Holidays:   resolver,
		Files:      files,
		Dispatcher: events.NewInMemoryDispatcher(nil),
		Clock:      now,
	})
	catalog := service.NewCatalogService(service.CatalogDependencies{
		SectorRepo:  sectorRepo,
		StaffRepo:   staffRepo,
		HolidayRepo: holidayRepo,
		Resolver:    resolver,
	})
	if err := catalog.UpsertSector(ctx, &domain.Sector{ID: "urgencias", Name: "Urgencias", Active: true}); err != nil {
		t.Fatalf("seed sector: %v", err)
	}

	tokens := auth.NewTokenManager("router-secret", 30)
	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("oirs-service", "test", map[string]handlers.Pinger{"store": db}, metrics),
		Cases:          handlers.NewCasesHandler(cases),
		Catalog:        handlers.NewCatalogHandler(catalog),
		Holidays:       handlers.NewHolidaysHandler(catalog, "CL"),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, true),
	})

	operator, _, err := tokens.GenerateToken("ana@hospital.cl", auth.RoleOperator)
	if err != nil {
		t.Fatal(err)
	}
	admin, _, err := tokens.GenerateToken("jefa@hospital.cl", auth.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	return &testServer{app: app, operator: operator, admin: admin}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, out
}

func errorBody(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error body, got %v", body)
	}
	return e
}

const createBody = `{"folio":"F-1","request_type":"solicitud","intake_channel":"plataforma","sector_id":"urgencias","received_at":"2025-01-02"}`

func TestCreateCaseAndDuplicateFolio(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "POST", "/cases", s.operator, createBody)
	if status != fiber.StatusCreated {
		t.Fatalf("status = %d body = %v", status, body)
	}
	data := body["data"].(map[string]any)
	if data["due_at"] != "2025-01-23" || data["status"] != "IN_REVIEW" {
		t.Fatalf("unexpected case %v", data)
	}

	status, body = s.do(t, "POST", "/cases", s.operator, createBody)
	if status != fiber.StatusConflict {
		t.Fatalf("status = %d", status)
	}
	e := errorBody(t, body)
	if e["code"] != "DUPLICATE_FOLIO" {
		t.Fatalf("code = %v", e["code"])
	}
	if details := e["details"].(map[string]any); details["folio"] != "F-1" {
		t.Fatalf("details = %v", details)
	}
}

func TestActionsFollowTheWorkflow(t *testing.T) {
	s := newTestServer(t)
	_, body := s.do(t, "POST", "/cases", s.operator, createBody)
	id := body["data"].(map[string]any)["id"].(string)

	status, body := s.do(t, "POST", "/cases/"+id+"/actions/archive", s.operator, "")
	if status != fiber.StatusConflict {
		t.Fatalf("status = %d", status)
	}
	e := errorBody(t, body)
	details := e["details"].(map[string]any)
	if e["code"] != "INVALID_STATE_TRANSITION" || details["current"] != "IN_REVIEW" || details["target"] != "ARCHIVED" {
		t.Fatalf("error = %v", e)
	}

	status, body = s.do(t, "POST", "/cases/"+id+"/actions/send-to-staff", s.operator, "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d body = %v", status, body)
	}
	if got := body["data"].(map[string]any)["status"]; got != "SENT_TO_STAFF" {
		t.Fatalf("status = %v", got)
	}

	status, body = s.do(t, "GET", "/cases/"+id+"/events", s.operator, "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if items := body["data"].([]any); len(items) != 2 {
		t.Fatalf("expected status_change and send_to_staff events, got %v", items)
	}

	status, _ = s.do(t, "POST", "/cases/"+id+"/actions/reopen", s.operator, "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("unknown action status = %d", status)
	}
}

func TestAuthAndRoles(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/cases", "", "")
	if status != fiber.StatusUnauthorized || errorBody(t, body)["code"] != "UNAUTHORIZED" {
		t.Fatalf("status = %d body = %v", status, body)
	}

	_, body = s.do(t, "POST", "/cases", s.operator, createBody)
	id := body["data"].(map[string]any)["id"].(string)

	if status, _ := s.do(t, "DELETE", "/cases/"+id, s.operator, ""); status != fiber.StatusForbidden {
		t.Fatalf("operator delete status = %d", status)
	}
	if status, _ := s.do(t, "DELETE", "/cases/"+id, s.admin, ""); status != fiber.StatusNoContent {
		t.Fatalf("admin delete status = %d", status)
	}
	if status, _ := s.do(t, "GET", "/cases/"+id, s.operator, ""); status != fiber.StatusNotFound {
		t.Fatalf("deleted case status = %d", status)
	}
}

func TestDueDatePreviewAndHolidays(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, "GET", "/due-date?received_at=2025-01-02&request_type=felicitacion", s.operator, "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d body = %v", status, body)
	}
	if due := body["data"].(map[string]any)["due_at"]; due != "2025-01-30" {
		t.Fatalf("due_at = %v", due)
	}

	if status, _ := s.do(t, "PUT", "/holidays/CL-2025", s.operator, `{"days":["2025-01-10"]}`); status != fiber.StatusForbidden {
		t.Fatalf("operator holiday update status = %d", status)
	}
	if status, body := s.do(t, "PUT", "/holidays/CL-2025", s.admin, `{"days":["2025-01-10"]}`); status != fiber.StatusOK {
		t.Fatalf("status = %d body = %v", status, body)
	}
	status, body = s.do(t, "GET", "/holidays/2025", s.operator, "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	data := body["data"].(map[string]any)
	if data["source"] != "curated" || len(data["days"].([]any)) != 1 {
		t.Fatalf("holidays = %v", data)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if status, body := s.do(t, "GET", "/health/ready", "", ""); status != fiber.StatusOK || body["status"] != "ready" {
		t.Fatalf("ready status = %d body = %v", status, body)
	}
	s.do(t, "GET", "/health/live", "", "")
	status, body := s.do(t, "GET", "/metrics", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("metrics status = %d", status)
	}
	if requests, _ := body["requests"].([]any); len(requests) == 0 {
		t.Fatalf("metrics = %v", body)
	}
}

func TestPatchStatusRunsTheStep(t *testing.T) {
	s := newTestServer(t)
	_, body := s.do(t, "POST", "/cases", s.operator, createBody)
	id := body["data"].(map[string]any)["id"].(string)

	status, body := s.do(t, "PATCH", "/cases/"+id, s.operator, `{"status":"sent_to_staff"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d body = %v", status, body)
	}
	data := body["data"].(map[string]any)
	if data["status"] != "SENT_TO_STAFF" || data["sent_to_staff_at"] == nil {
		t.Fatalf("case = %v", data)
	}

	status, body = s.do(t, "PATCH", "/cases/"+id, s.operator, `{"status":"ARCHIVED"}`)
	if status != fiber.StatusConflict || errorBody(t, body)["code"] != "INVALID_STATE_TRANSITION" {
		t.Fatalf("status = %d body = %v", status, body)
	}
}

func TestPatchResponseMergesTexts(t *testing.T) {
	s := newTestServer(t)
	_, body := s.do(t, "POST", "/cases", s.operator,
		`{"folio":"F-2","request_type":"solicitud","intake_channel":"plataforma","sector_id":"urgencias","received_at":"2025-01-02","response":{"summary":"resumen","caseText":"relato"}}`)
	id := body["data"].(map[string]any)["id"].(string)

	for _, action := range []string{"send-to-staff", "record-rebuttal", "send-to-directorate", "record-directorate-reply"} {
		if status, body := s.do(t, "POST", "/cases/"+id+"/actions/"+action, s.operator, ""); status != fiber.StatusOK {
			t.Fatalf("%s: status = %d body = %v", action, status, body)
		}
	}
	if status, body := s.do(t, "POST", "/cases/"+id+"/actions/send-response", s.operator, `{"response_type":"correo"}`); status != fiber.StatusOK {
		t.Fatalf("send-response: status = %d body = %v", status, body)
	}

	status, body := s.do(t, "PATCH", "/cases/"+id, s.operator, `{"response":{"responseText":"respuesta final"}}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d body = %v", status, body)
	}
	response := body["data"].(map[string]any)["response"].(map[string]any)
	if response["type"] != "correo" || response["summary"] != "resumen" || response["responseText"] != "respuesta final" {
		t.Fatalf("response = %v", response)
	}

	status, body = s.do(t, "PATCH", "/cases/"+id, s.operator, `{"response":{"type":""}}`)
	if status != fiber.StatusBadRequest || errorBody(t, body)["code"] != "VALIDATION_FAILED" {
		t.Fatalf("status = %d body = %v", status, body)
	}
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, "GET", "/no-such-route", s.operator, "")
	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d body = %v", status, body)
	}
	if e := errorBody(t, body); e["code"] != "NOT_FOUND" || e["message"] == "" {
		t.Fatalf("error = %v", e)
	}
}
