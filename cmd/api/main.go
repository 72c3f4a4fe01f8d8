package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/oirs-service/internal/api/http"
	"github.com/spec-kit/oirs-service/internal/api/http/handlers"
	"github.com/spec-kit/oirs-service/internal/auth"
	"github.com/spec-kit/oirs-service/internal/calendar"
	"github.com/spec-kit/oirs-service/internal/config"
	"github.com/spec-kit/oirs-service/internal/events"
	"github.com/spec-kit/oirs-service/internal/holidays"
	"github.com/spec-kit/oirs-service/internal/observability"
	"github.com/spec-kit/oirs-service/internal/persistence"
	"github.com/spec-kit/oirs-service/internal/repository"
	"github.com/spec-kit/oirs-service/internal/service"
	"github.com/spec-kit/oirs-service/internal/storage"
	"github.com/spec-kit/oirs-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open case store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer db.Close()

	if cfg.Store.RunMigrations {
		if err := persistence.RunMigrations(ctx, db, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	cache := holidays.DialRedisCache(cfg.Redis, logger)
	defer cache.Close()

	weekend, err := calendar.ParseWeekendMask(cfg.Calendar.WeekendMask)
	if err != nil {
		logger.Fatal("invalid weekend mask", zap.Error(err))
	}

	caseRepo := repository.NewCaseRepository(db, time.Now)
	eventRepo := repository.NewCaseEventRepository(db)
	sectorRepo := repository.NewSectorRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)

	resolverOpts := holidays.Options{
		Jurisdiction: cfg.Holidays.Jurisdiction,
		Store:        holidayRepo,
		CacheTTL:     cfg.Holidays.CacheTTL(),
		Logger:       logger,
	}
	if cfg.Holidays.APIURL != "" {
		resolverOpts.Fetcher = holidays.NewNagerClient(cfg.Holidays.APIURL, cfg.Holidays.HTTPTimeout(), cfg.Holidays.RatePerSecond)
	}
	if cache != nil {
		resolverOpts.Cache = cache
	}
	resolver := holidays.NewResolver(resolverOpts)

	files, err := storage.NewLocalStore(cfg.Files.Root, cfg.Files.BaseURL)
	if err != nil {
		logger.Fatal("failed to prepare file store", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifier := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notifier.RegisterHandlers()

	caseService := service.NewCaseService(service.CaseDependencies{
		CaseRepo:   caseRepo,
		EventRepo:  eventRepo,
		SectorRepo: sectorRepo,
		StaffRepo:  staffRepo,
		Holidays:   resolver,
		Calculator: calendar.NewCalculator(weekend),
		Files:      files,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		SectorRepo:  sectorRepo,
		StaffRepo:   staffRepo,
		HolidayRepo: holidayRepo,
		Resolver:    resolver,
	})

	stopWarmup, err := worker.NewHolidayWarmup(resolver, logger, time.Now).Start(ctx, cfg.Holidays.WarmupSchedule)
	if err != nil {
		logger.Fatal("invalid holiday warm-up schedule", zap.Error(err))
	}
	defer stopWarmup()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	if !cfg.Auth.Required {
		logger.Warn("AUTH_REQUIRED=false; anonymous requests act as admin")
	}
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitMB * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	dependencies := map[string]handlers.Pinger{"store": db}
	if cache != nil {
		dependencies["redis"] = cache
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies, metrics),
		Cases:          handlers.NewCasesHandler(caseService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Holidays:       handlers.NewHolidaysHandler(catalogService, resolver.Jurisdiction()),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, cfg.Auth.Required),
	})
	// Registered after the routes so stored files sit behind the auth middleware.
	if strings.HasPrefix(cfg.Files.BaseURL, "/") {
		app.Static(cfg.Files.BaseURL, cfg.Files.Root)
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)

	drainCtx, stopDrain := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopDrain()
	if err := notifier.Wait(drainCtx); err != nil {
		logger.Warn("pending webhooks abandoned", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (persistence.DB, error) {
	if cfg.Store.Driver == config.DriverPostgres {
		return persistence.NewPostgres(ctx, cfg.Postgres, logger)
	}
	return persistence.NewSQLite(ctx, cfg.SQLite, logger)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
