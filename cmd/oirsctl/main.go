// Command oirsctl runs maintenance tasks against the case store.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/oirs-service/internal/auth"
	"github.com/spec-kit/oirs-service/internal/calendar"
	"github.com/spec-kit/oirs-service/internal/config"
	"github.com/spec-kit/oirs-service/internal/domain"
	"github.com/spec-kit/oirs-service/internal/holidays"
	"github.com/spec-kit/oirs-service/internal/persistence"
	"github.com/spec-kit/oirs-service/internal/repository"
	"github.com/spec-kit/oirs-service/internal/service"
)

var (
	importActor string

	dueReceived string
	dueType     string
	dueOnline   bool

	tokenActor string
	tokenRole  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "oirsctl",
	Short:         "Maintenance commands for the OIRS case service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations to the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, db persistence.DB, logger *zap.Logger) error {
			if err := persistence.RunMigrations(ctx, db, logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Store.Driver)
			return nil
		})
	},
}

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "Manage curated holiday lists",
}

var holidaysImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Store every year of a holiday file as a curated list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := holidays.LoadFile(args[0])
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(ctx context.Context, _ *config.Config, db persistence.DB, _ *zap.Logger) error {
			catalog := service.NewCatalogService(service.CatalogDependencies{
				HolidayRepo: repository.NewHolidayRepository(db),
			})
			n, err := catalog.ImportHolidayFile(ctx, importActor, file)
			if err != nil {
				return fmt.Errorf("imported %d lists before failing: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d holiday lists\n", n)
			return nil
		})
	},
}

var dueDateCmd = &cobra.Command{
	Use:   "due-date",
	Short: "Compute the response deadline for a request",
	RunE: func(cmd *cobra.Command, args []string) error {
		receivedAt, err := calendar.ParseDate(dueReceived)
		if err != nil {
			return err
		}
		requestType := domain.RequestType(strings.ToLower(dueType))
		return withStore(cmd.Context(), func(ctx context.Context, cfg *config.Config, db persistence.DB, logger *zap.Logger) error {
			weekend, err := calendar.ParseWeekendMask(cfg.Calendar.WeekendMask)
			if err != nil {
				return err
			}
			opts := holidays.Options{
				Jurisdiction: cfg.Holidays.Jurisdiction,
				Store:        repository.NewHolidayRepository(db),
				Logger:       logger,
			}
			if dueOnline {
				opts.Fetcher = holidays.NewNagerClient(cfg.Holidays.APIURL, cfg.Holidays.HTTPTimeout(), cfg.Holidays.RatePerSecond)
			}
			set := holidays.NewResolver(opts).ForDueDate(ctx, receivedAt)
			due, err := calendar.NewCalculator(weekend).DueDate(receivedAt, requestType, set)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s + %d business days = %s\n",
				receivedAt.Format(calendar.DateLayout), calendar.BusinessDaysFor(requestType), due.Format(calendar.DateLayout))
			return nil
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with AUTH_JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		role := auth.Role(strings.ToLower(tokenRole))
		if !role.Valid() {
			return fmt.Errorf("unknown role %q (operator or admin)", tokenRole)
		}
		token, expires, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes).GenerateToken(tokenActor, role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.UTC().Format(time.RFC3339))
		return nil
	},
}

func withStore(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, db persistence.DB, logger *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := zap.NewNop()

	var db persistence.DB
	if cfg.Store.Driver == config.DriverPostgres {
		db, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
	} else {
		db, err = persistence.NewSQLite(ctx, cfg.SQLite, logger)
	}
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer db.Close()
	return fn(ctx, cfg, db, logger)
}

func init() {
	holidaysImportCmd.Flags().StringVar(&importActor, "actor", "oirsctl", "recorded as the editor of the imported lists")
	holidaysCmd.AddCommand(holidaysImportCmd)

	dueDateCmd.Flags().StringVar(&dueReceived, "received", "", "reception date, YYYY-MM-DD")
	dueDateCmd.Flags().StringVar(&dueType, "type", "", "request type (reclamo, solicitud, felicitacion, sugerencia, consulta)")
	dueDateCmd.Flags().BoolVar(&dueOnline, "online", false, "consult the public holiday API when no curated list exists")
	_ = dueDateCmd.MarkFlagRequired("received")
	_ = dueDateCmd.MarkFlagRequired("type")

	tokenCmd.Flags().StringVar(&tokenActor, "actor", "", "actor recorded on case changes")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(auth.RoleOperator), "operator or admin")
	_ = tokenCmd.MarkFlagRequired("actor")

	rootCmd.AddCommand(migrateCmd, holidaysCmd, dueDateCmd, tokenCmd)
}
