package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	SQLite       SQLiteConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Holidays     HolidaysConfig
	Calendar     CalendarConfig
	Files        FilesConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitMB           int
}

// StoreConfig selects the case store backend.
type StoreConfig struct {
	Driver        string
	RunMigrations bool
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// SQLiteConfig holds the embedded database location.
type SQLiteConfig struct {
	Path string
}

// RedisConfig holds Redis connection values. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines bearer token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	Required              bool
}

// HolidaysConfig controls holiday resolution.
type HolidaysConfig struct {
	Jurisdiction   string
	APIURL         string
	RatePerSecond  float64
	CacheTTLHours  int
	WarmupSchedule string
	HTTPTimeoutSec int
}

// CalendarConfig holds the business calendar definition.
type CalendarConfig struct {
	WeekendMask string
}

// FilesConfig locates the case attachment store.
type FilesConfig struct {
	Root    string
	BaseURL string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rate, err := strconv.ParseFloat(getEnv("HOLIDAYS_API_RATE_PER_SECOND", "2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid HOLIDAYS_API_RATE_PER_SECOND: %w", err)
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite))
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", driver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "oirs-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			BodyLimitMB:           getEnvAsInt("HTTP_BODY_LIMIT_MB", 20),
		},
		Store: StoreConfig{
			Driver:        driver,
			RunMigrations: getEnvAsBool("STORE_RUN_MIGRATIONS", true),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "oirs.db"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			Required:              getEnvAsBool("AUTH_REQUIRED", true),
		},
		Holidays: HolidaysConfig{
			Jurisdiction:   strings.ToUpper(getEnv("HOLIDAYS_JURISDICTION", "CL")),
			APIURL:         getEnv("HOLIDAYS_API_URL", "https://date.nager.at/api/v3"),
			RatePerSecond:  rate,
			CacheTTLHours:  getEnvAsInt("HOLIDAYS_CACHE_TTL_HOURS", 24*7),
			WarmupSchedule: getEnv("HOLIDAYS_WARMUP_SCHEDULE", "0 3 * * *"),
			HTTPTimeoutSec: getEnvAsInt("HOLIDAYS_HTTP_TIMEOUT_SECONDS", 10),
		},
		Calendar: CalendarConfig{
			WeekendMask: getEnv("CALENDAR_WEEKEND_MASK", "0000011"),
		},
		Files: FilesConfig{
			Root:    getEnv("FILES_ROOT", "data/files"),
			BaseURL: getEnv("FILES_BASE_URL", "/files"),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued bearer tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// CacheTTL returns how long externally fetched holiday sets stay cached.
func (h HolidaysConfig) CacheTTL() time.Duration {
	return time.Duration(h.CacheTTLHours) * time.Hour
}

// HTTPTimeout bounds a single call to the external holiday API.
func (h HolidaysConfig) HTTPTimeout() time.Duration {
	return time.Duration(h.HTTPTimeoutSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
