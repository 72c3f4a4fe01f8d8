package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("HOLIDAYS_JURISDICTION", "")
	t.Setenv("CALENDAR_WEEKEND_MASK", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Fatalf("driver = %q", cfg.Store.Driver)
	}
	if cfg.Holidays.Jurisdiction != "CL" {
		t.Fatalf("jurisdiction = %q", cfg.Holidays.Jurisdiction)
	}
	if cfg.Calendar.WeekendMask != "0000011" {
		t.Fatalf("weekend mask = %q", cfg.Calendar.WeekendMask)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "POSTGRES")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HOLIDAYS_JURISDICTION", "ar")
	t.Setenv("HOLIDAYS_CACHE_TTL_HOURS", "12")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Fatalf("driver = %q", cfg.Store.Driver)
	}
	if cfg.App.Port != "9090" {
		t.Fatalf("port = %q", cfg.App.Port)
	}
	if cfg.Holidays.Jurisdiction != "AR" {
		t.Fatalf("jurisdiction = %q", cfg.Holidays.Jurisdiction)
	}
	if cfg.Holidays.CacheTTL() != 12*time.Hour {
		t.Fatalf("cache ttl = %s", cfg.Holidays.CacheTTL())
	}
	if cfg.Auth.AccessTokenTTL() != 60*time.Minute {
		t.Fatalf("bad int should fall back to default, got %s", cfg.Auth.AccessTokenTTL())
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}
