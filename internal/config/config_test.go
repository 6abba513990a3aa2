package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestParseCSVEnv проверяет разбор списка разрешенных origin из ENV.
func TestParseCSVEnv(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://Localhost:3000, ,https://APP.example.com ")

	got := parseCSVEnv("CORS_ALLOWED_ORIGINS")
	want := []string{"http://localhost:3000", "https://app.example.com"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestParseCSVEnvMissing проверяет поведение при отсутствии переменной.
func TestParseCSVEnvMissing(t *testing.T) {
	got := parseCSVEnv("MISSING_ENV")
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

// TestLoadDefaults проверяет значения по умолчанию при заданном секрете.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Scheduler.RenewalRolloverSchedule != "0 5 * * *" || !cfg.Scheduler.Enabled {
		t.Fatalf("unexpected scheduler config %+v", cfg.Scheduler)
	}
	if cfg.Auth.SessionTTL != 15*time.Minute || cfg.Alerts.EscalationThreshold != 50 {
		t.Fatalf("unexpected auth or alerts config %+v %+v", cfg.Auth, cfg.Alerts)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Fatalf("expected disabled write timeout, got %s", cfg.Server.WriteTimeout)
	}
	if !strings.HasPrefix(cfg.Database.DSN(), "postgres://") {
		t.Fatalf("unexpected dsn %s", cfg.Database.DSN())
	}
}

// TestLoadRequiresSecret проверяет обязательность JWT_SECRET.
func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

// TestLoadInvalidSchedule проверяет проверку cron-выражения.
func TestLoadInvalidSchedule(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RENEWAL_ROLLOVER_SCHEDULE", "every day")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

// TestParseBoolEnv проверяет разбор логических значений.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("FLAG", "false")
	if got, err := parseBoolEnv("FLAG", true); err != nil || got {
		t.Fatalf("expected false, got %v (%v)", got, err)
	}

	t.Setenv("FLAG", "maybe")
	if _, err := parseBoolEnv("FLAG", true); err == nil {
		t.Fatal("expected error for invalid boolean")
	}
}
