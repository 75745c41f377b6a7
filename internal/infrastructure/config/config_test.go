package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Service.URL != "http://localhost:5002" {
		t.Errorf("unexpected service URL %q", cfg.Service.URL)
	}
	if cfg.Service.Timeout != 30*time.Second {
		t.Errorf("unexpected timeout %s", cfg.Service.Timeout)
	}
	if cfg.Service.LegacyErrors || cfg.Service.Coalesce {
		t.Error("expected legacy errors and coalescing off by default")
	}
	if cfg.Database.URL != "" {
		t.Errorf("unexpected database URL %q", cfg.Database.URL)
	}
	if cfg.Telemetry.Enabled {
		t.Error("expected telemetry disabled by default")
	}
	if cfg.Debug {
		t.Error("expected debug off by default")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("TMAPS_SERVICE_URL", "https://maps.example.org")
	t.Setenv("TMAPS_SERVICE_TOKEN", "secret")
	t.Setenv("TMAPS_SERVICE_TIMEOUT", "5s")
	t.Setenv("TMAPS_COALESCE_REQUESTS", "true")
	t.Setenv("TMAPS_LEGACY_ERRORS", "true")
	t.Setenv("TMAPS_DATABASE_URL", "libsql://tmaps.turso.io")
	t.Setenv("TMAPS_DATABASE_AUTH_TOKEN", "db-token")
	t.Setenv("TMAPS_OTEL_ENABLED", "true")
	t.Setenv("TMAPS_OTEL_ENDPOINT", "collector:4317")
	t.Setenv("TMAPS_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := Config{
		Service: Service{
			URL:          "https://maps.example.org",
			Token:        "secret",
			Timeout:      5 * time.Second,
			Coalesce:     true,
			LegacyErrors: true,
		},
		Database:  Database{URL: "libsql://tmaps.turso.io", AuthToken: "db-token"},
		Telemetry: Telemetry{Enabled: true, Endpoint: "collector:4317", Insecure: true},
		Debug:     true,
	}
	if *cfg != want {
		t.Errorf("got %+v, want %+v", *cfg, want)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TMAPS_SERVICE_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid duration")
	}
}
