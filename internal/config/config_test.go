package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SlotLeadTime != 30*time.Minute {
		t.Errorf("expected default lead time 30m, got %s", cfg.SlotLeadTime)
	}
	if cfg.DefaultTimezone != "UTC" {
		t.Errorf("expected default timezone UTC, got %s", cfg.DefaultTimezone)
	}
	if cfg.KeepaliveInterval != 25*time.Second {
		t.Errorf("expected default keepalive 25s, got %s", cfg.KeepaliveInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Errorf("expected no CORS origins by default, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SLOT_LEAD_TIME", "2h")
	t.Setenv("DEFAULT_TIMEZONE", "Africa/Lagos")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.nourishhq.com, https://admin.nourishhq.com")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	if cfg.SlotLeadTime != 2*time.Hour {
		t.Errorf("expected lead time 2h, got %s", cfg.SlotLeadTime)
	}
	if cfg.DefaultTimezone != "Africa/Lagos" {
		t.Errorf("expected Africa/Lagos, got %s", cfg.DefaultTimezone)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.nourishhq.com" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.RedisTLS {
		t.Error("expected RedisTLS true")
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("SLOT_LEAD_TIME", "soon")
	cfg := Load()
	if cfg.SlotLeadTime != 30*time.Minute {
		t.Errorf("expected fallback 30m, got %s", cfg.SlotLeadTime)
	}
}
