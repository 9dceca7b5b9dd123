package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Env != "dev" {
		t.Fatalf("env = %q, want dev", cfg.App.Env)
	}
	if cfg.Compliance.PenaltyRate().String() != "600" {
		t.Fatalf("penalty rate = %s, want 600", cfg.Compliance.PenaltyRate())
	}
	if cfg.Outbox.BatchSize != 50 {
		t.Fatalf("outbox batch size = %d, want 50", cfg.Outbox.BatchSize)
	}
}

func TestLoadRejectsUnknownEnv(t *testing.T) {
	t.Setenv("LCFS_APP_ENV", "production-ish")
	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error for unknown env")
	}
}

func TestLoadRejectsBadPenaltyRate(t *testing.T) {
	t.Setenv("LCFS_PENALTY_RATE_PER_UNIT", "six hundred")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-numeric penalty rate")
	}
}
