package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
server:
  port: "9090"
auth:
  jwtSecret: from-file
  sessionTTL: 2h
leaderboard:
  size: 5
sqlite:
  path: /tmp/quiz.db
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("expected env override, got %q", cfg.Auth.JWTSecret)
	}
	if got := TTLDuration(cfg.Auth.SessionTTL, time.Hour); got != 2*time.Hour {
		t.Fatalf("expected 2h, got %v", got)
	}
	if cfg.LeaderboardSize() != 5 {
		t.Fatalf("expected leaderboard size 5, got %d", cfg.LeaderboardSize())
	}
	if cfg.SeedDemo() {
		t.Fatalf("sqlite-backed config should not seed demo data by default")
	}
}

func TestLoadOrDefaultToleratesMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults, got %v", err)
	}
	if !cfg.SeedDemo() {
		t.Fatalf("memory config should seed demo data")
	}
	if cfg.LeaderboardSize() != 10 {
		t.Fatalf("expected default leaderboard size 10, got %d", cfg.LeaderboardSize())
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("nonsense", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %v", got)
	}
}
