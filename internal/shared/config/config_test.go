package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsPerService(t *testing.T) {
	t.Setenv("SERVICE_NAME", "lottery-service")
	t.Setenv("HTTP_PORT_LOTTERY", "9000")
	t.Setenv("JWT_TTL", "not-a-duration")
	t.Setenv("BOARD_CACHE_TTL", "15s")

	cfg := Load()
	if cfg.HTTPPort != "9000" || cfg.MetricsPort != "9099" {
		t.Fatalf("ports=%s/%s", cfg.HTTPPort, cfg.MetricsPort)
	}
	if cfg.JWTTTL != 12*time.Hour {
		t.Fatalf("jwt ttl=%s want default", cfg.JWTTTL)
	}
	if cfg.BoardCacheTTL != 15*time.Second {
		t.Fatalf("board ttl=%s want 15s", cfg.BoardCacheTTL)
	}
	if cfg.TopicBetsSubmitted != "bets_submitted" {
		t.Fatalf("topic=%s", cfg.TopicBetsSubmitted)
	}
}

func TestLoadWorkerHasNoPublicPort(t *testing.T) {
	t.Setenv("SERVICE_NAME", "exposure-worker")
	cfg := Load()
	if cfg.HTTPPort != "" || cfg.MetricsPort != "9097" {
		t.Fatalf("ports=%q/%q", cfg.HTTPPort, cfg.MetricsPort)
	}
}
