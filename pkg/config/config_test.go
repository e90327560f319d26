package config

import (
	"os"
	"testing"
	"time"
)

// unsetenv clears a variable for the duration of the test. t.Setenv registers
// the restore, os.Unsetenv makes envconfig see it as absent rather than empty.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "PORT", "OUTBOX_POLL_INTERVAL", "SEED_STOCK")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.OutboxPollInterval != time.Second {
		t.Fatalf("expected default poll interval 1s, got %v", cfg.OutboxPollInterval)
	}
	if cfg.SeedStock != "1=10,2=50,3=30" {
		t.Fatalf("unexpected default seed: %q", cfg.SeedStock)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.KafkaBrokers != "kafka-1:9092" {
		t.Fatalf("expected broker override, got %q", cfg.KafkaBrokers)
	}
	if cfg.OutboxPollInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", cfg.OutboxPollInterval)
	}
}
