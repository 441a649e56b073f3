package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.TickInterval != 3*time.Second {
		t.Errorf("tick interval = %v, want 3s", cfg.TickInterval)
	}
	if cfg.StatusInterval != time.Minute {
		t.Errorf("status interval = %v, want 60s", cfg.StatusInterval)
	}
	if cfg.CategorizeQuiet != time.Second {
		t.Errorf("categorize quiet = %v, want 1s", cfg.CategorizeQuiet)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SIM_SEED", "7")
	t.Setenv("CHANGE_BASIS", "tick")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.SimSeed != 7 || cfg.ChangeBasis != "tick" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed duration")
	}
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	} {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
