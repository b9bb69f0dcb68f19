package config

import (
	"testing"
	"time"
)

func TestDefaultEngine(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine.Type != "llamacpp" {
		t.Errorf("Engine.Type = %q, want %q", cfg.Engine.Type, "llamacpp")
	}
	if cfg.Engine.BaseURL != "http://localhost:8080" {
		t.Errorf("Engine.BaseURL = %q, want %q", cfg.Engine.BaseURL, "http://localhost:8080")
	}
}

func TestDefaultStorageGuard(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Storage.Periodic {
		t.Error("Storage.Periodic should default to true")
	}
	if cfg.Storage.CheckInterval != 10*time.Second {
		t.Errorf("Storage.CheckInterval = %v, want 10s", cfg.Storage.CheckInterval)
	}
	if cfg.Storage.ReserveBytes != 1<<30 {
		t.Errorf("Storage.ReserveBytes = %d, want %d", cfg.Storage.ReserveBytes, int64(1<<30))
	}
}

func TestValidateRepairsIntervals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.CheckInterval = 0
	cfg.Memory.Overhead = 0.5
	cfg.Chat.MaxTokens = 0
	cfg.Bench.Repetitions = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Storage.CheckInterval != 10*time.Second {
		t.Errorf("CheckInterval not repaired, got %v", cfg.Storage.CheckInterval)
	}
	if cfg.Memory.Overhead != 1.4 {
		t.Errorf("Overhead not repaired, got %v", cfg.Memory.Overhead)
	}
	if cfg.Chat.MaxTokens != 8192 {
		t.Errorf("Chat.MaxTokens not repaired, got %d", cfg.Chat.MaxTokens)
	}
	if cfg.Bench.Repetitions != 3 {
		t.Errorf("Repetitions not repaired, got %d", cfg.Bench.Repetitions)
	}
}

func TestValidateRejectsUnknownEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Type = "mlx"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown engine type, got nil")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("ALACRITY_TEST_HOST", "10.0.0.7")

	got := expandEnv("http://$ALACRITY_TEST_HOST:8080")
	want := "http://10.0.0.7:8080"
	if got != want {
		t.Errorf("expandEnv = %q, want %q", got, want)
	}

	// Unset variables are left alone
	got = expandEnv("$ALACRITY_DOES_NOT_EXIST/path")
	if got != "$ALACRITY_DOES_NOT_EXIST/path" {
		t.Errorf("expandEnv touched unset var: %q", got)
	}
}
