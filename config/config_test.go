package config

import (
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.MinConfidence != 50 {
		t.Errorf("expected default MinConfidence 50, got %d", cfg.MinConfidence)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected default MaxRetries 3, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelaySeconds != 1 {
		t.Errorf("expected default RetryDelaySeconds 1, got %d", cfg.RetryDelaySeconds)
	}
	if cfg.MinEyePoints != 6 {
		t.Errorf("expected default MinEyePoints 6, got %d", cfg.MinEyePoints)
	}
	if filepath.Base(cfg.EvidencePath) != DefaultEvidenceSubDir {
		t.Errorf("expected evidence path to end in %q, got %q", DefaultEvidenceSubDir, cfg.EvidencePath)
	}
	if cfg.JWTSecret != "test-secret" {
		t.Errorf("expected JWTSecret from environment, got %q", cfg.JWTSecret)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MIN_CONFIDENCE", "75")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RETRY_DELAY_SECONDS", "2")
	t.Setenv("CAMERA_DEVICE", "1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.MinConfidence != 75 {
		t.Errorf("expected MinConfidence 75, got %d", cfg.MinConfidence)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("expected MaxRetries 5, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelaySeconds != 2 {
		t.Errorf("expected RetryDelaySeconds 2, got %d", cfg.RetryDelaySeconds)
	}
	if cfg.CameraDevice != 1 {
		t.Errorf("expected CameraDevice 1, got %d", cfg.CameraDevice)
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when JWT_SECRET is unset, got nil")
	}
}

func TestLoadConfigRejectsInvalidInts(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected fallback to default MaxRetries 3, got %d", cfg.MaxRetries)
	}
}
