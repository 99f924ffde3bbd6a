package config

import "testing"

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.HashAlgorithm != "sha256" {
		t.Errorf("expected default hash algorithm sha256, got %q", cfg.HashAlgorithm)
	}
	if cfg.Storage.Backend != BackendLocal {
		t.Errorf("expected default storage backend local, got %q", cfg.Storage.Backend)
	}
	if cfg.Placement != "simple" {
		t.Errorf("expected default placement simple, got %q", cfg.Placement)
	}
	if cfg.Replicas != 3 {
		t.Errorf("expected default replications 3, got %d", cfg.Replicas)
	}
	if cfg.Timeouts.Ping != 30 || cfg.Timeouts.Recover != 10 || cfg.Timeouts.Distribute != 10 {
		t.Errorf("unexpected default timeouts: %+v", cfg.Timeouts)
	}
	if cfg.Logging.Level != "INFO" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stdout" {
		t.Errorf("unexpected default logging config: %+v", cfg.Logging)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		HashAlgorithm: "sha512",
		Placement:     "region-fan-out",
		Replicas:      5,
		Storage:       StorageConfig{Backend: BackendS3},
	}
	ApplyDefaults(cfg)

	if cfg.HashAlgorithm != "sha512" {
		t.Errorf("expected explicit hash algorithm preserved, got %q", cfg.HashAlgorithm)
	}
	if cfg.Placement != "region-fan-out" {
		t.Errorf("expected explicit placement preserved, got %q", cfg.Placement)
	}
	if cfg.Replicas != 5 {
		t.Errorf("expected explicit replications preserved, got %d", cfg.Replicas)
	}
	if cfg.Storage.Backend != BackendS3 {
		t.Errorf("expected explicit storage backend preserved, got %q", cfg.Storage.Backend)
	}
}

func TestApplyDefaults_MetricsPortOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("expected no default metrics port when disabled, got %d", cfg.Metrics.Port)
	}

	cfg = &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("expected default metrics port 9090 when enabled, got %d", cfg.Metrics.Port)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fingerprint = "node-1"

	if err := Validate(cfg); err != nil {
		t.Errorf("default config should be valid once fingerprint is set, got: %v", err)
	}
}
