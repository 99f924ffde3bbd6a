package config

import (
	"encoding/json"
)

// ApplyDefaults fills unspecified fields with sensible defaults, in the
// teacher's "zero values are replaced, explicit values are preserved" style.
func ApplyDefaults(cfg *Config) {
	if cfg.HashAlgorithm == "" {
		cfg.HashAlgorithm = "sha256"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendLocal
	}
	if cfg.Placement == "" {
		cfg.Placement = "simple"
	}
	if cfg.Replicas == 0 {
		cfg.Replicas = 3
	}
	applyTimeoutDefaults(&cfg.Timeouts)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyTimeoutDefaults(cfg *TimeoutsConfig) {
	if cfg.Ping == 0 {
		cfg.Ping = 30
	}
	if cfg.Recover == 0 {
		cfg.Recover = 10
	}
	if cfg.Distribute == 0 {
		cfg.Distribute = 10
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// marshalIndent renders cfg as the indented JSON document config.json
// expects on disk.
func marshalIndent(cfg *Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

// DefaultConfig returns a Config with all defaults applied, used by
// `manode init` as the starting point for the interactive prompt.
func DefaultConfig() *Config {
	cfg := &Config{
		Port:        8080,
		ManagerAddr: "http://localhost:9000",
		Fingerprint: "",
		Stats: Stats{
			Region:     "europe",
			Uptime:     Stat[[2]int]{Value: [2]int{0, 24}, Weight: 1},
			Capacity:   Stat[uint64]{Value: 10 << 30, Weight: 1},
			Connection: Stat[uint64]{Value: 100_000, Weight: 1},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
