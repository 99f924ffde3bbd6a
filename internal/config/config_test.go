package config

import (
	"path/filepath"
	"testing"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Fingerprint = "node-1"
	cfg.Stats.Region = "europe"

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Fingerprint != cfg.Fingerprint {
		t.Errorf("expected fingerprint %q, got %q", cfg.Fingerprint, loaded.Fingerprint)
	}
	if loaded.Port != cfg.Port {
		t.Errorf("expected port %d, got %d", cfg.Port, loaded.Port)
	}
	if loaded.Stats.Region != cfg.Stats.Region {
		t.Errorf("expected region %q, got %q", cfg.Stats.Region, loaded.Stats.Region)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error loading from a directory with no config.json")
	}
}

func TestSave_WritesToConfigJSON(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Fingerprint = "node-1"

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	if _, err := Load(filepath.Dir(path)); err != nil {
		t.Errorf("expected config.json to be readable at %s: %v", path, err)
	}
}

func TestMonitor_Equal(t *testing.T) {
	a := Monitor{Addr: "http://mon-1:9000", Bound: []string{"europe"}}
	b := Monitor{Addr: "http://mon-1:9000", Bound: []string{"asia"}}
	c := Monitor{Addr: "http://mon-2:9000", Bound: []string{"europe"}}

	if !a.Equal(b) {
		t.Error("expected monitors with the same addr to be equal regardless of bound")
	}
	if a.Equal(c) {
		t.Error("expected monitors with different addrs to be unequal")
	}
}

func TestMonitor_Region(t *testing.T) {
	m := Monitor{Addr: "http://mon-1:9000", Bound: []string{"europe", "asia"}}
	if m.Region() != "europe" {
		t.Errorf("expected region to be bound[0], got %q", m.Region())
	}

	empty := Monitor{Addr: "http://mon-2:9000"}
	if empty.Region() != "" {
		t.Errorf("expected empty region for unbound monitor, got %q", empty.Region())
	}
}
