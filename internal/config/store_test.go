package config

import "testing"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Fingerprint = "node-1"
	s, err := NewStore(*cfg)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestStore_Accessors(t *testing.T) {
	s := newTestStore(t)

	if s.Fingerprint() != "node-1" {
		t.Errorf("expected fingerprint node-1, got %q", s.Fingerprint())
	}
	if s.Port() != 8080 {
		t.Errorf("expected default port 8080, got %d", s.Port())
	}
	if s.Placement() != "simple" {
		t.Errorf("expected default placement simple, got %q", s.Placement())
	}
}

func TestStore_SetMonitors_ForeignExcludesOwn(t *testing.T) {
	s := newTestStore(t)

	own := Monitor{Addr: "http://mon-1:9000", Bound: []string{"europe"}}
	monitors := []Monitor{
		own,
		{Addr: "http://mon-2:9000", Bound: []string{"asia"}},
		{Addr: "http://mon-3:9000", Bound: []string{"oceania"}},
	}
	s.SetMonitors(own, monitors)

	if got := s.OwnMonitor(); !got.Equal(own) {
		t.Errorf("expected own monitor %+v, got %+v", own, got)
	}
	if len(s.Monitors()) != 3 {
		t.Errorf("expected 3 monitors, got %d", len(s.Monitors()))
	}

	foreign := s.ForeignMonitors()
	if len(foreign) != 2 {
		t.Fatalf("expected 2 foreign monitors, got %d", len(foreign))
	}
	for _, m := range foreign {
		if m.Equal(own) {
			t.Errorf("expected own monitor excluded from foreign list, found %+v", m)
		}
	}
}

func TestStore_Stats_ReturnsBootstrapBlock(t *testing.T) {
	s := newTestStore(t)
	s.cfg.Stats.Region = "asia"
	s.cfg.Stats.Uptime.Value = [2]int{8, 20}

	stats := s.Stats()
	if stats.Region != "asia" {
		t.Errorf("expected region asia, got %q", stats.Region)
	}
	if stats.Uptime.Value != [2]int{8, 20} {
		t.Errorf("expected uptime window [8 20], got %v", stats.Uptime.Value)
	}
}

func TestStore_HashContent_Deterministic(t *testing.T) {
	s := newTestStore(t)
	data := []byte("hello world")

	h1 := s.HashContent(data)
	h2 := s.HashContent(data)
	if h1 != h2 {
		t.Errorf("expected hashing to be deterministic, got %q and %q", h1, h2)
	}

	h3 := s.HashContent([]byte("different"))
	if h1 == h3 {
		t.Error("expected different content to hash differently")
	}
}
