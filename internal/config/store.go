package config

import (
	"sync"

	"github.com/timokae/ma-node/internal/hashing"
)

// Store is ConfigStore (C3): immutable-after-bootstrap identity and peer
// lists, plus the content-hashing operation used to produce hashes for
// uploads and integrity checks.
//
// Port/Fingerprint/ManagerAddr never change after construction. OwnMonitor
// and Monitors are set exactly once, by the bootstrap registration phase,
// before any loop starts; the guard exists so a concurrent reader during
// that narrow window never observes a half-written peer list.
type Store struct {
	mu     sync.RWMutex
	cfg    Config
	hasher *hashing.Hasher
}

// NewStore builds a ConfigStore from a loaded Config.
func NewStore(cfg Config) (*Store, error) {
	h, err := hashing.New(hashing.Algorithm(cfg.HashAlgorithm))
	if err != nil {
		return nil, err
	}
	return &Store{cfg: cfg, hasher: h}, nil
}

// Fingerprint returns this node's stable identity.
func (s *Store) Fingerprint() string {
	return s.cfg.Fingerprint
}

// Port returns the HTTP server port.
func (s *Store) Port() int {
	return s.cfg.Port
}

// ManagerAddr returns the manager's address.
func (s *Store) ManagerAddr() string {
	return s.cfg.ManagerAddr
}

// IPv6 returns the advertised IPv6 address, if any.
func (s *Store) IPv6() string {
	return s.cfg.IPv6
}

// Region returns the region declared in config.json's stats block.
func (s *Store) Region() string {
	return s.cfg.Stats.Region
}

// Stats returns the bootstrap stats block, the seed StatStore is built
// from and the source of the declared uptime window sent at registration.
func (s *Store) Stats() Stats {
	return s.cfg.Stats
}

// Placement returns the configured placement policy name.
func (s *Store) Placement() string {
	return s.cfg.Placement
}

// Replications returns the configured replication factor for the simple
// placement policy.
func (s *Store) Replications() int {
	return s.cfg.Replicas
}

// Timeouts returns the configured loop timeouts.
func (s *Store) Timeouts() TimeoutsConfig {
	return s.cfg.Timeouts
}

// Storage returns the storage backend configuration.
func (s *Store) Storage() StorageConfig {
	return s.cfg.Storage
}

// SetMonitors records the manager's registration response. Called exactly
// once, during bootstrap, before any background loop starts.
func (s *Store) SetMonitors(own Monitor, monitors []Monitor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.OwnMonitor = own
	s.cfg.Monitors = monitors
}

// OwnMonitor returns this node's assigned monitor.
func (s *Store) OwnMonitor() Monitor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.OwnMonitor
}

// Monitors returns all peer monitors, including the node's own.
func (s *Store) Monitors() []Monitor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Monitor, len(s.cfg.Monitors))
	copy(out, s.cfg.Monitors)
	return out
}

// ForeignMonitors returns all peer monitors other than the node's own,
// used by the distribution service.
func (s *Store) ForeignMonitors() []Monitor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	own := s.cfg.OwnMonitor
	out := make([]Monitor, 0, len(s.cfg.Monitors))
	for _, m := range s.cfg.Monitors {
		if !m.Equal(own) {
			out = append(out, m)
		}
	}
	return out
}

// HashContent computes the content-address for bytes.
func (s *Store) HashContent(data []byte) string {
	return s.hasher.Hash(data)
}
