// Package statstore implements StatStore (C2): the node's static
// descriptors, rolling uptime counter, and the weighting/rating function.
package statstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Stat is Stat<T>: { value, weight }.
type Stat[T any] struct {
	Value  T       `json:"value"`
	Weight float64 `json:"weight"`
}

// Stats is the node's static descriptor plus rolling uptime counter.
type Stats struct {
	Region        string       `json:"region"`
	Uptime        Stat[[2]int] `json:"uptime"` // [lowHour, highHour]
	Capacity      Stat[uint64] `json:"capacity"`
	Connection    Stat[uint64] `json:"connection"` // kbps
	UptimeCounter Stat[uint64] `json:"uptime_counter"`
	FirstOnline   int64        `json:"first_online"` // unix seconds
}

// Weights configures the per-component multipliers of the total rating.
// Each Stat already carries its own weight; Weights lets a deployment
// additionally scale a whole component relative to the others (e.g. to
// de-emphasize connection speed).
type Weights struct {
	Connection   float64
	UptimeWindow float64
	UptimeLeft   float64
	Capacity     float64
	UptimeCount  float64
}

// DefaultWeights weighs every component equally.
func DefaultWeights() Weights {
	return Weights{Connection: 1, UptimeWindow: 1, UptimeLeft: 1, Capacity: 1, UptimeCount: 1}
}

// Store is StatStore (C2): a Stats record and its persistence path, guarded
// by a single RWMutex.
type Store struct {
	mu       sync.RWMutex
	stateDir string
	stats    Stats
	weights  Weights
}

// New loads (or initializes) a Store rooted at stateDir. If stats have no
// FirstOnline recorded yet (first boot), it is set to now and persisted.
func New(stateDir string, initial Stats, weights Weights) (*Store, error) {
	stats, err := deserialize(stateDir)
	if err != nil {
		stats = initial
	}
	if stats.Region == "" {
		stats = initial
	}
	if stats.FirstOnline == 0 {
		stats.FirstOnline = time.Now().Unix()
	}
	s := &Store{stateDir: stateDir, stats: stats, weights: weights}
	if err := s.Serialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Stats returns a copy of the current Stats record.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// IncreaseUptimeCounter adds elapsed seconds to the uptime counter,
// contributed by the ping loop.
func (s *Store) IncreaseUptimeCounter(delta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.UptimeCounter.Value += uint64(delta.Seconds())
}

// TotalRating computes the node's desirability as a replica target: the sum
// of five weighted components.
func (s *Store) TotalRating(capacityLeft uint64) float64 {
	s.mu.RLock()
	stats := s.stats
	weights := s.weights
	s.mu.RUnlock()

	return weights.Connection*connectionRating(stats.Connection.Value)*float64(stats.Connection.Weight) +
		weights.UptimeWindow*uptimeWindowRating(stats.Uptime.Value)*float64(stats.Uptime.Weight) +
		weights.UptimeLeft*uptimeLeftRating(stats.Uptime.Value, time.Now())*float64(stats.Uptime.Weight) +
		weights.Capacity*capacityRating(capacityLeft, stats.Capacity.Value)*float64(stats.Capacity.Weight) +
		weights.UptimeCount*uptimeCountRating(stats.UptimeCounter.Value, stats.FirstOnline)*float64(stats.UptimeCounter.Weight)
}

// connectionRating is the piecewise-constant function of connection.value
// (kbps).
func connectionRating(kbps uint64) float64 {
	switch {
	case kbps < 6000:
		return 0.1
	case kbps < 16000:
		return 0.3
	case kbps < 50000:
		return 0.4
	case kbps < 200000:
		return 0.6
	case kbps < 1000000:
		return 0.8
	default:
		return 1.0
	}
}

// uptimeWindowRating is (highHour - lowHour) / 24.
func uptimeWindowRating(window [2]int) float64 {
	return float64(window[1]-window[0]) / 24.0
}

// uptimeLeftRating is minutes from now until today's highHour divided by
// the total declared window in minutes; may go negative outside the
// window, left to the caller to interpret.
func uptimeLeftRating(window [2]int, now time.Time) float64 {
	totalMinutes := float64(window[1]-window[0]) * 60
	if totalMinutes == 0 {
		return 0
	}
	nowMinutes := float64(now.Hour()*60 + now.Minute())
	highMinutes := float64(window[1] * 60)
	return (highMinutes - nowMinutes) / totalMinutes
}

// capacityRating is capacity_left / capacity.value.
func capacityRating(capacityLeft, capacity uint64) float64 {
	if capacity == 0 {
		return 0
	}
	return float64(capacityLeft) / float64(capacity)
}

// uptimeCountRating is uptime_counter / (now - first_online); zero if the
// denominator is zero.
func uptimeCountRating(uptimeCounter uint64, firstOnline int64) float64 {
	elapsed := time.Now().Unix() - firstOnline
	if elapsed <= 0 {
		return 0
	}
	return float64(uptimeCounter) / float64(elapsed)
}

func statePath(stateDir string) string {
	return filepath.Join(stateDir, "stat_state.json")
}

// Serialize persists the Stats record to stat_state.json.
func (s *Store) Serialize() error {
	s.mu.RLock()
	stats := s.stats
	s.mu.RUnlock()

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("statstore: failed to marshal stat_state.json: %w", err)
	}
	if err := os.WriteFile(statePath(s.stateDir), data, 0o644); err != nil {
		return fmt.Errorf("statstore: failed to write stat_state.json: %w", err)
	}
	return nil
}

func deserialize(stateDir string) (Stats, error) {
	data, err := os.ReadFile(statePath(stateDir))
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
