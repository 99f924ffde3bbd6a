package placement

import (
	"math/rand"
	"testing"

	"github.com/timokae/ma-node/internal/config"
)

func mon(addr, region string) config.Monitor {
	return config.Monitor{Addr: addr, Bound: []string{region}}
}

func TestSimple_PicksOwnAndAllForeignWithFixedReplicas(t *testing.T) {
	own := mon("http://own:9000", "europe")
	foreign := []config.Monitor{mon("http://m2:9000", "asia"), mon("http://m3:9000", "oceania")}

	picks := Simple(4)("node-1", own, foreign, "hash1")
	if len(picks) != 3 {
		t.Fatalf("expected 3 picks, got %d", len(picks))
	}
	if !picks[0].Monitor.Equal(own) || !picks[0].ToOwnMonitor {
		t.Errorf("expected first pick to be own monitor, got %+v", picks[0])
	}
	for _, p := range picks {
		if p.Replications != 4 {
			t.Errorf("expected replications 4 for every pick, got %d", p.Replications)
		}
	}
}

func TestRegionFanOut_PicksOwnForOwnRegion(t *testing.T) {
	own := mon("http://own:9000", "europe")
	foreign := []config.Monitor{
		mon("http://m2:9000", "europe"),
		mon("http://m3:9000", "asia"),
	}

	picks := RegionFanOut(rand.New(rand.NewSource(1)))("node-1", own, foreign, "hash1")
	if len(picks) != 2 {
		t.Fatalf("expected 2 region partitions (europe, asia), got %d picks: %+v", len(picks), picks)
	}

	var sawOwnRegion bool
	for _, p := range picks {
		if p.Monitor.Region() == "europe" {
			sawOwnRegion = true
			if !p.Monitor.Equal(own) {
				t.Errorf("expected europe partition pick to be own monitor, got %+v", p.Monitor)
			}
		}
	}
	if !sawOwnRegion {
		t.Error("expected a pick from the own region partition")
	}
}

func TestLocaleBiased_AlwaysIncludesOwnMonitor(t *testing.T) {
	own := mon("http://own:9000", "europe")
	foreign := []config.Monitor{
		mon("http://m2:9000", "europe"),
		mon("http://m3:9000", "south_america"),
	}

	picks := LocaleBiased(rand.New(rand.NewSource(1)))("node-1", own, foreign, "hash1")
	if len(picks) == 0 {
		t.Fatal("expected at least one pick")
	}
	if !picks[0].Monitor.Equal(own) || !picks[0].ToOwnMonitor {
		t.Errorf("expected first pick to be own monitor, got %+v", picks[0])
	}
}

func TestLocaleBiased_IncludesDistantPartitionWhenPresent(t *testing.T) {
	own := mon("http://own:9000", "europe")
	foreign := []config.Monitor{mon("http://m2:9000", "south_america")}

	picks := LocaleBiased(rand.New(rand.NewSource(1)))("node-1", own, foreign, "hash1")

	var sawDistant bool
	for _, p := range picks {
		if p.Monitor.Region() == "south_america" {
			sawDistant = true
		}
	}
	if !sawDistant {
		t.Errorf("expected europe's distant partition (south_america) represented, got %+v", picks)
	}
}

func TestLocaleBiased_SkipsDistantPartitionWhenAbsent(t *testing.T) {
	own := mon("http://own:9000", "europe")

	picks := LocaleBiased(rand.New(rand.NewSource(1)))("node-1", own, nil, "hash1")
	if len(picks) != 1 {
		t.Fatalf("expected only the own pick when no other monitors are known, got %+v", picks)
	}
}

func TestResolve_DispatchesByName(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	if Resolve("region-fan-out", 2, rng) == nil {
		t.Error("expected a policy for region-fan-out")
	}
	if Resolve("locale-biased", 2, rng) == nil {
		t.Error("expected a policy for locale-biased")
	}

	own := mon("http://own:9000", "europe")
	picks := Resolve("unknown-name", 3, rng)("node-1", own, nil, "hash1")
	if len(picks) != 1 || picks[0].Replications != 3 {
		t.Errorf("expected unknown policy name to fall back to simple with replications 3, got %+v", picks)
	}
}
