// Package placement implements the three replica-placement policies
// DistributionService applies to a newly-uploaded hash.
//
// Each policy shares one signature and is modeled as a capability selected
// at construction, not as a type hierarchy: a Policy is a function value,
// and Resolve picks one by name.
package placement

import (
	"math/rand"

	"github.com/timokae/ma-node/internal/config"
)

// Pick is one monitor chosen to receive a hash, with the replication count
// to request and whether this monitor is the node's own.
type Pick struct {
	Monitor      config.Monitor
	Replications int
	ToOwnMonitor bool
}

// Policy chooses which monitors receive a newly-uploaded hash and with what
// replication factor. hash is accepted for policies that might want to vary
// placement by content in the future; none of the three named policies use
// it today.
type Policy func(ownFingerprint string, own config.Monitor, foreign []config.Monitor, hash string) []Pick

// Simple pushes to every monitor (own first, then foreign) with a fixed
// replication factor.
func Simple(replications int) Policy {
	return func(_ string, own config.Monitor, foreign []config.Monitor, _ string) []Pick {
		picks := make([]Pick, 0, 1+len(foreign))
		picks = append(picks, Pick{Monitor: own, Replications: replications, ToOwnMonitor: true})
		for _, m := range foreign {
			picks = append(picks, Pick{Monitor: m, Replications: replications, ToOwnMonitor: m.Equal(own)})
		}
		return picks
	}
}

// partitionByRegion groups monitors by bound[0], including own among the
// monitors partitioned (it is itself a peer of its own region).
func partitionByRegion(own config.Monitor, foreign []config.Monitor) map[string][]config.Monitor {
	partitions := map[string][]config.Monitor{}
	all := append([]config.Monitor{own}, foreign...)
	for _, m := range all {
		region := m.Region()
		partitions[region] = append(partitions[region], m)
	}
	return partitions
}

// RegionFanOut picks one monitor per region partition uniformly at random,
// forcing the own-region pick to be the own monitor.
func RegionFanOut(rng *rand.Rand) Policy {
	return func(_ string, own config.Monitor, foreign []config.Monitor, _ string) []Pick {
		partitions := partitionByRegion(own, foreign)
		ownRegion := own.Region()

		picks := make([]Pick, 0, len(partitions))
		for region, members := range partitions {
			var chosen config.Monitor
			if region == ownRegion {
				chosen = own
			} else {
				chosen = members[rng.Intn(len(members))]
			}
			picks = append(picks, Pick{Monitor: chosen, Replications: 2, ToOwnMonitor: chosen.Equal(own)})
		}
		return picks
	}
}

// distantPartition is the static cross-region bias table:
// europe<->south_america, north_america->oceania, asia->north_america,
// oceania->europe.
var distantPartition = map[string]string{
	"europe":        "south_america",
	"south_america": "europe",
	"north_america": "oceania",
	"asia":          "north_america",
	"oceania":       "europe",
}

// LocaleBiased picks 2 monitors from the own partition (one of which is
// always the own monitor) plus 1 monitor from the statically mapped
// "distant" partition, if present among the known monitors.
func LocaleBiased(rng *rand.Rand) Policy {
	return func(_ string, own config.Monitor, foreign []config.Monitor, _ string) []Pick {
		partitions := partitionByRegion(own, foreign)
		ownRegion := own.Region()
		ownPartition := partitions[ownRegion]

		picks := make([]Pick, 0, 3)
		picks = append(picks, Pick{Monitor: own, Replications: 2, ToOwnMonitor: true})

		others := make([]config.Monitor, 0, len(ownPartition))
		for _, m := range ownPartition {
			if !m.Equal(own) {
				others = append(others, m)
			}
		}
		if len(others) > 0 {
			second := others[rng.Intn(len(others))]
			picks = append(picks, Pick{Monitor: second, Replications: 2, ToOwnMonitor: second.Equal(own)})
		}

		if distant, ok := distantPartition[ownRegion]; ok {
			if members := partitions[distant]; len(members) > 0 {
				chosen := members[rng.Intn(len(members))]
				picks = append(picks, Pick{Monitor: chosen, Replications: 2, ToOwnMonitor: chosen.Equal(own)})
			}
		}

		return picks
	}
}

// Resolve looks up a named policy ("simple", "region-fan-out",
// "locale-biased") as declared in config.json's placement field.
func Resolve(name string, replications int, rng *rand.Rand) Policy {
	switch name {
	case "region-fan-out":
		return RegionFanOut(rng)
	case "locale-biased":
		return LocaleBiased(rng)
	default:
		return Simple(replications)
	}
}
