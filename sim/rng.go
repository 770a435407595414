package sim

import (
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical design
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemWorkload is the RNG subsystem for inter-arrival gaps of
	// configured workflows. Uses the master seed directly.
	SubsystemWorkload = "workload"

	// SubsystemRequests is the RNG subsystem for per-request variance
	// (service times and traffic sizes).
	SubsystemRequests = "requests"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemWorkload: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemWorkload {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// === Stochastic adjustment ===

// Quartile multipliers applied by StochasticAdjust.
var adjustmentMultipliers = [4]float64{0.9, 1.0, 1.5, 2.0}

// StochasticAdjust spreads a baseline duration or size around its nominal
// value. A uniform draw in [0,100) selects a quartile and the value is
// multiplied by 0.9, 1.0, 1.5 or 2.0 respectively.
func StochasticAdjust(rng *rand.Rand, v float64) float64 {
	draw := rng.Float64() * 100.0
	switch {
	case draw < 25.0:
		return v * adjustmentMultipliers[0]
	case draw < 50.0:
		return v * adjustmentMultipliers[1]
	case draw < 75.0:
		return v * adjustmentMultipliers[2]
	default:
		return v * adjustmentMultipliers[3]
	}
}
