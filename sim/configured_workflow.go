package sim

import (
	"fmt"
	"math/rand"
)

// WorkflowID indexes a ConfiguredWorkflow in its Design.
type WorkflowID int

// WorkflowConfig is the input to Design.AddWorkflow.
type WorkflowConfig struct {
	Name         string
	Description  string
	Definition   *WorkflowDefinition
	Client       NodeID
	Users        int
	Productivity float64 // transactions per user per minute
	TPH          int     // transactions per hour; overrides users x productivity
	DataSource   DataSourceType
	Tiers        map[ComputeRole]TierID // overrides of the design defaults
}

// ConfiguredWorkflow is a demand source: a client emitting requests for one
// workflow definition at a fixed average rate.
type ConfiguredWorkflow struct {
	ID          WorkflowID
	Name        string
	Description string
	Definition  *WorkflowDefinition
	Client      *ComputeNode

	Users        int
	Productivity float64
	TPH          int
	DataSource   DataSourceType

	tiers map[ComputeRole]*Tier // overrides only

	nextEvent float64
	scheduled bool
}

// TPS is the mean emission rate in transactions per second.
func (cw *ConfiguredWorkflow) TPS() float64 {
	if cw.TPH > 0 {
		return float64(cw.TPH) / 3600.0
	}
	return float64(cw.Users) * cw.Productivity / 60.0
}

// ScheduleNext sets the next emission to clock plus a randomized mean gap.
func (cw *ConfiguredWorkflow) ScheduleNext(clock float64, rng *rand.Rand) float64 {
	t := clock + StochasticAdjust(rng, 1.0/cw.TPS())
	if t <= clock {
		panic(fmt.Sprintf("ConfiguredWorkflow(%s): next emission %v not after clock %v", cw.Name, t, clock))
	}
	cw.nextEvent = t
	cw.scheduled = true
	return t
}

// NextEventTime returns the scheduled emission time, if any.
func (cw *ConfiguredWorkflow) NextEventTime() (float64, bool) {
	return cw.nextEvent, cw.scheduled
}

func (cw *ConfiguredWorkflow) clearSchedule() {
	cw.nextEvent = 0
	cw.scheduled = false
}

// TierOverride returns the tier explicitly assigned to role, if any.
func (cw *ConfiguredWorkflow) TierOverride(role ComputeRole) (*Tier, bool) {
	t, ok := cw.tiers[role]
	return t, ok
}

// TierOverrides returns a copy of the per-role tier overrides.
func (cw *ConfiguredWorkflow) TierOverrides() map[ComputeRole]*Tier {
	out := make(map[ComputeRole]*Tier, len(cw.tiers))
	for r, t := range cw.tiers {
		out[r] = t
	}
	return out
}

// CacheVariant returns an unscheduled copy whose definition exercises the
// cache service type. It shares the client, tiers and id of cw.
func (cw *ConfiguredWorkflow) CacheVariant() *ConfiguredWorkflow {
	dup := *cw
	dup.Definition = cw.Definition.WithServiceType(ServiceCache)
	dup.tiers = make(map[ComputeRole]*Tier, len(cw.tiers))
	for r, t := range cw.tiers {
		dup.tiers[r] = t
	}
	dup.clearSchedule()
	return &dup
}
