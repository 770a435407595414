package sim

import (
	"fmt"
	"strings"
)

// CacheServiceTime is the fixed service time of the cache role for every
// workflow definition, in seconds.
const CacheServiceTime = 0.001

// cacheMarker in a workflow name or description flags a workflow whose
// responses are partly served from a tile cache.
const cacheMarker = "+$$"

// WorkflowDefinition is a library entry describing one kind of user
// transaction: the work each role does, and the data it moves.
type WorkflowDefinition struct {
	Name        string
	Description string
	Category    string
	ServiceType ServiceType

	// ServiceTimes holds baseline seconds of work per role. Roles with no
	// entry (or zero) take no part in the transaction.
	ServiceTimes map[ComputeRole]float64

	Chatter       int     // protocol round trips per network hop
	ClientTraffic float64 // Mb delivered to the client per transaction
	ServerTraffic float64 // Mb moved between data and service tiers
	ThinkTime     int     // seconds between user transactions
}

// NewWorkflowDefinition returns a definition with its own copy of
// serviceTimes. The cache role is always set to CacheServiceTime.
func NewWorkflowDefinition(name string, st ServiceType, serviceTimes map[ComputeRole]float64) *WorkflowDefinition {
	times := make(map[ComputeRole]float64, len(serviceTimes)+1)
	for role, v := range serviceTimes {
		times[role] = v
	}
	times[RoleCache] = CacheServiceTime
	return &WorkflowDefinition{
		Name:         name,
		ServiceType:  st,
		ServiceTimes: times,
	}
}

// HasCache reports whether the workflow is flagged as cache-assisted.
func (w *WorkflowDefinition) HasCache() bool {
	return strings.Contains(w.Name, cacheMarker) || strings.Contains(w.Description, cacheMarker)
}

// ServiceTime returns the baseline service time of role, or 0.
func (w *WorkflowDefinition) ServiceTime(role ComputeRole) float64 {
	return w.ServiceTimes[role]
}

// WithServiceType returns a copy of w that exercises a different service type.
func (w *WorkflowDefinition) WithServiceType(st ServiceType) *WorkflowDefinition {
	dup := *w
	dup.ServiceTimes = make(map[ComputeRole]float64, len(w.ServiceTimes))
	for role, v := range w.ServiceTimes {
		dup.ServiceTimes[role] = v
	}
	dup.ServiceType = st
	return &dup
}

// Validate checks that the definition is usable by the simulator.
func (w *WorkflowDefinition) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow: name is required")
	}
	for role, v := range w.ServiceTimes {
		if !IsValidComputeRole(string(role)) {
			return fmt.Errorf("workflow %q: unknown compute role %q", w.Name, role)
		}
		if v < 0 {
			return fmt.Errorf("workflow %q: service time for %s must be >= 0, got %v", w.Name, role, v)
		}
	}
	if w.Chatter < 0 {
		return fmt.Errorf("workflow %q: chatter must be >= 0, got %d", w.Name, w.Chatter)
	}
	if w.ClientTraffic < 0 || w.ServerTraffic < 0 {
		return fmt.Errorf("workflow %q: traffic must be >= 0", w.Name)
	}
	return nil
}
