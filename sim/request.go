// Defines the ClientRequest struct that models one simulated transaction.
// Tracks its randomized sizes and service times, its solution and its metrics.

package sim

import (
	"fmt"
	"math/rand"
)

const (
	// RequestTime is the processing time of a step at a node when the request
	// carries no solution step, in seconds.
	RequestTime = 0.0001
	// RequestSize is the size of an outbound request message, in Mb.
	RequestSize = 0.1
)

// Cache-assisted workflows deliver this share of client traffic from the
// service; the remainder comes from the tile cache.
const (
	cachedClientShare = 0.25
	cacheShare        = 0.75
)

// ClientRequest is one unit of simulated work emitted by a ConfiguredWorkflow.
// Requests are compared by pointer identity; ID is unique per simulator.
type ClientRequest struct {
	ID       string
	Name     string
	Workflow *ConfiguredWorkflow

	// Solution is assigned by the simulator after creation. nil means the
	// request has nothing left to do.
	Solution *Solution

	// Randomized per-instance values, derived from the workflow definition.
	ServiceTimes  map[ComputeRole]float64
	ClientTraffic float64
	ServerTraffic float64
	CacheTraffic  float64

	CreatedAt   float64 // simulation time the request was emitted
	CompletedAt float64 // simulation time the solution finished, 0 while active

	Metrics *RequestMetrics
}

// NewClientRequest draws per-request service times and traffic sizes for cw.
// Roles are visited in AllComputeRoles order so a seeded rng yields the same
// request every run.
func NewClientRequest(id string, cw *ConfiguredWorkflow, rng *rand.Rand, clock float64) *ClientRequest {
	def := cw.Definition
	app := cw.DataSource.AppAdjustment()
	req := &ClientRequest{
		ID:           id,
		Name:         fmt.Sprintf("%s: %s", id, cw.Name),
		Workflow:     cw,
		ServiceTimes: make(map[ComputeRole]float64),
		CreatedAt:    clock,
		Metrics:      NewRequestMetrics(),
	}
	for _, role := range AllComputeRoles {
		base := def.ServiceTimes[role]
		if base <= 0 {
			continue
		}
		if role != RoleClient && role != RoleCache {
			base *= app
		}
		req.ServiceTimes[role] = StochasticAdjust(rng, base)
	}

	if def.HasCache() {
		traffic := StochasticAdjust(rng, def.ClientTraffic)
		req.ClientTraffic = traffic * cachedClientShare
		req.CacheTraffic = traffic * cacheShare
	} else {
		req.ClientTraffic = StochasticAdjust(rng, def.ClientTraffic)
	}
	req.ServerTraffic = StochasticAdjust(rng, def.ServerTraffic*cw.DataSource.TrafficAdjustment())
	return req
}

// ServiceTime returns the randomized service time for role and whether the
// request does any work in that role.
func (r *ClientRequest) ServiceTime(role ComputeRole) (float64, bool) {
	v, ok := r.ServiceTimes[role]
	return v, ok
}

// CurrentStep returns the step the request is working on, or nil.
func (r *ClientRequest) CurrentStep() *Step {
	if r.Solution == nil {
		return nil
	}
	return r.Solution.Current()
}

// IsFinished is true once the solution has no remaining steps.
// A request without a solution is finished.
func (r *ClientRequest) IsFinished() bool {
	return r.Solution == nil || r.Solution.Finished()
}

// startCurrentStep enqueues the request at its current step's calculator.
func (r *ClientRequest) startCurrentStep(clock float64) {
	if step := r.CurrentStep(); step != nil {
		step.Calculator.Queue().Enqueue(r, clock)
	}
}

func (r *ClientRequest) String() string {
	remaining := 0
	if r.Solution != nil {
		remaining = r.Solution.Remaining()
	}
	return fmt.Sprintf("Request: (ID: %s, Workflow: %s, Remaining: %d, CreatedAt: %.4f)", r.ID, r.Workflow.Name, remaining, r.CreatedAt)
}
