// sim/simulator.go
package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cpsim/cpsim/sim/trace"
)

// Clock scale bounds.
const (
	MinClockScale = 0.1
	MaxClockScale = 10.0
)

// SimState is the run state of a Simulator.
type SimState int

const (
	StateStopped SimState = iota
	StateRunning
	StatePaused
)

func (s SimState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// DropFunc is called when an emitted request cannot be routed.
type DropFunc func(req *ClientRequest, err error)

// Simulator owns the simulation clock and the requests in flight. Time only
// moves when the caller advances it; each advance runs every event up to
// the new time to completion before returning.
//
// A Simulator and its Design are not safe for concurrent use.
type Simulator struct {
	design *Design
	key    SimulationKey
	rng    *PartitionedRNG

	clock      float64
	clockScale float64
	state      SimState

	active  []*ClientRequest
	handled []*ClientRequest
	dropped int
	nextID  int

	onDrop DropFunc
	trace  *trace.SimulationTrace
}

// NewSimulator creates a stopped simulator over design. All randomness is
// derived from key.
func NewSimulator(design *Design, key SimulationKey) *Simulator {
	return &Simulator{
		design:     design,
		key:        key,
		rng:        NewPartitionedRNG(key),
		clockScale: 1.0,
	}
}

func (s *Simulator) Design() *Design { return s.design }

// Clock is the simulation time in seconds.
func (s *Simulator) Clock() float64 { return s.clock }

func (s *Simulator) State() SimState { return s.state }

// Active returns the requests still working through their solutions.
func (s *Simulator) Active() []*ClientRequest {
	return append([]*ClientRequest(nil), s.active...)
}

// Handled returns the requests whose solutions have finished, in
// completion order.
func (s *Simulator) Handled() []*ClientRequest {
	return append([]*ClientRequest(nil), s.handled...)
}

// Dropped is the number of emitted requests that could not be routed.
func (s *Simulator) Dropped() int { return s.dropped }

// ClockScale returns the multiplier applied to AdvanceTime deltas.
func (s *Simulator) ClockScale() float64 { return s.clockScale }

// SetClockScale sets the advance multiplier, clamped to
// [MinClockScale, MaxClockScale].
func (s *Simulator) SetClockScale(scale float64) {
	switch {
	case scale < MinClockScale:
		scale = MinClockScale
	case scale > MaxClockScale:
		scale = MaxClockScale
	}
	s.clockScale = scale
}

// OnDrop registers a callback for requests that cannot be routed.
func (s *Simulator) OnDrop(fn DropFunc) { s.onDrop = fn }

// SetTrace attaches a decision trace. A nil trace disables tracing.
func (s *Simulator) SetTrace(t *trace.SimulationTrace) { s.trace = t }

// Start begins or resumes the simulation. From stopped, the design is
// validated and every workflow source gets its first emission time. From
// paused, the existing schedule is kept.
func (s *Simulator) Start() error {
	switch s.state {
	case StateRunning:
		return nil
	case StatePaused:
		s.state = StateRunning
		logrus.Infof("[t=%.4f] Simulation resumed", s.clock)
		return nil
	}
	if s.design == nil {
		return fmt.Errorf("%w: no design loaded", ErrInvalidDesign)
	}
	if err := s.design.Validate(); err != nil {
		return err
	}
	gaps := s.rng.ForSubsystem(SubsystemWorkload)
	for _, cw := range s.design.workflows {
		cw.ScheduleNext(s.clock, gaps)
	}
	s.state = StateRunning
	logrus.Infof("[t=%.4f] Simulation started with %d workflows", s.clock, len(s.design.workflows))
	return nil
}

// Stop halts the simulation and returns it to a clean initial state: clock
// at zero, no requests, empty queues and a fresh random stream.
func (s *Simulator) Stop() {
	s.state = StateStopped
	s.clock = 0
	s.active = nil
	s.handled = nil
	s.dropped = 0
	s.nextID = 0
	s.rng = NewPartitionedRNG(s.key)
	if s.design != nil {
		s.design.ResetQueues()
	}
	if s.trace != nil {
		s.trace.Reset()
	}
	logrus.Infof("Simulation stopped")
}

// Pause halts advancement without clearing any state.
func (s *Simulator) Pause() {
	if s.state == StateRunning {
		s.state = StatePaused
		logrus.Infof("[t=%.4f] Simulation paused", s.clock)
	}
}

// NextEventTime is the earliest pending emission or step completion.
func (s *Simulator) NextEventTime() (float64, bool) {
	found := false
	next := 0.0
	consider := func(t float64) {
		if !found || t < next {
			next = t
			found = true
		}
	}
	if s.design == nil {
		return 0, false
	}
	for _, cw := range s.design.workflows {
		if t, ok := cw.NextEventTime(); ok {
			consider(t)
		}
	}
	for _, req := range s.active {
		if step := req.CurrentStep(); step != nil {
			if t, ok := step.Calculator.Queue().NextEventTime(); ok {
				consider(t)
			}
		}
	}
	return next, found
}

// AdvanceTime moves the clock forward by seconds times the clock scale,
// processing every event up to the new time. It does nothing unless the
// simulator is running.
func (s *Simulator) AdvanceTime(seconds float64) error {
	if !(seconds > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidAdvance, seconds)
	}
	if s.state != StateRunning {
		return nil
	}
	target := s.clock + seconds*s.clockScale
	for {
		next, ok := s.NextEventTime()
		if !ok || next > target {
			break
		}
		s.clock = next
		s.emitDue()
		s.drainActive()
		s.retireFinished()
	}
	s.clock = target
	return nil
}

// emitDue creates a request for every workflow whose emission time has
// arrived, then reschedules the workflow.
func (s *Simulator) emitDue() {
	gaps := s.rng.ForSubsystem(SubsystemWorkload)
	for _, cw := range s.design.workflows {
		t, ok := cw.NextEventTime()
		if !ok || t > s.clock {
			continue
		}
		s.emit(cw, "")
		if cw.Definition.HasCache() {
			s.emit(cw.CacheVariant(), " $$")
		}
		cw.ScheduleNext(s.clock, gaps)
	}
}

func (s *Simulator) emit(cw *ConfiguredWorkflow, suffix string) {
	s.nextID++
	req := NewClientRequest(fmt.Sprintf("CR-%d", s.nextID), cw, s.rng.ForSubsystem(SubsystemRequests), s.clock)
	req.Name += suffix

	solution, err := BuildSolution(s.design, req)
	if err != nil {
		s.drop(req, err)
		return
	}
	req.Solution = solution
	s.recordRouting(req)
	req.startCurrentStep(s.clock)
	s.active = append(s.active, req)
	logrus.Debugf("[t=%.4f] Emitted %s with %d steps", s.clock, req.Name, solution.Len())
}

func (s *Simulator) drop(req *ClientRequest, err error) {
	s.dropped++
	logrus.Warnf("[t=%.4f] Dropped %s: %v", s.clock, req.Name, err)
	if s.trace.Enabled() {
		s.trace.RecordDrop(trace.DropRecord{
			RequestID: req.ID,
			Clock:     s.clock,
			Workflow:  req.Workflow.Name,
			Reason:    dropReason(err),
		})
	}
	if s.onDrop != nil {
		s.onDrop(req, err)
	}
}

// dropReason reduces err to its sentinel so trace summaries group drops.
func dropReason(err error) string {
	for _, sentinel := range []error{ErrNoTier, ErrEmptyTier, ErrNoRoute, ErrEmptyRoleChain, ErrZoneNotFound} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func (s *Simulator) recordRouting(req *ClientRequest) {
	if !s.trace.Enabled() {
		return
	}
	rec := trace.RoutingRecord{
		RequestID: req.ID,
		Clock:     s.clock,
		Workflow:  req.Workflow.Name,
		Steps:     req.Solution.Len(),
	}
	for _, step := range req.Solution.Steps() {
		switch c := step.Calculator.(type) {
		case *NetworkConnection:
			rec.Hops++
		case *ComputeNode:
			if c.IsHost() {
				zone := ""
				if zid, err := s.design.ZoneOfNode(c.ID); err == nil {
					zone = s.design.zones[zid].Name
				}
				rec.Placements = append(rec.Placements, trace.Placement{Role: string(step.Role), Node: c.Name, Zone: zone})
			}
		}
	}
	s.trace.RecordRouting(rec)
}

// drainActive drains every queue holding an active request's current step,
// in order of first appearance, and moves finished requests to their next
// step.
func (s *Simulator) drainActive() {
	seen := make(map[*ChannelQueue]bool)
	var queues []*ChannelQueue
	for _, req := range s.active {
		step := req.CurrentStep()
		if step == nil {
			continue
		}
		if q := step.Calculator.Queue(); !seen[q] {
			seen[q] = true
			queues = append(queues, q)
		}
	}
	for _, q := range queues {
		for _, done := range q.DrainCompleted(s.clock) {
			done.Solution.Next()
			done.startCurrentStep(s.clock)
		}
	}
}

// retireFinished moves requests with no remaining steps to handled.
func (s *Simulator) retireFinished() {
	kept := s.active[:0]
	for _, req := range s.active {
		if req.IsFinished() {
			req.CompletedAt = s.clock
			s.handled = append(s.handled, req)
			logrus.Debugf("[t=%.4f] Finished %s in %.4fs", s.clock, req.Name, req.Metrics.ResponseTime())
			continue
		}
		kept = append(kept, req)
	}
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = kept
}
