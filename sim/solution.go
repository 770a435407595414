package sim

import "fmt"

// Step is one stop on a request's round trip: a network transfer or a
// compute job.
type Step struct {
	Calculator Calculator
	IsResponse bool        // false on the request leg, true on the response leg
	Role       ComputeRole // role this step serves
	DataSize   float64     // Mb transferred or processed
}

// Solution is the ordered list of steps a request must complete. The list is
// fixed at construction; a cursor marks the current step.
type Solution struct {
	steps  []Step
	cursor int
}

// NewSolution wraps steps. Panics if any step has a negative data size or
// no calculator.
func NewSolution(steps []Step) *Solution {
	for i, s := range steps {
		if s.DataSize < 0 {
			panic(fmt.Sprintf("NewSolution: step %d has negative data size %v", i, s.DataSize))
		}
		if s.Calculator == nil {
			panic(fmt.Sprintf("NewSolution: step %d has no calculator", i))
		}
	}
	return &Solution{steps: steps}
}

// Current returns the first remaining step without consuming it, or nil.
// The returned step must not be modified.
func (s *Solution) Current() *Step {
	if s.cursor >= len(s.steps) {
		return nil
	}
	return &s.steps[s.cursor]
}

// Next consumes the current step and returns it, or nil when finished.
func (s *Solution) Next() *Step {
	step := s.Current()
	if step != nil {
		s.cursor++
	}
	return step
}

// Finished is true when no steps remain.
func (s *Solution) Finished() bool { return s.cursor >= len(s.steps) }

// Remaining is the number of steps not yet consumed.
func (s *Solution) Remaining() int { return len(s.steps) - s.cursor }

// Len is the total number of steps, consumed or not.
func (s *Solution) Len() int { return len(s.steps) }

// Steps returns a copy of every step in order.
func (s *Solution) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// Clone returns an independent solution positioned at the same step.
// The step list is shared since it is never mutated.
func (s *Solution) Clone() *Solution {
	return &Solution{steps: s.steps, cursor: s.cursor}
}
