package sim

import "fmt"

// DefaultBaselineRatingPerCore is the SPEC rate per core that workflow
// service times are calibrated against.
const DefaultBaselineRatingPerCore = 50.0

// HardwareDefinition describes a machine type from the hardware library.
type HardwareDefinition struct {
	Name          string
	Description   string
	Category      string
	Processor     string
	Cores         int     // total cores, one queue channel each
	Chips         int     // chips (sockets)
	MHz           float64 // clock speed, informational
	SpecRating    float64 // SPEC rate score of the whole machine
	Platform      string
	ReferenceYear int
}

// RatingPerCore is the library's per-core score: SPEC rating divided by
// cores times chips.
func (h HardwareDefinition) RatingPerCore() float64 {
	return h.SpecRating / float64(h.Cores*h.Chips)
}

// Validate checks that the definition can back a compute node.
func (h HardwareDefinition) Validate() error {
	if h.Name == "" {
		return fmt.Errorf("hardware: name is required")
	}
	if h.Cores < 1 {
		return fmt.Errorf("hardware %q: cores must be >= 1, got %d", h.Name, h.Cores)
	}
	if h.Chips < 1 {
		return fmt.Errorf("hardware %q: chips must be >= 1, got %d", h.Name, h.Chips)
	}
	if h.SpecRating <= 0 {
		return fmt.Errorf("hardware %q: spec rating must be > 0, got %v", h.Name, h.SpecRating)
	}
	return nil
}
