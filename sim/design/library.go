package design

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cpsim/cpsim/sim"
)

// Lookup errors for library references.
var (
	ErrUnknownHardware = errors.New("unknown hardware type")
	ErrUnknownWorkflow = errors.New("unknown workflow definition")
)

// Library is the reference catalogue of hardware types and workflow
// definitions that designs refer to by name or alias.
// Loaded from YAML via LoadLibrary(path).
type Library struct {
	Version         string            `yaml:"version"`
	BaselineRating  float64           `yaml:"baseline_rating"` // SPEC rating per core of the reference machine
	Hardware        []HardwareSpec    `yaml:"hardware"`
	HardwareAliases map[string]string `yaml:"hardware_aliases,omitempty"`
	Workflows       []WorkflowDefSpec `yaml:"workflows"`
	WorkflowAliases map[string]string `yaml:"workflow_aliases,omitempty"`

	hardware  map[string]sim.HardwareDefinition
	workflows map[string]*sim.WorkflowDefinition
}

// HardwareSpec is one machine type in the library.
type HardwareSpec struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Category    string  `yaml:"category,omitempty"`
	Processor   string  `yaml:"processor"`
	Cores       int     `yaml:"cores"`
	Chips       int     `yaml:"chips,omitempty"` // 0 = 1
	MHz         float64 `yaml:"mhz,omitempty"`
	Spec        float64 `yaml:"spec"`
	Platform    string  `yaml:"platform,omitempty"`
	RefYear     int     `yaml:"ref_year,omitempty"`
}

// WorkflowDefSpec is one workflow definition in the library. Service times
// are baseline seconds keyed by compute role name.
type WorkflowDefSpec struct {
	Name          string             `yaml:"name"`
	Description   string             `yaml:"description,omitempty"`
	Category      string             `yaml:"category,omitempty"`
	Type          string             `yaml:"type"`
	Chatter       int                `yaml:"chatter"`
	ClientTraffic float64            `yaml:"client_traffic"`
	ServerTraffic float64            `yaml:"server_traffic"`
	Think         int                `yaml:"think,omitempty"`
	ServiceTimes  map[string]float64 `yaml:"service_times"`
}

// LoadLibrary reads, parses and indexes a YAML library file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}
	lib, err := ParseLibrary(data)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Loaded library %s: %d hardware types, %d workflows", path, len(lib.hardware), len(lib.workflows))
	return lib, nil
}

// ParseLibrary parses and indexes YAML library content.
func ParseLibrary(data []byte) (*Library, error) {
	var lib Library
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&lib); err != nil {
		return nil, fmt.Errorf("parsing library: %w", err)
	}
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return &lib, nil
}

// Validate checks every entry and alias, then builds the lookup indexes.
func (l *Library) Validate() error {
	if l.BaselineRating < 0 {
		return fmt.Errorf("baseline_rating must be non-negative, got %f", l.BaselineRating)
	}
	l.hardware = make(map[string]sim.HardwareDefinition, len(l.Hardware))
	for i, h := range l.Hardware {
		hw := h.definition()
		if err := hw.Validate(); err != nil {
			return fmt.Errorf("hardware[%d]: %w", i, err)
		}
		if _, dup := l.hardware[hw.Name]; dup {
			return fmt.Errorf("hardware[%d]: duplicate name %q", i, hw.Name)
		}
		l.hardware[hw.Name] = hw
	}
	l.workflows = make(map[string]*sim.WorkflowDefinition, len(l.Workflows))
	for i, w := range l.Workflows {
		def, err := w.definition()
		if err != nil {
			return fmt.Errorf("workflows[%d]: %w", i, err)
		}
		if _, dup := l.workflows[def.Name]; dup {
			return fmt.Errorf("workflows[%d]: duplicate name %q", i, def.Name)
		}
		l.workflows[def.Name] = def
	}
	for alias, name := range l.HardwareAliases {
		if _, ok := l.hardware[name]; !ok {
			return fmt.Errorf("hardware alias %q: %q: %w", alias, name, ErrUnknownHardware)
		}
	}
	for alias, name := range l.WorkflowAliases {
		if _, ok := l.workflows[name]; !ok {
			return fmt.Errorf("workflow alias %q: %q: %w", alias, name, ErrUnknownWorkflow)
		}
	}
	return nil
}

func (h HardwareSpec) definition() sim.HardwareDefinition {
	chips := h.Chips
	if chips == 0 {
		chips = 1
	}
	return sim.HardwareDefinition{
		Name:          h.Name,
		Description:   h.Description,
		Category:      h.Category,
		Processor:     h.Processor,
		Cores:         h.Cores,
		Chips:         chips,
		MHz:           h.MHz,
		SpecRating:    h.Spec,
		Platform:      h.Platform,
		ReferenceYear: h.RefYear,
	}
}

func (w WorkflowDefSpec) definition() (*sim.WorkflowDefinition, error) {
	times := make(map[sim.ComputeRole]float64, len(w.ServiceTimes))
	for role, v := range w.ServiceTimes {
		if !sim.IsValidComputeRole(role) {
			return nil, fmt.Errorf("workflow %q: unknown compute role %q", w.Name, role)
		}
		times[sim.ComputeRole(role)] = v
	}
	def := sim.NewWorkflowDefinition(w.Name, sim.ParseServiceType(w.Type), times)
	def.Description = w.Description
	def.Category = w.Category
	def.Chatter = w.Chatter
	def.ClientTraffic = w.ClientTraffic
	def.ServerTraffic = w.ServerTraffic
	def.ThinkTime = w.Think
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// FindHardware looks a hardware type up by name or alias.
func (l *Library) FindHardware(key string) (sim.HardwareDefinition, bool) {
	if name, ok := l.HardwareAliases[key]; ok {
		key = name
	}
	hw, ok := l.hardware[key]
	return hw, ok
}

// FindWorkflow looks a workflow definition up by name or alias. The
// definition is shared by every caller and must not be modified.
func (l *Library) FindWorkflow(key string) (*sim.WorkflowDefinition, bool) {
	if name, ok := l.WorkflowAliases[key]; ok {
		key = name
	}
	w, ok := l.workflows[key]
	return w, ok
}

// HardwareNames returns every hardware type name, sorted.
func (l *Library) HardwareNames() []string {
	return sortedKeys(l.hardware)
}

// WorkflowNames returns every workflow definition name, sorted.
func (l *Library) WorkflowNames() []string {
	return sortedKeys(l.workflows)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
