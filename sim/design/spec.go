// Package design loads and saves simulated designs as YAML and resolves their
// hardware and workflow references against a Library.
package design

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cpsim/cpsim/sim"
)

// DesignSpec is the top-level design file. Entities refer to each other by
// name. Loaded from YAML via LoadDesignSpec(path).
type DesignSpec struct {
	Version        string  `yaml:"version"`
	Name           string  `yaml:"name"`
	Description    string  `yaml:"description,omitempty"`
	BaselineRating float64 `yaml:"baseline_rating,omitempty"` // 0 = library value

	// Aliases added on top of the library's own.
	HardwareAliases map[string]string `yaml:"hardware_aliases,omitempty"`
	WorkflowAliases map[string]string `yaml:"workflow_aliases,omitempty"`

	Zones        []ZoneSpec        `yaml:"zones"`
	Links        []LinkSpec        `yaml:"links,omitempty"`
	Connections  []ConnectionSpec  `yaml:"connections,omitempty"`
	Clients      []ClientSpec      `yaml:"clients"`
	Hosts        []HostSpec        `yaml:"hosts"`
	VirtualHosts []VirtualHostSpec `yaml:"virtual_hosts,omitempty"`
	Tiers        []TierSpec        `yaml:"tiers"`
	DefaultTiers map[string]string `yaml:"default_tiers"` // role -> tier name
	Workflows    []WorkflowSpec    `yaml:"workflows"`
}

// ZoneSpec defines a network zone.
type ZoneSpec struct {
	Name           string  `yaml:"name"`
	Description    string  `yaml:"description,omitempty"`
	LocalBandwidth float64 `yaml:"local_bandwidth,omitempty"` // Mb/s; 0 = default
}

// LinkSpec joins two zones in both directions. Traffic from Up to Down uses
// DownBandwidth; traffic from Down to Up uses UpBandwidth.
type LinkSpec struct {
	Up            string   `yaml:"up"`
	Down          string   `yaml:"down"`
	UpBandwidth   float64  `yaml:"up_bandwidth"`
	DownBandwidth float64  `yaml:"down_bandwidth"`
	LatencyMs     *float64 `yaml:"latency_ms,omitempty"` // nil = default
}

// ConnectionSpec is a single one-way connection.
type ConnectionSpec struct {
	From      string   `yaml:"from"`
	To        string   `yaml:"to"`
	Bandwidth float64  `yaml:"bandwidth"`
	LatencyMs *float64 `yaml:"latency_ms,omitempty"` // nil = default
}

// ClientSpec defines a client workstation type used by workflows.
type ClientSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Hardware    string `yaml:"hardware"`
}

// HostSpec defines a physical host in a zone.
type HostSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Zone        string `yaml:"zone"`
	Hardware    string `yaml:"hardware"`
}

// VirtualHostSpec defines a guest on a physical host.
type VirtualHostSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Host        string `yaml:"host"`
	VCPUs       int    `yaml:"vcpus"`
	MemoryGB    int    `yaml:"memory_gb,omitempty"`
}

// TierSpec groups hosts that serve a set of roles.
type TierSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Roles       []string `yaml:"roles"`
	Nodes       []string `yaml:"nodes"`
}

// WorkflowSpec places a workflow definition in a zone as a demand source.
type WorkflowSpec struct {
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description,omitempty"`
	Zone         string            `yaml:"zone"`
	Workflow     string            `yaml:"workflow"` // library name or alias
	Client       string            `yaml:"client"`
	Users        int               `yaml:"users,omitempty"`
	Productivity float64           `yaml:"productivity,omitempty"` // transactions per user per minute
	TPH          int               `yaml:"tph,omitempty"`          // overrides users x productivity
	DataSource   string            `yaml:"data_source,omitempty"`
	Tiers        map[string]string `yaml:"tiers,omitempty"` // role -> tier name
}

// LoadDesignSpec reads and parses a YAML design file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadDesignSpec(path string) (*DesignSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading design: %w", err)
	}
	return ParseDesignSpec(data)
}

// ParseDesignSpec parses YAML design content.
func ParseDesignSpec(data []byte) (*DesignSpec, error) {
	var spec DesignSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing design: %w", err)
	}
	return &spec, nil
}

// validDataSources is the set of recognized data_source values.
var validDataSources = map[string]bool{
	"": true, "DB": true, "SFG": true, "LFG": true, "SSF": true, "MSF": true, "LSF": true, "Cache": true,
}

// Validate checks names, references and numeric ranges. Library references
// (hardware, workflow) are resolved later by Build.
func (s *DesignSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.BaselineRating < 0 {
		return fmt.Errorf("baseline_rating must be non-negative, got %f", s.BaselineRating)
	}

	zones := make(map[string]bool, len(s.Zones))
	for i, z := range s.Zones {
		if err := uniqueName(zones, z.Name, fmt.Sprintf("zones[%d]", i)); err != nil {
			return err
		}
		if z.LocalBandwidth < 0 {
			return fmt.Errorf("zones[%d]: local_bandwidth must be non-negative, got %f", i, z.LocalBandwidth)
		}
	}
	for i, l := range s.Links {
		prefix := fmt.Sprintf("links[%d]", i)
		if err := validateEnds(zones, prefix, l.Up, l.Down); err != nil {
			return err
		}
		if err := validatePositive(prefix+".up_bandwidth", l.UpBandwidth); err != nil {
			return err
		}
		if err := validatePositive(prefix+".down_bandwidth", l.DownBandwidth); err != nil {
			return err
		}
		if err := validateLatency(prefix, l.LatencyMs); err != nil {
			return err
		}
	}
	for i, c := range s.Connections {
		prefix := fmt.Sprintf("connections[%d]", i)
		if err := validateEnds(zones, prefix, c.From, c.To); err != nil {
			return err
		}
		if err := validatePositive(prefix+".bandwidth", c.Bandwidth); err != nil {
			return err
		}
		if err := validateLatency(prefix, c.LatencyMs); err != nil {
			return err
		}
	}

	nodes := make(map[string]bool)
	clients := make(map[string]bool, len(s.Clients))
	for i, c := range s.Clients {
		if err := uniqueName(nodes, c.Name, fmt.Sprintf("clients[%d]", i)); err != nil {
			return err
		}
		clients[c.Name] = true
	}
	physical := make(map[string]bool, len(s.Hosts))
	for i, h := range s.Hosts {
		prefix := fmt.Sprintf("hosts[%d]", i)
		if err := uniqueName(nodes, h.Name, prefix); err != nil {
			return err
		}
		if !zones[h.Zone] {
			return fmt.Errorf("%s: unknown zone %q", prefix, h.Zone)
		}
		physical[h.Name] = true
	}
	hosts := make(map[string]bool, len(s.Hosts)+len(s.VirtualHosts))
	for name := range physical {
		hosts[name] = true
	}
	for i, v := range s.VirtualHosts {
		prefix := fmt.Sprintf("virtual_hosts[%d]", i)
		if err := uniqueName(nodes, v.Name, prefix); err != nil {
			return err
		}
		if !physical[v.Host] {
			return fmt.Errorf("%s: unknown physical host %q", prefix, v.Host)
		}
		if v.VCPUs < 1 {
			return fmt.Errorf("%s: vcpus must be >= 1, got %d", prefix, v.VCPUs)
		}
		hosts[v.Name] = true
	}

	tiers := make(map[string]bool, len(s.Tiers))
	for i, t := range s.Tiers {
		prefix := fmt.Sprintf("tiers[%d]", i)
		if err := uniqueName(tiers, t.Name, prefix); err != nil {
			return err
		}
		for _, r := range t.Roles {
			if !sim.IsValidComputeRole(r) {
				return fmt.Errorf("%s: unknown role %q", prefix, r)
			}
		}
		for _, n := range t.Nodes {
			if !hosts[n] {
				return fmt.Errorf("%s: unknown host %q", prefix, n)
			}
		}
	}
	if err := validateTierMap("default_tiers", s.DefaultTiers, tiers); err != nil {
		return err
	}

	for i, w := range s.Workflows {
		prefix := fmt.Sprintf("workflows[%d]", i)
		if w.Name == "" {
			return fmt.Errorf("%s: name is required", prefix)
		}
		if !zones[w.Zone] {
			return fmt.Errorf("%s: unknown zone %q", prefix, w.Zone)
		}
		if !clients[w.Client] {
			return fmt.Errorf("%s: unknown client %q", prefix, w.Client)
		}
		if w.Workflow == "" {
			return fmt.Errorf("%s: workflow is required", prefix)
		}
		if w.Users < 0 || w.TPH < 0 || w.Productivity < 0 {
			return fmt.Errorf("%s: users, productivity and tph must be non-negative", prefix)
		}
		if w.TPH == 0 && float64(w.Users)*w.Productivity <= 0 {
			return fmt.Errorf("%s: either tph or users x productivity must be positive", prefix)
		}
		if !validDataSources[w.DataSource] {
			return fmt.Errorf("%s: unknown data_source %q; valid: DB, SFG, LFG, SSF, MSF, LSF, Cache", prefix, w.DataSource)
		}
		if err := validateTierMap(prefix+".tiers", w.Tiers, tiers); err != nil {
			return err
		}
	}
	return nil
}

func uniqueName(seen map[string]bool, name, prefix string) error {
	if name == "" {
		return fmt.Errorf("%s: name is required", prefix)
	}
	if seen[name] {
		return fmt.Errorf("%s: duplicate name %q", prefix, name)
	}
	seen[name] = true
	return nil
}

func validateEnds(zones map[string]bool, prefix, a, b string) error {
	if !zones[a] {
		return fmt.Errorf("%s: unknown zone %q", prefix, a)
	}
	if !zones[b] {
		return fmt.Errorf("%s: unknown zone %q", prefix, b)
	}
	if a == b {
		return fmt.Errorf("%s: both ends are zone %q", prefix, a)
	}
	return nil
}

func validateTierMap(prefix string, m map[string]string, tiers map[string]bool) error {
	for role, tier := range m {
		if !sim.IsValidComputeRole(role) {
			return fmt.Errorf("%s: unknown role %q", prefix, role)
		}
		if !tiers[tier] {
			return fmt.Errorf("%s.%s: unknown tier %q", prefix, role, tier)
		}
	}
	return nil
}

func validatePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}

func validateLatency(prefix string, latency *float64) error {
	if latency != nil && *latency < 0 {
		return fmt.Errorf("%s.latency_ms must be non-negative, got %f", prefix, *latency)
	}
	return nil
}
