package design

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cpsim/cpsim/sim"
)

// Build validates spec and constructs the simulated design it describes,
// resolving hardware and workflow names against lib.
func Build(spec *DesignSpec, lib *Library) (*sim.Design, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid design %q: %w", spec.Name, err)
	}
	b := &builder{spec: spec, lib: lib, d: sim.NewDesign(spec.Name)}
	b.d.Description = spec.Description
	switch {
	case spec.BaselineRating > 0:
		b.d.BaselineRatingPerCore = spec.BaselineRating
	case lib.BaselineRating > 0:
		b.d.BaselineRatingPerCore = lib.BaselineRating
	}

	steps := []func() error{b.zones, b.connections, b.nodes, b.tiers, b.workflows}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	logrus.Infof("Built design %q: %d zones, %d connections, %d nodes, %d tiers, %d workflows",
		spec.Name, len(b.d.Zones()), len(b.d.Connections()), len(b.d.Nodes()), len(b.d.Tiers()), len(b.d.Workflows()))
	return b.d, nil
}

type builder struct {
	spec *DesignSpec
	lib  *Library
	d    *sim.Design

	zoneIDs map[string]sim.ZoneID
	nodeIDs map[string]sim.NodeID
	tierIDs map[string]sim.TierID
}

func (b *builder) hardware(key string) (sim.HardwareDefinition, error) {
	if name, ok := b.spec.HardwareAliases[key]; ok {
		key = name
	}
	hw, ok := b.lib.FindHardware(key)
	if !ok {
		return sim.HardwareDefinition{}, fmt.Errorf("%q: %w", key, ErrUnknownHardware)
	}
	return hw, nil
}

func (b *builder) workflow(key string) (*sim.WorkflowDefinition, error) {
	if name, ok := b.spec.WorkflowAliases[key]; ok {
		key = name
	}
	def, ok := b.lib.FindWorkflow(key)
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrUnknownWorkflow)
	}
	// Each configured workflow owns its definition.
	return def.WithServiceType(def.ServiceType), nil
}

func (b *builder) zones() error {
	b.zoneIDs = make(map[string]sim.ZoneID, len(b.spec.Zones))
	for _, z := range b.spec.Zones {
		bw := z.LocalBandwidth
		if bw == 0 {
			bw = sim.DefaultLocalBandwidth
		}
		id, err := b.d.AddZone(z.Name, bw)
		if err != nil {
			return err
		}
		b.d.Zone(id).Description = z.Description
		b.zoneIDs[z.Name] = id
	}
	return nil
}

func latencyOrDefault(ms *float64) float64 {
	if ms == nil {
		return sim.DefaultLatencyMs
	}
	return *ms
}

func (b *builder) connections() error {
	for _, l := range b.spec.Links {
		up, down := b.zoneIDs[l.Up], b.zoneIDs[l.Down]
		latency := latencyOrDefault(l.LatencyMs)
		if _, err := b.d.Connect(up, down, l.DownBandwidth, latency); err != nil {
			return err
		}
		if _, err := b.d.Connect(down, up, l.UpBandwidth, latency); err != nil {
			return err
		}
	}
	for _, c := range b.spec.Connections {
		if _, err := b.d.Connect(b.zoneIDs[c.From], b.zoneIDs[c.To], c.Bandwidth, latencyOrDefault(c.LatencyMs)); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) nodes() error {
	b.nodeIDs = make(map[string]sim.NodeID)
	for _, c := range b.spec.Clients {
		hw, err := b.hardware(c.Hardware)
		if err != nil {
			return fmt.Errorf("client %q: %w", c.Name, err)
		}
		id, err := b.d.AddClient(c.Name, hw)
		if err != nil {
			return err
		}
		b.d.Node(id).Description = c.Description
		b.nodeIDs[c.Name] = id
	}
	for _, h := range b.spec.Hosts {
		hw, err := b.hardware(h.Hardware)
		if err != nil {
			return fmt.Errorf("host %q: %w", h.Name, err)
		}
		id, err := b.d.AddPhysicalHost(b.zoneIDs[h.Zone], h.Name, hw)
		if err != nil {
			return err
		}
		b.d.Node(id).Description = h.Description
		b.nodeIDs[h.Name] = id
	}
	for _, v := range b.spec.VirtualHosts {
		id, err := b.d.AddVirtualHost(b.nodeIDs[v.Host], v.Name, v.VCPUs, v.MemoryGB)
		if err != nil {
			return err
		}
		b.d.Node(id).Description = v.Description
		b.nodeIDs[v.Name] = id
	}
	return nil
}

func (b *builder) tiers() error {
	b.tierIDs = make(map[string]sim.TierID, len(b.spec.Tiers))
	for _, t := range b.spec.Tiers {
		roles := make([]sim.ComputeRole, len(t.Roles))
		for i, r := range t.Roles {
			roles[i] = sim.ComputeRole(r)
		}
		members := make([]sim.NodeID, len(t.Nodes))
		for i, n := range t.Nodes {
			members[i] = b.nodeIDs[n]
		}
		id, err := b.d.AddTier(t.Name, roles, members)
		if err != nil {
			return err
		}
		b.d.Tier(id).Description = t.Description
		b.tierIDs[t.Name] = id
	}
	// Sorted for stable error reporting.
	for _, role := range sortedKeys(b.spec.DefaultTiers) {
		if err := b.d.SetDefaultTier(sim.ComputeRole(role), b.tierIDs[b.spec.DefaultTiers[role]]); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) workflows() error {
	for _, w := range b.spec.Workflows {
		def, err := b.workflow(w.Workflow)
		if err != nil {
			return fmt.Errorf("workflow %q: %w", w.Name, err)
		}
		var overrides map[sim.ComputeRole]sim.TierID
		if len(w.Tiers) > 0 {
			overrides = make(map[sim.ComputeRole]sim.TierID, len(w.Tiers))
			for role, tier := range w.Tiers {
				overrides[sim.ComputeRole(role)] = b.tierIDs[tier]
			}
		}
		_, err = b.d.AddWorkflow(b.zoneIDs[w.Zone], sim.WorkflowConfig{
			Name:         w.Name,
			Description:  w.Description,
			Definition:   def,
			Client:       b.nodeIDs[w.Client],
			Users:        w.Users,
			Productivity: w.Productivity,
			TPH:          w.TPH,
			DataSource:   sim.ParseDataSourceType(w.DataSource),
			Tiers:        overrides,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
