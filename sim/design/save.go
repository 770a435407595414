package design

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cpsim/cpsim/sim"
)

// SpecVersion is written to every saved design.
const SpecVersion = "1"

// FromDesign describes d as a DesignSpec. Connections with a reverse
// partner are saved as one link whose latency is the larger of the two.
// Hardware and workflows are saved by their full library names.
func FromDesign(d *sim.Design) *DesignSpec {
	spec := &DesignSpec{
		Version:        SpecVersion,
		Name:           d.Name,
		Description:    d.Description,
		BaselineRating: d.BaselineRatingPerCore,
	}

	zoneName := func(id sim.ZoneID) string { return d.Zone(id).Name }
	for _, z := range d.Zones() {
		spec.Zones = append(spec.Zones, ZoneSpec{
			Name:           z.Name,
			Description:    z.Description,
			LocalBandwidth: d.Connection(z.LocalConnection()).Bandwidth,
		})
	}
	spec.Links, spec.Connections = pairConnections(d.Connections(), zoneName)

	for _, n := range d.Nodes() {
		switch n.Kind {
		case sim.KindClient:
			spec.Clients = append(spec.Clients, ClientSpec{Name: n.Name, Description: n.Description, Hardware: n.Hardware().Name})
		case sim.KindPhysicalHost:
			zone, _ := d.ZoneOfNode(n.ID)
			spec.Hosts = append(spec.Hosts, HostSpec{Name: n.Name, Description: n.Description, Zone: zoneName(zone), Hardware: n.Hardware().Name})
		case sim.KindVirtualHost:
			parent, _ := n.Parent()
			spec.VirtualHosts = append(spec.VirtualHosts, VirtualHostSpec{
				Name:        n.Name,
				Description: n.Description,
				Host:        d.Node(parent).Name,
				VCPUs:       n.VCPUs,
				MemoryGB:    n.MemoryGB,
			})
		}
	}

	for _, t := range d.Tiers() {
		ts := TierSpec{Name: t.Name, Description: t.Description, Roles: []string{}, Nodes: []string{}}
		for _, r := range t.Roles() {
			ts.Roles = append(ts.Roles, string(r))
		}
		for _, n := range t.Nodes() {
			ts.Nodes = append(ts.Nodes, n.Name)
		}
		spec.Tiers = append(spec.Tiers, ts)
	}
	spec.DefaultTiers = make(map[string]string)
	for _, role := range d.DefaultTierRoles() {
		t, _ := d.DefaultTier(role)
		spec.DefaultTiers[string(role)] = t.Name
	}

	for _, cw := range d.Workflows() {
		zone, _ := d.ZoneOfWorkflow(cw.ID)
		ws := WorkflowSpec{
			Name:         cw.Name,
			Description:  cw.Description,
			Zone:         zoneName(zone),
			Workflow:     cw.Definition.Name,
			Client:       cw.Client.Name,
			Users:        cw.Users,
			Productivity: cw.Productivity,
			TPH:          cw.TPH,
			DataSource:   string(cw.DataSource),
		}
		if overrides := cw.TierOverrides(); len(overrides) > 0 {
			ws.Tiers = make(map[string]string, len(overrides))
			for role, t := range overrides {
				ws.Tiers[string(role)] = t.Name
			}
		}
		spec.Workflows = append(spec.Workflows, ws)
	}
	return spec
}

func pairConnections(conns []*sim.NetworkConnection, zoneName func(sim.ZoneID) string) ([]LinkSpec, []ConnectionSpec) {
	var links []LinkSpec
	var singles []ConnectionSpec
	used := make(map[sim.ConnectionID]bool)
	for i, c := range conns {
		if c.IsLocal() || used[c.ID] {
			continue
		}
		used[c.ID] = true
		var reverse *sim.NetworkConnection
		for _, r := range conns[i+1:] {
			if !used[r.ID] && r.Source == c.Destination && r.Destination == c.Source {
				reverse = r
				break
			}
		}
		if reverse == nil {
			latency := c.LatencyMs
			singles = append(singles, ConnectionSpec{
				From:      zoneName(c.Source),
				To:        zoneName(c.Destination),
				Bandwidth: c.Bandwidth,
				LatencyMs: &latency,
			})
			continue
		}
		used[reverse.ID] = true
		latency := max(c.LatencyMs, reverse.LatencyMs)
		links = append(links, LinkSpec{
			Up:            zoneName(c.Source),
			Down:          zoneName(c.Destination),
			DownBandwidth: c.Bandwidth,
			UpBandwidth:   reverse.Bandwidth,
			LatencyMs:     &latency,
		})
	}
	return links, singles
}

// SaveDesignSpec writes spec to path as YAML.
func SaveDesignSpec(spec *DesignSpec, path string) error {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("encoding design: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing design: %w", err)
	}
	return nil
}
