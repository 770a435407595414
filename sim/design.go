package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Design is the simulated world: zones, connections, compute nodes, tiers
// and workflow sources. Entities live in arenas indexed by their ids and
// refer to each other by id.
type Design struct {
	Name        string
	Description string

	// BaselineRatingPerCore is the per-core SPEC rating that workflow
	// service times are measured against.
	BaselineRatingPerCore float64

	zones        []*NetworkZone
	connections  []*NetworkConnection
	nodes        []*ComputeNode
	tiers        []*Tier
	workflows    []*ConfiguredWorkflow
	defaultTiers map[ComputeRole]*Tier
}

// NewDesign returns an empty design with the default baseline rating.
func NewDesign(name string) *Design {
	return &Design{
		Name:                  name,
		BaselineRatingPerCore: DefaultBaselineRatingPerCore,
		defaultTiers:          make(map[ComputeRole]*Tier),
	}
}

// === Builders ===

// AddZone creates a zone and its local connection.
func (d *Design) AddZone(name string, localBandwidth float64) (ZoneID, error) {
	if localBandwidth <= 0 {
		return 0, fmt.Errorf("zone %q: local bandwidth must be > 0, got %v", name, localBandwidth)
	}
	if _, ok := d.FindZone(name); ok {
		return 0, fmt.Errorf("zone %q: duplicate name", name)
	}
	id := ZoneID(len(d.zones))
	z := &NetworkZone{ID: id, Name: name}
	d.zones = append(d.zones, z)

	cid := ConnectionID(len(d.connections))
	d.connections = append(d.connections, newNetworkConnection(cid, name+" Local", id, id, localBandwidth, 0))
	z.local = cid
	z.connections = append(z.connections, cid)
	return id, nil
}

// Connect adds a one-way connection from src to dst. Only the source zone
// lists it as outbound.
func (d *Design) Connect(src, dst ZoneID, bandwidth, latencyMs float64) (ConnectionID, error) {
	from, err := d.zone(src)
	if err != nil {
		return 0, err
	}
	to, err := d.zone(dst)
	if err != nil {
		return 0, err
	}
	if src == dst {
		return 0, fmt.Errorf("connect %s: source and destination are the same zone", from.Name)
	}
	if bandwidth <= 0 {
		return 0, fmt.Errorf("connect %s -> %s: bandwidth must be > 0, got %v", from.Name, to.Name, bandwidth)
	}
	if latencyMs < 0 {
		return 0, fmt.Errorf("connect %s -> %s: latency must be >= 0, got %v", from.Name, to.Name, latencyMs)
	}
	id := ConnectionID(len(d.connections))
	d.connections = append(d.connections, newNetworkConnection(id, from.Name+" -> "+to.Name, src, dst, bandwidth, latencyMs))
	from.connections = append(from.connections, id)
	return id, nil
}

// Invert adds the reverse of an existing connection with the same bandwidth
// and latency.
func (d *Design) Invert(id ConnectionID) (ConnectionID, error) {
	c, err := d.connection(id)
	if err != nil {
		return 0, err
	}
	return d.Connect(c.Destination, c.Source, c.Bandwidth, c.LatencyMs)
}

// AddClient adds a client workstation. Clients belong to no zone; requests
// start from the zone of the workflow that uses them.
func (d *Design) AddClient(name string, hw HardwareDefinition) (NodeID, error) {
	if err := hw.Validate(); err != nil {
		return 0, fmt.Errorf("client %q: %w", name, err)
	}
	return d.addNode(name, KindClient, &hw, 0), nil
}

// AddPhysicalHost adds a host in zone.
func (d *Design) AddPhysicalHost(zone ZoneID, name string, hw HardwareDefinition) (NodeID, error) {
	z, err := d.zone(zone)
	if err != nil {
		return 0, err
	}
	if err := hw.Validate(); err != nil {
		return 0, fmt.Errorf("host %q: %w", name, err)
	}
	id := d.addNode(name, KindPhysicalHost, &hw, 0)
	z.hosts = append(z.hosts, id)
	return id, nil
}

// AddVirtualHost adds a guest on physical host, in the host's zone.
func (d *Design) AddVirtualHost(host NodeID, name string, vcpus, memGB int) (NodeID, error) {
	p, err := d.node(host)
	if err != nil {
		return 0, err
	}
	if p.Kind != KindPhysicalHost {
		return 0, fmt.Errorf("virtual host %q: %s is not a physical host", name, p.Name)
	}
	zone, err := d.ZoneOfNode(host)
	if err != nil {
		return 0, err
	}
	id := d.addNode(name, KindVirtualHost, nil, host)
	vh := d.nodes[id]
	vh.VCPUs = vcpus
	vh.MemoryGB = memGB
	p.children = append(p.children, id)
	d.zones[zone].hosts = append(d.zones[zone].hosts, id)
	return id, nil
}

func (d *Design) addNode(name string, kind NodeKind, hw *HardwareDefinition, parent NodeID) NodeID {
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, newComputeNode(d, id, name, kind, hw, parent))
	return id
}

// AddTier creates a tier over hosts serving roles.
func (d *Design) AddTier(name string, roles []ComputeRole, members []NodeID) (TierID, error) {
	t := &Tier{
		ID:    TierID(len(d.tiers)),
		Name:  name,
		roles: make(map[ComputeRole]bool, len(roles)),
	}
	for _, r := range roles {
		if !IsValidComputeRole(string(r)) {
			return 0, fmt.Errorf("tier %q: unknown role %q", name, r)
		}
		t.roles[r] = true
	}
	for _, id := range members {
		n, err := d.node(id)
		if err != nil {
			return 0, fmt.Errorf("tier %q: %w", name, err)
		}
		if !n.IsHost() {
			return 0, fmt.Errorf("tier %q: %s is a client, not a host", name, n.Name)
		}
		t.nodes = append(t.nodes, n)
	}
	d.tiers = append(d.tiers, t)
	return t.ID, nil
}

// SetDefaultTier makes tier handle role for workflows without an override.
func (d *Design) SetDefaultTier(role ComputeRole, tier TierID) error {
	t, err := d.tier(tier)
	if err != nil {
		return err
	}
	d.defaultTiers[role] = t
	return nil
}

// AddWorkflow adds a demand source located in zone.
func (d *Design) AddWorkflow(zone ZoneID, cfg WorkflowConfig) (WorkflowID, error) {
	z, err := d.zone(zone)
	if err != nil {
		return 0, err
	}
	if cfg.Definition == nil {
		return 0, fmt.Errorf("workflow %q: definition is required", cfg.Name)
	}
	client, err := d.node(cfg.Client)
	if err != nil {
		return 0, fmt.Errorf("workflow %q: %w", cfg.Name, err)
	}
	if client.Kind != KindClient {
		return 0, fmt.Errorf("workflow %q: %s is not a client", cfg.Name, client.Name)
	}
	ds := cfg.DataSource
	if ds == "" {
		ds = DataSourceDBMS
	}
	cw := &ConfiguredWorkflow{
		ID:           WorkflowID(len(d.workflows)),
		Name:         cfg.Name,
		Description:  cfg.Description,
		Definition:   cfg.Definition,
		Client:       client,
		Users:        cfg.Users,
		Productivity: cfg.Productivity,
		TPH:          cfg.TPH,
		DataSource:   ds,
		tiers:        make(map[ComputeRole]*Tier, len(cfg.Tiers)),
	}
	if cw.TPS() <= 0 {
		return 0, fmt.Errorf("workflow %q: rate must be > 0 (tph=%d users=%d productivity=%v)",
			cfg.Name, cfg.TPH, cfg.Users, cfg.Productivity)
	}
	for role, tid := range cfg.Tiers {
		t, err := d.tier(tid)
		if err != nil {
			return 0, fmt.Errorf("workflow %q: %w", cfg.Name, err)
		}
		cw.tiers[role] = t
	}
	d.workflows = append(d.workflows, cw)
	z.workflows = append(z.workflows, cw.ID)
	return cw.ID, nil
}

// === Lookups ===

func (d *Design) zone(id ZoneID) (*NetworkZone, error) {
	if int(id) < 0 || int(id) >= len(d.zones) {
		return nil, fmt.Errorf("zone %d: %w", id, ErrZoneNotFound)
	}
	return d.zones[id], nil
}

func (d *Design) connection(id ConnectionID) (*NetworkConnection, error) {
	if int(id) < 0 || int(id) >= len(d.connections) {
		return nil, fmt.Errorf("connection %d: %w", id, ErrConnectionNotFound)
	}
	return d.connections[id], nil
}

func (d *Design) node(id NodeID) (*ComputeNode, error) {
	if int(id) < 0 || int(id) >= len(d.nodes) {
		return nil, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	return d.nodes[id], nil
}

func (d *Design) tier(id TierID) (*Tier, error) {
	if int(id) < 0 || int(id) >= len(d.tiers) {
		return nil, fmt.Errorf("tier %d: %w", id, ErrTierNotFound)
	}
	return d.tiers[id], nil
}

// Zone returns the zone with id, or nil.
func (d *Design) Zone(id ZoneID) *NetworkZone {
	z, _ := d.zone(id)
	return z
}

// Connection returns the connection with id, or nil.
func (d *Design) Connection(id ConnectionID) *NetworkConnection {
	c, _ := d.connection(id)
	return c
}

// Node returns the compute node with id, or nil.
func (d *Design) Node(id NodeID) *ComputeNode {
	n, _ := d.node(id)
	return n
}

// Tier returns the tier with id, or nil.
func (d *Design) Tier(id TierID) *Tier {
	t, _ := d.tier(id)
	return t
}

// Workflow returns the configured workflow with id, or nil.
func (d *Design) Workflow(id WorkflowID) *ConfiguredWorkflow {
	if int(id) < 0 || int(id) >= len(d.workflows) {
		return nil
	}
	return d.workflows[id]
}

func (d *Design) Zones() []*NetworkZone {
	return append([]*NetworkZone(nil), d.zones...)
}

func (d *Design) Connections() []*NetworkConnection {
	return append([]*NetworkConnection(nil), d.connections...)
}

func (d *Design) Nodes() []*ComputeNode {
	return append([]*ComputeNode(nil), d.nodes...)
}

func (d *Design) Tiers() []*Tier {
	return append([]*Tier(nil), d.tiers...)
}

func (d *Design) Workflows() []*ConfiguredWorkflow {
	return append([]*ConfiguredWorkflow(nil), d.workflows...)
}

// Hosts returns physical and virtual hosts in id order.
func (d *Design) Hosts() []*ComputeNode {
	var out []*ComputeNode
	for _, n := range d.nodes {
		if n.IsHost() {
			out = append(out, n)
		}
	}
	return out
}

// Clients returns client nodes in id order.
func (d *Design) Clients() []*ComputeNode {
	var out []*ComputeNode
	for _, n := range d.nodes {
		if n.Kind == KindClient {
			out = append(out, n)
		}
	}
	return out
}

// FindZone looks a zone up by name.
func (d *Design) FindZone(name string) (*NetworkZone, bool) {
	for _, z := range d.zones {
		if z.Name == name {
			return z, true
		}
	}
	return nil, false
}

// FindNode looks a compute node up by name.
func (d *Design) FindNode(name string) (*ComputeNode, bool) {
	for _, n := range d.nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// FindTier looks a tier up by name.
func (d *Design) FindTier(name string) (*Tier, bool) {
	for _, t := range d.tiers {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// DefaultTier returns the design-wide tier for role.
func (d *Design) DefaultTier(role ComputeRole) (*Tier, bool) {
	t, ok := d.defaultTiers[role]
	return t, ok
}

// DefaultTierRoles returns the roles with a default tier, sorted.
func (d *Design) DefaultTierRoles() []ComputeRole {
	roles := make([]ComputeRole, 0, len(d.defaultTiers))
	for r := range d.defaultTiers {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// TierFor resolves the tier that handles role for cw: the workflow's
// override if present, otherwise the design default.
func (d *Design) TierFor(cw *ConfiguredWorkflow, role ComputeRole) (*Tier, error) {
	if t, ok := cw.TierOverride(role); ok {
		return t, nil
	}
	if t, ok := d.defaultTiers[role]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("role %s in workflow %q: %w", role, cw.Name, ErrNoTier)
}

// ZoneOfNode returns the zone whose host list contains id.
func (d *Design) ZoneOfNode(id NodeID) (ZoneID, error) {
	for _, z := range d.zones {
		if z.hasHost(id) {
			return z.ID, nil
		}
	}
	return 0, fmt.Errorf("host %d: %w", id, ErrZoneNotFound)
}

// ZoneOfWorkflow returns the zone a workflow source is located in.
func (d *Design) ZoneOfWorkflow(id WorkflowID) (ZoneID, error) {
	for _, z := range d.zones {
		for _, w := range z.workflows {
			if w == id {
				return z.ID, nil
			}
		}
	}
	return 0, fmt.Errorf("workflow %d: %w", id, ErrZoneNotFound)
}

// ExitConnections returns the non-local outbound connections of zone.
func (d *Design) ExitConnections(zone ZoneID) []*NetworkConnection {
	z, err := d.zone(zone)
	if err != nil {
		return nil
	}
	var out []*NetworkConnection
	for _, cid := range z.connections {
		if c := d.connections[cid]; !c.IsLocal() {
			out = append(out, c)
		}
	}
	return out
}

// ExitConnectionTo returns the direct connection from one zone to another.
func (d *Design) ExitConnectionTo(from, to ZoneID) (*NetworkConnection, bool) {
	for _, c := range d.ExitConnections(from) {
		if c.Destination == to {
			return c, true
		}
	}
	return nil, false
}

// === Validation and state ===

// Validate checks the design can be simulated: at least one zone, one host
// and one configured workflow.
func (d *Design) Validate() error {
	if len(d.zones) == 0 {
		return fmt.Errorf("%w: no network zones", ErrInvalidDesign)
	}
	if len(d.Hosts()) == 0 {
		return fmt.Errorf("%w: no hosts", ErrInvalidDesign)
	}
	if len(d.workflows) == 0 {
		return fmt.Errorf("%w: no configured workflows", ErrInvalidDesign)
	}
	if d.BaselineRatingPerCore <= 0 {
		return fmt.Errorf("%w: baseline rating per core must be > 0", ErrInvalidDesign)
	}
	return nil
}

// MigrateVirtualHost moves a guest to another physical host. The guest
// follows the new host's zone, and its queue is resized to the new host's
// core count once in-flight work allows.
func (d *Design) MigrateVirtualHost(vh, host NodeID) error {
	v, err := d.node(vh)
	if err != nil {
		return err
	}
	if v.Kind != KindVirtualHost {
		return fmt.Errorf("migrate %s: not a virtual host", v.Name)
	}
	p, err := d.node(host)
	if err != nil {
		return err
	}
	if p.Kind != KindPhysicalHost {
		return fmt.Errorf("migrate %s: %s is not a physical host", v.Name, p.Name)
	}
	if v.parent == host {
		return nil
	}
	oldZone, err := d.ZoneOfNode(vh)
	if err != nil {
		return err
	}
	newZone, err := d.ZoneOfNode(host)
	if err != nil {
		return err
	}

	old := d.nodes[v.parent]
	old.children = removeNodeID(old.children, vh)
	p.children = append(p.children, vh)
	v.parent = host

	if oldZone != newZone {
		d.zones[oldZone].hosts = removeNodeID(d.zones[oldZone].hosts, vh)
		d.zones[newZone].hosts = append(d.zones[newZone].hosts, vh)
	}
	v.queue.RequestChannelCount(v.CoreCount())
	logrus.Infof("migrated %s from %s to %s", v.Name, old.Name, p.Name)
	return nil
}

func removeNodeID(ids []NodeID, id NodeID) []NodeID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// ResetQueues empties every queue, clears utilization series and rewinds
// tier round robin and workflow schedules.
func (d *Design) ResetQueues() {
	for _, n := range d.nodes {
		n.queue.Reset()
	}
	for _, c := range d.connections {
		c.queue.Reset()
	}
	for _, t := range d.tiers {
		t.resetCursor()
	}
	for _, cw := range d.workflows {
		cw.clearSchedule()
	}
}
