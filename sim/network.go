package sim

import "fmt"

// ZoneID indexes a NetworkZone in its Design.
type ZoneID int

// ConnectionID indexes a NetworkConnection in its Design.
type ConnectionID int

// Defaults for a zone's reflexive local connection.
const (
	DefaultLocalBandwidth = 100.0 // Mb/s
	DefaultLatencyMs      = 10.0
)

// NetworkZone is a LAN or site. Hosts and workflow sources live in zones;
// zones are joined by directed connections.
type NetworkZone struct {
	ID          ZoneID
	Name        string
	Description string

	local       ConnectionID
	connections []ConnectionID // outbound, local connection first
	hosts       []NodeID
	workflows   []WorkflowID
}

// LocalConnection is the zone's reflexive connection to itself.
func (z *NetworkZone) LocalConnection() ConnectionID { return z.local }

// Connections returns the outbound connection ids, local connection included.
func (z *NetworkZone) Connections() []ConnectionID {
	out := make([]ConnectionID, len(z.connections))
	copy(out, z.connections)
	return out
}

// Hosts returns the ids of physical and virtual hosts in the zone.
func (z *NetworkZone) Hosts() []NodeID {
	out := make([]NodeID, len(z.hosts))
	copy(out, z.hosts)
	return out
}

// Workflows returns the ids of workflow sources in the zone.
func (z *NetworkZone) Workflows() []WorkflowID {
	out := make([]WorkflowID, len(z.workflows))
	copy(out, z.workflows)
	return out
}

func (z *NetworkZone) hasHost(id NodeID) bool {
	for _, h := range z.hosts {
		if h == id {
			return true
		}
	}
	return false
}

// NetworkConnection is a one-way link from Source to Destination. Transfers
// are serialized: the queue has a single channel.
type NetworkConnection struct {
	ID          ConnectionID
	Name        string
	Source      ZoneID
	Destination ZoneID
	Bandwidth   float64 // Mb/s
	LatencyMs   float64 // one-way

	queue *ChannelQueue
}

func newNetworkConnection(id ConnectionID, name string, src, dst ZoneID, bandwidth, latencyMs float64) *NetworkConnection {
	c := &NetworkConnection{
		ID:          id,
		Name:        name,
		Source:      src,
		Destination: dst,
		Bandwidth:   bandwidth,
		LatencyMs:   latencyMs,
	}
	c.queue = NewChannelQueue(name+" Q", 1, WaitTransmitting, c)
	return c
}

// IsLocal is true for a zone's reflexive connection.
func (c *NetworkConnection) IsLocal() bool { return c.Source == c.Destination }

// ServiceTime is the transfer time of the current step's data: Mb over Mb/s.
func (c *NetworkConnection) ServiceTime(req *ClientRequest) float64 {
	step := req.CurrentStep()
	if step == nil {
		return 0
	}
	return step.DataSize / c.Bandwidth
}

// Latency is chatter round trips at the link latency, charged on the
// request leg only.
func (c *NetworkConnection) Latency(req *ClientRequest) float64 {
	step := req.CurrentStep()
	if step == nil || step.IsResponse {
		return 0
	}
	return float64(req.Workflow.Definition.Chatter) * c.LatencyMs * 0.001
}

func (c *NetworkConnection) Queue() *ChannelQueue { return c.queue }

func (c *NetworkConnection) String() string {
	return fmt.Sprintf("%s (%.0f Mb/s, %.0f ms)", c.Name, c.Bandwidth, c.LatencyMs)
}
