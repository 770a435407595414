package sim

import "fmt"

// NodeID indexes a ComputeNode in its Design.
type NodeID int

// NodeKind tags the variant of a ComputeNode.
type NodeKind int

const (
	KindClient NodeKind = iota
	KindPhysicalHost
	KindVirtualHost
)

func (k NodeKind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindPhysicalHost:
		return "physical"
	case KindVirtualHost:
		return "virtual"
	}
	return "unknown"
}

// ComputeNode is a client workstation, a physical host or a virtual host.
// Clients and physical hosts carry their own hardware; a virtual host reads
// hardware and cores from its current physical host through the design.
type ComputeNode struct {
	ID          NodeID
	Name        string
	Description string
	Kind        NodeKind

	hardware *HardwareDefinition // clients and physical hosts

	// Physical hosts list their guests; a virtual host names its host.
	children []NodeID
	parent   NodeID

	VCPUs    int // virtual hosts only
	MemoryGB int // virtual hosts only

	queue  *ChannelQueue
	design *Design
}

func newComputeNode(d *Design, id NodeID, name string, kind NodeKind, hw *HardwareDefinition, parent NodeID) *ComputeNode {
	n := &ComputeNode{
		ID:       id,
		Name:     name,
		Kind:     kind,
		hardware: hw,
		parent:   parent,
		design:   d,
	}
	n.queue = NewChannelQueue(name, n.CoreCount(), WaitProcessing, n)
	return n
}

// IsHost is true for physical and virtual hosts.
func (n *ComputeNode) IsHost() bool { return n.Kind != KindClient }

// Hardware returns the node's hardware, following a virtual host to its
// physical host.
func (n *ComputeNode) Hardware() *HardwareDefinition {
	if n.Kind == KindVirtualHost {
		return n.design.nodes[n.parent].hardware
	}
	return n.hardware
}

// CoreCount is the number of channels the node's queue is sized to.
func (n *ComputeNode) CoreCount() int {
	return n.Hardware().Cores
}

// Parent returns the physical host of a virtual host.
func (n *ComputeNode) Parent() (NodeID, bool) {
	return n.parent, n.Kind == KindVirtualHost
}

// Children returns the virtual hosts on a physical host.
func (n *ComputeNode) Children() []NodeID {
	out := make([]NodeID, len(n.children))
	copy(out, n.children)
	return out
}

// AdjustmentFactor scales baseline service times to this node's hardware:
// baseline rating per core over this node's rating per core.
func (n *ComputeNode) AdjustmentFactor() float64 {
	return n.design.BaselineRatingPerCore / n.Hardware().RatingPerCore()
}

// ServiceTime returns the request's service time for the current step's
// role adjusted to this node's hardware. Roles the request does no work in
// take zero time.
func (n *ComputeNode) ServiceTime(req *ClientRequest) float64 {
	step := req.CurrentStep()
	if step == nil {
		return RequestTime
	}
	st, _ := req.ServiceTime(step.Role)
	return st * n.AdjustmentFactor()
}

// Latency is always zero for compute work.
func (n *ComputeNode) Latency(*ClientRequest) float64 { return 0 }

func (n *ComputeNode) Queue() *ChannelQueue { return n.queue }

func (n *ComputeNode) String() string {
	return fmt.Sprintf("%s (%s)", n.Name, n.Kind)
}
