package sim

import "sort"

// TierID indexes a Tier in its Design.
type TierID int

// Tier is a pool of hosts sharing a set of roles. Requests are spread over
// its members by round robin.
type Tier struct {
	ID          TierID
	Name        string
	Description string

	nodes  []*ComputeNode
	roles  map[ComputeRole]bool
	cursor int
}

// Nodes returns the members in order.
func (t *Tier) Nodes() []*ComputeNode {
	out := make([]*ComputeNode, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Roles returns the served roles, sorted by name.
func (t *Tier) Roles() []ComputeRole {
	out := make([]ComputeRole, 0, len(t.roles))
	for r := range t.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Serves reports whether the tier is configured for role.
func (t *Tier) Serves(role ComputeRole) bool { return t.roles[role] }

// RoundRobinNode returns the next member, cycling through the members in
// order. Returns nil only when the tier has no members.
func (t *Tier) RoundRobinNode() *ComputeNode {
	if len(t.nodes) == 0 {
		return nil
	}
	n := t.nodes[t.cursor%len(t.nodes)]
	t.cursor = (t.cursor + 1) % len(t.nodes)
	return n
}

// CoreCount is the total core count of all members.
func (t *Tier) CoreCount() int {
	total := 0
	for _, n := range t.nodes {
		total += n.CoreCount()
	}
	return total
}

// NextEventTime is the earliest completion time over the members' queues.
func (t *Tier) NextEventTime() (float64, bool) {
	found := false
	next := 0.0
	for _, n := range t.nodes {
		if v, ok := n.queue.NextEventTime(); ok && (!found || v < next) {
			next = v
			found = true
		}
	}
	return next, found
}

func (t *Tier) resetCursor() { t.cursor = 0 }
