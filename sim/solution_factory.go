package sim

import "fmt"

// visit is a (role, node) pair resolved on the request leg.
type visit struct {
	role ComputeRole
	node *ComputeNode
	zone ZoneID
}

// BuildSolution plans the round trip of req through d.
//
// Request leg: for each role in the service type's chain that req does work
// in, a node is picked from the role's tier and the request travels to it.
// Only the portal role computes on the way in. Response leg: the visited
// nodes are walked in reverse, each computing and sending its result onward,
// ending with a compute step at the client.
//
// Any unresolvable tier, empty tier or missing route aborts the whole
// solution; no partial solution is returned.
func BuildSolution(d *Design, req *ClientRequest) (*Solution, error) {
	cw := req.Workflow
	clientZone, err := d.ZoneOfWorkflow(cw.ID)
	if err != nil {
		return nil, err
	}

	var chain []ComputeRole
	for _, role := range cw.Definition.ServiceType.RoleChain() {
		if _, ok := req.ServiceTime(role); ok {
			chain = append(chain, role)
		}
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("workflow %q: %w", cw.Name, ErrEmptyRoleChain)
	}

	var steps []Step
	addRoute := func(from, to ZoneID, role ComputeRole, isResponse bool, size float64) error {
		route, err := FindRoute(d, from, to)
		if err != nil {
			return err
		}
		for _, c := range route {
			steps = append(steps, Step{Calculator: c, IsResponse: isResponse, Role: role, DataSize: size})
		}
		return nil
	}

	// Request leg
	visits := make([]visit, 0, len(chain))
	current := clientZone
	for _, role := range chain {
		tier, err := d.TierFor(cw, role)
		if err != nil {
			return nil, err
		}
		node := tier.RoundRobinNode()
		if node == nil {
			return nil, fmt.Errorf("tier %q for role %s: %w", tier.Name, role, ErrEmptyTier)
		}
		zone, err := d.ZoneOfNode(node.ID)
		if err != nil {
			return nil, err
		}
		if err := addRoute(current, zone, role, false, RequestSize); err != nil {
			return nil, err
		}
		if role == RolePortal {
			steps = append(steps, Step{Calculator: node, IsResponse: false, Role: role, DataSize: RequestSize})
		}
		visits = append(visits, visit{role: role, node: node, zone: zone})
		current = zone
	}

	// Response leg. Data leaves the service at server size and drops to
	// client size from the first renderer on; cache responses are fixed size.
	steppedDown := false
	dataSize := func(role ComputeRole) float64 {
		if cw.Definition.ServiceType == ServiceCache {
			return req.CacheTraffic
		}
		if steppedDown || role.IsRenderer() {
			steppedDown = true
			return req.ClientTraffic
		}
		return req.ServerTraffic
	}

	last := visits[len(visits)-1]
	steps = append(steps, Step{Calculator: last.node, IsResponse: true, Role: last.role, DataSize: dataSize(last.role)})
	current = last.zone
	for i := len(visits) - 2; i >= 0; i-- {
		v := visits[i]
		if v.role == RolePortal {
			continue
		}
		size := dataSize(v.role)
		if err := addRoute(current, v.zone, v.role, true, size); err != nil {
			return nil, err
		}
		steps = append(steps, Step{Calculator: v.node, IsResponse: true, Role: v.role, DataSize: size})
		current = v.zone
	}

	if err := addRoute(current, clientZone, RoleClient, true, req.ClientTraffic); err != nil {
		return nil, err
	}
	steps = append(steps, Step{Calculator: cw.Client, IsResponse: true, Role: RoleClient, DataSize: req.ClientTraffic})

	return NewSolution(steps), nil
}
