// Package trace records the routing decisions a simulation makes for each
// request. It stores plain data and does not depend on the sim package.
package trace

// Placement names the node chosen for one role of a request.
type Placement struct {
	Role string
	Node string
	Zone string
}

// RoutingRecord captures the solution built for one emitted request.
type RoutingRecord struct {
	RequestID  string
	Clock      float64
	Workflow   string
	Placements []Placement // host compute steps in solution order
	Hops       int         // network steps in the whole round trip
	Steps      int         // network plus compute steps
}

// DropRecord captures a request that could not be routed.
type DropRecord struct {
	RequestID string
	Clock     float64
	Workflow  string
	Reason    string
}
