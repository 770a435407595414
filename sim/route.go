package sim

import "fmt"

// FindRoute returns the connections to traverse from one zone to another.
// Within a zone the route is the zone's local connection. Otherwise every
// simple path is explored and the best one wins: highest bottleneck
// bandwidth, then fewest hops, then first found.
func FindRoute(d *Design, from, to ZoneID) ([]*NetworkConnection, error) {
	src, err := d.zone(from)
	if err != nil {
		return nil, err
	}
	dst, err := d.zone(to)
	if err != nil {
		return nil, err
	}
	if from == to {
		return []*NetworkConnection{d.connections[src.local]}, nil
	}

	rf := &routeFinder{
		design:   d,
		target:   to,
		explored: make(map[ZoneID]bool),
	}
	rf.search(from)
	if rf.best == nil {
		return nil, fmt.Errorf("%s -> %s: %w", src.Name, dst.Name, ErrNoRoute)
	}
	return rf.best, nil
}

// routeFinder holds the state of one depth-first search.
type routeFinder struct {
	design     *Design
	target     ZoneID
	explored   map[ZoneID]bool // zones on the current path
	breadcrumb []*NetworkConnection

	best     []*NetworkConnection
	bestBW   float64
	bestHops int
}

func (rf *routeFinder) search(zone ZoneID) {
	rf.explored[zone] = true
	for _, cid := range rf.design.zones[zone].connections {
		c := rf.design.connections[cid]
		if c.IsLocal() {
			continue
		}
		switch {
		case c.Destination == rf.target:
			rf.consider(append(rf.breadcrumb, c))
		case !rf.explored[c.Destination]:
			rf.breadcrumb = append(rf.breadcrumb, c)
			rf.search(c.Destination)
			rf.breadcrumb = rf.breadcrumb[:len(rf.breadcrumb)-1]
		}
	}
	delete(rf.explored, zone)
}

func (rf *routeFinder) consider(route []*NetworkConnection) {
	bw := route[0].Bandwidth
	for _, c := range route[1:] {
		if c.Bandwidth < bw {
			bw = c.Bandwidth
		}
	}
	hops := len(route)
	if rf.best == nil || bw > rf.bestBW || (bw == rf.bestBW && hops < rf.bestHops) {
		rf.best = append([]*NetworkConnection(nil), route...)
		rf.bestBW = bw
		rf.bestHops = hops
	}
}
