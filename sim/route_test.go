package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newZones returns a design with one zone per name.
func newZones(t *testing.T, names ...string) (*Design, []ZoneID) {
	t.Helper()
	d := NewDesign("routes")
	ids := make([]ZoneID, len(names))
	for i, n := range names {
		id, err := d.AddZone(n, DefaultLocalBandwidth)
		require.NoError(t, err)
		ids[i] = id
	}
	return d, ids
}

func routeNames(route []*NetworkConnection) []string {
	out := make([]string, len(route))
	for i, c := range route {
		out[i] = c.Name
	}
	return out
}

func TestFindRoute_SameZoneUsesLocalConnection(t *testing.T) {
	d, z := newZones(t, "A")
	route, err := FindRoute(d, z[0], z[0])
	require.NoError(t, err)
	require.Len(t, route, 1)
	assert.True(t, route[0].IsLocal())
	assert.Equal(t, d.Zone(z[0]).LocalConnection(), route[0].ID)
}

func TestFindRoute_BandwidthBeatsHops(t *testing.T) {
	// GIVEN a direct 10 Mb/s link and a 2-hop path at 15 Mb/s
	d, z := newZones(t, "A", "B", "C")
	a, b, c := z[0], z[1], z[2]
	_, _ = d.Connect(a, b, 10, 5)
	_, _ = d.Connect(a, c, 15, 5)
	_, _ = d.Connect(c, b, 15, 5)

	// WHEN routing A to B
	route, err := FindRoute(d, a, b)

	// THEN the wider path wins despite the extra hop
	require.NoError(t, err)
	assert.Equal(t, []string{"A -> C", "C -> B"}, routeNames(route))
}

func TestFindRoute_EqualBandwidthPrefersFewerHops(t *testing.T) {
	// GIVEN the long path is listed first
	d, z := newZones(t, "A", "B", "C")
	a, b, c := z[0], z[1], z[2]
	_, _ = d.Connect(a, c, 10, 5)
	_, _ = d.Connect(c, b, 10, 5)
	_, _ = d.Connect(a, b, 10, 5)

	route, err := FindRoute(d, a, b)

	require.NoError(t, err)
	assert.Equal(t, []string{"A -> B"}, routeNames(route))
}

func TestFindRoute_BottleneckDecides(t *testing.T) {
	// GIVEN a path whose first hop is fast but second hop is slow
	d, z := newZones(t, "A", "B", "C", "D")
	a, b, c, dz := z[0], z[1], z[2], z[3]
	_, _ = d.Connect(a, c, 1000, 1)
	_, _ = d.Connect(c, b, 5, 1)
	_, _ = d.Connect(a, dz, 20, 1)
	_, _ = d.Connect(dz, b, 20, 1)

	route, err := FindRoute(d, a, b)

	require.NoError(t, err)
	assert.Equal(t, []string{"A -> D", "D -> B"}, routeNames(route))
}

func TestFindRoute_CyclesTerminate(t *testing.T) {
	// GIVEN a ring with links in both directions
	d, z := newZones(t, "A", "B", "C")
	a, b, c := z[0], z[1], z[2]
	for _, pair := range [][2]ZoneID{{a, b}, {b, c}, {c, a}} {
		id, err := d.Connect(pair[0], pair[1], 10, 1)
		require.NoError(t, err)
		_, err = d.Invert(id)
		require.NoError(t, err)
	}

	route, err := FindRoute(d, a, c)

	require.NoError(t, err)
	assert.Equal(t, []string{"A -> C"}, routeNames(route))
}

func TestFindRoute_ZoneRevisitedOnAnotherBranch(t *testing.T) {
	// GIVEN B is reachable directly and through X, and only B reaches T
	// with a wider path when entered from X
	d, z := newZones(t, "A", "B", "X", "T")
	a, b, x, tz := z[0], z[1], z[2], z[3]
	_, _ = d.Connect(a, b, 1, 1)
	_, _ = d.Connect(a, x, 50, 1)
	_, _ = d.Connect(x, b, 50, 1)
	_, _ = d.Connect(b, tz, 50, 1)

	route, err := FindRoute(d, a, tz)

	// THEN the search explored B again via X and found the wider path
	require.NoError(t, err)
	assert.Equal(t, []string{"A -> X", "X -> B", "B -> T"}, routeNames(route))
}

func TestFindRoute_NoRoute(t *testing.T) {
	// GIVEN only a one-way link A to B
	d, z := newZones(t, "A", "B", "C")
	_, _ = d.Connect(z[0], z[1], 10, 1)

	tests := []struct{ from, to ZoneID }{
		{z[1], z[0]},
		{z[0], z[2]},
	}
	for _, tc := range tests {
		_, err := FindRoute(d, tc.from, tc.to)
		if !errors.Is(err, ErrNoRoute) {
			t.Errorf("FindRoute(%d, %d) error = %v, want ErrNoRoute", tc.from, tc.to, err)
		}
	}

	_, err := FindRoute(d, z[0], ZoneID(42))
	assert.ErrorIs(t, err, ErrZoneNotFound)
}
