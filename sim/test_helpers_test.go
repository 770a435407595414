package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// stubCalculator returns fixed service and latency times.
type stubCalculator struct {
	service float64
	latency float64
	queue   *ChannelQueue
}

func (s *stubCalculator) ServiceTime(*ClientRequest) float64 { return s.service }
func (s *stubCalculator) Latency(*ClientRequest) float64     { return s.latency }
func (s *stubCalculator) Queue() *ChannelQueue               { return s.queue }

// newStubQueue returns a queue of the given mode whose occupants all take
// service seconds plus latency seconds.
func newStubQueue(channels int, mode WaitMode, service, latency float64) (*ChannelQueue, *stubCalculator) {
	calc := &stubCalculator{service: service, latency: latency}
	calc.queue = NewChannelQueue("stub", channels, mode, calc)
	return calc.queue, calc
}

// newStubRequest returns a request with a single web-role step at calc.
func newStubRequest(id string, calc Calculator) *ClientRequest {
	return &ClientRequest{
		ID:           id,
		Name:         id,
		ServiceTimes: map[ComputeRole]float64{},
		Solution:     NewSolution([]Step{{Calculator: calc, Role: RoleWeb, DataSize: 1}}),
		Metrics:      NewRequestMetrics(),
	}
}

// testHardware returns hardware whose rating per core equals the baseline,
// so node adjustment factors are exactly 1.
func testHardware(name string, cores int) HardwareDefinition {
	return HardwareDefinition{
		Name:       name,
		Cores:      cores,
		Chips:      1,
		SpecRating: DefaultBaselineRatingPerCore * float64(cores),
	}
}

// testMapWorkflow is a map workflow doing web, gis and database work.
func testMapWorkflow(name string) *WorkflowDefinition {
	w := NewWorkflowDefinition(name, ServiceMap, map[ComputeRole]float64{
		RoleClient: 0.05,
		RoleWeb:    0.02,
		RoleGIS:    0.2,
		RoleDBMS:   0.05,
	})
	w.Chatter = 10
	w.ClientTraffic = 1.0
	w.ServerTraffic = 2.0
	return w
}

// testDesign holds a built design and the ids tests need.
type testDesign struct {
	d        *Design
	office   ZoneID
	dc       ZoneID
	client   NodeID
	host     NodeID
	tier     TierID
	workflow WorkflowID
}

// newOneZoneDesign builds one zone with a client, one 4-core host serving
// every role and a map workflow at tph transactions per hour.
func newOneZoneDesign(t *testing.T, tph int) *testDesign {
	t.Helper()
	td := &testDesign{d: NewDesign("one-zone")}
	var err error
	td.dc, err = td.d.AddZone("DC", 1000)
	require.NoError(t, err)
	td.office = td.dc
	td.client, err = td.d.AddClient("PC", testHardware("pc", 2))
	require.NoError(t, err)
	td.host, err = td.d.AddPhysicalHost(td.dc, "srv01", testHardware("server", 4))
	require.NoError(t, err)
	td.tier, err = td.d.AddTier("All", AllComputeRoles, []NodeID{td.host})
	require.NoError(t, err)
	for _, r := range AllComputeRoles {
		require.NoError(t, td.d.SetDefaultTier(r, td.tier))
	}
	td.workflow, err = td.d.AddWorkflow(td.dc, WorkflowConfig{
		Name:       "Map",
		Definition: testMapWorkflow("Map"),
		Client:     td.client,
		TPH:        tph,
	})
	require.NoError(t, err)
	return td
}

// newTwoZoneDesign builds an Office zone with the client and workflow, and
// a DC zone with the host, joined by 50 Mb/s links with 10 ms latency.
func newTwoZoneDesign(t *testing.T, tph int) *testDesign {
	t.Helper()
	td := &testDesign{d: NewDesign("two-zone")}
	var err error
	td.office, err = td.d.AddZone("Office", 100)
	require.NoError(t, err)
	td.dc, err = td.d.AddZone("DC", 1000)
	require.NoError(t, err)
	_, err = td.d.Connect(td.office, td.dc, 50, 10)
	require.NoError(t, err)
	_, err = td.d.Connect(td.dc, td.office, 50, 10)
	require.NoError(t, err)
	td.client, err = td.d.AddClient("PC", testHardware("pc", 2))
	require.NoError(t, err)
	td.host, err = td.d.AddPhysicalHost(td.dc, "srv01", testHardware("server", 4))
	require.NoError(t, err)
	td.tier, err = td.d.AddTier("All", AllComputeRoles, []NodeID{td.host})
	require.NoError(t, err)
	for _, r := range AllComputeRoles {
		require.NoError(t, td.d.SetDefaultTier(r, td.tier))
	}
	td.workflow, err = td.d.AddWorkflow(td.office, WorkflowConfig{
		Name:       "Map",
		Definition: testMapWorkflow("Map"),
		Client:     td.client,
		TPH:        tph,
	})
	require.NoError(t, err)
	return td
}
