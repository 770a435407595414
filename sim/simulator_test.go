package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpsim/cpsim/sim/trace"
)

func TestSimulator_StartRequiresValidDesign(t *testing.T) {
	s := NewSimulator(NewDesign("empty"), NewSimulationKey(1))
	assert.ErrorIs(t, s.Start(), ErrInvalidDesign)
	assert.Equal(t, StateStopped, s.State())

	assert.ErrorIs(t, NewSimulator(nil, 1).Start(), ErrInvalidDesign)
}

func TestSimulator_AdvanceTimeRejectsNonPositive(t *testing.T) {
	td := newOneZoneDesign(t, 3600)
	s := NewSimulator(td.d, NewSimulationKey(1))
	require.NoError(t, s.Start())

	for _, v := range []float64{0, -1} {
		assert.ErrorIs(t, s.AdvanceTime(v), ErrInvalidAdvance)
	}
	assert.Zero(t, s.Clock())
}

func TestSimulator_AdvanceWhileStoppedIsNoop(t *testing.T) {
	td := newOneZoneDesign(t, 3600)
	s := NewSimulator(td.d, NewSimulationKey(1))

	require.NoError(t, s.AdvanceTime(10))

	assert.Zero(t, s.Clock())
	assert.Empty(t, s.Handled())
}

func TestSimulator_AdvanceBeforeNextEventOnlyMovesClock(t *testing.T) {
	// GIVEN a started simulator whose first emission is in the future
	td := newOneZoneDesign(t, 3600)
	s := NewSimulator(td.d, NewSimulationKey(3))
	require.NoError(t, s.Start())
	next, ok := s.NextEventTime()
	require.True(t, ok)
	require.Greater(t, next, 0.0)

	// WHEN advancing to halfway there
	require.NoError(t, s.AdvanceTime(next/2))

	// THEN only the clock moved
	assert.Equal(t, next/2, s.Clock())
	assert.Empty(t, s.Active())
	assert.Empty(t, s.Handled())
	again, _ := s.NextEventTime()
	assert.Equal(t, next, again)
}

func TestSimulator_SingleRequestRoundTrip(t *testing.T) {
	// GIVEN a slow workflow so requests never overlap
	td := newTwoZoneDesign(t, 1)
	s := NewSimulator(td.d, NewSimulationKey(42))
	require.NoError(t, s.Start())

	// WHEN the simulation runs past the first emission
	first, _ := s.NextEventTime()
	require.NoError(t, s.AdvanceTime(first+60))

	// THEN the request completed with service and latency but no queueing
	handled := s.Handled()
	require.Len(t, handled, 1)
	req := handled[0]
	assert.Equal(t, "CR-1", req.ID)
	assert.Equal(t, first, req.CreatedAt)
	assert.True(t, req.IsFinished())
	m := req.Metrics
	assert.Zero(t, m.TotalQueueTime())
	assert.Greater(t, m.TotalServiceTime(), 0.0)
	assert.Greater(t, m.TotalLatencyTime(), 0.0)
	assert.InDelta(t, req.CompletedAt-req.CreatedAt, m.ResponseTime(), 1e-9)
	assert.Empty(t, s.Active())

	// AND every role it worked in has a bucket
	for _, key := range []string{string(RoleGIS), string(RoleDBMS), string(RoleWeb), string(RoleClient), NetworkKey} {
		assert.Contains(t, m.Keys(), key)
	}
	assert.InDelta(t, 0.1, m.Bucket(NetworkKey).Latency, 1e-9)
}

func TestSimulator_SameKeySameRun(t *testing.T) {
	run := func() []*ClientRequest {
		td := newTwoZoneDesign(t, 36000)
		s := NewSimulator(td.d, NewSimulationKey(2024))
		require.NoError(t, s.Start())
		for i := 0; i < 20; i++ {
			require.NoError(t, s.AdvanceTime(0.5))
		}
		return s.Handled()
	}

	a, b := run(), run()

	require.NotEmpty(t, a)
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.Equal(t, a[i].CreatedAt, b[i].CreatedAt)
		assert.Equal(t, a[i].CompletedAt, b[i].CompletedAt)
		assert.Equal(t, a[i].Metrics.ResponseTime(), b[i].Metrics.ResponseTime())
	}
}

func TestSimulator_LoadCausesQueueing(t *testing.T) {
	// GIVEN far more demand than a 4-core host can serve
	td := newOneZoneDesign(t, 72000)
	s := NewSimulator(td.d, NewSimulationKey(5))
	require.NoError(t, s.Start())

	// WHEN it runs for a while
	require.NoError(t, s.AdvanceTime(20))

	// THEN requests queue and the host shows saturation
	queued := false
	for _, r := range s.Handled() {
		if r.Metrics.TotalQueueTime() > 0 {
			queued = true
			break
		}
	}
	assert.True(t, queued)
	assert.NotEmpty(t, s.Active())
	assert.Greater(t, td.d.Node(td.host).Queue().Metrics().Utilization(), 1.0)
}

func TestSimulator_DropsUnroutableRequests(t *testing.T) {
	// GIVEN a design whose gis tier is empty
	td := newOneZoneDesign(t, 36000)
	empty, err := td.d.AddTier("Empty", []ComputeRole{RoleGIS}, nil)
	require.NoError(t, err)
	require.NoError(t, td.d.SetDefaultTier(RoleGIS, empty))

	s := NewSimulator(td.d, NewSimulationKey(1))
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	s.SetTrace(tr)
	var dropped []error
	s.OnDrop(func(_ *ClientRequest, err error) { dropped = append(dropped, err) })
	require.NoError(t, s.Start())

	// WHEN requests are emitted
	require.NoError(t, s.AdvanceTime(5))

	// THEN each is dropped, reported and the run continues
	require.NotEmpty(t, dropped)
	assert.Equal(t, len(dropped), s.Dropped())
	for _, err := range dropped {
		assert.ErrorIs(t, err, ErrEmptyTier)
	}
	assert.Empty(t, s.Active())
	assert.Empty(t, s.Handled())
	assert.Equal(t, StateRunning, s.State())
	require.Len(t, tr.Drops, s.Dropped())
	assert.Equal(t, ErrEmptyTier.Error(), tr.Drops[0].Reason)
	assert.Empty(t, tr.Routings)

	// AND the workflow keeps its schedule
	_, ok := td.d.Workflow(td.workflow).NextEventTime()
	assert.True(t, ok)
}

func TestSimulator_TraceRecordsRouting(t *testing.T) {
	td := newTwoZoneDesign(t, 1)
	s := NewSimulator(td.d, NewSimulationKey(42))
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	s.SetTrace(tr)
	require.NoError(t, s.Start())
	first, _ := s.NextEventTime()
	require.NoError(t, s.AdvanceTime(first+1))

	require.Len(t, tr.Routings, 1)
	rec := tr.Routings[0]
	assert.Equal(t, "CR-1", rec.RequestID)
	assert.Equal(t, 10, rec.Steps)
	assert.Equal(t, 6, rec.Hops)
	require.Len(t, rec.Placements, 3)
	assert.Equal(t, trace.Placement{Role: string(RoleDBMS), Node: "srv01", Zone: "DC"}, rec.Placements[0])
}

func TestSimulator_StateMachine(t *testing.T) {
	td := newOneZoneDesign(t, 36000)
	s := NewSimulator(td.d, NewSimulationKey(8))
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceTime(2))
	clock := s.Clock()
	handled := len(s.Handled())

	// Paused: advancing does nothing.
	s.Pause()
	assert.Equal(t, StatePaused, s.State())
	require.NoError(t, s.AdvanceTime(5))
	assert.Equal(t, clock, s.Clock())
	assert.Len(t, s.Handled(), handled)

	// Resume keeps the clock and schedule.
	require.NoError(t, s.Start())
	assert.Equal(t, StateRunning, s.State())
	require.NoError(t, s.AdvanceTime(1))
	assert.Equal(t, clock+1, s.Clock())

	// Stop resets everything.
	s.Stop()
	assert.Equal(t, StateStopped, s.State())
	assert.Zero(t, s.Clock())
	assert.Empty(t, s.Active())
	assert.Empty(t, s.Handled())
	assert.Zero(t, s.Dropped())
	assert.Zero(t, td.d.Node(td.host).Queue().RequestCount())
	_, ok := s.NextEventTime()
	assert.False(t, ok)
}

func TestSimulator_StopThenRestartReplaysRun(t *testing.T) {
	td := newOneZoneDesign(t, 36000)
	s := NewSimulator(td.d, NewSimulationKey(11))

	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceTime(3))
	first := s.Handled()
	s.Stop()
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceTime(3))
	second := s.Handled()

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].CompletedAt, second[i].CompletedAt)
	}
}

func TestSimulator_ClockScale(t *testing.T) {
	td := newOneZoneDesign(t, 3600)
	s := NewSimulator(td.d, NewSimulationKey(1))

	s.SetClockScale(100)
	assert.Equal(t, MaxClockScale, s.ClockScale())
	s.SetClockScale(0)
	assert.Equal(t, MinClockScale, s.ClockScale())

	s.SetClockScale(2)
	require.NoError(t, s.Start())
	require.NoError(t, s.AdvanceTime(0.25))
	assert.Equal(t, 0.5, s.Clock())
}

func TestSimulator_CacheWorkflowEmitsPairedRequests(t *testing.T) {
	// GIVEN a cache-assisted workflow
	td := newTwoZoneDesign(t, 1)
	td.d.Workflow(td.workflow).Definition = testMapWorkflow("Map +$$")
	s := NewSimulator(td.d, NewSimulationKey(4))
	require.NoError(t, s.Start())

	// WHEN the first emission happens
	first, _ := s.NextEventTime()
	require.NoError(t, s.AdvanceTime(first+60))

	// THEN a service request and a cache request both completed
	handled := s.Handled()
	require.Len(t, handled, 2)
	names := []string{handled[0].Name, handled[1].Name}
	assert.Contains(t, names, "CR-1: Map")
	assert.Contains(t, names, "CR-2: Map $$")
	for _, r := range handled {
		if r.ID == "CR-2" {
			assert.Equal(t, ServiceCache, r.Workflow.Definition.ServiceType)
		}
	}
}
