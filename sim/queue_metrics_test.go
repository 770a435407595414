package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueMetrics_Utilization(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		samples  []QueueSample
		want     float64
	}{
		{name: "no samples", channels: 4, want: 0},
		{name: "single sample", channels: 4, samples: []QueueSample{{Clock: 3, RequestCount: 2}}, want: 0.5},
		{
			name:     "weighted by interval with end-of-interval counts",
			channels: 4,
			samples:  []QueueSample{{0, 2}, {1, 4}, {2, 2}},
			want:     0.75,
		},
		{
			name:     "unequal intervals",
			channels: 2,
			samples:  []QueueSample{{0, 0}, {3, 2}, {4, 0}},
			want:     0.75,
		},
		{
			name:     "zero-length window uses last sample",
			channels: 4,
			samples:  []QueueSample{{5, 1}, {5, 3}},
			want:     0.75,
		},
		{
			name:     "overloaded queue exceeds one",
			channels: 1,
			samples:  []QueueSample{{0, 0}, {1, 3}},
			want:     3,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewQueueMetrics(tc.channels)
			for _, s := range tc.samples {
				m.Add(s.Clock, s.RequestCount)
			}
			assert.InDelta(t, tc.want, m.Utilization(), 1e-12)
		})
	}
}

func TestQueueMetrics_UtilizationWindow(t *testing.T) {
	// GIVEN samples over four seconds
	m := NewQueueMetrics(4)
	m.Add(0, 2)
	m.Add(1, 4)
	m.Add(2, 2)

	// WHEN restricted to the last second
	// THEN only samples at t>=1 count
	assert.InDelta(t, 0.5, m.UtilizationWindow(1), 1e-12)

	// AND a window wider than the series equals the whole run
	assert.InDelta(t, m.Utilization(), m.UtilizationWindow(100), 1e-12)

	assert.Zero(t, NewQueueMetrics(2).UtilizationWindow(10))
}

func TestQueueMetrics_SetChannelCountClearsSamples(t *testing.T) {
	m := NewQueueMetrics(2)
	m.Add(0, 1)
	m.Add(1, 1)

	m.SetChannelCount(4)

	assert.Equal(t, 4, m.ChannelCount())
	assert.Equal(t, 0, m.Len())
	_, ok := m.LastClock()
	assert.False(t, ok)
	assert.Panics(t, func() { m.SetChannelCount(0) })
}

func TestQueueMetrics_DataTimeWindow(t *testing.T) {
	m := NewQueueMetrics(1)
	_, ok := m.DataTimeWindow()
	assert.False(t, ok)

	m.Add(2, 0)
	m.Add(7.5, 1)
	w, ok := m.DataTimeWindow()
	assert.True(t, ok)
	assert.Equal(t, 5.5, w)
	last, _ := m.LastClock()
	assert.Equal(t, 7.5, last)
}
