package sim

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// QueueSample is one observation of a ChannelQueue: how many requests it held
// (in channels plus wait line) at a simulation time.
type QueueSample struct {
	Clock        float64
	RequestCount int
}

// QueueMetrics is an append-only utilization series for one ChannelQueue.
// The series is tied to the queue's channel count and is cleared whenever
// that count changes.
type QueueMetrics struct {
	channelCount int
	samples      []QueueSample
}

// NewQueueMetrics creates an empty series for a queue with channelCount channels.
func NewQueueMetrics(channelCount int) *QueueMetrics {
	m := &QueueMetrics{}
	m.SetChannelCount(channelCount)
	return m
}

// Add appends a sample.
func (m *QueueMetrics) Add(clock float64, requestCount int) {
	m.samples = append(m.samples, QueueSample{Clock: clock, RequestCount: requestCount})
}

// SetChannelCount changes the channel count and discards all samples.
// Panics if n < 1.
func (m *QueueMetrics) SetChannelCount(n int) {
	if n < 1 {
		panic(fmt.Sprintf("QueueMetrics: channel count must be >= 1, got %d", n))
	}
	m.channelCount = n
	m.samples = m.samples[:0]
}

// ChannelCount returns the channel count the series is measured against.
func (m *QueueMetrics) ChannelCount() int { return m.channelCount }

// Len returns the number of samples.
func (m *QueueMetrics) Len() int { return len(m.samples) }

// Samples returns a copy of the series.
func (m *QueueMetrics) Samples() []QueueSample {
	out := make([]QueueSample, len(m.samples))
	copy(out, m.samples)
	return out
}

// LastClock returns the time of the newest sample.
func (m *QueueMetrics) LastClock() (float64, bool) {
	if len(m.samples) == 0 {
		return 0, false
	}
	return m.samples[len(m.samples)-1].Clock, true
}

// DataTimeWindow returns the span of simulated time covered by the series.
func (m *QueueMetrics) DataTimeWindow() (float64, bool) {
	if len(m.samples) == 0 {
		return 0, false
	}
	return m.samples[len(m.samples)-1].Clock - m.samples[0].Clock, true
}

// Utilization returns the time-weighted utilization over the whole series.
// 1.0 means every channel busy; values above 1.0 mean requests are waiting.
func (m *QueueMetrics) Utilization() float64 {
	return m.utilization(m.samples)
}

// UtilizationWindow is Utilization restricted to samples from the trailing
// window of simulated seconds, measured back from the newest sample.
func (m *QueueMetrics) UtilizationWindow(seconds float64) float64 {
	last, ok := m.LastClock()
	if !ok {
		return 0
	}
	start := last - seconds
	i := 0
	for i < len(m.samples) && m.samples[i].Clock < start {
		i++
	}
	return m.utilization(m.samples[i:])
}

// utilization weights each interval between consecutive samples by its
// length, using the request count observed at the end of the interval.
func (m *QueueMetrics) utilization(recs []QueueSample) float64 {
	switch len(recs) {
	case 0:
		return 0
	case 1:
		return m.ratio(recs[0])
	}
	window := recs[len(recs)-1].Clock - recs[0].Clock
	if window <= 0 {
		return m.ratio(recs[len(recs)-1])
	}
	ratios := make([]float64, 0, len(recs)-1)
	weights := make([]float64, 0, len(recs)-1)
	for i := 1; i < len(recs); i++ {
		ratios = append(ratios, m.ratio(recs[i]))
		weights = append(weights, recs[i].Clock-recs[i-1].Clock)
	}
	return stat.Mean(ratios, weights)
}

func (m *QueueMetrics) ratio(s QueueSample) float64 {
	return float64(s.RequestCount) / float64(m.channelCount)
}
