package sim

import "fmt"

// NetworkKey is the metrics bucket that collects network transfer, network
// queueing and latency time.
const NetworkKey = "network"

// TimeBucket holds the seconds one request spent against a single key.
type TimeBucket struct {
	ServiceTime float64
	QueueTime   float64
	Latency     float64
}

// RequestMetrics accumulates where a request spent its time, keyed by compute
// role or NetworkKey. Buckets keep insertion order so totals are summed the
// same way on every run.
type RequestMetrics struct {
	keys    []string
	buckets map[string]*TimeBucket
}

// NewRequestMetrics returns an empty accumulator.
func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{buckets: make(map[string]*TimeBucket)}
}

func (m *RequestMetrics) bucket(key string) *TimeBucket {
	b, ok := m.buckets[key]
	if !ok {
		b = &TimeBucket{}
		m.buckets[key] = b
		m.keys = append(m.keys, key)
	}
	return b
}

// AddServiceTime credits seconds of service time to key and returns the new
// total for that key. Panics on a negative value.
func (m *RequestMetrics) AddServiceTime(key string, seconds float64) float64 {
	if seconds < 0 {
		panic(fmt.Sprintf("RequestMetrics: negative service time %v for %q", seconds, key))
	}
	b := m.bucket(key)
	b.ServiceTime += seconds
	return b.ServiceTime
}

// AddQueueTime credits seconds of queue time to key and returns the new
// total for that key. Panics on a negative value.
func (m *RequestMetrics) AddQueueTime(key string, seconds float64) float64 {
	if seconds < 0 {
		panic(fmt.Sprintf("RequestMetrics: negative queue time %v for %q", seconds, key))
	}
	b := m.bucket(key)
	b.QueueTime += seconds
	return b.QueueTime
}

// AddLatency credits network latency and returns the new latency total.
// Panics on a negative value.
func (m *RequestMetrics) AddLatency(seconds float64) float64 {
	if seconds < 0 {
		panic(fmt.Sprintf("RequestMetrics: negative latency %v", seconds))
	}
	b := m.bucket(NetworkKey)
	b.Latency += seconds
	return b.Latency
}

// Keys returns bucket keys in the order they were first credited.
func (m *RequestMetrics) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Bucket returns the times recorded for key.
func (m *RequestMetrics) Bucket(key string) TimeBucket {
	if b, ok := m.buckets[key]; ok {
		return *b
	}
	return TimeBucket{}
}

func (m *RequestMetrics) TotalServiceTime() float64 {
	total := 0.0
	for _, k := range m.keys {
		total += m.buckets[k].ServiceTime
	}
	return total
}

func (m *RequestMetrics) TotalQueueTime() float64 {
	total := 0.0
	for _, k := range m.keys {
		total += m.buckets[k].QueueTime
	}
	return total
}

func (m *RequestMetrics) TotalLatencyTime() float64 {
	total := 0.0
	for _, k := range m.keys {
		total += m.buckets[k].Latency
	}
	return total
}

// ResponseTime is the full round trip: latency plus service plus queue time.
func (m *RequestMetrics) ResponseTime() float64 {
	return m.TotalLatencyTime() + m.TotalServiceTime() + m.TotalQueueTime()
}
