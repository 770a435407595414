package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertQueueInvariants checks the channel and request accounting of q.
func assertQueueInvariants(t *testing.T, q *ChannelQueue) {
	t.Helper()
	busy := q.ChannelCount() - q.AvailableChannelCount()
	assert.Equal(t, busy+q.WaitingCount(), q.RequestCount(), "request count")
	assert.GreaterOrEqual(t, q.AvailableChannelCount(), 0)
	if q.WaitingCount() > 0 {
		assert.Zero(t, q.AvailableChannelCount(), "requests wait while a channel is free")
	}
}

func TestChannelQueue_TwoChannelsThreeRequests(t *testing.T) {
	// GIVEN a 2-channel processing queue where every request takes 1.0s
	q, calc := newStubQueue(2, WaitProcessing, 1.0, 0)
	r1 := newStubRequest("r1", calc)
	r2 := newStubRequest("r2", calc)
	r3 := newStubRequest("r3", calc)

	// WHEN three requests arrive at t=1.0
	q.Enqueue(r1, 1.0)
	q.Enqueue(r2, 1.0)
	q.Enqueue(r3, 1.0)

	// THEN two are in channels and one waits
	assert.Equal(t, 3, q.RequestCount())
	assert.Equal(t, 0, q.AvailableChannelCount())
	assert.Equal(t, 1, q.WaitingCount())
	assertQueueInvariants(t, q)

	next, ok := q.NextEventTime()
	require.True(t, ok)
	assert.Equal(t, 2.0, next)

	// WHEN the queue drains at t=2.0
	done := q.DrainCompleted(2.0)

	// THEN r1 and r2 finish with 1.0s of service, r3 took 1.0s of queueing
	require.Len(t, done, 2)
	assert.Same(t, r1, done[0])
	assert.Same(t, r2, done[1])
	assert.Equal(t, 1.0, r1.Metrics.Bucket(string(RoleWeb)).ServiceTime)
	assert.Equal(t, 1.0, r2.Metrics.Bucket(string(RoleWeb)).ServiceTime)
	assert.Equal(t, 1.0, r3.Metrics.Bucket(string(RoleWeb)).QueueTime)
	assert.Equal(t, 0.0, r3.Metrics.Bucket(string(RoleWeb)).ServiceTime)
	assert.Equal(t, 1, q.RequestCount())
	assertQueueInvariants(t, q)

	// WHEN it drains again at t=3.0
	done = q.DrainCompleted(3.0)

	// THEN r3 finishes and the queue is empty
	require.Len(t, done, 1)
	assert.Same(t, r3, done[0])
	assert.Equal(t, 1.0, r3.Metrics.Bucket(string(RoleWeb)).ServiceTime)
	assert.Equal(t, 2.0, r3.Metrics.ResponseTime())
	assert.Equal(t, 0, q.RequestCount())
	assert.Equal(t, 2, q.AvailableChannelCount())
}

func TestChannelQueue_DrainBeforeCompletionReturnsNothing(t *testing.T) {
	q, calc := newStubQueue(1, WaitProcessing, 1.0, 0)
	r := newStubRequest("r", calc)
	q.Enqueue(r, 0)

	assert.Empty(t, q.DrainCompleted(0.5))
	assert.True(t, q.IsHandling(r))
	assert.Len(t, q.DrainCompleted(1.0), 1)
	assert.False(t, q.IsHandling(r))
}

func TestChannelQueue_IsHandlingWaitingRequest(t *testing.T) {
	q, calc := newStubQueue(1, WaitProcessing, 1.0, 0)
	r1 := newStubRequest("r1", calc)
	r2 := newStubRequest("r2", calc)
	other := newStubRequest("other", calc)
	q.Enqueue(r1, 0)
	q.Enqueue(r2, 0)

	assert.True(t, q.IsHandling(r1))
	assert.True(t, q.IsHandling(r2))
	assert.False(t, q.IsHandling(other))
}

func TestChannelQueue_TransmittingCreditsNetwork(t *testing.T) {
	// GIVEN a single-channel link with 0.5s transfer and 0.2s latency
	q, calc := newStubQueue(1, WaitTransmitting, 0.5, 0.2)
	r1 := newStubRequest("r1", calc)
	r2 := newStubRequest("r2", calc)

	// WHEN two requests arrive together
	q.Enqueue(r1, 0)
	q.Enqueue(r2, 0)
	next, _ := q.NextEventTime()
	assert.InDelta(t, 0.7, next, 1e-12)
	q.DrainCompleted(next)

	// THEN r1's transfer and latency land in the network bucket
	b := r1.Metrics.Bucket(NetworkKey)
	assert.InDelta(t, 0.5, b.ServiceTime, 1e-12)
	assert.InDelta(t, 0.2, b.Latency, 1e-12)
	assert.Equal(t, []string{NetworkKey}, r1.Metrics.Keys())

	// AND r2's wait is network queue time
	assert.InDelta(t, 0.7, r2.Metrics.Bucket(NetworkKey).QueueTime, 1e-12)
}

func TestChannelQueue_ResizeGrowPromotesWaiting(t *testing.T) {
	// GIVEN a 1-channel queue with one busy channel and one waiter
	q, calc := newStubQueue(1, WaitProcessing, 10.0, 0)
	r1 := newStubRequest("r1", calc)
	r2 := newStubRequest("r2", calc)
	q.Enqueue(r1, 0)
	q.Enqueue(r2, 0)

	// WHEN the channel count is raised and the queue drains
	q.RequestChannelCount(2)
	pending, ok := q.PendingChannelCount()
	assert.True(t, ok)
	assert.Equal(t, 2, pending)
	q.DrainCompleted(1.0)

	// THEN the waiter takes the new channel
	assert.Equal(t, 2, q.ChannelCount())
	assert.Equal(t, 0, q.WaitingCount())
	assert.Equal(t, 2, q.Metrics().ChannelCount())
	_, ok = q.PendingChannelCount()
	assert.False(t, ok)
	assert.Equal(t, 1.0, r2.Metrics.Bucket(string(RoleWeb)).QueueTime)
	assertQueueInvariants(t, q)
}

func TestChannelQueue_ResizeShrinkWaitsForFreeChannels(t *testing.T) {
	// GIVEN a 3-channel queue with two busy channels
	q, calc := newStubQueue(3, WaitProcessing, 1.0, 0)
	q.Enqueue(newStubRequest("r1", calc), 0)
	q.Enqueue(newStubRequest("r2", calc), 0)

	// WHEN shrinking to 1 before the work finishes
	q.RequestChannelCount(1)
	q.DrainCompleted(0.5)

	// THEN only the free channel is removed and the resize stays pending
	assert.Equal(t, 2, q.ChannelCount())
	assert.Equal(t, 0, q.AvailableChannelCount())
	_, ok := q.PendingChannelCount()
	assert.True(t, ok)

	// WHEN the busy channels finish
	q.DrainCompleted(1.0)

	// THEN the queue reaches the requested size
	assert.Equal(t, 1, q.ChannelCount())
	_, ok = q.PendingChannelCount()
	assert.False(t, ok)
}

func TestChannelQueue_RequestCurrentCountClearsPending(t *testing.T) {
	q, _ := newStubQueue(2, WaitProcessing, 1.0, 0)
	q.RequestChannelCount(4)
	q.RequestChannelCount(2)
	_, ok := q.PendingChannelCount()
	assert.False(t, ok)
}

func TestChannelQueue_ResetAppliesPendingResize(t *testing.T) {
	q, calc := newStubQueue(2, WaitProcessing, 1.0, 0)
	q.Enqueue(newStubRequest("r1", calc), 0)
	q.RequestChannelCount(4)

	q.Reset()

	assert.Equal(t, 4, q.ChannelCount())
	assert.Equal(t, 4, q.AvailableChannelCount())
	assert.Equal(t, 0, q.RequestCount())
	assert.Equal(t, 0, q.Metrics().Len())
}

func TestChannelQueue_Panics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"zero channels", func() { NewChannelQueue("q", 0, WaitProcessing, nil) }},
		{"resize to zero", func() {
			q, _ := newStubQueue(1, WaitProcessing, 1, 0)
			q.RequestChannelCount(0)
		}},
		{"negative service time", func() {
			q, calc := newStubQueue(1, WaitProcessing, -1, 0)
			q.Enqueue(newStubRequest("r", calc), 0)
		}},
		{"negative latency", func() {
			q, calc := newStubQueue(1, WaitTransmitting, 1, -0.5)
			q.Enqueue(newStubRequest("r", calc), 0)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Panics(t, tc.fn)
		})
	}
}

func TestChannelQueue_EnqueueRecordsSamples(t *testing.T) {
	// GIVEN an empty 2-channel queue
	q, calc := newStubQueue(2, WaitProcessing, 1.0, 0)

	// WHEN two requests arrive and then drain
	q.Enqueue(newStubRequest("r1", calc), 0)
	q.Enqueue(newStubRequest("r2", calc), 0)
	q.DrainCompleted(1.0)

	// THEN each operation sampled the count held before it
	samples := q.Metrics().Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, QueueSample{Clock: 0, RequestCount: 0}, samples[0])
	assert.Equal(t, QueueSample{Clock: 0, RequestCount: 1}, samples[1])
	assert.Equal(t, QueueSample{Clock: 1.0, RequestCount: 2}, samples[2])
}
