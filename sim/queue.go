// Implements the ChannelQueue, which models one resource (a node's cores or
// one direction of a network link) as parallel channels plus a FIFO wait line.

package sim

import (
	"fmt"
	"strings"
)

// elapsedTolerance absorbs float rounding when start+service+latency-start
// comes out a hair below zero.
const elapsedTolerance = 1e-9

// WaitingRequest wraps a request while it sits in a queue.
type WaitingRequest struct {
	Request *ClientRequest
	Start   float64  // time the wait began
	End     *float64 // completion time; nil while in the wait line
	Latency float64  // latency folded into End, credited separately
	Mode    WaitMode
}

func newWaitingRequest(req *ClientRequest, at, serviceTime, latency float64, mode WaitMode) *WaitingRequest {
	wr := &WaitingRequest{Request: req, Start: at, Latency: latency, Mode: mode}
	if mode == WaitQueueing {
		wr.Latency = 0
		return wr
	}
	if serviceTime < 0 {
		panic(fmt.Sprintf("WaitingRequest: negative service time %v for %s", serviceTime, req.ID))
	}
	if latency < 0 {
		panic(fmt.Sprintf("WaitingRequest: negative latency %v for %s", latency, req.ID))
	}
	end := at + serviceTime + latency
	wr.End = &end
	return wr
}

// endWait credits the elapsed time to the request's metrics. The bucket is
// picked by the wait mode and the role of the request's current step.
func (w *WaitingRequest) endWait(q *ChannelQueue, at float64) *ClientRequest {
	elapsed := at - w.Start - w.Latency
	if elapsed < 0 && elapsed > -elapsedTolerance {
		elapsed = 0
	}

	key := ""
	if step := w.Request.CurrentStep(); step != nil {
		key = string(step.Role)
	}

	m := w.Request.Metrics
	switch w.Mode {
	case WaitProcessing:
		m.AddServiceTime(key, elapsed)
	case WaitTransmitting:
		m.AddServiceTime(NetworkKey, elapsed)
	case WaitQueueing:
		if q.mode == WaitTransmitting {
			m.AddQueueTime(NetworkKey, elapsed)
		} else {
			m.AddQueueTime(key, elapsed)
		}
	}
	if w.Latency > 0 {
		m.AddLatency(w.Latency)
	}
	return w.Request
}

// waitLine is the FIFO of requests waiting for a free channel.
type waitLine struct {
	queue []*WaitingRequest
}

func (wl *waitLine) enqueue(wr *WaitingRequest) {
	wl.queue = append(wl.queue, wr)
}

func (wl *waitLine) dequeue() *WaitingRequest {
	if len(wl.queue) == 0 {
		return nil
	}
	head := wl.queue[0]
	wl.queue[0] = nil
	wl.queue = wl.queue[1:]
	return head
}

func (wl *waitLine) len() int { return len(wl.queue) }

func (wl *waitLine) contains(req *ClientRequest) bool {
	for _, wr := range wl.queue {
		if wr.Request == req {
			return true
		}
	}
	return false
}

// ChannelQueue holds requests while a calculator works on them. At most
// ChannelCount requests are in progress; the rest wait in FIFO order.
type ChannelQueue struct {
	name     string
	mode     WaitMode // mode of channel occupants
	calc     Calculator
	channels []*WaitingRequest // nil slot = free channel
	waiting  waitLine
	// requested is a pending channel count, applied as channels free up.
	// Zero means no resize is pending.
	requested int
	metrics   *QueueMetrics
}

// NewChannelQueue creates a queue with channelCount free channels whose
// occupants are timed by calc. Panics if channelCount < 1.
func NewChannelQueue(name string, channelCount int, mode WaitMode, calc Calculator) *ChannelQueue {
	if channelCount < 1 {
		panic(fmt.Sprintf("NewChannelQueue(%s): channel count must be >= 1, got %d", name, channelCount))
	}
	return &ChannelQueue{
		name:     name,
		mode:     mode,
		calc:     calc,
		channels: make([]*WaitingRequest, channelCount),
		metrics:  NewQueueMetrics(channelCount),
	}
}

func (q *ChannelQueue) Name() string { return q.name }

func (q *ChannelQueue) Mode() WaitMode { return q.mode }

// ChannelCount is the current number of channels, free or busy.
func (q *ChannelQueue) ChannelCount() int { return len(q.channels) }

// AvailableChannelCount is the number of free channels.
func (q *ChannelQueue) AvailableChannelCount() int {
	n := 0
	for _, ch := range q.channels {
		if ch == nil {
			n++
		}
	}
	return n
}

// RequestCount is the number of requests in channels plus the wait line.
func (q *ChannelQueue) RequestCount() int {
	return q.waiting.len() + len(q.channels) - q.AvailableChannelCount()
}

// WaitingCount is the length of the wait line.
func (q *ChannelQueue) WaitingCount() int { return q.waiting.len() }

// Metrics returns the queue's utilization series.
func (q *ChannelQueue) Metrics() *QueueMetrics { return q.metrics }

// PendingChannelCount returns the requested channel count not yet applied.
func (q *ChannelQueue) PendingChannelCount() (int, bool) {
	return q.requested, q.requested > 0
}

// NextEventTime returns the earliest completion time among busy channels.
func (q *ChannelQueue) NextEventTime() (float64, bool) {
	found := false
	next := 0.0
	for _, ch := range q.channels {
		if ch == nil || ch.End == nil {
			continue
		}
		if !found || *ch.End < next {
			next = *ch.End
			found = true
		}
	}
	return next, found
}

// Enqueue places req in the first free channel, or at the back of the wait
// line when every channel is busy.
func (q *ChannelQueue) Enqueue(req *ClientRequest, clock float64) {
	q.metrics.Add(clock, q.RequestCount())

	for i, ch := range q.channels {
		if ch == nil {
			q.occupy(i, req, clock)
			return
		}
	}
	q.waiting.enqueue(newWaitingRequest(req, clock, 0, 0, WaitQueueing))
}

func (q *ChannelQueue) occupy(i int, req *ClientRequest, clock float64) {
	serviceTime, latency := 0.0, 0.0
	if q.calc != nil {
		serviceTime = q.calc.ServiceTime(req)
		latency = q.calc.Latency(req)
	}
	q.channels[i] = newWaitingRequest(req, clock, serviceTime, latency, q.mode)
}

// DrainCompleted frees every channel whose work ends at or before clock and
// returns those requests in channel order. Pending resizes are then applied,
// and waiting requests move into free channels.
func (q *ChannelQueue) DrainCompleted(clock float64) []*ClientRequest {
	q.metrics.Add(clock, q.RequestCount())

	var finished []*ClientRequest
	for i, ch := range q.channels {
		if ch == nil || ch.End == nil || *ch.End > clock {
			continue
		}
		finished = append(finished, ch.endWait(q, clock))
		q.channels[i] = nil
	}

	q.applyResize()

	for q.waiting.len() > 0 {
		free := q.firstFree()
		if free < 0 {
			break
		}
		wr := q.waiting.dequeue()
		req := wr.endWait(q, clock)
		q.occupy(free, req, clock)
	}
	return finished
}

func (q *ChannelQueue) firstFree() int {
	for i, ch := range q.channels {
		if ch == nil {
			return i
		}
	}
	return -1
}

// applyResize moves the channel count toward the requested value. Shrinking
// only removes free channels, last first; busy channels are never evicted.
func (q *ChannelQueue) applyResize() {
	if q.requested == 0 {
		return
	}
	before := len(q.channels)
	for len(q.channels) > q.requested {
		idx := -1
		for i := len(q.channels) - 1; i >= 0; i-- {
			if q.channels[i] == nil {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}
		q.channels = append(q.channels[:idx], q.channels[idx+1:]...)
	}
	for len(q.channels) < q.requested {
		q.channels = append(q.channels, nil)
	}
	if len(q.channels) != before {
		q.metrics.SetChannelCount(len(q.channels))
	}
	if len(q.channels) == q.requested {
		q.requested = 0
	}
}

// RequestChannelCount asks the queue to change its channel count. The change
// is applied at the next DrainCompleted. Panics if n < 1.
func (q *ChannelQueue) RequestChannelCount(n int) {
	if n < 1 {
		panic(fmt.Sprintf("ChannelQueue(%s): requested channel count must be >= 1, got %d", q.name, n))
	}
	if n == len(q.channels) {
		q.requested = 0
		return
	}
	q.requested = n
}

// IsHandling reports whether req is in a channel or in the wait line.
func (q *ChannelQueue) IsHandling(req *ClientRequest) bool {
	if q.waiting.contains(req) {
		return true
	}
	for _, ch := range q.channels {
		if ch != nil && ch.Request == req {
			return true
		}
	}
	return false
}

// Reset empties the queue and clears metrics. A pending resize takes effect
// immediately since no channel is busy afterwards.
func (q *ChannelQueue) Reset() {
	n := len(q.channels)
	if q.requested > 0 {
		n = q.requested
	}
	q.channels = make([]*WaitingRequest, n)
	q.waiting = waitLine{}
	q.requested = 0
	q.metrics.SetChannelCount(n)
}

func (q *ChannelQueue) String() string {
	var sb strings.Builder
	sb.WriteString(q.name)
	sb.WriteString(" [")
	for i, ch := range q.channels {
		if ch == nil {
			sb.WriteString("-")
		} else {
			sb.WriteString(ch.Request.ID)
		}
		if i < len(q.channels)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString(fmt.Sprintf("] waiting=%d", q.waiting.len()))
	return sb.String()
}
