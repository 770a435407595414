package sim

// WaitMode says how the time a request spends in a queue slot is credited
// to its metrics.
type WaitMode int

const (
	// WaitProcessing is compute work in a node channel.
	WaitProcessing WaitMode = iota
	// WaitTransmitting is transfer over a network connection.
	WaitTransmitting
	// WaitQueueing is time in the wait line before a channel frees.
	WaitQueueing
)

func (m WaitMode) String() string {
	switch m {
	case WaitProcessing:
		return "processing"
	case WaitTransmitting:
		return "transmitting"
	case WaitQueueing:
		return "queueing"
	}
	return "unknown"
}

// Calculator is anything that handles a solution step: a compute node or a
// network connection. Both own a ChannelQueue and decide how long the
// request's current step takes. The queue carries the calculator's name.
type Calculator interface {
	ServiceTime(req *ClientRequest) float64
	Latency(req *ClientRequest) float64
	Queue() *ChannelQueue
}
