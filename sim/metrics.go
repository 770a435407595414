// Aggregates run-wide results: request counts, response time statistics of
// handled requests, and per-resource utilization.

package sim

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// UtilizationRow reports one resource's utilization.
type UtilizationRow struct {
	Name        string
	Channels    int
	Utilization float64 // 1.0 = all channels busy
	Waiting     int     // requests in the wait line at summary time
}

// Summary aggregates statistics about a simulation for reporting.
type Summary struct {
	Clock   float64
	Handled int
	Active  int
	Dropped int

	// Response time statistics over handled requests, in seconds.
	MeanResponse float64
	P50Response  float64
	P90Response  float64
	P99Response  float64
	MeanService  float64
	MeanQueue    float64
	MeanLatency  float64

	Window      float64 // utilization window in seconds; 0 = whole run
	Nodes       []UtilizationRow
	Connections []UtilizationRow
}

// Summarize collects statistics from sim. Utilization is measured over the
// trailing window seconds, or the whole run when window <= 0.
func Summarize(sim *Simulator, window float64) *Summary {
	handled := sim.Handled()
	sm := &Summary{
		Clock:   sim.Clock(),
		Handled: len(handled),
		Active:  len(sim.active),
		Dropped: sim.Dropped(),
		Window:  window,
	}

	if len(handled) > 0 {
		response := make([]float64, len(handled))
		service := make([]float64, len(handled))
		queue := make([]float64, len(handled))
		latency := make([]float64, len(handled))
		for i, req := range handled {
			response[i] = req.Metrics.ResponseTime()
			service[i] = req.Metrics.TotalServiceTime()
			queue[i] = req.Metrics.TotalQueueTime()
			latency[i] = req.Metrics.TotalLatencyTime()
		}
		sm.MeanResponse = stat.Mean(response, nil)
		sm.MeanService = stat.Mean(service, nil)
		sm.MeanQueue = stat.Mean(queue, nil)
		sm.MeanLatency = stat.Mean(latency, nil)

		sort.Float64s(response)
		sm.P50Response = stat.Quantile(0.50, stat.Empirical, response, nil)
		sm.P90Response = stat.Quantile(0.90, stat.Empirical, response, nil)
		sm.P99Response = stat.Quantile(0.99, stat.Empirical, response, nil)
	}

	d := sim.Design()
	if d == nil {
		return sm
	}
	for _, n := range d.nodes {
		sm.Nodes = append(sm.Nodes, utilizationRow(n.Name, n.queue, window))
	}
	for _, c := range d.connections {
		sm.Connections = append(sm.Connections, utilizationRow(c.Name, c.queue, window))
	}
	return sm
}

func utilizationRow(name string, q *ChannelQueue, window float64) UtilizationRow {
	u := q.Metrics().Utilization()
	if window > 0 {
		u = q.Metrics().UtilizationWindow(window)
	}
	return UtilizationRow{
		Name:        name,
		Channels:    q.ChannelCount(),
		Utilization: u,
		Waiting:     q.WaitingCount(),
	}
}

// Print writes a human readable report to w.
func (sm *Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Clock                : %.3f s\n", sm.Clock)
	fmt.Fprintf(w, "Handled Requests     : %d\n", sm.Handled)
	fmt.Fprintf(w, "Active Requests      : %d\n", sm.Active)
	fmt.Fprintf(w, "Dropped Requests     : %d\n", sm.Dropped)
	if sm.Handled > 0 {
		fmt.Fprintf(w, "Mean Response Time   : %.4f s\n", sm.MeanResponse)
		fmt.Fprintf(w, "P50 / P90 / P99      : %.4f / %.4f / %.4f s\n", sm.P50Response, sm.P90Response, sm.P99Response)
		fmt.Fprintf(w, "Mean Service Time    : %.4f s\n", sm.MeanService)
		fmt.Fprintf(w, "Mean Queue Time      : %.4f s\n", sm.MeanQueue)
		fmt.Fprintf(w, "Mean Latency         : %.4f s\n", sm.MeanLatency)
	}

	scope := "whole run"
	if sm.Window > 0 {
		scope = fmt.Sprintf("last %.0f s", sm.Window)
	}
	fmt.Fprintf(w, "--- Compute Utilization (%s) ---\n", scope)
	for _, r := range sm.Nodes {
		fmt.Fprintf(w, "  %-28s %3d ch  %6.1f%%  waiting=%d\n", r.Name, r.Channels, r.Utilization*100, r.Waiting)
	}
	fmt.Fprintf(w, "--- Network Utilization (%s) ---\n", scope)
	for _, r := range sm.Connections {
		fmt.Fprintf(w, "  %-28s %3d ch  %6.1f%%  waiting=%d\n", r.Name, r.Channels, r.Utilization*100, r.Waiting)
	}
}
