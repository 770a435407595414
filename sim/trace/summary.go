package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	RoutedCount      int
	DroppedCount     int
	MeanHops         float64
	MaxHops          int
	UniqueNodes      int
	NodeDistribution map[string]int // node name -> placements
	DropReasons      map[string]int // reason -> count
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		NodeDistribution: make(map[string]int),
		DropReasons:      make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.RoutedCount = len(st.Routings)
	if len(st.Routings) > 0 {
		totalHops := 0
		for _, r := range st.Routings {
			for _, p := range r.Placements {
				summary.NodeDistribution[p.Node]++
			}
			totalHops += r.Hops
			if r.Hops > summary.MaxHops {
				summary.MaxHops = r.Hops
			}
		}
		summary.MeanHops = float64(totalHops) / float64(len(st.Routings))
	}

	summary.DroppedCount = len(st.Drops)
	for _, d := range st.Drops {
		summary.DropReasons[d.Reason]++
	}

	summary.UniqueNodes = len(summary.NodeDistribution)

	return summary
}
