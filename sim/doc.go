// Package sim provides the discrete-event engine of the capacity planning
// simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - queue.go: ChannelQueue, the parallel-channel resource every node and link owns
//   - solution_factory.go: how a request is turned into a round trip of steps
//   - simulator.go: the clock, the advance loop and request lifecycle
//
// # Architecture
//
// A Design is an arena of zones, connections, compute nodes, tiers and
// configured workflows, all referred to by integer ids. Compute nodes and
// network connections implement Calculator: they own a ChannelQueue and
// decide how long a request's current step takes there.
//
// Sub-packages:
//   - sim/design/: YAML design files and the hardware/workflow library
//   - sim/trace/: decision trace recording
//
// # Time and ordering
//
// Time is float64 seconds and only moves inside Simulator.AdvanceTime.
// Within one instant, due workflows emit first, then queues are drained,
// then finished requests are retired.
//
// # Randomness
//
// All variance comes from StochasticAdjust drawing on a PartitionedRNG,
// so a SimulationKey and a design fully determine a run.
package sim
