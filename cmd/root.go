package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cpsim/cpsim/sim"
	"github.com/cpsim/cpsim/sim/design"
	"github.com/cpsim/cpsim/sim/trace"
)

var (
	// CLI flags shared by run, validate and convert
	designPath  string // Design YAML file
	libraryPath string // Hardware and workflow library YAML file
	logLevel    string // Log verbosity level

	// CLI flags for run
	seed        int64   // Simulation key
	duration    float64 // Simulated seconds to run
	stepSize    float64 // Wall seconds per AdvanceTime call
	clockScale  float64 // Simulated seconds per wall second
	window      float64 // Utilization window in seconds (0 = whole run)
	traceLevel  string  // Decision trace level
	resultsPath string  // CSV file for handled requests
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cpsim",
	Short: "Discrete-event capacity planning simulator for distributed systems",
}

// runConfig carries the run flags into runDesign.
type runConfig struct {
	Seed        int64
	Duration    float64
	Step        float64
	ClockScale  float64
	Window      float64
	TraceLevel  string
	ResultsPath string
}

// runCmd loads a design and advances it for the requested duration
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a design and print its utilization summary",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s (valid: none, decisions)", traceLevel)
		}
		d, err := loadDesign(designPath, libraryPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		startTime := time.Now()
		cfg := runConfig{
			Seed:        seed,
			Duration:    duration,
			Step:        stepSize,
			ClockScale:  clockScale,
			Window:      window,
			TraceLevel:  traceLevel,
			ResultsPath: resultsPath,
		}
		if err := runDesign(d, cfg, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// validateCmd loads and checks a design without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate a design against a library",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		d, err := loadDesign(designPath, libraryPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := d.Validate(); err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("Design %q is valid: %d zones, %d hosts, %d tiers, %d workflows\n",
			d.Name, len(d.Zones()), len(d.Hosts()), len(d.Tiers()), len(d.Workflows()))
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadDesign reads the library and design files and builds the design.
func loadDesign(designFile, libraryFile string) (*sim.Design, error) {
	if designFile == "" {
		return nil, fmt.Errorf("--design is required")
	}
	lib, err := design.LoadLibrary(libraryFile)
	if err != nil {
		return nil, err
	}
	spec, err := design.LoadDesignSpec(designFile)
	if err != nil {
		return nil, err
	}
	return design.Build(spec, lib)
}

// runDesign simulates d for cfg.Duration simulated seconds and writes the
// summary to out.
func runDesign(d *sim.Design, cfg runConfig, out io.Writer) error {
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", cfg.Duration)
	}
	if cfg.Step <= 0 {
		return fmt.Errorf("step must be positive, got %v", cfg.Step)
	}

	s := sim.NewSimulator(d, sim.NewSimulationKey(cfg.Seed))
	s.SetClockScale(cfg.ClockScale)
	var tr *trace.SimulationTrace
	if trace.TraceLevel(cfg.TraceLevel) == trace.TraceLevelDecisions {
		tr = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
		s.SetTrace(tr)
	}
	if err := s.Start(); err != nil {
		return err
	}
	logrus.Infof("Running %q for %.0f s (seed=%d, clock scale=%.2f)", d.Name, cfg.Duration, cfg.Seed, s.ClockScale())

	for s.Clock() < cfg.Duration {
		adv := math.Min(cfg.Step, (cfg.Duration-s.Clock())/s.ClockScale())
		if adv < 1e-12 {
			break
		}
		if err := s.AdvanceTime(adv); err != nil {
			return err
		}
	}
	s.Pause()

	sim.Summarize(s, cfg.Window).Print(out)
	if tr != nil {
		printTraceSummary(out, trace.Summarize(tr))
	}
	if cfg.ResultsPath != "" {
		if err := sim.SaveRequests(s.Handled(), cfg.ResultsPath); err != nil {
			return err
		}
		logrus.Infof("Saved %d handled requests to %s", len(s.Handled()), cfg.ResultsPath)
	}
	return nil
}

func printTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace ===")
	fmt.Fprintf(w, "Routed Requests      : %d\n", ts.RoutedCount)
	fmt.Fprintf(w, "Dropped Requests     : %d\n", ts.DroppedCount)
	fmt.Fprintf(w, "Mean Hops            : %.2f\n", ts.MeanHops)
	fmt.Fprintf(w, "Max Hops             : %d\n", ts.MaxHops)
	nodes := make([]string, 0, len(ts.NodeDistribution))
	for n := range ts.NodeDistribution {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		fmt.Fprintf(w, "  %-20s %d placements\n", n, ts.NodeDistribution[n])
	}
	for reason, count := range ts.DropReasons {
		fmt.Fprintf(w, "  dropped (%s): %d\n", reason, count)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, validateCmd, convertCmd} {
		c.Flags().StringVar(&designPath, "design", "", "Design YAML file")
		c.Flags().StringVar(&libraryPath, "library", "library.yaml", "Hardware and workflow library YAML file")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	}

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the simulation key")
	runCmd.Flags().Float64Var(&duration, "duration", 3600, "Simulated seconds to run")
	runCmd.Flags().Float64Var(&stepSize, "step", 1, "Seconds advanced per step, before clock scaling")
	runCmd.Flags().Float64Var(&clockScale, "clock-scale", 1, "Simulated seconds per step second")
	runCmd.Flags().Float64Var(&window, "window", 0, "Utilization window in seconds (0 = whole run)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Decision trace level (none, decisions)")
	runCmd.Flags().StringVar(&resultsPath, "results", "", "CSV file to write handled requests to")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(convertCmd)
}
