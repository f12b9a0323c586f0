package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netplan-sim/netsim/sim"
	_ "github.com/netplan-sim/netsim/sim/components" // registers the bundled components
	"github.com/netplan-sim/netsim/sim/netplan"
	"github.com/netplan-sim/netsim/sim/trace"
)

var (
	scenarioPath string   // YAML scenario file
	networkPath  string   // netplan YAML file, overrides the scenario
	generator    string   // generator name, overrides the scenario
	processor    string   // processor name, overrides the scenario
	simParams    []string // logfmt simulation parameters
	globalParams []string // logfmt global parameters
	genParams    []string // logfmt generator parameters
	procParams   []string // logfmt processor parameters
	seed         int64    // randomSeed shortcut
	logLevel     string   // Log verbosity level
	traceLevel   string   // Trace verbosity level
	traceMax     int      // Max dispatch records kept in the trace
	traceOutput  string   // File the trace is written to
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "netsim",
	Short: "Discrete-event simulator for network planning",
}

// runCmd executes one simulation using a scenario file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q", logLevel)
		}
		logrus.SetLevel(level)

		sc, err := buildScenario(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runScenario(ctx, sc, sim.DefaultRegistry, cmd.OutOrStdout(), traceOutput)
	},
}

// componentsCmd lists the registered components and their parameters
var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "List registered generators and processors with their parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listComponents(sim.DefaultRegistry, cmd.OutOrStdout())
	},
}

// buildScenario loads the scenario file, if any, and applies flag overrides.
func buildScenario(cmd *cobra.Command) (*Scenario, error) {
	sc := &Scenario{}
	if scenarioPath != "" {
		loaded, err := LoadScenario(scenarioPath)
		if err != nil {
			return nil, err
		}
		sc = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("network") {
		sc.Network = networkPath
	}
	if flags.Changed("generator") || sc.Generator.Name == "" {
		sc.Generator.Name = generator
	}
	if flags.Changed("processor") || sc.Processor.Name == "" {
		sc.Processor.Name = processor
	}
	if flags.Changed("trace-level") {
		sc.Trace.Level = trace.TraceLevel(traceLevel)
	}
	if flags.Changed("trace-max") {
		sc.Trace.MaxDispatches = traceMax
	}

	overrides := []struct {
		target *map[string]string
		values []string
	}{
		{&sc.Simulation, simParams},
		{&sc.Global, globalParams},
		{&sc.Generator.Params, genParams},
		{&sc.Processor.Params, procParams},
	}
	for _, o := range overrides {
		p, err := parseParamFlags(o.values)
		if err != nil {
			return nil, err
		}
		*o.target = mergeParams(*o.target, p)
	}
	if flags.Changed("seed") {
		sc.Simulation[sim.ParamRandomSeed] = fmt.Sprint(seed)
	}
	return sc, nil
}

// runScenario executes a validated scenario and writes the component reports to out.
// The trace is written to tracePath when tracing is enabled and the path is set.
func runScenario(ctx context.Context, sc *Scenario, r *sim.Registry, out io.Writer, tracePath string) error {
	if err := sc.Validate(r); err != nil {
		return err
	}
	np, err := netplan.Load(sc.Network)
	if err != nil {
		return err
	}
	gen, err := r.NewGenerator(sc.Generator.Name)
	if err != nil {
		return err
	}
	proc, err := r.NewProcessor(sc.Processor.Name)
	if err != nil {
		return err
	}

	k := sim.NewKernel(
		sim.WithListener(sim.NewLogListener()),
		sim.WithTrace(sc.Trace),
	)
	if err := k.SetNetPlan(np); err != nil {
		return err
	}
	if err := k.ConfigureSimulation(sc.Simulation, sc.Global, gen, sc.Generator.Params, proc, sc.Processor.Params); err != nil {
		return err
	}
	if err := k.Initialize(); err != nil {
		return err
	}
	logrus.WithField("run_id", k.RunID().String()).Infof("starting %s", k.Describe())

	runErr := k.Run(ctx)

	stats := k.SimCore().Stats()
	if _, err := fmt.Fprint(out, k.Report()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if _, err := fmt.Fprintf(out, "stopped: cause=%s events=%d sim_time=%g wall=%s events_per_sec=%.0f\n",
		stats.Cause, stats.Events, stats.SimTime, stats.WallElapsed(), stats.EventsPerSecond()); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if st := k.Trace(); st != nil && tracePath != "" {
		if err := writeTrace(st, tracePath); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("simulation failed: %w", runErr)
	}
	return nil
}

func writeTrace(st *trace.SimulationTrace, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	if err := st.WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing trace file: %w", err)
	}
	logrus.Infof("trace written to %s", path)
	return nil
}

// listComponents prints every registered component with its parameter schema.
func listComponents(r *sim.Registry, out io.Writer) error {
	describe := func(kind string, c sim.Component, name string) error {
		if _, err := fmt.Fprintf(out, "%s %s: %s\n", kind, name, c.Description()); err != nil {
			return err
		}
		for _, p := range c.Parameters() {
			if _, err := fmt.Fprintf(out, "  %s (default %q): %s\n", p.Name, p.Default, p.Description); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range r.GeneratorNames() {
		g, err := r.NewGenerator(name)
		if err != nil {
			return err
		}
		if err := describe("generator", g, name); err != nil {
			return err
		}
	}
	for _, name := range r.ProcessorNames() {
		p, err := r.NewProcessor(name)
		if err != nil {
			return err
		}
		if err := describe("processor", p, name); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file")
	runCmd.Flags().StringVar(&networkPath, "network", "", "Network plan YAML file (overrides the scenario)")
	runCmd.Flags().StringVar(&generator, "generator", "connection-generator", "Event generator name")
	runCmd.Flags().StringVar(&processor, "processor", "shortest-path-allocator", "Event processor name")
	runCmd.Flags().StringArrayVar(&simParams, "param", nil, "Simulation parameters in logfmt, e.g. \"simEvents=100000 transitoryEvents=1000\"")
	runCmd.Flags().StringArrayVar(&globalParams, "global-param", nil, "Global parameters in logfmt, e.g. \"precisionFactor=1e-6\"")
	runCmd.Flags().StringArrayVar(&genParams, "gen-param", nil, "Generator parameters in logfmt")
	runCmd.Flags().StringArrayVar(&procParams, "proc-param", nil, "Processor parameters in logfmt")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Seed of the random streams (shortcut for --param randomSeed=N)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Trace verbosity level (none, events)")
	runCmd.Flags().IntVar(&traceMax, "trace-max", 0, "Maximum dispatch records kept in the trace (0 = all)")
	runCmd.Flags().StringVar(&traceOutput, "trace-output", "", "File the YAML trace is written to")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(componentsCmd)
}
