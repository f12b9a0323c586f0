package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/netplan-sim/netsim/sim"
	"github.com/netplan-sim/netsim/sim/trace"
)

// Scenario is a complete run description, loadable from a YAML file.
// Flags given on the command line override the values read from the file.
type Scenario struct {
	Network    string            `yaml:"network"` // path of the netplan YAML, relative to the scenario file
	Generator  ComponentSpec     `yaml:"generator"`
	Processor  ComponentSpec     `yaml:"processor"`
	Simulation map[string]string `yaml:"simulation"`
	Global     map[string]string `yaml:"global"`
	Trace      trace.TraceConfig `yaml:"trace"`
}

// ComponentSpec names a registered component and its parameters.
type ComponentSpec struct {
	Name   string            `yaml:"name"`
	Params map[string]string `yaml:"params"`
}

// LoadScenario reads and strictly parses a YAML scenario file. A relative
// network path is resolved against the directory of the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if sc.Network != "" && !filepath.IsAbs(sc.Network) {
		sc.Network = filepath.Join(filepath.Dir(path), sc.Network)
	}
	return &sc, nil
}

// Validate checks that the scenario names registered components, points at a
// network file and uses a known trace level. Parameter values are checked
// later by the kernel against each component's schema.
func (sc *Scenario) Validate(r *sim.Registry) error {
	if sc.Network == "" {
		return errors.New("no network file given")
	}
	if sc.Generator.Name == "" {
		return errors.New("no generator given")
	}
	if sc.Processor.Name == "" {
		return errors.New("no processor given")
	}
	if !slices.Contains(r.GeneratorNames(), sc.Generator.Name) {
		return fmt.Errorf("unknown generator %q (known: %v)", sc.Generator.Name, r.GeneratorNames())
	}
	if !slices.Contains(r.ProcessorNames(), sc.Processor.Name) {
		return fmt.Errorf("unknown processor %q (known: %v)", sc.Processor.Name, r.ProcessorNames())
	}
	if !trace.IsValidTraceLevel(string(sc.Trace.Level)) {
		return fmt.Errorf("unknown trace level %q", sc.Trace.Level)
	}
	if sc.Trace.MaxDispatches < 0 {
		return fmt.Errorf("trace max_dispatches must be non-negative, got %d", sc.Trace.MaxDispatches)
	}
	return nil
}
