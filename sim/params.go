package sim

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Unbounded is the sentinel for numeric limits that are not set.
const Unbounded = -1

// Params is a string-keyed, string-valued parameter map.
type Params map[string]string

// ParamDef declares one parameter a component accepts.
type ParamDef struct {
	Name        string
	Default     string
	Description string
}

// Clone returns a copy of p (never nil).
func (p Params) Clone() Params {
	out := make(Params, len(p))
	maps.Copy(out, p)
	return out
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Get returns the value of key, or "" when absent.
func (p Params) Get(key string) string {
	return p[key]
}

// Float parses key as a float64.
func (p Params) Float(key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("parameter %q not set", key)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %q is not a number", key, v)
	}
	return f, nil
}

// Int parses key as an int64.
func (p Params) Int(key string) (int64, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("parameter %q not set", key)
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %q: %q is not an integer", key, v)
	}
	return i, nil
}

// Bool parses key as a bool.
func (p Params) Bool(key string) (bool, error) {
	v, ok := p[key]
	if !ok {
		return false, fmt.Errorf("parameter %q not set", key)
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("parameter %q: %q is not a boolean", key, v)
	}
	return b, nil
}

// ApplySchema checks params against defs: unknown names are rejected and
// missing names take their declared default. The input map is not modified.
func ApplySchema(scope string, defs []ParamDef, params Params) (Params, error) {
	known := make(map[string]ParamDef, len(defs))
	for _, d := range defs {
		known[d.Name] = d
	}
	for _, k := range params.Keys() {
		if _, ok := known[k]; !ok {
			return nil, configError(scope, k, errors.New("unknown parameter"))
		}
	}
	out := params.Clone()
	for _, d := range defs {
		if _, ok := out[d.Name]; !ok {
			out[d.Name] = d.Default
		}
	}
	return out, nil
}

// Simulation parameter names.
const (
	ParamSimEvents         = "simEvents"
	ParamTransitoryEvents  = "transitoryEvents"
	ParamSimTime           = "simTime"
	ParamTransitoryTime    = "transitoryTime"
	ParamRefreshTime       = "refreshTime"
	ParamRefreshSimTime    = "refreshSimTime"
	ParamDisableStatistics = "disableStatistics"
	ParamRandomSeed        = "randomSeed"
)

// SimParamDefs is the schema of the simulation-level parameter map.
var SimParamDefs = []ParamDef{
	{ParamSimEvents, "-1", "Total number of events to dispatch after the bootstrap (-1 = unbounded)"},
	{ParamTransitoryEvents, "-1", "Number of events in the transitory period (-1 = no event bound)"},
	{ParamSimTime, "-1", "Simulated time at which the run stops (-1 = unbounded)"},
	{ParamTransitoryTime, "-1", "Simulated time at which the transitory period ends (-1 = no time bound)"},
	{ParamRefreshTime, "10", "Wall-clock seconds between refresh hints to the listener (-1 = off)"},
	{ParamRefreshSimTime, "-1", "Simulated time between refresh hints to the listener (-1 = off)"},
	{ParamDisableStatistics, "false", "Disable statistics collection in components"},
	{ParamRandomSeed, "1", "Master seed of the random streams handed to components"},
}

// SimParams is the parsed simulation-level configuration.
type SimParams struct {
	SimEvents         int64   // -1 = unbounded
	TransitoryEvents  int64   // -1 = no event bound
	SimTime           float64 // -1 = unbounded
	TransitoryTime    float64 // -1 = no time bound
	RefreshTime       float64 // wall-clock seconds, -1 = off
	RefreshSimTime    float64 // simulated time, -1 = off
	DisableStatistics bool
	RandomSeed        int64
}

// DefaultSimParams returns the parameters produced by an empty map.
func DefaultSimParams() SimParams {
	return SimParams{
		SimEvents:        Unbounded,
		TransitoryEvents: Unbounded,
		SimTime:          Unbounded,
		TransitoryTime:   Unbounded,
		RefreshTime:      10,
		RefreshSimTime:   Unbounded,
		RandomSeed:       1,
	}
}

// HasStopLimit reports whether an event or time limit bounds the run.
func (sp SimParams) HasStopLimit() bool {
	return sp.SimEvents != Unbounded || sp.SimTime != Unbounded
}

// HasTransitory reports whether a transitory period is configured.
func (sp SimParams) HasTransitory() bool {
	return sp.TransitoryEvents != Unbounded || sp.TransitoryTime != Unbounded
}

// ParseSimParams validates and parses the simulation parameter map.
// The returned map has all defaults filled in.
func ParseSimParams(params Params) (SimParams, Params, error) {
	const scope = "simulation"
	full, err := ApplySchema(scope, SimParamDefs, params)
	if err != nil {
		return SimParams{}, nil, err
	}
	var sp SimParams
	if sp.SimEvents, err = limitInt(full, ParamSimEvents, 1); err != nil {
		return SimParams{}, nil, err
	}
	if sp.TransitoryEvents, err = limitInt(full, ParamTransitoryEvents, 0); err != nil {
		return SimParams{}, nil, err
	}
	if sp.SimTime, err = limitFloat(full, ParamSimTime); err != nil {
		return SimParams{}, nil, err
	}
	if sp.TransitoryTime, err = limitFloat(full, ParamTransitoryTime); err != nil {
		return SimParams{}, nil, err
	}
	if sp.RefreshTime, err = limitFloat(full, ParamRefreshTime); err != nil {
		return SimParams{}, nil, err
	}
	if sp.RefreshSimTime, err = limitFloat(full, ParamRefreshSimTime); err != nil {
		return SimParams{}, nil, err
	}
	if sp.DisableStatistics, err = full.Bool(ParamDisableStatistics); err != nil {
		return SimParams{}, nil, configError(scope, ParamDisableStatistics, err)
	}
	if sp.RandomSeed, err = full.Int(ParamRandomSeed); err != nil {
		return SimParams{}, nil, configError(scope, ParamRandomSeed, err)
	}

	if sp.SimEvents != Unbounded && sp.SimTime != Unbounded {
		return SimParams{}, nil, configError(scope, ParamSimEvents,
			fmt.Errorf("%s and %s are mutually exclusive", ParamSimEvents, ParamSimTime))
	}
	if sp.TransitoryEvents != Unbounded && sp.TransitoryTime != Unbounded {
		return SimParams{}, nil, configError(scope, ParamTransitoryEvents,
			fmt.Errorf("%s and %s are mutually exclusive", ParamTransitoryEvents, ParamTransitoryTime))
	}
	if sp.SimEvents != Unbounded && sp.TransitoryEvents != Unbounded && sp.TransitoryEvents >= sp.SimEvents {
		return SimParams{}, nil, configError(scope, ParamTransitoryEvents,
			fmt.Errorf("must be lower than %s (%d)", ParamSimEvents, sp.SimEvents))
	}
	if sp.SimTime != Unbounded && sp.TransitoryTime != Unbounded && sp.TransitoryTime >= sp.SimTime {
		return SimParams{}, nil, configError(scope, ParamTransitoryTime,
			fmt.Errorf("must be lower than %s (%g)", ParamSimTime, sp.SimTime))
	}
	return sp, full, nil
}

// limitInt parses an integer limit that is either -1 or >= lowest.
func limitInt(p Params, key string, lowest int64) (int64, error) {
	v, err := p.Int(key)
	if err != nil {
		return 0, configError("simulation", key, err)
	}
	if v != Unbounded && v < lowest {
		return 0, configError("simulation", key, fmt.Errorf("must be -1 or >= %d, got %d", lowest, v))
	}
	return v, nil
}

// limitFloat parses a time limit that is either -1 or > 0.
func limitFloat(p Params, key string) (float64, error) {
	v, err := p.Float(key)
	if err != nil {
		return 0, configError("simulation", key, err)
	}
	if v != Unbounded && v <= 0 {
		return 0, configError("simulation", key, fmt.Errorf("must be -1 or > 0, got %g", v))
	}
	return v, nil
}

// ParamPrecisionFactor is the network-wide numeric tolerance, used by components
// when comparing capacities and traffic volumes.
const ParamPrecisionFactor = "precisionFactor"

// GlobalParamDefs is the schema of the network-wide parameter map.
var GlobalParamDefs = []ParamDef{
	{ParamPrecisionFactor, "1e-3", "Numeric tolerance for capacity and traffic comparisons"},
}

// ParseGlobalParams validates the network-wide parameter map and fills defaults.
func ParseGlobalParams(params Params) (Params, error) {
	full, err := ApplySchema("global", GlobalParamDefs, params)
	if err != nil {
		return nil, err
	}
	pf, err := full.Float(ParamPrecisionFactor)
	if err != nil {
		return nil, configError("global", ParamPrecisionFactor, err)
	}
	if pf < 0 {
		return nil, configError("global", ParamPrecisionFactor, fmt.Errorf("must be non-negative, got %g", pf))
	}
	return full, nil
}
