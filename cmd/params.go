package cmd

import (
	"fmt"

	"github.com/kr/logfmt"

	"github.com/netplan-sim/netsim/sim"
)

// parseParamFlags turns repeated logfmt flag values ("simEvents=1000 simTime=-1")
// into a parameter map. Later keys override earlier ones.
func parseParamFlags(values []string) (sim.Params, error) {
	out := sim.Params{}
	for _, v := range values {
		err := logfmt.Unmarshal([]byte(v), logfmt.HandlerFunc(func(key, val []byte) error {
			if len(key) == 0 {
				return fmt.Errorf("empty parameter name in %q", v)
			}
			if val == nil {
				return fmt.Errorf("parameter %q has no value", key)
			}
			out[string(key)] = string(val)
			return nil
		}))
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", v, err)
		}
	}
	return out, nil
}

// mergeParams returns base overridden by overrides; neither input is modified.
func mergeParams(base map[string]string, overrides sim.Params) sim.Params {
	out := sim.Params(base).Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
