package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolvesByName(t *testing.T) {
	r := NewRegistry()
	r.RegisterGenerator("b-gen", func() EventGenerator { return &fakeComponent{name: "b"} })
	r.RegisterGenerator("a-gen", func() EventGenerator { return &fakeComponent{name: "a"} })
	r.RegisterProcessor("proc", func() EventProcessor { return &fakeComponent{name: "p"} })

	g, err := r.NewGenerator("a-gen")
	require.NoError(t, err)
	assert.Equal(t, "a", g.Description())

	p1, err := r.NewProcessor("proc")
	require.NoError(t, err)
	p2, err := r.NewProcessor("proc")
	require.NoError(t, err)
	assert.NotSame(t, p1, p2, "each call builds a fresh instance")

	assert.Equal(t, []string{"a-gen", "b-gen"}, r.GeneratorNames())
	assert.Equal(t, []string{"proc"}, r.ProcessorNames())
}

func TestRegistry_UnknownName(t *testing.T) {
	r := NewRegistry()

	_, err := r.NewGenerator("nope")
	var cfg *InvalidConfigurationError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, "generator", cfg.Scope)

	_, err = r.NewProcessor("nope")
	assert.ErrorAs(t, err, &cfg)
}

func TestRegistry_RejectsBadRegistrations(t *testing.T) {
	r := NewRegistry()
	f := func() EventGenerator { return &fakeComponent{} }
	r.RegisterGenerator("g", f)

	assert.Panics(t, func() { r.RegisterGenerator("g", f) }, "duplicate")
	assert.Panics(t, func() { r.RegisterGenerator("", f) }, "empty name")
	assert.Panics(t, func() { r.RegisterProcessor("p", nil) }, "nil factory")
}

func TestIsGracefulStop(t *testing.T) {
	domain := errors.New("disk full")
	tests := []struct {
		name   string
		reason error
		want   bool
	}{
		{"nil", nil, true},
		{"end signal", &EndOfSimulation{Role: "processor"}, true},
		{"sentinel", ErrEndSimulation, true},
		{"failure", &ComponentFailure{Role: "processor", Op: "processEvent", Err: domain}, false},
		{"failure wrapping end", &ComponentFailure{Role: "processor", Op: "finish", Err: ErrEndSimulation}, false},
		{"plain error", domain, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGracefulStop(tt.reason))
		})
	}
}

func TestErrors_UnwrapToCause(t *testing.T) {
	domain := errors.New("disk full")

	assert.ErrorIs(t, &ComponentFailure{Role: "generator", Op: "initialize", Err: domain}, domain)
	assert.ErrorIs(t, &EndOfSimulation{Role: "generator"}, ErrEndSimulation)
	assert.ErrorIs(t, configError("simulation", ParamSimTime, domain), domain)
	assert.Contains(t, (&IllegalStateError{Op: "run", State: Stopped}).Error(), "STOPPED")
}
