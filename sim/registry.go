package sim

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// GeneratorFactory builds a fresh generator instance.
type GeneratorFactory func() EventGenerator

// ProcessorFactory builds a fresh processor instance.
type ProcessorFactory func() EventProcessor

// Registry maps component names to factories. The kernel never depends on
// how instances are located; callers resolve names here and hand instances in.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]GeneratorFactory
	processors map[string]ProcessorFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]GeneratorFactory),
		processors: make(map[string]ProcessorFactory),
	}
}

// DefaultRegistry is filled by component packages from their init() functions.
var DefaultRegistry = NewRegistry()

// RegisterGenerator adds a generator factory. Panics on an empty name,
// a nil factory, or a duplicate name.
func (r *Registry) RegisterGenerator(name string, f GeneratorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" || f == nil {
		panic("Registry.RegisterGenerator: empty name or nil factory")
	}
	if _, dup := r.generators[name]; dup {
		panic(fmt.Sprintf("Registry.RegisterGenerator: %q registered twice", name))
	}
	r.generators[name] = f
}

// RegisterProcessor adds a processor factory. Panics on an empty name,
// a nil factory, or a duplicate name.
func (r *Registry) RegisterProcessor(name string, f ProcessorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" || f == nil {
		panic("Registry.RegisterProcessor: empty name or nil factory")
	}
	if _, dup := r.processors[name]; dup {
		panic(fmt.Sprintf("Registry.RegisterProcessor: %q registered twice", name))
	}
	r.processors[name] = f
}

// NewGenerator builds the generator registered under name.
func (r *Registry) NewGenerator(name string) (EventGenerator, error) {
	r.mu.RLock()
	f, ok := r.generators[name]
	r.mu.RUnlock()
	if !ok {
		return nil, configError("generator", "", fmt.Errorf("unknown generator %q (known: %v)", name, r.GeneratorNames()))
	}
	return f(), nil
}

// NewProcessor builds the processor registered under name.
func (r *Registry) NewProcessor(name string) (EventProcessor, error) {
	r.mu.RLock()
	f, ok := r.processors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, configError("processor", "", fmt.Errorf("unknown processor %q (known: %v)", name, r.ProcessorNames()))
	}
	return f(), nil
}

// GeneratorNames returns the registered generator names, sorted.
func (r *Registry) GeneratorNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.generators))
}

// ProcessorNames returns the registered processor names, sorted.
func (r *Registry) ProcessorNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.processors))
}
