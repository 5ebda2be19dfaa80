// Package tools provides the registry of callable side-effect functions
// exposed to the generation backend's tool-call loop.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Func executes one side-effect call. Arguments arrive as the raw JSON the
// model produced (after memory indirection has been applied).
type Func func(ctx context.Context, args json.RawMessage) (string, error)

// Spec describes a callable tool.
type Spec struct {
	// Name uniquely identifies the tool.
	Name string `json:"name"`

	// Description tells the model when to call the tool.
	Description string `json:"description"`

	// Parameters is the JSON Schema of the tool's arguments.
	Parameters json.RawMessage `json:"parameters,omitempty"`

	// Fn is the implementation. Not serialized.
	Fn Func `json:"-"`
}

// Registry is a thread-safe registry of tool specs.
// It uses sync.RWMutex for read-heavy workloads.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Spec)}
}

// Register adds or replaces a tool spec.
// Returns an error for unnamed tools or tools without an implementation.
func (r *Registry) Register(spec Spec) error {
	if spec.Name == "" {
		return fmt.Errorf("tools: spec name cannot be empty")
	}
	if spec.Fn == nil {
		return fmt.Errorf("tools: spec %s has no implementation", spec.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[spec.Name] = spec
	return nil
}

// Get returns the spec for a name and whether it exists.
func (r *Registry) Get(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.entries[name]
	return spec, ok
}

// Has reports whether the named tool is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns all registered specs, sorted by name.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]Spec, 0, len(r.entries))
	for _, spec := range r.entries {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Call dispatches to the named tool.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (string, error) {
	spec, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("tools: unknown tool %q", name)
	}
	return spec.Fn(ctx, args)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
