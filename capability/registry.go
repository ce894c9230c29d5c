package capability

import (
	"fmt"

	"github.com/hupe1980/schoolmate/model"
)

// Registry is an ordered, immutable set of descriptors. The zero value is empty.
type Registry struct {
	descs []Descriptor
	index map[string]int
}

// NewRegistry builds a registry, rejecting empty or duplicate names.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		descs: make([]Descriptor, 0, len(descs)),
		index: make(map[string]int, len(descs)),
	}

	for _, d := range descs {
		if d.Name == "" {
			return nil, fmt.Errorf("capability: descriptor without name")
		}
		if _, dup := r.index[d.Name]; dup {
			return nil, fmt.Errorf("capability: duplicate descriptor %q", d.Name)
		}
		d.Parameters = append([]Parameter(nil), d.Parameters...)
		r.index[d.Name] = len(r.descs)
		r.descs = append(r.descs, d)
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(descs ...Descriptor) *Registry {
	r, err := NewRegistry(descs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	i, ok := r.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descs[i], true
}

// Descriptors returns a copy of the registered descriptors in order.
func (r *Registry) Descriptors() []Descriptor {
	if r == nil {
		return nil
	}
	out := make([]Descriptor, len(r.descs))
	copy(out, r.descs)
	return out
}

// Names returns the registered capability names in order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.descs))
	for i, d := range r.descs {
		names[i] = d.Name
	}
	return names
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.descs)
}

// ToolDefinitions renders every descriptor for an intent request.
func (r *Registry) ToolDefinitions() []model.ToolDefinition {
	if r == nil {
		return nil
	}
	defs := make([]model.ToolDefinition, len(r.descs))
	for i, d := range r.descs {
		defs[i] = d.ToolDefinition()
	}
	return defs
}
