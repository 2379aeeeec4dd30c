package graph

import (
	"fmt"
	"sort"
)

// Factory builds a node variant for the given identity and render
// configuration.
type Factory func(id NodeID, sampleRate float64, blockSize int) Node

// Registry maps string tags to node factories. A registry belongs to a
// single runtime instance: it is populated before rendering begins and
// read-only afterwards.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds kind to factory, replacing any previous binding.
func (r *Registry) Register(kind string, factory Factory) {
	r.factories[kind] = factory
}

// Kinds returns the registered tags in lexical order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// New builds a node of the given kind.
func (r *Registry) New(kind string, id NodeID, sampleRate float64, blockSize int) (Node, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeKind, kind)
	}
	return factory(id, sampleRate, blockSize), nil
}
