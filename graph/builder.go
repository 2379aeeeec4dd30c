package graph

import (
	"fmt"

	"github.com/dudk/phonograph/resource"
	"github.com/dudk/phonograph/value"
)

// Builder owns the pending, pre-commit graph state and turns instruction
// batches into committed topologies. All of its methods run on the
// control context.
type Builder struct {
	registry   *Registry
	resources  *resource.Map
	sampleRate float64
	blockSize  int

	nodes    map[NodeID]Node
	children map[NodeID][]NodeID
}

// NewBuilder returns a builder creating nodes for the given render
// configuration.
func NewBuilder(registry *Registry, resources *resource.Map, sampleRate float64, blockSize int) *Builder {
	return &Builder{
		registry:   registry,
		resources:  resources,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		nodes:      make(map[NodeID]Node),
		children:   make(map[NodeID][]NodeID),
	}
}

// Nodes returns every pending node. Used by the runtime to reset node
// state; iteration order is unspecified.
func (b *Builder) Nodes() []Node {
	nodes := make([]Node, 0, len(b.nodes))
	for _, n := range b.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// Apply processes one instruction batch sequentially and all-or-nothing.
// It returns a new topology if the batch contained a commit, nil
// otherwise. On error the pending state is left exactly as it was and no
// topology is produced.
//
// The batch is staged against copies of the pending maps: structural
// checks (shape, ids, kinds, cycles) run for every instruction before any
// property write executes. Property writes are staged too: SetProperty
// validates and returns the apply step, and the apply steps run only
// after every write in the batch validated, so a failing instruction
// cannot leave a half-applied batch behind on any node, pre-existing or
// not.
func (b *Builder) Apply(batch []value.Value) (*Topology, error) {
	ins, err := parseBatch(batch)
	if err != nil {
		return nil, err
	}

	nodes := make(map[NodeID]Node, len(b.nodes)+len(ins))
	for id, n := range b.nodes {
		nodes[id] = n
	}
	children := make(map[NodeID][]NodeID, len(b.children))
	for id, c := range b.children {
		children[id] = c
	}

	var (
		sets      []instruction
		committed bool
		outputs   []NodeID
	)
	for _, in := range ins {
		switch in.op {
		case opCreateNode:
			if _, ok := nodes[in.id]; ok {
				return nil, fmt.Errorf("%w: batch[%d]: id %d", ErrDuplicateNodeID, in.index, in.id)
			}
			n, err := b.registry.New(in.kind, in.id, b.sampleRate, b.blockSize)
			if err != nil {
				return nil, fmt.Errorf("batch[%d]: %w", in.index, err)
			}
			nodes[in.id] = n
		case opSetProperty:
			if _, ok := nodes[in.id]; !ok {
				return nil, fmt.Errorf("%w: batch[%d]: id %d", ErrUnknownNodeID, in.index, in.id)
			}
			sets = append(sets, in)
		case opConnect:
			if _, ok := nodes[in.id]; !ok {
				return nil, fmt.Errorf("%w: batch[%d]: id %d", ErrUnknownNodeID, in.index, in.id)
			}
			for _, child := range in.ids {
				if _, ok := nodes[child]; !ok {
					return nil, fmt.Errorf("%w: batch[%d]: child id %d", ErrUnknownNodeID, in.index, child)
				}
			}
			cs := make([]NodeID, len(in.ids))
			copy(cs, in.ids)
			children[in.id] = cs
			if reachable(children, in.id, in.id) {
				return nil, fmt.Errorf("%w: batch[%d]: node %d is an input of itself", ErrCyclicGraph, in.index, in.id)
			}
		case opCommit:
			for _, out := range in.ids {
				if _, ok := nodes[out]; !ok {
					return nil, fmt.Errorf("%w: batch[%d]: output id %d", ErrUnknownNodeID, in.index, out)
				}
			}
			committed = true
			outputs = make([]NodeID, len(in.ids))
			copy(outputs, in.ids)
		case opDeleteNode:
			if _, ok := nodes[in.id]; !ok {
				return nil, fmt.Errorf("%w: batch[%d]: id %d", ErrUnknownNodeID, in.index, in.id)
			}
			delete(nodes, in.id)
			delete(children, in.id)
		}
	}

	// Stage the property writes: validation and expensive derivation
	// happen now, mutation is deferred until the whole batch is known
	// good.
	applies := make([]func(), 0, len(sets))
	for _, in := range sets {
		n, ok := nodes[in.id]
		if !ok {
			// a later deleteNode removed the target; the write has no
			// observable effect
			continue
		}
		apply, err := n.SetProperty(in.key, in.val, b.resources)
		if err != nil {
			return nil, fmt.Errorf("batch[%d]: node %d, key %q: %w", in.index, in.id, in.key, err)
		}
		applies = append(applies, apply)
	}

	var topology *Topology
	if committed {
		// the committed topology reflects the batch's final structure;
		// dangling edges left by deletes surface here and abort the batch
		if topology, err = newTopology(nodes, children, outputs, b.blockSize); err != nil {
			return nil, err
		}
	}

	for _, apply := range applies {
		apply()
	}

	b.nodes = nodes
	b.children = children
	return topology, nil
}

// reachable reports whether target can be reached from any child of
// from. The pending graph is acyclic before every connect, so any new
// cycle must pass through the freshly connected node.
func reachable(children map[NodeID][]NodeID, from, target NodeID) bool {
	seen := make(map[NodeID]bool)
	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		for _, child := range children[id] {
			if child == target {
				return true
			}
			if !seen[child] {
				seen[child] = true
				if visit(child) {
					return true
				}
			}
		}
		return false
	}
	return visit(from)
}
