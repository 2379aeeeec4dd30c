package graph

import (
	"fmt"

	"github.com/dudk/phonograph/value"
)

// Topology is a committed, immutable arrangement of nodes. Steps are held
// in dependency order so one pass over the slice evaluates every node
// after all of its inputs. The runtime swaps whole topologies atomically
// at block boundaries and never mutates one in place.
type Topology struct {
	steps   []*step
	outputs []*step // indexed by output channel; nil renders silence

	// scratch context reused across blocks to keep Render allocation-free
	ctx BlockContext
}

// step is one node scheduled for rendering, with its block buffers
// resolved: inputs alias the out buffers of earlier steps.
type step struct {
	node   Node
	inputs [][]float32
	out    []float32
}

// newTopology schedules the nodes reachable from outputs in dependency
// order and allocates their block buffers. Only reachable nodes render.
func newTopology(nodes map[NodeID]Node, children map[NodeID][]NodeID, outputs []NodeID, blockSize int) (*Topology, error) {
	t := &Topology{}
	scheduled := make(map[NodeID]*step, len(nodes))

	var visit func(id NodeID) (*step, error)
	visit = func(id NodeID) (*step, error) {
		if s, ok := scheduled[id]; ok {
			return s, nil
		}
		node, ok := nodes[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d referenced by a connection", ErrUnknownNodeID, id)
		}
		s := &step{
			node: node,
			out:  make([]float32, blockSize),
		}
		// mark before descending; the builder keeps the graph acyclic,
		// so this only serves child buffer resolution
		scheduled[id] = s
		for _, child := range children[id] {
			cs, err := visit(child)
			if err != nil {
				return nil, err
			}
			s.inputs = append(s.inputs, cs.out)
		}
		t.steps = append(t.steps, s)
		return s, nil
	}

	for _, out := range outputs {
		s, err := visit(out)
		if err != nil {
			return nil, err
		}
		t.outputs = append(t.outputs, s)
	}
	return t, nil
}

// NumSteps returns the number of scheduled nodes.
func (t *Topology) NumSteps() int {
	return len(t.steps)
}

// NumOutputs returns the number of designated output nodes.
func (t *Topology) NumOutputs() int {
	return len(t.outputs)
}

// Render evaluates every step exactly once in dependency order and
// copies the designated output nodes into the host buffers. Output
// channels without a node are filled with silence. Audio context only;
// performs no allocation.
func (t *Topology) Render(external, outputs [][]float32, numSamples int, sampleRate float64, sampleTime int64) {
	t.ctx.External = external
	t.ctx.NumSamples = numSamples
	t.ctx.SampleRate = sampleRate
	t.ctx.SampleTime = sampleTime

	for _, s := range t.steps {
		t.ctx.Inputs = s.inputs
		t.ctx.Output = s.out
		s.node.Process(&t.ctx)
	}

	for ch := range outputs {
		buf := outputs[ch][:numSamples]
		if ch < len(t.outputs) && t.outputs[ch] != nil {
			copy(buf, t.outputs[ch].out)
		} else {
			clear(buf)
		}
	}
}

// DrainEvents drains the event queues of every scheduled node, in
// schedule order, preserving per-node emission order. Control context
// only.
func (t *Topology) DrainEvents(emit func(eventType string, payload value.Value)) {
	for _, s := range t.steps {
		if es, ok := s.node.(EventSource); ok {
			es.DrainEvents(emit)
		}
	}
}
