// Package graph implements the processing graph of an audio engine: the
// node contract, the instruction protocol used to build and mutate the
// graph from the control context, and the committed topology rendered
// block by block on the audio context.
package graph

import (
	"github.com/dudk/phonograph/resource"
	"github.com/dudk/phonograph/value"
)

// NodeID identifies a node within one runtime instance. Ids are assigned
// by the caller building the graph and never reused while any part of the
// graph still references them.
type NodeID int64

// BlockContext carries everything a node may touch while rendering one
// block. All buffers hold at least NumSamples valid samples.
type BlockContext struct {
	// Inputs are the output buffers of connected children, in connection
	// order.
	Inputs [][]float32
	// Output is the node's own output buffer.
	Output []float32
	// External are the host-provided input channels for this block.
	External [][]float32
	// NumSamples is the block length in samples.
	NumSamples int
	// SampleRate is the rate the runtime was prepared with.
	SampleRate float64
	// SampleTime is the index of the block's first sample since prepare
	// or the last reset.
	SampleTime int64
}

// Node is a single processing stage.
//
// SetProperty and Reset run on the control context and may allocate or
// block. SetProperty validates val for key and returns the function that
// applies the write; nothing observable changes until that function
// runs. Expensive derived state is built during validation and adopted
// by the audio context through a handoff queue when the write applies.
// The split lets an instruction batch stage every property write and
// apply them only once all of them validated. Process runs on the audio
// context, back-to-back once per block, and must not allocate, lock or
// perform unbounded work. A node lacking usable state or input must
// write silence rather than fail.
type Node interface {
	ID() NodeID
	SetProperty(key string, val value.Value, res *resource.Map) (func(), error)
	Process(ctx *BlockContext)
	Reset()
}

// EventSource is implemented by nodes that emit events while rendering.
// DrainEvents is called on the control context and must invoke emit once
// per queued event, in emission order, leaving the queue empty.
type EventSource interface {
	DrainEvents(emit func(eventType string, payload value.Value))
}

// Base carries the identity and property store shared by node variants.
// It is meant to be embedded.
type Base struct {
	id         NodeID
	sampleRate float64
	blockSize  int
	props      map[string]value.Value
}

// NewBase returns a base for the given identity and render configuration.
func NewBase(id NodeID, sampleRate float64, blockSize int) Base {
	return Base{
		id:         id,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		props:      make(map[string]value.Value),
	}
}

// ID returns the node id.
func (b *Base) ID() NodeID {
	return b.id
}

// SampleRate returns the rate the node was created for.
func (b *Base) SampleRate() float64 {
	return b.sampleRate
}

// BlockSize returns the maximum block size the node was created for.
func (b *Base) BlockSize() int {
	return b.blockSize
}

// SetProperty stores the value in the property store once the returned
// function runs, last write wins. Variants wrap it to validate known
// keys and derive state, chaining the returned apply to keep the store
// current.
func (b *Base) SetProperty(key string, val value.Value, _ *resource.Map) (func(), error) {
	return func() { b.props[key] = val }, nil
}

// Property returns the stored value for key.
func (b *Base) Property(key string) (value.Value, bool) {
	v, ok := b.props[key]
	return v, ok
}

// Reset does nothing; variants with internal render state override it.
func (b *Base) Reset() {}
