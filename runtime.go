// Package phonograph implements a real-time audio engine around a
// dynamic signal processing graph. A host drives it from two sides: a
// control goroutine mutates the graph with instruction batches and
// collects node events, while an audio goroutine renders fixed-size
// sample blocks. The two sides never share mutable state directly; new
// topologies and node state cross over through single-producer
// single-consumer queues and an atomic topology pointer.
package phonograph

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/xid"

	"github.com/dudk/phonograph/builtin"
	"github.com/dudk/phonograph/graph"
	"github.com/dudk/phonograph/log"
	"github.com/dudk/phonograph/resource"
	"github.com/dudk/phonograph/value"
)

// Default render configuration used when Prepare is given zero values.
const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = 512
)

// ErrInvalidState is returned if a runtime method cannot be executed at
// this moment.
var ErrInvalidState = errors.New("invalid state")

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}

// Runtime owns a processing graph and renders it block by block.
//
// Graph-mutating methods and event draining belong to the control
// goroutine; Process belongs to the audio goroutine and never blocks,
// locks or allocates. Only this split is safe: two goroutines calling
// ApplyInstructions concurrently are not.
type Runtime struct {
	uid        string
	registry   *graph.Registry
	resources  *resource.Map
	log        log.Logger
	sampleRate float64
	blockSize  int

	builder *graph.Builder
	current atomic.Pointer[graph.Topology]

	// sampleTime is owned by the audio goroutine between Prepare calls.
	sampleTime int64
}

// Option provides a way to set functional parameters to a runtime.
type Option func(r *Runtime) error

// WithLogger overrides the default logger.
func WithLogger(l log.Logger) Option {
	return func(r *Runtime) error {
		r.log = l
		return nil
	}
}

// WithNodeType binds an additional node kind, or overrides a builtin
// one.
func WithNodeType(kind string, factory graph.Factory) Option {
	return func(r *Runtime) error {
		r.registry.Register(kind, factory)
		return nil
	}
}

// New creates a runtime with every builtin node kind registered and
// applies provided options. The runtime renders silence until Prepare
// and a committing instruction batch.
func New(options ...Option) (*Runtime, error) {
	r := &Runtime{
		uid:       newUID(),
		registry:  graph.NewRegistry(),
		resources: resource.NewMap(),
		log:       log.GetLogger(),
	}
	builtin.Register(r.registry)
	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Prepare fixes the render configuration and resets the graph. Zero
// arguments select the defaults. Any previously committed topology is
// dropped; nodes must be built again with fresh instruction batches.
func (r *Runtime) Prepare(sampleRate float64, blockSize int) error {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	if sampleRate < 0 || blockSize < 0 {
		return fmt.Errorf("%w: sample rate %v, block size %d", ErrInvalidState, sampleRate, blockSize)
	}
	r.sampleRate = sampleRate
	r.blockSize = blockSize
	r.builder = graph.NewBuilder(r.registry, r.resources, sampleRate, blockSize)
	r.current.Store(nil)
	r.sampleTime = 0
	r.log.Debug(fmt.Sprintf("%v prepared: %v Hz, block %d", r, sampleRate, blockSize))
	return nil
}

// ApplyInstructions processes one instruction batch on the control
// goroutine. The batch applies all-or-nothing: on error the pending
// graph keeps its previous state and the rendered topology stays
// untouched. If the batch commits, the new topology is published for
// adoption at the next block boundary.
func (r *Runtime) ApplyInstructions(batch []value.Value) error {
	if r.builder == nil {
		return fmt.Errorf("%w: not prepared", ErrInvalidState)
	}
	topology, err := r.builder.Apply(batch)
	if err != nil {
		return err
	}
	if topology != nil {
		r.current.Store(topology)
		r.log.Debug(fmt.Sprintf("%v committed: %d steps, %d outputs", r, topology.NumSteps(), topology.NumOutputs()))
	}
	return nil
}

// Process renders the next block into outputs on the audio goroutine.
// external carries host input channels, outputs receives one channel
// per committed output node; extra channels are filled with silence.
// numSamples is capped at the prepared block size.
func (r *Runtime) Process(external, outputs [][]float32, numSamples int) {
	if numSamples > r.blockSize {
		numSamples = r.blockSize
	}
	if numSamples < 0 {
		numSamples = 0
	}
	if t := r.current.Load(); t != nil {
		t.Render(external, outputs, numSamples, r.sampleRate, r.sampleTime)
	} else {
		for ch := range outputs {
			clear(outputs[ch][:numSamples])
		}
	}
	r.sampleTime += int64(numSamples)
}

// ProcessQueuedEvents drains the event queues of the rendered topology
// on the control goroutine, invoking emit once per event. Events of one
// node arrive in emission order; draining twice without rendering in
// between emits nothing the second time.
func (r *Runtime) ProcessQueuedEvents(emit func(eventType string, payload value.Value)) {
	if t := r.current.Load(); t != nil {
		t.DrainEvents(emit)
	}
}

// UpdateResource stores a sample buffer under path in the shared
// resource map, replacing any previous entry. Nodes referencing the
// path pick the new buffer up on their next property write.
func (r *Runtime) UpdateResource(path string, data []float32) error {
	if path == "" {
		return fmt.Errorf("%w: empty resource path", ErrInvalidState)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty resource buffer %q", ErrInvalidState, path)
	}
	r.resources.Put(path, data)
	r.log.Debug(fmt.Sprintf("%v resource %q: %d samples", r, path, len(data)))
	return nil
}

// LoadResource reads a wav file, mixes it down to one channel and
// stores it under path.
func (r *Runtime) LoadResource(path, file string) error {
	data, _, err := resource.LoadWAV(file)
	if err != nil {
		return err
	}
	return r.UpdateResource(path, data)
}

// Reset rewinds the sample clock and every node's render state: delays
// flush, phases and counters rewind. Graph structure and properties are
// kept. Control goroutine only, with rendering paused.
func (r *Runtime) Reset() {
	if r.builder == nil {
		return
	}
	for _, n := range r.builder.Nodes() {
		n.Reset()
	}
	r.sampleTime = 0
}

// SampleRate returns the prepared sample rate.
func (r *Runtime) SampleRate() float64 {
	return r.sampleRate
}

// BlockSize returns the prepared block size.
func (r *Runtime) BlockSize() int {
	return r.blockSize
}

func (r *Runtime) String() string {
	return "phonograph " + r.uid
}
