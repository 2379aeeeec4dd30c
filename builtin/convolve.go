package builtin

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/conv"

	"github.com/dudk/phonograph/graph"
	"github.com/dudk/phonograph/handoff"
	"github.com/dudk/phonograph/resource"
	"github.com/dudk/phonograph/value"
)

const (
	// Partition orders of the convolution engine: the head partition is
	// 2^6 = 64 samples (also the engine latency), the tail grows up to
	// 2^12 = 4096 samples.
	convolveMinBlockOrder = 6
	convolveMaxBlockOrder = 12

	convolveQueueCapacity = 8
)

// convolveNode convolves its first input with an impulse response named
// by the "path" property.
//
// The partitioned convolver is built on the control context, where
// blocking on a long impulse response is fine, and handed to the audio
// context through an SPSC queue. Swapping the impulse response while
// playing causes a discontinuity: the freshly adopted convolver starts
// from empty history.
type convolveNode struct {
	graph.Base
	queue *handoff.Queue[*conv.PartitionedConvolution32]
	// convolver is owned by the audio context after adoption.
	convolver *conv.PartitionedConvolution32
}

func newConvolve(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	return &convolveNode{
		Base:  graph.NewBase(id, sampleRate, blockSize),
		queue: handoff.New[*conv.PartitionedConvolution32](convolveQueueCapacity),
	}
}

func (n *convolveNode) SetProperty(key string, val value.Value, res *resource.Map) (func(), error) {
	apply, err := n.Base.SetProperty(key, val, res)
	if err != nil {
		return nil, err
	}
	if key == "path" {
		path, err := val.AsString()
		if err != nil {
			return nil, fmt.Errorf("%w: path prop must be a string", graph.ErrInvalidProperty)
		}
		ir, err := res.Get(path)
		if err != nil {
			return nil, err
		}
		convolver, err := conv.NewPartitionedConvolution32(ir, convolveMinBlockOrder, convolveMaxBlockOrder)
		if err != nil {
			return nil, fmt.Errorf("%w: path %q: %v", graph.ErrInvalidProperty, path, err)
		}
		return func() {
			apply()
			n.queue.Push(convolver)
		}, nil
	}
	return apply, nil
}

func (n *convolveNode) Process(ctx *graph.BlockContext) {
	// adopt the most recent convolver first; intermediate ones are
	// discarded unrendered
	n.queue.Drain(&n.convolver)

	if len(ctx.Inputs) == 0 || n.convolver == nil {
		silence(ctx.Output, ctx.NumSamples)
		return
	}
	// lengths match, ProcessBlock cannot fail
	_ = n.convolver.ProcessBlock(ctx.Inputs[0][:ctx.NumSamples], ctx.Output[:ctx.NumSamples])
}

func (n *convolveNode) Reset() {
	n.queue.Drain(&n.convolver)
	if n.convolver != nil {
		n.convolver.Reset()
	}
}

// Latency returns the fixed processing delay of the convolution engine
// in samples.
func (n *convolveNode) Latency() int {
	return 1 << convolveMinBlockOrder
}
