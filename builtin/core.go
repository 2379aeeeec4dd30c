package builtin

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/dudk/phonograph/graph"
	"github.com/dudk/phonograph/resource"
	"github.com/dudk/phonograph/value"
)

// inNode feeds a host input channel into the graph. The channel index is
// selected with the "channel" property and defaults to 0.
type inNode struct {
	graph.Base
	channel atomic.Int32
}

func newIn(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	return &inNode{Base: graph.NewBase(id, sampleRate, blockSize)}
}

func (n *inNode) SetProperty(key string, val value.Value, res *resource.Map) (func(), error) {
	apply, err := n.Base.SetProperty(key, val, res)
	if err != nil {
		return nil, err
	}
	if key == "channel" {
		ch, err := val.AsNumber()
		if err != nil {
			return nil, fmt.Errorf("%w: channel prop must be a number", graph.ErrInvalidProperty)
		}
		if ch != math.Trunc(ch) || ch < 0 {
			return nil, fmt.Errorf("%w: channel prop must be a non-negative integer", graph.ErrInvalidProperty)
		}
		return func() {
			apply()
			n.channel.Store(int32(ch))
		}, nil
	}
	return apply, nil
}

func (n *inNode) Process(ctx *graph.BlockContext) {
	ch := int(n.channel.Load())
	if ch >= len(ctx.External) || ctx.External[ch] == nil {
		silence(ctx.Output, ctx.NumSamples)
		return
	}
	copy(ctx.Output[:ctx.NumSamples], ctx.External[ch])
}

// constNode outputs the "value" property as a constant signal.
type constNode struct {
	graph.Base
	value atomicFloat64
}

func newConst(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	return &constNode{Base: graph.NewBase(id, sampleRate, blockSize)}
}

func (n *constNode) SetProperty(key string, val value.Value, res *resource.Map) (func(), error) {
	apply, err := n.Base.SetProperty(key, val, res)
	if err != nil {
		return nil, err
	}
	if key == "value" {
		v, err := val.AsNumber()
		if err != nil {
			return nil, fmt.Errorf("%w: value prop must be a number", graph.ErrInvalidProperty)
		}
		return func() {
			apply()
			n.value.Store(v)
		}, nil
	}
	return apply, nil
}

func (n *constNode) Process(ctx *graph.BlockContext) {
	v := float32(n.value.Load())
	out := ctx.Output[:ctx.NumSamples]
	for i := range out {
		out[i] = v
	}
}

// sampleRateNode outputs the prepared sample rate.
type sampleRateNode struct {
	graph.Base
}

func newSampleRate(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	return &sampleRateNode{Base: graph.NewBase(id, sampleRate, blockSize)}
}

func (n *sampleRateNode) Process(ctx *graph.BlockContext) {
	v := float32(ctx.SampleRate)
	out := ctx.Output[:ctx.NumSamples]
	for i := range out {
		out[i] = v
	}
}

// timeNode outputs the sample counter: sample i of a block holds
// SampleTime+i.
type timeNode struct {
	graph.Base
}

func newTime(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	return &timeNode{Base: graph.NewBase(id, sampleRate, blockSize)}
}

func (n *timeNode) Process(ctx *graph.BlockContext) {
	out := ctx.Output[:ctx.NumSamples]
	for i := range out {
		out[i] = float32(ctx.SampleTime + int64(i))
	}
}

// phasorNode outputs a 0..1 ramp at the frequency given by its first
// input, sampled per sample.
type phasorNode struct {
	graph.Base
	phase float64
}

func newPhasor(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	return &phasorNode{Base: graph.NewBase(id, sampleRate, blockSize)}
}

func (n *phasorNode) Process(ctx *graph.BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output, ctx.NumSamples)
		return
	}
	freq := ctx.Inputs[0]
	out := ctx.Output[:ctx.NumSamples]
	for i := range out {
		out[i] = float32(n.phase)
		n.phase += float64(freq[i]) / ctx.SampleRate
		n.phase -= math.Floor(n.phase)
	}
}

func (n *phasorNode) Reset() {
	n.phase = 0
}

// counterNode counts samples while its gate input is high and rewinds to
// zero when the gate drops.
type counterNode struct {
	graph.Base
	count float64
}

func newCounter(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	return &counterNode{Base: graph.NewBase(id, sampleRate, blockSize)}
}

func (n *counterNode) Process(ctx *graph.BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output, ctx.NumSamples)
		return
	}
	gate := ctx.Inputs[0]
	out := ctx.Output[:ctx.NumSamples]
	for i := range out {
		if gate[i] > 0 {
			n.count++
		} else {
			n.count = 0
		}
		out[i] = float32(n.count)
	}
}

func (n *counterNode) Reset() {
	n.count = 0
}

// singleSampleDelayNode delays its first input by exactly one sample.
type singleSampleDelayNode struct {
	graph.Base
	z1 float32
}

func newSingleSampleDelay(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	return &singleSampleDelayNode{Base: graph.NewBase(id, sampleRate, blockSize)}
}

func (n *singleSampleDelayNode) Process(ctx *graph.BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output, ctx.NumSamples)
		return
	}
	in := ctx.Inputs[0]
	out := ctx.Output[:ctx.NumSamples]
	for i := range out {
		next := in[i]
		out[i] = n.z1
		n.z1 = next
	}
}

func (n *singleSampleDelayNode) Reset() {
	n.z1 = 0
}
