package builtin

import (
	"github.com/dudk/phonograph/graph"
)

// unaryNode applies a scalar function to its first input sample by
// sample.
type unaryNode struct {
	graph.Base
	fn func(float64) float64
}

func newUnary(fn func(float64) float64) graph.Factory {
	return func(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
		return &unaryNode{Base: graph.NewBase(id, sampleRate, blockSize), fn: fn}
	}
}

func (n *unaryNode) Process(ctx *graph.BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output, ctx.NumSamples)
		return
	}
	in := ctx.Inputs[0]
	out := ctx.Output[:ctx.NumSamples]
	for i := range out {
		out[i] = float32(n.fn(float64(in[i])))
	}
}

// reduceNode left-folds a binary operation across all of its inputs. A
// single input passes through unchanged.
type reduceNode struct {
	graph.Base
	fn func(a, b float32) float32
}

func newReduce(fn func(a, b float32) float32) graph.Factory {
	return func(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
		return &reduceNode{Base: graph.NewBase(id, sampleRate, blockSize), fn: fn}
	}
}

func (n *reduceNode) Process(ctx *graph.BlockContext) {
	if len(ctx.Inputs) == 0 {
		silence(ctx.Output, ctx.NumSamples)
		return
	}
	out := ctx.Output[:ctx.NumSamples]
	copy(out, ctx.Inputs[0])
	for _, in := range ctx.Inputs[1:] {
		for i := range out {
			out[i] = n.fn(out[i], in[i])
		}
	}
}
