// Package builtin implements the default node variants of the engine:
// signal sources, math, analyzers, the metronome and the FFT/convolution
// nodes. Register binds them all to their string tags.
package builtin

import (
	"math"
	"sync/atomic"

	"github.com/dudk/phonograph/graph"
)

// Register binds every builtin node kind to registry.
func Register(registry *graph.Registry) {
	// sources and core
	registry.Register("in", newIn)
	registry.Register("const", newConst)
	registry.Register("sr", newSampleRate)
	registry.Register("time", newTime)
	registry.Register("phasor", newPhasor)
	registry.Register("counter", newCounter)
	registry.Register("z", newSingleSampleDelay)

	// unary math
	registry.Register("sin", newUnary(math.Sin))
	registry.Register("cos", newUnary(math.Cos))
	registry.Register("tanh", newUnary(math.Tanh))
	registry.Register("ln", newUnary(math.Log))
	registry.Register("log", newUnary(math.Log10))
	registry.Register("log2", newUnary(math.Log2))
	registry.Register("sqrt", newUnary(math.Sqrt))
	registry.Register("exp", newUnary(math.Exp))
	registry.Register("abs", newUnary(math.Abs))
	registry.Register("floor", newUnary(math.Floor))
	registry.Register("ceil", newUnary(math.Ceil))

	// reducing binary math
	registry.Register("add", newReduce(func(a, b float32) float32 { return a + b }))
	registry.Register("sub", newReduce(func(a, b float32) float32 { return a - b }))
	registry.Register("mul", newReduce(func(a, b float32) float32 { return a * b }))
	registry.Register("div", newReduce(safeDiv))
	registry.Register("min", newReduce(min32))
	registry.Register("max", newReduce(max32))

	// analyzers and clocks
	registry.Register("meter", newMeter)
	registry.Register("metro", newMetro)

	// heavyweight DSP
	registry.Register("convolve", newConvolve)
	registry.Register("fft", newFFT)
}

func safeDiv(a, b float32) float32 {
	if b == 0 {
		return 0
	}
	return a / b
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func silence(out []float32, numSamples int) {
	clear(out[:numSamples])
}

// atomicFloat64 is a lock-free float cell for small scalar properties
// written by the control context and read during rendering.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (f *atomicFloat64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}
