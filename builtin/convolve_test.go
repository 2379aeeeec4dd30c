package builtin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/phonograph/graph"
	"github.com/dudk/phonograph/resource"
	"github.com/dudk/phonograph/value"
)

func TestConvolveImpulseResponse(t *testing.T) {
	res := resource.NewMap()
	res.Put("/ir/test", []float32{1, 0.5, 0.25})

	n := newConvolve(1, testSampleRate, 256).(*convolveNode)
	require.NoError(t, setProp(t, n, "path", value.String("/ir/test"), res))

	in := make([]float32, 256)
	in[0] = 1
	ctx := &graph.BlockContext{
		Inputs:     [][]float32{in},
		Output:     make([]float32, 256),
		NumSamples: 256,
		SampleRate: testSampleRate,
	}
	n.Process(ctx)

	// the engine delays its output by Latency() samples
	lat := n.Latency()
	for i := 0; i < lat; i++ {
		assert.InDelta(t, 0, ctx.Output[i], 1e-4, "pre-latency sample %d", i)
	}
	assert.InDelta(t, 1, ctx.Output[lat], 1e-3)
	assert.InDelta(t, 0.5, ctx.Output[lat+1], 1e-3)
	assert.InDelta(t, 0.25, ctx.Output[lat+2], 1e-3)
	for i := lat + 3; i < 256; i++ {
		assert.InDelta(t, 0, ctx.Output[i], 1e-4, "tail sample %d", i)
	}
}

func TestConvolveWithoutImpulseResponse(t *testing.T) {
	n := newConvolve(1, testSampleRate, testBlockSize)
	in := []float32{1, 1, 1, 1}
	ctx := &graph.BlockContext{
		Inputs:     [][]float32{in},
		Output:     []float32{9, 9, 9, 9},
		NumSamples: 4,
		SampleRate: testSampleRate,
	}
	n.Process(ctx)
	assert.Equal(t, []float32{0, 0, 0, 0}, ctx.Output)
}

func TestConvolvePathErrors(t *testing.T) {
	res := resource.NewMap()
	n := newConvolve(1, testSampleRate, testBlockSize).(*convolveNode)

	err := setProp(t, n, "path", value.Number(1), res)
	assert.True(t, errors.Is(err, graph.ErrInvalidProperty))

	err = setProp(t, n, "path", value.String("/missing"), res)
	assert.True(t, errors.Is(err, resource.ErrNotFound))

	// failed property writes leave no convolver behind
	ctx := &graph.BlockContext{
		Inputs:     [][]float32{{1, 1}},
		Output:     make([]float32, testBlockSize),
		NumSamples: 2,
		SampleRate: testSampleRate,
	}
	n.Process(ctx)
	assert.Nil(t, n.convolver)
}

func TestConvolveReset(t *testing.T) {
	res := resource.NewMap()
	res.Put("/ir/test", []float32{1})

	n := newConvolve(1, testSampleRate, 128).(*convolveNode)
	require.NoError(t, setProp(t, n, "path", value.String("/ir/test"), res))

	in := make([]float32, 128)
	for i := range in {
		in[i] = 1
	}
	ctx := &graph.BlockContext{
		Inputs:     [][]float32{in},
		Output:     make([]float32, 128),
		NumSamples: 128,
		SampleRate: testSampleRate,
	}
	n.Process(ctx)
	n.Reset()

	// after a reset the engine behaves as if no signal was ever rendered
	n.Process(ctx)
	lat := n.Latency()
	for i := 0; i < lat; i++ {
		assert.InDelta(t, 0, ctx.Output[i], 1e-4, "sample %d", i)
	}
	assert.InDelta(t, 1, ctx.Output[lat], 1e-3)
}
