package builtin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/phonograph/graph"
	"github.com/dudk/phonograph/value"
)

type emitted struct {
	eventType string
	payload   value.Value
}

func drain(t *testing.T, n graph.Node) []emitted {
	t.Helper()
	src, ok := n.(graph.EventSource)
	require.True(t, ok)
	var got []emitted
	src.DrainEvents(func(eventType string, payload value.Value) {
		got = append(got, emitted{eventType, payload})
	})
	return got
}

func TestMetro(t *testing.T) {
	// 1 kHz sample rate makes the interval property count samples
	n := newMetro(1, 1000, testBlockSize)
	require.NoError(t, setProp(t, n, "interval", value.Number(4), nil))

	ctx := &graph.BlockContext{
		Output:     make([]float32, testBlockSize),
		NumSamples: testBlockSize,
		SampleRate: 1000,
		SampleTime: 100,
	}
	n.Process(ctx)
	assert.Equal(t, []float32{1, 0, 0, 0, 1, 0, 0, 0}, ctx.Output)

	events := drain(t, n)
	require.Len(t, events, 2)
	assert.Equal(t, "metro", events[0].eventType)
	assert.True(t, value.Equal(value.Number(100), events[0].payload.Field("time")))
	assert.True(t, value.Equal(value.Number(104), events[1].payload.Field("time")))

	// draining is idempotent
	assert.Empty(t, drain(t, n))
}

func TestMetroInvalidInterval(t *testing.T) {
	n := newMetro(1, testSampleRate, testBlockSize)
	err := setProp(t, n, "interval", value.Number(0), nil)
	assert.True(t, errors.Is(err, graph.ErrInvalidProperty))
	err = setProp(t, n, "interval", value.String("fast"), nil)
	assert.True(t, errors.Is(err, graph.ErrInvalidProperty))
}

func TestMeter(t *testing.T) {
	n := newMeter(1, testSampleRate, testBlockSize)
	require.NoError(t, setProp(t, n, "name", value.String("master"), nil))

	in := []float32{0.1, -0.5, 0.9, 0}
	ctx := &graph.BlockContext{
		Inputs:     [][]float32{in},
		Output:     make([]float32, testBlockSize),
		NumSamples: 4,
		SampleRate: testSampleRate,
		SampleTime: 42,
	}
	n.Process(ctx)
	assert.Equal(t, in, ctx.Output[:4], "meter passes its input through")

	events := drain(t, n)
	require.Len(t, events, 1)
	assert.Equal(t, "meter", events[0].eventType)
	p := events[0].payload
	assert.True(t, value.Equal(value.Number(-0.5), p.Field("min")))
	assert.True(t, value.Equal(value.Number(float64(float32(0.9))), p.Field("max")))
	assert.True(t, value.Equal(value.Number(42), p.Field("time")))
	assert.True(t, value.Equal(value.String("master"), p.Field("source")))

	assert.Empty(t, drain(t, n))
}

func TestMeterNoInput(t *testing.T) {
	n := newMeter(1, testSampleRate, testBlockSize)
	ctx := &graph.BlockContext{
		Output:     make([]float32, testBlockSize),
		NumSamples: testBlockSize,
		SampleRate: testSampleRate,
	}
	n.Process(ctx)
	assert.Equal(t, make([]float32, testBlockSize), ctx.Output)
	assert.Empty(t, drain(t, n))
}
