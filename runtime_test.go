package phonograph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	phonograph "github.com/dudk/phonograph"
	"github.com/dudk/phonograph/graph"
	"github.com/dudk/phonograph/value"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func createNode(kind string, id float64) value.Value {
	return value.Array(value.String("createNode"), value.String(kind), value.Number(id))
}

func setProperty(id float64, key string, val value.Value) value.Value {
	return value.Array(value.String("setProperty"), value.Number(id), value.String(key), val)
}

func connect(id float64, children ...value.Value) value.Value {
	return value.Array(value.String("connect"), value.Number(id), value.Array(children...))
}

func commit(outputs ...value.Value) value.Value {
	return value.Array(value.String("commit"), value.Array(outputs...))
}

func deleteNode(id float64) value.Value {
	return value.Array(value.String("deleteNode"), value.Number(id))
}

func newRuntime(t *testing.T, sampleRate float64, blockSize int) *phonograph.Runtime {
	t.Helper()
	r, err := phonograph.New()
	require.NoError(t, err)
	require.NoError(t, r.Prepare(sampleRate, blockSize))
	return r
}

func render(r *phonograph.Runtime, numSamples int) []float32 {
	out := make([]float32, numSamples)
	r.Process(nil, [][]float32{out}, numSamples)
	return out
}

func TestApplyBeforePrepare(t *testing.T) {
	r, err := phonograph.New()
	require.NoError(t, err)
	err = r.ApplyInstructions([]value.Value{commit()})
	assert.ErrorIs(t, err, phonograph.ErrInvalidState)
}

func TestSilenceBeforeCommit(t *testing.T) {
	r := newRuntime(t, 44100, 8)
	out := []float32{9, 9, 9, 9, 9, 9, 9, 9}
	r.Process(nil, [][]float32{out}, 8)
	assert.Equal(t, make([]float32, 8), out)
}

func TestConstGraph(t *testing.T) {
	r := newRuntime(t, 44100, 8)
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("const", 1),
		setProperty(1, "value", value.Number(0.5)),
		commit(value.Number(1)),
	}))
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, render(r, 8))
}

func TestEmptyCommitRendersSilence(t *testing.T) {
	r := newRuntime(t, 44100, 8)
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("const", 1),
		setProperty(1, "value", value.Number(1)),
		commit(value.Number(1)),
	}))
	assert.NotEqual(t, make([]float32, 8), render(r, 8))

	require.NoError(t, r.ApplyInstructions([]value.Value{commit()}))
	assert.Equal(t, make([]float32, 8), render(r, 8))
}

func TestDeterministicRendering(t *testing.T) {
	batch := []value.Value{
		createNode("const", 1),
		setProperty(1, "value", value.Number(441)),
		createNode("phasor", 2),
		connect(2, value.Number(1)),
		createNode("sin", 3),
		connect(3, value.Number(2)),
		commit(value.Number(3)),
	}

	a := newRuntime(t, 44100, 64)
	b := newRuntime(t, 44100, 64)
	require.NoError(t, a.ApplyInstructions(batch))
	require.NoError(t, b.ApplyInstructions(batch))

	for block := 0; block < 4; block++ {
		assert.Equal(t, render(a, 64), render(b, 64), "block %d", block)
	}
}

func TestFailedBatchKeepsTopology(t *testing.T) {
	r := newRuntime(t, 44100, 8)
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("const", 1),
		setProperty(1, "value", value.Number(0.5)),
		commit(value.Number(1)),
	}))

	err := r.ApplyInstructions([]value.Value{
		createNode("add", 2),
		createNode("add", 3),
		connect(2, value.Number(3)),
		connect(3, value.Number(2)),
		commit(value.Number(2)),
	})
	assert.ErrorIs(t, err, graph.ErrCyclicGraph)

	// previous topology keeps rendering
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, render(r, 8))
}

func TestFailedBatchRollsBackEverything(t *testing.T) {
	r := newRuntime(t, 44100, 8)
	err := r.ApplyInstructions([]value.Value{
		createNode("const", 1),
		setProperty(1, "value", value.String("loud")),
	})
	assert.ErrorIs(t, err, graph.ErrInvalidProperty)

	// the createNode must have rolled back with the batch
	err = r.ApplyInstructions([]value.Value{createNode("const", 1)})
	assert.NoError(t, err)
}

func TestFailedBatchKeepsNodeProperties(t *testing.T) {
	r := newRuntime(t, 44100, 8)
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("const", 1),
		setProperty(1, "value", value.Number(0.5)),
		commit(value.Number(1)),
	}))

	// the first write validates, the second fails the batch; neither
	// may land on the committed node
	err := r.ApplyInstructions([]value.Value{
		setProperty(1, "value", value.Number(0.25)),
		setProperty(1, "value", value.String("loud")),
	})
	assert.ErrorIs(t, err, graph.ErrInvalidProperty)
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, render(r, 8))
}

func TestProcessZeroSamples(t *testing.T) {
	r := newRuntime(t, 44100, 4)
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("time", 1),
		commit(value.Number(1)),
	}))

	out := []float32{9, 9, 9, 9}
	r.Process(nil, [][]float32{out}, 0)
	assert.Equal(t, []float32{9, 9, 9, 9}, out, "zero samples writes nothing")

	// the sample clock did not advance either
	assert.Equal(t, []float32{0, 1, 2, 3}, render(r, 4))
}

func TestDeleteNodeInvalidatesEdges(t *testing.T) {
	r := newRuntime(t, 44100, 8)
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("const", 1),
		createNode("sin", 2),
		connect(2, value.Number(1)),
		commit(value.Number(2)),
	}))

	err := r.ApplyInstructions([]value.Value{
		deleteNode(1),
		commit(value.Number(2)),
	})
	assert.ErrorIs(t, err, graph.ErrUnknownNodeID)
}

func TestMultiChannelOutputs(t *testing.T) {
	r := newRuntime(t, 44100, 4)
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("const", 1),
		setProperty(1, "value", value.Number(0.25)),
		createNode("const", 2),
		setProperty(2, "value", value.Number(0.75)),
		commit(value.Number(1), value.Number(2)),
	}))

	left := make([]float32, 4)
	right := make([]float32, 4)
	extra := []float32{9, 9, 9, 9}
	r.Process(nil, [][]float32{left, right, extra}, 4)
	assert.Equal(t, []float32{0.25, 0.25, 0.25, 0.25}, left)
	assert.Equal(t, []float32{0.75, 0.75, 0.75, 0.75}, right)
	assert.Equal(t, []float32{0, 0, 0, 0}, extra, "output channels without a node render silence")
}

func TestExternalInput(t *testing.T) {
	r := newRuntime(t, 44100, 4)
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("in", 1),
		setProperty(1, "channel", value.Number(1)),
		createNode("mul", 2),
		createNode("const", 3),
		setProperty(3, "value", value.Number(2)),
		connect(2, value.Number(1), value.Number(3)),
		commit(value.Number(2)),
	}))

	out := make([]float32, 4)
	external := [][]float32{{9, 9, 9, 9}, {1, 2, 3, 4}}
	r.Process(external, [][]float32{out}, 4)
	assert.Equal(t, []float32{2, 4, 6, 8}, out)
}

func TestEventOrdering(t *testing.T) {
	// 1 kHz sample rate makes the interval property count samples
	r := newRuntime(t, 1000, 16)
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("metro", 1),
		setProperty(1, "interval", value.Number(4)),
		commit(value.Number(1)),
	}))
	render(r, 16)

	var times []float64
	r.ProcessQueuedEvents(func(eventType string, payload value.Value) {
		require.Equal(t, "metro", eventType)
		v, err := payload.Field("time").AsNumber()
		require.NoError(t, err)
		times = append(times, v)
	})
	assert.Equal(t, []float64{0, 4, 8, 12}, times, "events arrive in emission order")

	// draining again emits nothing
	r.ProcessQueuedEvents(func(string, value.Value) {
		t.Fatal("queue must be empty after a drain")
	})
}

func TestConvolveEndToEnd(t *testing.T) {
	r := newRuntime(t, 44100, 256)
	require.NoError(t, r.UpdateResource("/ir/hall", []float32{1, 0.5, 0.25}))
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("in", 1),
		createNode("convolve", 2),
		setProperty(2, "path", value.String("/ir/hall")),
		connect(2, value.Number(1)),
		commit(value.Number(2)),
	}))

	impulse := make([]float32, 256)
	impulse[0] = 1
	out := make([]float32, 256)
	r.Process([][]float32{impulse}, [][]float32{out}, 256)

	// the convolution engine is 64 samples of latency deep
	for i := 0; i < 64; i++ {
		assert.InDelta(t, 0, out[i], 1e-4, "sample %d", i)
	}
	assert.InDelta(t, 1, out[64], 1e-3)
	assert.InDelta(t, 0.5, out[65], 1e-3)
	assert.InDelta(t, 0.25, out[66], 1e-3)
}

func TestMissingResource(t *testing.T) {
	r := newRuntime(t, 44100, 8)
	err := r.ApplyInstructions([]value.Value{
		createNode("convolve", 1),
		setProperty(1, "path", value.String("/ir/missing")),
		commit(value.Number(1)),
	})
	require.Error(t, err)

	// the batch failed before publishing; the runtime still renders
	// silence
	assert.Equal(t, make([]float32, 8), render(r, 8))
}

func TestReset(t *testing.T) {
	r := newRuntime(t, 44100, 4)
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("time", 1),
		commit(value.Number(1)),
	}))

	assert.Equal(t, []float32{0, 1, 2, 3}, render(r, 4))
	assert.Equal(t, []float32{4, 5, 6, 7}, render(r, 4))

	r.Reset()
	assert.Equal(t, []float32{0, 1, 2, 3}, render(r, 4), "reset rewinds the sample clock")
}

func TestUpdateResourceValidation(t *testing.T) {
	r := newRuntime(t, 44100, 8)
	assert.ErrorIs(t, r.UpdateResource("", []float32{1}), phonograph.ErrInvalidState)
	assert.ErrorIs(t, r.UpdateResource("/ir/empty", nil), phonograph.ErrInvalidState)
}

func TestCustomNodeType(t *testing.T) {
	r, err := phonograph.New(phonograph.WithNodeType("ones", func(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
		return &onesNode{Base: graph.NewBase(id, sampleRate, blockSize)}
	}))
	require.NoError(t, err)
	require.NoError(t, r.Prepare(44100, 4))
	require.NoError(t, r.ApplyInstructions([]value.Value{
		createNode("ones", 1),
		commit(value.Number(1)),
	}))
	assert.Equal(t, []float32{1, 1, 1, 1}, render(r, 4))
}

type onesNode struct {
	graph.Base
}

func (n *onesNode) Process(ctx *graph.BlockContext) {
	for i := 0; i < ctx.NumSamples; i++ {
		ctx.Output[i] = 1
	}
}
