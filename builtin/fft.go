package builtin

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/dudk/phonograph/graph"
	"github.com/dudk/phonograph/handoff"
	"github.com/dudk/phonograph/resource"
	"github.com/dudk/phonograph/value"
)

const (
	defaultFFTSize = 1024
	minFFTSize     = 32
	maxFFTSize     = 32768

	fftEventCapacity = 8
	// fftSlotCount matches fftEventCapacity: every spectrum slot taken
	// off the free list has room in the event queue, and a slot is
	// reused only after a drain hands it back.
	fftSlotCount = fftEventCapacity
)

// fftState is the renderable state of an fft node for one window size.
// It is built on the control context and adopted through a handoff
// queue, since plan construction is not render-safe.
//
// Spectrum slots circulate between the contexts through the free queue:
// the render side pops a slot, fills it and queues the event; the drain
// side copies the payload out and pushes the slot back.
type fftState struct {
	size   int
	plan   *algofft.Plan[complex64]
	window []float32
	fill   int
	free   *handoff.Queue[[]complex64]
	// spare holds a slot whose event did not fit in the queue. Render
	// context only.
	spare []complex64
}

func newFFTState(size int) (*fftState, error) {
	plan, err := algofft.NewPlanT[complex64](size)
	if err != nil {
		return nil, err
	}
	free := handoff.New[[]complex64](fftSlotCount)
	for i := 0; i < fftSlotCount; i++ {
		free.Push(make([]complex64, size))
	}
	return &fftState{
		size:   size,
		plan:   plan,
		window: make([]float32, size),
		free:   free,
	}, nil
}

// fftEvent carries a spectrum slot on loan from its state's free queue.
// Conversion to a dynamic value happens at drain time, on the control
// context, and the slot goes back through free once copied out.
type fftEvent struct {
	data []complex64
	time int64
	free *handoff.Queue[[]complex64]
}

// fftNode passes its first input through while accumulating it into
// windows of "size" samples; every full window is transformed and queued
// as an "fft" event carrying the real and imaginary spectrum halves.
type fftNode struct {
	graph.Base
	states *handoff.Queue[*fftState]
	state  *fftState
	events *handoff.Queue[fftEvent]
}

func newFFT(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	n := &fftNode{
		Base:   graph.NewBase(id, sampleRate, blockSize),
		states: handoff.New[*fftState](4),
		events: handoff.New[fftEvent](fftEventCapacity),
	}
	// factories run on the control context before the node renders, so
	// the default state can be installed directly
	n.state, _ = newFFTState(defaultFFTSize)
	return n
}

func (n *fftNode) SetProperty(key string, val value.Value, res *resource.Map) (func(), error) {
	apply, err := n.Base.SetProperty(key, val, res)
	if err != nil {
		return nil, err
	}
	if key == "size" {
		size, err := val.AsNumber()
		if err != nil {
			return nil, fmt.Errorf("%w: size prop must be a number", graph.ErrInvalidProperty)
		}
		s := int(size)
		if float64(s) != size || s < minFFTSize || s > maxFFTSize || s&(s-1) != 0 {
			return nil, fmt.Errorf("%w: size prop must be a power of two in [%d, %d]", graph.ErrInvalidProperty, minFFTSize, maxFFTSize)
		}
		state, err := newFFTState(s)
		if err != nil {
			return nil, fmt.Errorf("%w: size %d: %v", graph.ErrInvalidProperty, s, err)
		}
		return func() {
			apply()
			n.states.Push(state)
		}, nil
	}
	return apply, nil
}

func (n *fftNode) Process(ctx *graph.BlockContext) {
	n.states.Drain(&n.state)

	if len(ctx.Inputs) == 0 || n.state == nil {
		silence(ctx.Output, ctx.NumSamples)
		return
	}
	in := ctx.Inputs[0]
	out := ctx.Output[:ctx.NumSamples]
	s := n.state
	for i := range out {
		out[i] = in[i]
		s.window[s.fill] = in[i]
		s.fill++
		if s.fill == s.size {
			s.fill = 0
			n.transform(ctx.SampleTime + int64(i))
		}
	}
}

// transform runs the plan on the accumulated window into a free spectrum
// slot and queues the event. No allocation: plans and slots are prebuilt,
// and a window is dropped when every slot is still waiting to be drained.
func (n *fftNode) transform(time int64) {
	s := n.state
	slot := s.spare
	s.spare = nil
	if slot == nil && !s.free.TryPop(&slot) {
		return
	}
	for i, v := range s.window {
		slot[i] = complex(v, 0)
	}
	// sizes match, Forward cannot fail
	_ = s.plan.Forward(slot, slot)
	if !n.events.Push(fftEvent{data: slot, time: time, free: s.free}) {
		// the queue is full of an older state's events; keep the slot
		// for the next window
		s.spare = slot
	}
}

func (n *fftNode) Reset() {
	n.states.Drain(&n.state)
	if n.state != nil {
		n.state.fill = 0
	}
}

func (n *fftNode) DrainEvents(emit func(eventType string, payload value.Value)) {
	var e fftEvent
	for n.events.TryPop(&e) {
		re := make([]float32, len(e.data))
		im := make([]float32, len(e.data))
		for i, c := range e.data {
			re[i] = real(c)
			im[i] = imag(c)
		}
		e.free.Push(e.data)
		emit("fft", value.Object(map[string]value.Value{
			"size": value.Number(float64(len(e.data))),
			"time": value.Number(float64(e.time)),
			"real": value.Floats(re),
			"imag": value.Floats(im),
		}))
	}
}
