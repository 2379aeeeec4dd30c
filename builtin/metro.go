package builtin

import (
	"fmt"

	"github.com/dudk/phonograph/graph"
	"github.com/dudk/phonograph/handoff"
	"github.com/dudk/phonograph/resource"
	"github.com/dudk/phonograph/value"
)

const (
	defaultMetroInterval = 1000 // ms
	metroEventCapacity   = 256
)

// metroEvent is the render-side record of one tick. Conversion to a
// dynamic value happens at drain time, on the control context.
type metroEvent struct {
	time int64
}

// metroNode outputs a single-sample pulse every "interval" milliseconds
// and queues a "metro" event per tick.
type metroNode struct {
	graph.Base
	interval  atomicFloat64
	countdown int64
	events    *handoff.Queue[metroEvent]
}

func newMetro(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	n := &metroNode{
		Base:   graph.NewBase(id, sampleRate, blockSize),
		events: handoff.New[metroEvent](metroEventCapacity),
	}
	n.interval.Store(defaultMetroInterval)
	return n
}

func (n *metroNode) SetProperty(key string, val value.Value, res *resource.Map) (func(), error) {
	apply, err := n.Base.SetProperty(key, val, res)
	if err != nil {
		return nil, err
	}
	if key == "interval" {
		ms, err := val.AsNumber()
		if err != nil {
			return nil, fmt.Errorf("%w: interval prop must be a number", graph.ErrInvalidProperty)
		}
		if ms <= 0 {
			return nil, fmt.Errorf("%w: interval prop must be positive", graph.ErrInvalidProperty)
		}
		return func() {
			apply()
			n.interval.Store(ms)
		}, nil
	}
	return apply, nil
}

func (n *metroNode) Process(ctx *graph.BlockContext) {
	period := int64(n.interval.Load() * ctx.SampleRate / 1000)
	if period < 1 {
		period = 1
	}
	out := ctx.Output[:ctx.NumSamples]
	for i := range out {
		if n.countdown <= 0 {
			out[i] = 1
			n.events.Push(metroEvent{time: ctx.SampleTime + int64(i)})
			n.countdown = period
		} else {
			out[i] = 0
		}
		n.countdown--
	}
}

func (n *metroNode) Reset() {
	n.countdown = 0
}

func (n *metroNode) DrainEvents(emit func(eventType string, payload value.Value)) {
	var e metroEvent
	for n.events.TryPop(&e) {
		emit("metro", value.Object(map[string]value.Value{
			"time": value.Number(float64(e.time)),
		}))
	}
}
