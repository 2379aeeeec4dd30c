package builtin

import (
	"fmt"

	"github.com/dudk/phonograph/graph"
	"github.com/dudk/phonograph/handoff"
	"github.com/dudk/phonograph/resource"
	"github.com/dudk/phonograph/value"
)

const meterEventCapacity = 256

// meterEvent is the render-side record of one analyzed block.
type meterEvent struct {
	min, max float32
	time     int64
}

// meterNode passes its first input through while queueing one "meter"
// event per block with the block's min and max sample values. An
// optional "name" property tags the events with a source label.
type meterNode struct {
	graph.Base
	// name is written by SetProperty and read by DrainEvents, both on
	// the control context.
	name   string
	events *handoff.Queue[meterEvent]
}

func newMeter(id graph.NodeID, sampleRate float64, blockSize int) graph.Node {
	return &meterNode{
		Base:   graph.NewBase(id, sampleRate, blockSize),
		events: handoff.New[meterEvent](meterEventCapacity),
	}
}

func (n *meterNode) SetProperty(key string, val value.Value, res *resource.Map) (func(), error) {
	apply, err := n.Base.SetProperty(key, val, res)
	if err != nil {
		return nil, err
	}
	if key == "name" {
		name, err := val.AsString()
		if err != nil {
			return nil, fmt.Errorf("%w: name prop must be a string", graph.ErrInvalidProperty)
		}
		return func() {
			apply()
			n.name = name
		}, nil
	}
	return apply, nil
}

func (n *meterNode) Process(ctx *graph.BlockContext) {
	if len(ctx.Inputs) == 0 || ctx.NumSamples == 0 {
		silence(ctx.Output, ctx.NumSamples)
		return
	}
	in := ctx.Inputs[0]
	out := ctx.Output[:ctx.NumSamples]
	lo, hi := in[0], in[0]
	for i := range out {
		s := in[i]
		out[i] = s
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	n.events.Push(meterEvent{min: lo, max: hi, time: ctx.SampleTime})
}

func (n *meterNode) DrainEvents(emit func(eventType string, payload value.Value)) {
	var e meterEvent
	for n.events.TryPop(&e) {
		fields := map[string]value.Value{
			"min":  value.Number(float64(e.min)),
			"max":  value.Number(float64(e.max)),
			"time": value.Number(float64(e.time)),
		}
		if n.name != "" {
			fields["source"] = value.String(n.name)
		}
		emit("meter", value.Object(fields))
	}
}
