package main

import (
	"math"

	phonograph "github.com/dudk/phonograph"
	"github.com/dudk/phonograph/value"
)

// buildPatch prepares a runtime with a demo tone patch: a phasor driven
// sine at freq Hz, optionally convolved with the impulse response from a
// wav file.
func buildPatch(sampleRate float64, blockSize int, freq float64, ir string) (*phonograph.Runtime, error) {
	r, err := phonograph.New()
	if err != nil {
		return nil, err
	}
	if err := r.Prepare(sampleRate, blockSize); err != nil {
		return nil, err
	}

	// const(1) -> phasor(2) -> mul 2*pi (3,4) -> sin(5)
	batch := []value.Value{
		instruction("createNode", value.String("const"), value.Number(1)),
		instruction("setProperty", value.Number(1), value.String("value"), value.Number(freq)),
		instruction("createNode", value.String("phasor"), value.Number(2)),
		instruction("connect", value.Number(2), value.Array(value.Number(1))),
		instruction("createNode", value.String("const"), value.Number(3)),
		instruction("setProperty", value.Number(3), value.String("value"), value.Number(2*math.Pi)),
		instruction("createNode", value.String("mul"), value.Number(4)),
		instruction("connect", value.Number(4), value.Array(value.Number(2), value.Number(3))),
		instruction("createNode", value.String("sin"), value.Number(5)),
		instruction("connect", value.Number(5), value.Array(value.Number(4))),
	}
	out := value.Number(5)

	if ir != "" {
		if err := r.LoadResource("/ir", ir); err != nil {
			return nil, err
		}
		batch = append(batch,
			instruction("createNode", value.String("convolve"), value.Number(6)),
			instruction("setProperty", value.Number(6), value.String("path"), value.String("/ir")),
			instruction("connect", value.Number(6), value.Array(value.Number(5))),
		)
		out = value.Number(6)
	}

	batch = append(batch, instruction("commit", value.Array(out)))
	if err := r.ApplyInstructions(batch); err != nil {
		return nil, err
	}
	return r, nil
}

func instruction(op string, args ...value.Value) value.Value {
	return value.Array(append([]value.Value{value.String(op)}, args...)...)
}
