package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/phonograph/value"
)

func TestParseBatch(t *testing.T) {
	batch := []value.Value{
		value.Array(value.String("createNode"), value.String("gain"), value.Number(1)),
		value.Array(value.String("setProperty"), value.Number(1), value.String("value"), value.Number(0.5)),
		value.Array(value.String("connect"), value.Number(1), value.Array(value.Number(2), value.Number(3))),
		value.Array(value.String("commit"), value.Array(value.Number(1))),
		value.Array(value.String("deleteNode"), value.Number(1)),
	}
	ins, err := parseBatch(batch)
	assert.NoError(t, err)
	assert.Len(t, ins, 5)

	assert.Equal(t, opCreateNode, ins[0].op)
	assert.Equal(t, "gain", ins[0].kind)
	assert.Equal(t, NodeID(1), ins[0].id)

	assert.Equal(t, opSetProperty, ins[1].op)
	assert.Equal(t, "value", ins[1].key)
	assert.True(t, value.Equal(ins[1].val, value.Number(0.5)))

	assert.Equal(t, opConnect, ins[2].op)
	assert.Equal(t, []NodeID{2, 3}, ins[2].ids)

	assert.Equal(t, opCommit, ins[3].op)
	assert.Equal(t, []NodeID{1}, ins[3].ids)

	assert.Equal(t, opDeleteNode, ins[4].op)
	assert.Equal(t, NodeID(1), ins[4].id)
}

func TestParseBatchMalformed(t *testing.T) {
	tests := []struct {
		description string
		record      value.Value
	}{
		{"record not an array", value.String("createNode")},
		{"opcode not a string", value.Array(value.Number(0), value.Number(1))},
		{"unknown opcode", value.Array(value.String("mutate"), value.Number(1))},
		{"createNode arity", value.Array(value.String("createNode"), value.String("gain"))},
		{"createNode kind type", value.Array(value.String("createNode"), value.Number(1), value.Number(1))},
		{"id not a number", value.Array(value.String("deleteNode"), value.String("1"))},
		{"id not integral", value.Array(value.String("deleteNode"), value.Number(1.5))},
		{"id negative", value.Array(value.String("deleteNode"), value.Number(-1))},
		{"setProperty arity", value.Array(value.String("setProperty"), value.Number(1), value.String("k"))},
		{"setProperty key type", value.Array(value.String("setProperty"), value.Number(1), value.Number(2), value.Null())},
		{"connect list type", value.Array(value.String("connect"), value.Number(1), value.Number(2))},
		{"connect child type", value.Array(value.String("connect"), value.Number(1), value.Array(value.String("2")))},
		{"commit list type", value.Array(value.String("commit"), value.Number(1))},
	}
	for _, test := range tests {
		_, err := parseBatch([]value.Value{test.record})
		assert.True(t, errors.Is(err, ErrMalformedInstruction), test.description)
	}
}

func TestParseBatchReportsIndex(t *testing.T) {
	batch := []value.Value{
		value.Array(value.String("deleteNode"), value.Number(1)),
		value.Array(value.String("deleteNode")),
	}
	_, err := parseBatch(batch)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch[1]")
}
