package graph

import (
	"fmt"
	"math"

	"github.com/dudk/phonograph/value"
)

// Instruction opcodes as they appear on the wire. Each batch record is an
// array whose first element is the opcode tag:
//
//	["createNode", kind, id]
//	["setProperty", id, key, value]
//	["connect", id, [childId, ...]]
//	["commit", [outputId, ...]]
//	["deleteNode", id]
//
// Records validate sequentially, but a commit only designates the output
// nodes: the committed topology is built from the batch's final state,
// so records after the commit still shape it, and a deleteNode that
// strands a committed output or edge fails the whole batch.
const (
	opCreateNode  = "createNode"
	opSetProperty = "setProperty"
	opConnect     = "connect"
	opCommit      = "commit"
	opDeleteNode  = "deleteNode"
)

// instruction is one decoded batch record.
type instruction struct {
	index int // position in the batch, for error context
	op    string
	kind  string
	id    NodeID
	key   string
	val   value.Value
	ids   []NodeID
}

func malformed(index int, format string, args ...any) error {
	return fmt.Errorf("%w: batch[%d]: %s", ErrMalformedInstruction, index, fmt.Sprintf(format, args...))
}

// parseBatch decodes a batch of dynamic values into instructions. The
// first malformed record aborts the batch.
func parseBatch(batch []value.Value) ([]instruction, error) {
	ins := make([]instruction, 0, len(batch))
	for i, record := range batch {
		in, err := parseRecord(i, record)
		if err != nil {
			return nil, err
		}
		ins = append(ins, in)
	}
	return ins, nil
}

func parseRecord(index int, record value.Value) (instruction, error) {
	in := instruction{index: index}
	if record.Kind() != value.KindArray {
		return in, malformed(index, "record must be an array, have %v", record.Kind())
	}
	op, err := record.At(0).AsString()
	if err != nil {
		return in, malformed(index, "opcode must be a string")
	}
	in.op = op

	switch op {
	case opCreateNode:
		if record.Len() != 3 {
			return in, malformed(index, "createNode takes kind and id, have %d args", record.Len()-1)
		}
		if in.kind, err = record.At(1).AsString(); err != nil {
			return in, malformed(index, "createNode kind must be a string")
		}
		if in.id, err = parseID(index, record.At(2)); err != nil {
			return in, err
		}
	case opSetProperty:
		if record.Len() != 4 {
			return in, malformed(index, "setProperty takes id, key and value, have %d args", record.Len()-1)
		}
		if in.id, err = parseID(index, record.At(1)); err != nil {
			return in, err
		}
		if in.key, err = record.At(2).AsString(); err != nil {
			return in, malformed(index, "setProperty key must be a string")
		}
		in.val = record.At(3)
	case opConnect:
		if record.Len() != 3 {
			return in, malformed(index, "connect takes id and a child list, have %d args", record.Len()-1)
		}
		if in.id, err = parseID(index, record.At(1)); err != nil {
			return in, err
		}
		if in.ids, err = parseIDList(index, record.At(2)); err != nil {
			return in, err
		}
	case opCommit:
		if record.Len() != 2 {
			return in, malformed(index, "commit takes an output list, have %d args", record.Len()-1)
		}
		if in.ids, err = parseIDList(index, record.At(1)); err != nil {
			return in, err
		}
	case opDeleteNode:
		if record.Len() != 2 {
			return in, malformed(index, "deleteNode takes an id, have %d args", record.Len()-1)
		}
		if in.id, err = parseID(index, record.At(1)); err != nil {
			return in, err
		}
	default:
		return in, malformed(index, "unknown opcode %q", op)
	}
	return in, nil
}

func parseID(index int, v value.Value) (NodeID, error) {
	n, err := v.AsNumber()
	if err != nil {
		return 0, malformed(index, "node id must be a number, have %v", v.Kind())
	}
	if n != math.Trunc(n) || n < 0 {
		return 0, malformed(index, "node id must be a non-negative integer, have %v", n)
	}
	return NodeID(n), nil
}

func parseIDList(index int, v value.Value) ([]NodeID, error) {
	if v.Kind() != value.KindArray {
		return nil, malformed(index, "id list must be an array, have %v", v.Kind())
	}
	ids := make([]NodeID, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		id, err := parseID(index, v.At(i))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
