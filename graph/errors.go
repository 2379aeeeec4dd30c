package graph

import "errors"

// Errors raised while an instruction batch is applied. Any of them aborts
// the whole batch: no partial topology is installed and the pending state
// keeps its previous content. Rendering never returns these errors; a
// committed topology is known valid.
var (
	// ErrMalformedInstruction is returned for a record of the wrong
	// shape or arity.
	ErrMalformedInstruction = errors.New("graph: malformed instruction")
	// ErrUnknownNodeKind is returned when a create instruction names an
	// unregistered kind.
	ErrUnknownNodeKind = errors.New("graph: unknown node kind")
	// ErrDuplicateNodeID is returned when a create instruction reuses an
	// existing id.
	ErrDuplicateNodeID = errors.New("graph: duplicate node id")
	// ErrUnknownNodeID is returned when an instruction references a
	// nonexistent node.
	ErrUnknownNodeID = errors.New("graph: unknown node id")
	// ErrCyclicGraph is returned when a connect instruction would make a
	// node an input of itself.
	ErrCyclicGraph = errors.New("graph: cyclic graph")
	// ErrInvalidProperty is returned when a property value fails a
	// node-specific validation rule.
	ErrInvalidProperty = errors.New("graph: invalid property")
)
