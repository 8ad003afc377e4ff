package expr

import (
	"fmt"
	"slices"
)

// Builder owns the node arena. It is not safe for concurrent mutation.
type Builder struct {
	Nodes *Arena[Node]
}

// NewBuilder creates a builder; capHint of zero uses a default of 256 nodes.
func NewBuilder(capHint uint) *Builder {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Builder{Nodes: NewArena[Node](capHint)}
}

func (b *Builder) alloc(n Node) ID {
	n.Hash = b.computeHash(&n)
	return ID(b.Nodes.Allocate(n))
}

// Get returns the node for id, or nil.
func (b *Builder) Get(id ID) *Node {
	if b == nil {
		return nil
	}
	return b.Nodes.Get(uint32(id))
}

// Len reports how many nodes were allocated.
func (b *Builder) Len() int {
	return int(b.Nodes.Len())
}

// NewTerminal allocates a terminal. Pass NoLabel when the terminal has no number.
func (b *Builder) NewTerminal(name string, label int) ID {
	return b.alloc(Node{Kind: KindTerminal, Name: name, Label: label})
}

// NewMultiIndex allocates a multi-index node.
func (b *Builder) NewMultiIndex(indices ...int) ID {
	return b.alloc(Node{
		Kind:    KindMultiIndex,
		Label:   NoLabel,
		Indices: append([]int(nil), indices...),
	})
}

// NewOperator allocates a generic operator. MarkerName is rejected; use NewMarker.
func (b *Builder) NewOperator(name string, operands ...ID) ID {
	if name == MarkerName {
		panic(fmt.Errorf("expr: %s must be built with NewMarker", MarkerName))
	}
	return b.alloc(Node{
		Kind:     KindOperator,
		Name:     name,
		Label:    NoLabel,
		Operands: append([]ID(nil), operands...),
	})
}

// NewMarker wraps operand in a coordinate derivative marker.
func (b *Builder) NewMarker(wrapped ID, params MarkerParams) ID {
	return b.alloc(Node{
		Kind:     KindMarker,
		Name:     MarkerName,
		Label:    NoLabel,
		Operands: []ID{wrapped},
		Params:   params,
	})
}

// Kind returns the kind of id, KindInvalid for unknown ids.
func (b *Builder) Kind(id ID) Kind {
	n := b.Get(id)
	if n == nil {
		return KindInvalid
	}
	return n.Kind
}

// Operands returns a copy of the operand list.
func (b *Builder) Operands(id ID) []ID {
	n := b.Get(id)
	if n == nil {
		return nil
	}
	return slices.Clone(n.Operands)
}

// Wrapped returns the operand of a marker node.
func (b *Builder) Wrapped(id ID) (ID, bool) {
	n := b.Get(id)
	if n == nil || n.Kind != KindMarker {
		return NoID, false
	}
	return n.Operands[0], true
}

// Params returns the parameter triple of a marker node.
func (b *Builder) Params(id ID) (MarkerParams, bool) {
	n := b.Get(id)
	if n == nil || n.Kind != KindMarker {
		return MarkerParams{}, false
	}
	return n.Params, true
}

// Hash returns the structural hash of id. NoID hashes to zero.
func (b *Builder) Hash(id ID) uint64 {
	n := b.Get(id)
	if n == nil {
		return 0
	}
	return n.Hash
}

// Reconstruct returns a node of the same kind and payload as id with new
// operands. When the operands are unchanged id itself is returned.
func (b *Builder) Reconstruct(id ID, operands []ID) (ID, error) {
	n := b.Get(id)
	if n == nil {
		return NoID, fmt.Errorf("reconstruct: unknown node %d", id)
	}
	if len(operands) != len(n.Operands) {
		return NoID, fmt.Errorf("reconstruct %s: got %d operands, want %d", n.Name, len(operands), len(n.Operands))
	}
	if slices.Equal(operands, n.Operands) {
		return id, nil
	}
	for i, op := range operands {
		if b.Get(op) == nil {
			return NoID, fmt.Errorf("reconstruct %s: operand %d refers to unknown node %d", n.Name, i, op)
		}
	}
	next := *n
	next.Operands = slices.Clone(operands)
	next.Indices = slices.Clone(n.Indices)
	return b.alloc(next), nil
}
