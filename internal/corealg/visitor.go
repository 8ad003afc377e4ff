// Package corealg provides kind-dispatched visitors and the memoised DAG
// mapper that drives them.
package corealg

import (
	"fmt"

	"formc/internal/expr"
)

// Visitor handles one node of each kind. Operand results are the values the
// mapper already produced for the node's operands.
type Visitor[R any] interface {
	Terminal(id expr.ID, n *expr.Node) (R, error)
	MultiIndex(id expr.ID, n *expr.Node) (R, error)
	Marker(id expr.ID, n *expr.Node, wrapped R) (R, error)
	Operator(id expr.ID, n *expr.Node, operands []R) (R, error)
}

// Dispatch selects the handler for n.Kind.
func Dispatch[R any](v Visitor[R], id expr.ID, n *expr.Node, operands []R) (R, error) {
	var zero R
	switch n.Kind {
	case expr.KindTerminal:
		return v.Terminal(id, n)
	case expr.KindMultiIndex:
		return v.MultiIndex(id, n)
	case expr.KindMarker:
		if len(operands) != 1 {
			return zero, fmt.Errorf("marker %d: expected 1 operand result, got %d", id, len(operands))
		}
		return v.Marker(id, n, operands[0])
	case expr.KindOperator:
		return v.Operator(id, n, operands)
	default:
		return zero, fmt.Errorf("node %d: unhandled kind %s", id, n.Kind)
	}
}

// MultiFunc builds a Visitor from optional per-kind handlers. Kinds without a
// handler fall through to Default, which receives all operand results.
type MultiFunc[R any] struct {
	OnTerminal   func(id expr.ID, n *expr.Node) (R, error)
	OnMultiIndex func(id expr.ID, n *expr.Node) (R, error)
	OnMarker     func(id expr.ID, n *expr.Node, wrapped R) (R, error)
	OnOperator   func(id expr.ID, n *expr.Node, operands []R) (R, error)
	Default      func(id expr.ID, n *expr.Node, operands []R) (R, error)
}

func (m *MultiFunc[R]) fallback(id expr.ID, n *expr.Node, operands []R) (R, error) {
	if m.Default == nil {
		var zero R
		return zero, fmt.Errorf("no handler for %s node %d", n.Kind, id)
	}
	return m.Default(id, n, operands)
}

func (m *MultiFunc[R]) Terminal(id expr.ID, n *expr.Node) (R, error) {
	if m.OnTerminal != nil {
		return m.OnTerminal(id, n)
	}
	return m.fallback(id, n, nil)
}

func (m *MultiFunc[R]) MultiIndex(id expr.ID, n *expr.Node) (R, error) {
	if m.OnMultiIndex != nil {
		return m.OnMultiIndex(id, n)
	}
	return m.fallback(id, n, nil)
}

func (m *MultiFunc[R]) Marker(id expr.ID, n *expr.Node, wrapped R) (R, error) {
	if m.OnMarker != nil {
		return m.OnMarker(id, n, wrapped)
	}
	return m.fallback(id, n, []R{wrapped})
}

func (m *MultiFunc[R]) Operator(id expr.ID, n *expr.Node, operands []R) (R, error) {
	if m.OnOperator != nil {
		return m.OnOperator(id, n, operands)
	}
	return m.fallback(id, n, operands)
}
