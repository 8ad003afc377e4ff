package corealg

import (
	"fmt"

	"formc/internal/expr"
)

// Option configures MapDAGs.
type Option func(*mapConfig)

type mapConfig struct {
	structural bool
}

// WithStructuralKey memoises by structural hash (confirmed with expr.Equal)
// instead of by ID, so structurally equal sub-trees allocated separately are
// handled once.
func WithStructuralKey() Option {
	return func(c *mapConfig) { c.structural = true }
}

type memoEntry[R any] struct {
	id  expr.ID
	val R
}

type memo[R any] struct {
	b          *expr.Builder
	structural bool
	byID       map[expr.ID]R
	byHash     map[uint64][]memoEntry[R]
}

func (m *memo[R]) lookup(id expr.ID) (R, bool) {
	if v, ok := m.byID[id]; ok {
		return v, true
	}
	if m.structural {
		for _, e := range m.byHash[m.b.Hash(id)] {
			if m.b.Equal(e.id, id) {
				m.byID[id] = e.val
				return e.val, true
			}
		}
	}
	var zero R
	return zero, false
}

func (m *memo[R]) store(id expr.ID, v R) {
	m.byID[id] = v
	if m.structural {
		h := m.b.Hash(id)
		m.byHash[h] = append(m.byHash[h], memoEntry[R]{id: id, val: v})
	}
}

type frame struct {
	id   expr.ID
	next int
}

// MapDAGs applies v to every unique sub-expression reachable from roots,
// operands before parents, and returns the result computed for each root.
// Each unique node is handled exactly once even when shared by several
// parents or several roots. Marker parameters are not traversed.
func MapDAGs[R any](b *expr.Builder, v Visitor[R], roots []expr.ID, opts ...Option) ([]R, error) {
	var cfg mapConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &memo[R]{
		b:          b,
		structural: cfg.structural,
		byID:       make(map[expr.ID]R),
		byHash:     make(map[uint64][]memoEntry[R]),
	}

	stack := make([]frame, 0, 32)
	for _, root := range roots {
		if _, ok := m.lookup(root); ok {
			continue
		}
		stack = append(stack[:0], frame{id: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			n := b.Get(top.id)
			if n == nil {
				return nil, fmt.Errorf("map: unknown node %d", top.id)
			}
			if top.next < len(n.Operands) {
				child := n.Operands[top.next]
				top.next++
				if _, done := m.lookup(child); !done {
					stack = append(stack, frame{id: child})
				}
				continue
			}

			id := top.id
			operands := make([]R, len(n.Operands))
			for i, op := range n.Operands {
				operands[i], _ = m.lookup(op)
			}
			res, err := Dispatch(v, id, n, operands)
			if err != nil {
				return nil, err
			}
			m.store(id, res)
			stack = stack[:len(stack)-1]
		}
	}

	out := make([]R, len(roots))
	for i, root := range roots {
		out[i], _ = m.lookup(root)
	}
	return out, nil
}

// MapExpr is MapDAGs for a single root.
func MapExpr[R any](b *expr.Builder, v Visitor[R], root expr.ID, opts ...Option) (R, error) {
	res, err := MapDAGs(b, v, []expr.ID{root}, opts...)
	if err != nil {
		var zero R
		return zero, err
	}
	return res[0], nil
}
