package expr

import "slices"

type idPair struct{ a, b ID }

// Equal reports whether a and b denote structurally identical expressions.
// Hashes are compared first; a full walk confirms equality so collisions
// never produce a false positive.
func (b *Builder) Equal(x, y ID) bool {
	if x == y {
		return true
	}
	seen := make(map[idPair]struct{})
	stack := []idPair{{x, y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.a == p.b {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}

		na, nb := b.Get(p.a), b.Get(p.b)
		if na == nil || nb == nil {
			// NoID only equals NoID, handled above
			return false
		}
		if na.Hash != nb.Hash || na.Kind != nb.Kind || na.Name != nb.Name || na.Label != nb.Label {
			return false
		}
		if !slices.Equal(na.Indices, nb.Indices) || len(na.Operands) != len(nb.Operands) {
			return false
		}
		for i := range na.Operands {
			stack = append(stack, idPair{na.Operands[i], nb.Operands[i]})
		}
		if na.Kind == KindMarker {
			pa, pb := na.Params.Slice(), nb.Params.Slice()
			for i := range pa {
				if pa[i].IsValid() != pb[i].IsValid() {
					return false
				}
				stack = append(stack, idPair{pa[i], pb[i]})
			}
		}
	}
	return true
}
