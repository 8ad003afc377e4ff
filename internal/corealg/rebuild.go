package corealg

import "formc/internal/expr"

// Rebuild returns a visitor that reconstructs every node from its mapped
// operands, reusing nodes whose operands did not change. Embed it in a
// MultiFunc to override individual kinds.
func Rebuild(b *expr.Builder) *MultiFunc[expr.ID] {
	reuse := func(id expr.ID, _ *expr.Node) (expr.ID, error) { return id, nil }
	return &MultiFunc[expr.ID]{
		OnTerminal:   reuse,
		OnMultiIndex: reuse,
		OnMarker: func(id expr.ID, _ *expr.Node, wrapped expr.ID) (expr.ID, error) {
			return b.Reconstruct(id, []expr.ID{wrapped})
		},
		Default: func(id expr.ID, _ *expr.Node, operands []expr.ID) (expr.ID, error) {
			return b.Reconstruct(id, operands)
		},
	}
}

// ReplaceTerminals substitutes terminals by name and rebuilds the ancestors
// that changed. Untouched sub-trees keep their IDs.
func ReplaceTerminals(b *expr.Builder, root expr.ID, repl map[string]expr.ID) (expr.ID, error) {
	v := Rebuild(b)
	v.OnTerminal = func(id expr.ID, n *expr.Node) (expr.ID, error) {
		if to, ok := repl[n.Name]; ok && to.IsValid() {
			return to, nil
		}
		return id, nil
	}
	return MapExpr[expr.ID](b, v, root)
}
