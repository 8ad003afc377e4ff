// Package testkit holds structural checks shared by the package tests.
package testkit

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"formc/internal/expr"
	"formc/internal/form"
)

// CheckBuilderInvariants verifies the arena shape every pass relies on:
// 1) nodes only reference nodes allocated before them (the arena is in
// topological order)
// 2) markers wrap exactly one operand and carry the marker name
// 3) terminals and multi-indices have no operands
func CheckBuilderInvariants(b *expr.Builder) error {
	if b == nil {
		return fmt.Errorf("nil builder")
	}
	var errs []error
	for i := 1; i <= b.Len(); i++ {
		raw, err := safecast.Conv[uint32](i)
		if err != nil {
			return fmt.Errorf("node index overflow: %w", err)
		}
		id := expr.ID(raw)
		n := b.Get(id)
		if n == nil {
			errs = append(errs, fmt.Errorf("node %d: missing", id))
			continue
		}
		refs := append([]expr.ID(nil), n.Operands...)
		if n.Kind == expr.KindMarker {
			p := n.Params.Slice()
			for _, pid := range p {
				if pid.IsValid() {
					refs = append(refs, pid)
				}
			}
		}
		for _, ref := range refs {
			if !ref.IsValid() || ref >= id {
				errs = append(errs, fmt.Errorf("node %d (%s): reference %d is not an earlier node", id, n.Kind, ref))
			}
		}
		switch n.Kind {
		case expr.KindMarker:
			if len(n.Operands) != 1 || n.Name != expr.MarkerName {
				errs = append(errs, fmt.Errorf("node %d: malformed marker (name %q, %d operands)", id, n.Name, len(n.Operands)))
			}
		case expr.KindTerminal, expr.KindMultiIndex:
			if len(n.Operands) != 0 {
				errs = append(errs, fmt.Errorf("node %d (%s): leaf with %d operands", id, n.Kind, len(n.Operands)))
			}
		case expr.KindOperator:
			if n.Name == expr.MarkerName {
				errs = append(errs, fmt.Errorf("node %d: operator named %s", id, expr.MarkerName))
			}
		default:
			errs = append(errs, fmt.Errorf("node %d: invalid kind", id))
		}
	}
	return errors.Join(errs...)
}

// CheckForm verifies that every integral of f has a known type, a domain and
// an integrand that exists in b.
func CheckForm(b *expr.Builder, f *form.Form) error {
	if f == nil {
		return fmt.Errorf("nil form")
	}
	var errs []error
	for i, itg := range f.Integrals() {
		if !form.KnownType(itg.IntegralType()) {
			errs = append(errs, fmt.Errorf("integral %d: unknown type %q", i, itg.IntegralType()))
		}
		if itg.Domain() == "" {
			errs = append(errs, fmt.Errorf("integral %d: empty domain", i))
		}
		if b.Get(itg.Integrand()) == nil {
			errs = append(errs, fmt.Errorf("integral %d: integrand %d not in builder", i, itg.Integrand()))
		}
	}
	return errors.Join(errs...)
}
