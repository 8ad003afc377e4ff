// Package form models weak forms as ordered lists of integrals whose
// integrands live in an expr.Builder.
package form

import (
	"fmt"
	"slices"

	"formc/internal/expr"
)

// Form is an ordered collection of integrals. A form with no integrals is valid.
type Form struct {
	integrals []Integral
}

// New builds a form from integrals, preserving their order.
func New(integrals ...Integral) *Form {
	return &Form{integrals: slices.Clone(integrals)}
}

// Integrals returns a copy of the integral list.
func (f *Form) Integrals() []Integral {
	if f == nil {
		return nil
	}
	return slices.Clone(f.integrals)
}

func (f *Form) Len() int {
	if f == nil {
		return 0
	}
	return len(f.integrals)
}

// Integral returns the i-th integral.
func (f *Form) Integral(i int) Integral {
	return f.integrals[i]
}

// IntegralsByType returns the integrals of one type, in form order.
func (f *Form) IntegralsByType(integralType string) []Integral {
	var out []Integral
	for _, itg := range f.Integrals() {
		if itg.IntegralType() == integralType {
			out = append(out, itg)
		}
	}
	return out
}

// MapIntegrands returns a new form whose integrands are fn applied to the
// originals. The first error aborts the mapping.
func MapIntegrands(f *Form, fn func(expr.ID) (expr.ID, error)) (*Form, error) {
	out := make([]Integral, 0, f.Len())
	for i, itg := range f.Integrals() {
		next, err := fn(itg.Integrand())
		if err != nil {
			return nil, fmt.Errorf("integral %d: %w", i, err)
		}
		out = append(out, itg.Reconstruct(next))
	}
	return &Form{integrals: out}, nil
}

// Equal reports whether f and g have the same integrals in the same order,
// comparing integrands structurally.
func Equal(b *expr.Builder, f, g *Form) bool {
	if f.Len() != g.Len() {
		return false
	}
	for i := range f.Len() {
		fi, gi := f.Integral(i), g.Integral(i)
		if !fi.SameTags(gi) || !b.Equal(fi.Integrand(), gi.Integrand()) {
			return false
		}
	}
	return true
}
