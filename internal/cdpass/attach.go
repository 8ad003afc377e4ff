package cdpass

import (
	"formc/internal/expr"
	"formc/internal/form"
)

// AttachIntegrand wraps integrand in the markers of chain, innermost first,
// so the outermost marker of the result is chain.Params[0]. The outermost
// rule is not re-checked.
func AttachIntegrand(b *expr.Builder, integrand expr.ID, chain *Chain) expr.ID {
	if chain == nil {
		return integrand
	}
	cur := integrand
	for i := len(chain.Params) - 1; i >= 0; i-- {
		cur = b.NewMarker(cur, chain.Params[i])
	}
	return cur
}

// AttachIntegral rewraps one integral; see AttachIntegrand.
func AttachIntegral(b *expr.Builder, itg form.Integral, chain *Chain) form.Integral {
	if chain == nil {
		return itg
	}
	return itg.Reconstruct(AttachIntegrand(b, itg.Integrand(), chain))
}

// AttachForm rewraps every integral of f. A nil chain returns f unchanged.
func AttachForm(b *expr.Builder, f *form.Form, chain *Chain) *form.Form {
	if chain == nil {
		return f
	}
	integrals := f.Integrals()
	for i := range integrals {
		integrals[i] = AttachIntegral(b, integrals[i], chain)
	}
	return form.New(integrals...)
}

// Attach dispatches on the dynamic type of target like Strip. A nil chain
// returns target unchanged before any type check.
func Attach(b *expr.Builder, target any, chain *Chain) (any, error) {
	if chain == nil {
		return target, nil
	}
	switch t := target.(type) {
	case *form.Form:
		if t == nil {
			break
		}
		return AttachForm(b, t, chain), nil
	case form.Integral:
		return AttachIntegral(b, t, chain), nil
	case *form.Integral:
		if t == nil {
			break
		}
		out := AttachIntegral(b, *t, chain)
		return &out, nil
	}
	return nil, newError(CodeInvalidInputType, "invalid type %s", typeName(target))
}

// Transform is applied to the bare form between strip and attach.
type Transform func(*form.Form) (*form.Form, error)

// RoundTrip strips f, runs transform on the bare form (nil means identity)
// and reattaches the chain to the result.
func RoundTrip(b *expr.Builder, f *form.Form, transform Transform, opts ...Option) (*form.Form, error) {
	bare, chain, err := StripForm(b, f, opts...)
	if err != nil {
		return nil, err
	}
	if transform != nil {
		if bare, err = transform(bare); err != nil {
			return nil, err
		}
	}
	return AttachForm(b, bare, chain), nil
}
