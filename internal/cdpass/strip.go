package cdpass

import (
	"fmt"

	"formc/internal/expr"
	"formc/internal/form"
)

// Option tunes StripForm.
type Option func(*config)

type config struct {
	strict bool
}

// Strict makes the consistency check confirm hash-equal chains with a
// parameter-wise structural comparison.
func Strict(on bool) Option {
	return func(c *config) { c.strict = on }
}

// StripIntegrand checks the outermost rule and peels the marker prefix off
// integrand. The returned chain is never nil; it is empty when integrand
// carries no markers.
func StripIntegrand(b *expr.Builder, integrand expr.ID) (expr.ID, *Chain, error) {
	if err := CheckOutermost(b, integrand); err != nil {
		return expr.NoID, nil, err
	}
	chain := &Chain{}
	cur := integrand
	for {
		n := b.Get(cur)
		if n == nil || n.Kind != expr.KindMarker {
			break
		}
		chain.Params = append(chain.Params, n.Params)
		cur = n.Operands[0]
	}
	return cur, chain, nil
}

// StripIntegral strips one integral; see StripIntegrand.
func StripIntegral(b *expr.Builder, itg form.Integral) (form.Integral, *Chain, error) {
	bare, chain, err := StripIntegrand(b, itg.Integrand())
	if err != nil {
		return form.Integral{}, nil, err
	}
	return itg.Reconstruct(bare), chain, nil
}

// StripForm strips every integral of f and verifies that all of them carried
// the same chain. It returns the bare form and that chain. A form without
// integrals is returned as is, with a nil chain.
func StripForm(b *expr.Builder, f *form.Form, opts ...Option) (*form.Form, *Chain, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if f.Len() == 0 {
		return f, nil, nil
	}

	integrals := f.Integrals()
	stripped := make([]form.Integral, 0, len(integrals))
	chains := make([]*Chain, 0, len(integrals))
	for i, itg := range integrals {
		si, chain, err := StripIntegral(b, itg)
		if err != nil {
			return nil, nil, atIntegral(err, i)
		}
		stripped = append(stripped, si)
		chains = append(chains, chain)
	}
	if err := verifyChains(b, chains, cfg.strict); err != nil {
		return nil, nil, err
	}
	return form.New(stripped...), chains[0], nil
}

// Strip dispatches on the dynamic type of target: *form.Form, form.Integral
// or *form.Integral. The result has the same type as target.
func Strip(b *expr.Builder, target any, opts ...Option) (any, *Chain, error) {
	switch t := target.(type) {
	case *form.Form:
		if t == nil {
			break
		}
		return StripForm(b, t, opts...)
	case form.Integral:
		return StripIntegral(b, t)
	case *form.Integral:
		if t == nil {
			break
		}
		si, chain, err := StripIntegral(b, *t)
		if err != nil {
			return nil, nil, err
		}
		return &si, chain, nil
	}
	return nil, nil, newError(CodeInvalidInputType, "invalid type %s", typeName(target))
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}
