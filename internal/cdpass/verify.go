package cdpass

import (
	"formc/internal/expr"
)

const (
	foldOffset uint64 = 14695981039346656037
	foldPrime  uint64 = 1099511628211
)

// ChainHash folds the structural hashes of a chain's parameters.
//
// Within one triple the three parameter hashes are summed, so permuting the
// parameters of a single marker does not change the hash. Across markers the
// fold is order sensitive and seeded with the chain length: an empty chain,
// a longer chain and a reordered chain all hash differently. The none chain
// hashes to zero.
func ChainHash(b *expr.Builder, c *Chain) uint64 {
	if c == nil {
		return 0
	}
	h := foldOffset ^ uint64(len(c.Params))
	for _, p := range c.Params {
		triple := b.Hash(p.Direction) + b.Hash(p.Coefficient) + b.Hash(p.Relation)
		h = (h ^ triple) * foldPrime
	}
	return h
}

// VerifyChains fails with CodeConsistencyViolation unless every chain hashes
// like the first one. With strict set, hash-equal chains are additionally
// compared parameter by parameter.
func VerifyChains(b *expr.Builder, chains []*Chain, opts ...Option) error {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return verifyChains(b, chains, cfg.strict)
}

func verifyChains(b *expr.Builder, chains []*Chain, strict bool) error {
	if len(chains) == 0 {
		return nil
	}
	first := ChainHash(b, chains[0])
	for i := 1; i < len(chains); i++ {
		if ChainHash(b, chains[i]) != first {
			return mismatch(i, "")
		}
		if strict && !chainsEqual(b, chains[0], chains[i]) {
			return mismatch(i, " (hashes agree, parameters differ)")
		}
	}
	return nil
}

func mismatch(idx int, detail string) error {
	e := newError(CodeConsistencyViolation,
		"not all integrals received the same coordinate derivative%s", detail)
	e.Integral = idx
	return e
}

func chainsEqual(b *expr.Builder, x, y *Chain) bool {
	if x.IsNone() || y.IsNone() {
		return x.IsNone() == y.IsNone()
	}
	if len(x.Params) != len(y.Params) {
		return false
	}
	for i := range x.Params {
		px, py := x.Params[i].Slice(), y.Params[i].Slice()
		for j := range px {
			if !b.Equal(px[j], py[j]) {
				return false
			}
		}
	}
	return true
}
