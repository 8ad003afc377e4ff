package cdpass

import (
	"slices"
	"strings"

	"formc/internal/expr"
)

// Chain is the ordered list of marker parameters peeled off an integrand,
// outermost first. A nil *Chain means "none".
type Chain struct {
	Params []expr.MarkerParams
}

// NewChain builds a chain from parameters listed outermost first.
func NewChain(params ...expr.MarkerParams) *Chain {
	return &Chain{Params: slices.Clone(params)}
}

// IsNone reports whether c is the "none" chain.
func (c *Chain) IsNone() bool { return c == nil }

// Len returns the number of markers; zero for none.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Params)
}

// Format renders the chain for diagnostics.
func (c *Chain) Format(b *expr.Builder) string {
	if c == nil {
		return "none"
	}
	parts := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		parts = append(parts, "("+b.Format(p.Direction)+" "+b.Format(p.Coefficient)+" "+b.Format(p.Relation)+")")
	}
	return "[" + strings.Join(parts, " ") + "]"
}
