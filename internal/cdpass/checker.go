package cdpass

import (
	"slices"

	"formc/internal/corealg"
	"formc/internal/expr"
)

// outermostChecker yields true for a node that is, or sits directly under
// a chain of, coordinate derivatives. Any other operator seeing a true
// operand breaks the outermost rule.
type outermostChecker struct{}

func (outermostChecker) Terminal(expr.ID, *expr.Node) (bool, error) {
	return false, nil
}

func (outermostChecker) MultiIndex(expr.ID, *expr.Node) (bool, error) {
	return false, nil
}

// Markers may wrap plain expressions or other markers.
func (outermostChecker) Marker(expr.ID, *expr.Node, bool) (bool, error) {
	return true, nil
}

func (outermostChecker) Operator(_ expr.ID, n *expr.Node, operands []bool) (bool, error) {
	if slices.Contains(operands, true) {
		return false, newError(CodeInvariantViolation,
			"coordinate derivative must be outermost, found inside %q", n.Name)
	}
	return false, nil
}

// CheckOutermost fails with CodeInvariantViolation when any operator other
// than a coordinate derivative wraps one.
func CheckOutermost(b *expr.Builder, integrand expr.ID) error {
	_, err := corealg.MapExpr[bool](b, outermostChecker{}, integrand)
	return err
}
