package expr

// Kind is the closed set of node kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindTerminal is a leaf: argument, coefficient, constant, spatial coordinate, ...
	KindTerminal
	// KindMultiIndex is a fixed list of tensor indices.
	KindMultiIndex
	// KindMarker wraps exactly one operand and carries three parameters.
	KindMarker
	// KindOperator is any other operator with ordered operands.
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	case KindMultiIndex:
		return "multi_index"
	case KindMarker:
		return "marker"
	case KindOperator:
		return "operator"
	default:
		return "invalid"
	}
}
