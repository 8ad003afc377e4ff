// Package expr holds the expression DAG: immutable nodes in an arena,
// addressed by ID, with a content hash fixed at allocation time.
//
// Structurally identical sub-trees may live under different IDs. Anything
// that needs "same expression" semantics must go through Hash or Equal,
// never compare IDs.
package expr

// MarkerName is the operator name of the coordinate derivative marker.
const MarkerName = "coordinate_derivative"

// NoLabel marks a terminal without a numeric label.
const NoLabel = -1

// MarkerParams is the parameter triple carried by a marker node.
type MarkerParams struct {
	Direction   ID // perturbation direction
	Coefficient ID // perturbed coefficient or argument reference
	Relation    ID // governing relation, NoID when absent
}

// Slice returns the parameters in positional order.
func (p MarkerParams) Slice() [3]ID {
	return [3]ID{p.Direction, p.Coefficient, p.Relation}
}

// Node is a single expression node. Nodes are never mutated after allocation.
type Node struct {
	Kind     Kind
	Name     string // terminal or operator name; MarkerName for markers
	Label    int    // terminal label, NoLabel when unset
	Indices  []int  // multi-index entries
	Operands []ID   // operator operands; markers have exactly one
	Params   MarkerParams
	Hash     uint64
}

// Arity returns the number of operands.
func (n *Node) Arity() int {
	if n == nil {
		return 0
	}
	return len(n.Operands)
}
