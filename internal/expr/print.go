package expr

import (
	"strconv"
	"strings"
)

// Format renders id in the s-expression syntax read by internal/formfile.
func (b *Builder) Format(id ID) string {
	var sb strings.Builder
	b.format(&sb, id)
	return sb.String()
}

func (b *Builder) format(sb *strings.Builder, id ID) {
	n := b.Get(id)
	if n == nil {
		sb.WriteString("_")
		return
	}
	switch n.Kind {
	case KindTerminal:
		sb.WriteString(n.Name)
		if n.Label != NoLabel {
			sb.WriteByte('#')
			sb.WriteString(strconv.Itoa(n.Label))
		}
	case KindMultiIndex:
		sb.WriteByte('[')
		for i, ix := range n.Indices {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.Itoa(ix))
		}
		sb.WriteByte(']')
	case KindMarker:
		sb.WriteByte('(')
		sb.WriteString(MarkerName)
		sb.WriteByte(' ')
		b.format(sb, n.Operands[0])
		for _, p := range n.Params.Slice() {
			sb.WriteByte(' ')
			b.format(sb, p)
		}
		sb.WriteByte(')')
	case KindOperator:
		sb.WriteByte('(')
		sb.WriteString(n.Name)
		for _, op := range n.Operands {
			sb.WriteByte(' ')
			b.format(sb, op)
		}
		sb.WriteByte(')')
	default:
		sb.WriteString("<invalid>")
	}
}

func indentString(n int) string {
	return strings.Repeat("    ", n)
}

// TreeFormat renders id as an indented tree, one node per line. With
// parentheses set, operators with more than one child get their children
// bracketed.
func (b *Builder) TreeFormat(id ID, indentation int, parentheses bool) string {
	ind := indentString(indentation)
	n := b.Get(id)
	if n == nil {
		return ind + "_"
	}
	if n.Kind == KindTerminal || n.Kind == KindMultiIndex {
		return ind + b.Format(id)
	}

	children := n.Operands
	if n.Kind == KindMarker {
		p := n.Params
		children = []ID{n.Operands[0], p.Direction, p.Coefficient, p.Relation}
	}
	parts := make([]string, 0, len(children))
	for _, c := range children {
		parts = append(parts, b.TreeFormat(c, indentation+1, parentheses))
	}

	var sb strings.Builder
	sb.WriteString(ind)
	sb.WriteString(n.Name)
	sb.WriteByte('\n')
	if parentheses && len(parts) > 1 {
		sb.WriteString(ind + "(\n")
	}
	sb.WriteString(strings.Join(parts, "\n"))
	if parentheses && len(parts) > 1 {
		sb.WriteString("\n" + ind + ")")
	}
	return sb.String()
}
