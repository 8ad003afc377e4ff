package form

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"formc/internal/corealg"
	"formc/internal/expr"
)

// IntegralInfo describes one integral for debugging output.
func IntegralInfo(b *expr.Builder, itg Integral) string {
	var sb strings.Builder
	sb.WriteString("  Integral:\n")
	fmt.Fprintf(&sb, "    Type:\n      %s\n", itg.IntegralType())
	fmt.Fprintf(&sb, "    Domain:\n      %s\n", itg.Domain())
	fmt.Fprintf(&sb, "    Domain id:\n      %s\n", itg.SubdomainID())
	fmt.Fprintf(&sb, "    Compiler metadata:\n      %s\n", formatMetadata(itg.metadata))
	fmt.Fprintf(&sb, "    Integrand expression:\n      %s", b.Format(itg.Integrand()))
	return sb.String()
}

// FormInfo summarises a form: integral counts per type, terminals seen, then
// each integral grouped by type.
func FormInfo(b *expr.Builder, f *Form) string {
	var sb strings.Builder
	sb.WriteString("Form info:\n")
	fmt.Fprintf(&sb, "  %-32s%d\n", "num_integrals:", f.Len())
	for _, t := range IntegralTypes {
		label := "num_" + t + "_integrals:"
		fmt.Fprintf(&sb, "  %-32s%d\n", label, len(f.IntegralsByType(t)))
	}

	terms := Terminals(b, f)
	if len(terms) > 0 {
		sb.WriteString("\n  Terminals: ")
		sb.WriteString(strings.Join(terms, ", "))
		sb.WriteString("\n")
	}

	for _, t := range IntegralTypes {
		for _, itg := range f.IntegralsByType(t) {
			sb.WriteString("\n")
			sb.WriteString(IntegralInfo(b, itg))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// TreeFormat renders a form as an indented tree grouped by integral type.
func TreeFormat(b *expr.Builder, f *Form, indentation int, parentheses bool) string {
	ind := strings.Repeat("    ", indentation)
	parts := []string{ind + "Form:"}
	for _, t := range IntegralTypes {
		for _, itg := range f.IntegralsByType(t) {
			parts = append(parts, IntegralTreeFormat(b, itg, indentation+1, parentheses))
		}
	}
	return strings.Join(parts, "\n")
}

// IntegralTreeFormat renders one integral as an indented tree.
func IntegralTreeFormat(b *expr.Builder, itg Integral, indentation int, parentheses bool) string {
	ind := strings.Repeat("    ", indentation)
	inner := strings.Repeat("    ", indentation+1)
	var sb strings.Builder
	sb.WriteString(ind + "Integral:\n")
	sb.WriteString(inner + "domain type: " + itg.IntegralType() + "\n")
	sb.WriteString(inner + "domain id: " + itg.SubdomainID() + "\n")
	sb.WriteString(inner + "integrand:\n")
	sb.WriteString(b.TreeFormat(itg.Integrand(), indentation+2, parentheses))
	return sb.String()
}

// Terminals lists the distinct terminal spellings used by any integrand,
// marker parameters included, sorted. Parameters are not operands, so each
// round maps the parameters found by the previous one.
func Terminals(b *expr.Builder, f *Form) []string {
	seen := make(map[string]struct{})
	var params []expr.ID
	none := struct{}{}
	v := &corealg.MultiFunc[struct{}]{
		OnTerminal: func(id expr.ID, _ *expr.Node) (struct{}, error) {
			seen[b.Format(id)] = none
			return none, nil
		},
		OnMarker: func(_ expr.ID, n *expr.Node, _ struct{}) (struct{}, error) {
			for _, p := range n.Params.Slice() {
				if p.IsValid() {
					params = append(params, p)
				}
			}
			return none, nil
		},
		Default: func(expr.ID, *expr.Node, []struct{}) (struct{}, error) {
			return none, nil
		},
	}

	roots := make([]expr.ID, 0, f.Len())
	for _, itg := range f.Integrals() {
		roots = append(roots, itg.Integrand())
	}
	mapped := make(map[expr.ID]struct{})
	for len(roots) > 0 {
		params = nil
		if _, err := corealg.MapDAGs(b, v, roots); err != nil {
			break
		}
		roots = roots[:0]
		for _, p := range params {
			if _, ok := mapped[p]; ok {
				continue
			}
			mapped[p] = none
			roots = append(roots, p)
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func formatMetadata(md map[string]string) string {
	if len(md) == 0 {
		return "{}"
	}
	keys := slices.Sorted(maps.Keys(md))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+md[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
