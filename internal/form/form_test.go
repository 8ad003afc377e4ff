package form_test

import (
	"errors"
	"strings"
	"testing"

	"formc/internal/expr"
	"formc/internal/form"
)

func TestIntegral_ReconstructCopiesTags(t *testing.T) {
	b := expr.NewBuilder(0)
	u := b.NewTerminal("u", expr.NoLabel)
	v := b.NewTerminal("v", expr.NoLabel)
	md := map[string]string{"quadrature_degree": "2"}
	itg := form.NewIntegral(u, form.TypeCell, "mesh", "everywhere", md)
	md["quadrature_degree"] = "9"

	next := itg.Reconstruct(v)
	if next.Integrand() != v {
		t.Errorf("Integrand = %d, want %d", next.Integrand(), v)
	}
	if itg.Integrand() != u {
		t.Errorf("original integrand changed")
	}
	if !itg.SameTags(next) {
		t.Errorf("tags not carried over")
	}
	if got := next.Metadata()["quadrature_degree"]; got != "2" {
		t.Errorf("metadata aliasing: got %q", got)
	}
}

func TestForm_IntegralsByType(t *testing.T) {
	b := expr.NewBuilder(0)
	u := b.NewTerminal("u", expr.NoLabel)
	f := form.New(
		form.NewIntegral(u, form.TypeCell, "mesh", "everywhere", nil),
		form.NewIntegral(u, form.TypeExteriorFacet, "mesh", "1", nil),
		form.NewIntegral(u, form.TypeCell, "mesh", "2", nil),
	)
	cells := f.IntegralsByType(form.TypeCell)
	if len(cells) != 2 || cells[0].SubdomainID() != "everywhere" || cells[1].SubdomainID() != "2" {
		t.Errorf("unexpected cell integrals: %+v", cells)
	}
	if n := len(f.IntegralsByType(form.TypePoint)); n != 0 {
		t.Errorf("point integrals = %d", n)
	}
	if !form.KnownType(form.TypeMacroCell) || form.KnownType("volume") {
		t.Error("KnownType mismatch")
	}
}

func TestMapIntegrands(t *testing.T) {
	b := expr.NewBuilder(0)
	u := b.NewTerminal("u", expr.NoLabel)
	f := form.New(
		form.NewIntegral(u, form.TypeCell, "mesh", "everywhere", nil),
		form.NewIntegral(u, form.TypeExteriorFacet, "mesh", "everywhere", nil),
	)
	g, err := form.MapIntegrands(f, func(id expr.ID) (expr.ID, error) {
		return b.NewOperator("grad", id), nil
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	for i, itg := range g.Integrals() {
		if got := b.Format(itg.Integrand()); got != "(grad u)" {
			t.Errorf("integral %d: %q", i, got)
		}
		if itg.IntegralType() != f.Integral(i).IntegralType() {
			t.Errorf("integral %d: type changed", i)
		}
	}
	if f.Integral(0).Integrand() != u {
		t.Error("input form mutated")
	}

	boom := errors.New("boom")
	if _, err := form.MapIntegrands(f, func(expr.ID) (expr.ID, error) { return expr.NoID, boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestEqual(t *testing.T) {
	b := expr.NewBuilder(0)
	mk := func(name string) *form.Form {
		return form.New(form.NewIntegral(b.NewOperator("grad", b.NewTerminal(name, expr.NoLabel)), form.TypeCell, "mesh", "everywhere", nil))
	}
	if !form.Equal(b, mk("u"), mk("u")) {
		t.Error("structurally equal forms reported different")
	}
	if form.Equal(b, mk("u"), mk("v")) {
		t.Error("different integrands reported equal")
	}
	if form.Equal(b, mk("u"), form.New()) {
		t.Error("different lengths reported equal")
	}
}

func TestFormInfoAndTree(t *testing.T) {
	b := expr.NewBuilder(0)
	u := b.NewTerminal("u", expr.NoLabel)
	w := b.NewTerminal("w", 0)
	cd := b.NewMarker(b.NewOperator("grad", u), expr.MarkerParams{Direction: w, Coefficient: u})
	f := form.New(form.NewIntegral(cd, form.TypeCell, "mesh", "everywhere", map[string]string{"q": "1"}))

	info := form.FormInfo(b, f)
	for _, want := range []string{"num_cell_integrals:", "Terminals: u, w#0", "{q=1}", "(coordinate_derivative (grad u) w#0 u _)"} {
		if !strings.Contains(info, want) {
			t.Errorf("FormInfo missing %q:\n%s", want, info)
		}
	}

	tree := form.TreeFormat(b, f, 0, false)
	if !strings.HasPrefix(tree, "Form:\n    Integral:\n        domain type: cell\n") {
		t.Errorf("unexpected tree:\n%s", tree)
	}
	if !strings.Contains(tree, "            coordinate_derivative\n") {
		t.Errorf("tree lacks marker line:\n%s", tree)
	}
}

func TestTerminals_FollowsSharedNodesAndParams(t *testing.T) {
	b := expr.NewBuilder(0)
	u := b.NewTerminal("u", expr.NoLabel)
	shared := b.NewOperator("grad", u)
	w := b.NewTerminal("w", 0)
	rel := b.NewOperator("inner", b.NewTerminal("g", expr.NoLabel), shared)
	inner := b.NewMarker(shared, expr.MarkerParams{Direction: w, Coefficient: u, Relation: rel})
	outer := b.NewMarker(inner, expr.MarkerParams{Direction: b.NewTerminal("v", 1), Coefficient: u})
	f := form.New(
		form.NewIntegral(outer, form.TypeCell, "mesh", "everywhere", nil),
		form.NewIntegral(b.NewOperator("dot", shared, shared), form.TypeExteriorFacet, "mesh", "everywhere", nil),
	)

	got := strings.Join(form.Terminals(b, f), ", ")
	if want := "g, u, v#1, w#0"; got != want {
		t.Fatalf("Terminals = %q, want %q", got, want)
	}
	if got := form.Terminals(b, form.New()); len(got) != 0 {
		t.Fatalf("Terminals of empty form = %v", got)
	}
}
