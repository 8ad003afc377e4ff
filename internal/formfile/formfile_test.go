package formfile_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"formc/internal/diag"
	"formc/internal/expr"
	"formc/internal/form"
	"formc/internal/formfile"
)

func TestParseExpr_FormatRoundTrip(t *testing.T) {
	cases := []string{
		"u",
		"u#3",
		"[0 2]",
		"(grad u)",
		"(* (grad u) (grad v#1))",
		"(coordinate_derivative (* u v) w _ _)",
		"(coordinate_derivative (coordinate_derivative (inner u v) w1 [0] _) w2 _ (list))",
		"(component_tensor (indexed u [0 1]) [0 1])",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			b := expr.NewBuilder(0)
			id, err := formfile.ParseExpr(b, src)
			if err != nil {
				t.Fatalf("ParseExpr(%q): %v", src, err)
			}
			if got := b.Format(id); got != src {
				t.Fatalf("Format = %q, want %q", got, src)
			}
		})
	}
}

func TestParseExpr_CommentsAndWhitespace(t *testing.T) {
	b := expr.NewBuilder(0)
	id, err := formfile.ParseExpr(b, "; leading comment\n(  +\n\tu ; inline\n  v )\n")
	if err != nil {
		t.Fatalf("ParseExpr: %v", err)
	}
	if got := b.Format(id); got != "(+ u v)" {
		t.Fatalf("Format = %q", got)
	}
}

func TestParseExpr_MarkerParams(t *testing.T) {
	b := expr.NewBuilder(0)
	id, err := formfile.ParseExpr(b, "(coordinate_derivative u w _ [1])")
	if err != nil {
		t.Fatalf("ParseExpr: %v", err)
	}
	if b.Kind(id) != expr.KindMarker {
		t.Fatalf("expected marker, got %s", b.Kind(id))
	}
	p, _ := b.Params(id)
	if !p.Direction.IsValid() || p.Coefficient.IsValid() || !p.Relation.IsValid() {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestParseExpr_NFC(t *testing.T) {
	b := expr.NewBuilder(0)
	id, err := formfile.ParseExpr(b, "e\u0301")
	if err != nil {
		t.Fatalf("ParseExpr: %v", err)
	}
	if got := b.Get(id).Name; got != "\u00e9" {
		t.Fatalf("name not normalised: %q", got)
	}
}

func TestParseExpr_Errors(t *testing.T) {
	cases := []struct {
		name        string
		src         string
		markerArity bool
	}{
		{"empty", "", false},
		{"unclosed", "(grad u", false},
		{"trailing", "u v", false},
		{"stray close", ")", false},
		{"hole outside marker", "(grad _)", false},
		{"hole as wrapped", "(coordinate_derivative _ w _ _)", false},
		{"bare marker name", "coordinate_derivative", false},
		{"bad label", "u#x", false},
		{"negative label", "u#-1", false},
		{"bad index", "[0 a]", false},
		{"missing operator", "()", false},
		{"marker arity", "(coordinate_derivative u w _)", true},
		{"marker arity long", "(coordinate_derivative u w _ _ _)", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := formfile.ParseExpr(expr.NewBuilder(0), tc.src)
			var se *formfile.SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected SyntaxError, got %v", err)
			}
			if se.MarkerArity != tc.markerArity {
				t.Fatalf("MarkerArity = %v, want %v (%v)", se.MarkerArity, tc.markerArity, err)
			}
		})
	}
}

const tomlForm = `
[[integral]]
type = "cell"
domain = "mesh"
integrand = "(coordinate_derivative (* u v) w _ _)"
[integral.metadata]
quadrature_degree = 2

[[integral]]
type = "exterior_facet"
domain = "mesh"
subdomain = "1"
integrand = "(coordinate_derivative u w _ _)"
`

const yamlForm = `
integral:
  - type: cell
    domain: mesh
    integrand: "(coordinate_derivative (* u v) w _ _)"
    metadata:
      quadrature_degree: 2
  - type: exterior_facet
    domain: mesh
    subdomain: "1"
    integrand: "(coordinate_derivative u w _ _)"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoad_TOMLAndYAMLAgree(t *testing.T) {
	b := expr.NewBuilder(0)
	tf, err := formfile.Load(b, writeFile(t, "form.toml", tomlForm))
	if err != nil {
		t.Fatalf("load toml: %v", err)
	}
	yf, err := formfile.Load(b, writeFile(t, "form.yaml", yamlForm))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if tf.Format != formfile.FormatTOML || yf.Format != formfile.FormatYAML {
		t.Fatalf("formats: %s %s", tf.Format, yf.Format)
	}
	if !form.Equal(b, tf.Form, yf.Form) {
		t.Fatalf("toml and yaml forms differ")
	}
	first := tf.Form.Integral(0)
	if first.SubdomainID() != formfile.DefaultSubdomain {
		t.Fatalf("default subdomain = %q", first.SubdomainID())
	}
	if got := first.Metadata()["quadrature_degree"]; got != "2" {
		t.Fatalf("metadata = %q", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, format := range []formfile.Format{formfile.FormatTOML, formfile.FormatYAML} {
		t.Run(format.String(), func(t *testing.T) {
			b := expr.NewBuilder(0)
			f, err := formfile.Decode(b, "in.toml", formfile.FormatTOML, []byte(tomlForm))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			var buf bytes.Buffer
			if err := formfile.Encode(&buf, b, f, format); err != nil {
				t.Fatalf("encode: %v", err)
			}
			g, err := formfile.Decode(b, "out", format, buf.Bytes())
			if err != nil {
				t.Fatalf("decode encoded:\n%s\n%v", buf.String(), err)
			}
			if !form.Equal(b, f, g) {
				t.Fatalf("encoded form differs:\n%s", buf.String())
			}
		})
	}
}

func TestMetadata_StringValued(t *testing.T) {
	src := "[[integral]]\ntype = \"cell\"\ndomain = \"mesh\"\nintegrand = \"u\"\n" +
		"[integral.metadata]\nquadrature_degree = 4\nestimate = false\nscale = 0.5\nscheme = \"default\"\n"
	b := expr.NewBuilder(0)
	f, err := formfile.Decode(b, "in.toml", formfile.FormatTOML, []byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	md := f.Integral(0).Metadata()
	want := map[string]string{"quadrature_degree": "4", "estimate": "false", "scale": "0.5", "scheme": "default"}
	for k, v := range want {
		if md[k] != v {
			t.Errorf("metadata[%q] = %q, want %q", k, md[k], v)
		}
	}

	var buf bytes.Buffer
	if err := formfile.Encode(&buf, b, f, formfile.FormatTOML); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), `quadrature_degree = "4"`) {
		t.Fatalf("metadata should be written back as strings:\n%s", buf.String())
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name     string
		format   formfile.Format
		src      string
		code     diag.Code
		integral int
	}{
		{"bad toml", formfile.FormatTOML, "[[integral]\n", diag.ReadBadFormat, diag.NoIntegral},
		{"unknown key", formfile.FormatTOML, "[[integral]]\ntype = \"cell\"\nflavour = 1\n", diag.ReadBadFormat, diag.NoIntegral},
		{"unknown yaml key", formfile.FormatYAML, "integral:\n  - kind: cell\n", diag.ReadBadFormat, diag.NoIntegral},
		{"missing type", formfile.FormatTOML, "[[integral]]\ndomain = \"m\"\nintegrand = \"u\"\n", diag.ReadMissingField, 0},
		{"unknown type", formfile.FormatYAML, "integral:\n  - {type: volume, domain: m, integrand: u}\n", diag.ReadUnknownIntegralType, 0},
		{"missing integrand", formfile.FormatYAML, "integral:\n  - {type: cell, domain: m}\n", diag.ReadMissingField, 0},
		{"syntax", formfile.FormatYAML, "integral:\n  - {type: cell, domain: m, integrand: u}\n  - {type: cell, domain: m, integrand: \"(grad\"}\n", diag.ReadExprSyntax, 1},
		{"nested metadata", formfile.FormatTOML, "[[integral]]\ntype = \"cell\"\ndomain = \"m\"\nintegrand = \"u\"\n[integral.metadata]\nrules = [1, 2]\n", diag.ReadBadFormat, 0},
		{"marker arity", formfile.FormatYAML, "integral:\n  - {type: cell, domain: m, integrand: \"(coordinate_derivative u)\"}\n", diag.ReadBadMarkerArity, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := formfile.Decode(expr.NewBuilder(0), "f", tc.format, []byte(tc.src))
			var fe *formfile.Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *formfile.Error, got %v", err)
			}
			if fe.Code != tc.code || fe.Integral != tc.integral {
				t.Fatalf("got code %s integral %d, want %s %d (%v)", fe.Code.ID(), fe.Integral, tc.code.ID(), tc.integral, err)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	b := expr.NewBuilder(0)
	var fe *formfile.Error
	if _, err := formfile.Load(b, writeFile(t, "form.json", "{}")); !errors.As(err, &fe) || fe.Code != diag.ReadBadFormat {
		t.Fatalf("expected bad format, got %v", err)
	}
	if _, err := formfile.Load(b, filepath.Join(t.TempDir(), "missing.toml")); !errors.As(err, &fe) || fe.Code != diag.ReadIO {
		t.Fatalf("expected io error, got %v", err)
	}
}

func TestEmptyFormFile(t *testing.T) {
	b := expr.NewBuilder(0)
	f, err := formfile.Load(b, writeFile(t, "empty.yml", ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Form.Len() != 0 {
		t.Fatalf("expected zero integrals, got %d", f.Form.Len())
	}
}
