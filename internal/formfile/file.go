package formfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"formc/internal/diag"
	"formc/internal/expr"
	"formc/internal/form"
)

// DefaultSubdomain is used when an integral omits its subdomain.
const DefaultSubdomain = "everywhere"

type Format uint8

const (
	FormatUnknown Format = iota
	FormatTOML
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatUnknown
}

// ParseFormat accepts "toml", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatUnknown, fmt.Errorf("unsupported form file format %q (supported: toml, yaml)", s)
}

// Error is a read failure carrying a diagnostic code. Integral is
// diag.NoIntegral when the failure is not tied to one record.
type Error struct {
	Code     diag.Code
	Path     string
	Integral int
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Path)
	if e.Integral != diag.NoIntegral {
		fmt.Fprintf(&sb, ": integral %d", e.Integral)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Location converts the error position into a diagnostic location.
func (e *Error) Location() diag.Location {
	return diag.Location{File: e.Path, Integral: e.Integral}
}

type document struct {
	Integrals []record `toml:"integral" yaml:"integral"`
}

type record struct {
	Type      string         `toml:"type" yaml:"type"`
	Domain    string         `toml:"domain" yaml:"domain"`
	Subdomain string         `toml:"subdomain,omitempty" yaml:"subdomain,omitempty"`
	Integrand string         `toml:"integrand" yaml:"integrand"`
	Metadata  map[string]any `toml:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// File is a decoded form file.
type File struct {
	Path   string
	Format Format
	Form   *form.Form
}

// Load reads path, picking the decoder from its extension, and builds the
// form's expressions in b.
func Load(b *expr.Builder, path string) (*File, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, &Error{
			Code: diag.ReadBadFormat, Path: path, Integral: diag.NoIntegral,
			Msg: fmt.Sprintf("unsupported extension %q (want .toml, .yaml or .yml)", filepath.Ext(path)),
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: diag.ReadIO, Path: path, Integral: diag.NoIntegral, Msg: "failed to read file", Err: err}
	}
	f, err := Decode(b, path, format, data)
	if err != nil {
		return nil, err
	}
	return &File{Path: path, Format: format, Form: f}, nil
}

// Decode builds a form from data. name is only used in errors.
func Decode(b *expr.Builder, name string, format Format, data []byte) (*form.Form, error) {
	var doc document
	switch format {
	case FormatTOML:
		meta, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, &Error{Code: diag.ReadBadFormat, Path: name, Integral: diag.NoIntegral, Msg: "failed to parse TOML", Err: err}
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, &Error{
				Code: diag.ReadBadFormat, Path: name, Integral: diag.NoIntegral,
				Msg: fmt.Sprintf("unknown key %q", undecoded[0].String()),
			}
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, &Error{Code: diag.ReadBadFormat, Path: name, Integral: diag.NoIntegral, Msg: "failed to parse YAML", Err: err}
		}
	default:
		return nil, &Error{Code: diag.ReadBadFormat, Path: name, Integral: diag.NoIntegral, Msg: "unknown form file format"}
	}

	integrals := make([]form.Integral, 0, len(doc.Integrals))
	for i, rec := range doc.Integrals {
		itg, err := rec.build(b)
		if err != nil {
			var fe *Error
			if errors.As(err, &fe) {
				fe.Path, fe.Integral = name, i
				return nil, fe
			}
			return nil, &Error{Code: diag.ReadBadFormat, Path: name, Integral: i, Msg: "invalid integral", Err: err}
		}
		integrals = append(integrals, itg)
	}
	return form.New(integrals...), nil
}

func (r record) build(b *expr.Builder) (form.Integral, error) {
	typ := strings.TrimSpace(r.Type)
	switch {
	case typ == "":
		return form.Integral{}, &Error{Code: diag.ReadMissingField, Msg: "missing type"}
	case !form.KnownType(typ):
		return form.Integral{}, &Error{
			Code: diag.ReadUnknownIntegralType,
			Msg:  fmt.Sprintf("unknown integral type %q (known: %s)", typ, strings.Join(form.IntegralTypes, ", ")),
		}
	case strings.TrimSpace(r.Domain) == "":
		return form.Integral{}, &Error{Code: diag.ReadMissingField, Msg: "missing domain"}
	case strings.TrimSpace(r.Integrand) == "":
		return form.Integral{}, &Error{Code: diag.ReadMissingField, Msg: "missing integrand"}
	}

	integrand, err := ParseExpr(b, r.Integrand)
	if err != nil {
		code := diag.ReadExprSyntax
		var se *SyntaxError
		if errors.As(err, &se) && se.MarkerArity {
			code = diag.ReadBadMarkerArity
		}
		return form.Integral{}, &Error{Code: code, Msg: "invalid integrand", Err: err}
	}

	subdomain := strings.TrimSpace(r.Subdomain)
	if subdomain == "" {
		subdomain = DefaultSubdomain
	}
	var metadata map[string]string
	if len(r.Metadata) > 0 {
		metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			text, err := metadataText(v)
			if err != nil {
				return form.Integral{}, &Error{Code: diag.ReadBadFormat, Msg: fmt.Sprintf("metadata %q: %v", k, err)}
			}
			metadata[norm.NFC.String(k)] = text
		}
	}
	return form.NewIntegral(integrand, typ, norm.NFC.String(strings.TrimSpace(r.Domain)), norm.NFC.String(subdomain), metadata), nil
}

// metadataText flattens a scalar metadata value to the string form stored on
// integrals. Tables and lists have no string form and are rejected.
func metadataText(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(v), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("expected a scalar, got %T", v)
}

// Encode renders f in the given format. Integrands are written with
// expr.Builder.Format, so Decode(Encode(f)) rebuilds an equal form.
func Encode(w io.Writer, b *expr.Builder, f *form.Form, format Format) error {
	doc := document{Integrals: make([]record, 0, f.Len())}
	for _, itg := range f.Integrals() {
		rec := record{
			Type:      itg.IntegralType(),
			Domain:    itg.Domain(),
			Subdomain: itg.SubdomainID(),
			Integrand: b.Format(itg.Integrand()),
		}
		if md := itg.Metadata(); len(md) > 0 {
			rec.Metadata = make(map[string]any, len(md))
			for k, v := range md {
				rec.Metadata[k] = v
			}
		}
		doc.Integrals = append(doc.Integrals, rec)
	}

	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("failed to encode TOML: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
	default:
		return fmt.Errorf("unknown form file format %s", format)
	}
	return nil
}
