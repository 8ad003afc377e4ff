package form

import (
	"maps"

	"formc/internal/expr"
)

// Integral types understood by the front end, in canonical order.
const (
	TypeCell                = "cell"
	TypeExteriorFacet       = "exterior_facet"
	TypeExteriorFacetBottom = "exterior_facet_bottom"
	TypeExteriorFacetTop    = "exterior_facet_top"
	TypeExteriorFacetVert   = "exterior_facet_vert"
	TypeInteriorFacet       = "interior_facet"
	TypeInteriorFacetHoriz  = "interior_facet_horiz"
	TypeInteriorFacetVert   = "interior_facet_vert"
	TypePoint               = "point"
	TypeQuadrature          = "quadrature"
	TypeMacroCell           = "macro_cell"
)

// IntegralTypes lists every known integral type in canonical order.
var IntegralTypes = []string{
	TypeCell,
	TypeExteriorFacet,
	TypeExteriorFacetBottom,
	TypeExteriorFacetTop,
	TypeExteriorFacetVert,
	TypeInteriorFacet,
	TypeInteriorFacetHoriz,
	TypeInteriorFacetVert,
	TypePoint,
	TypeQuadrature,
	TypeMacroCell,
}

// KnownType reports whether t is one of IntegralTypes.
func KnownType(t string) bool {
	for _, k := range IntegralTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Integral is one domain-tagged integrand. Values are treated as immutable:
// use Reconstruct to obtain a copy with a different integrand.
type Integral struct {
	integrand   expr.ID
	typ         string
	domain      string
	subdomainID string
	metadata    map[string]string
}

// NewIntegral creates an integral record. The metadata map is copied.
func NewIntegral(integrand expr.ID, integralType, domain, subdomainID string, metadata map[string]string) Integral {
	return Integral{
		integrand:   integrand,
		typ:         integralType,
		domain:      domain,
		subdomainID: subdomainID,
		metadata:    maps.Clone(metadata),
	}
}

func (i Integral) Integrand() expr.ID   { return i.integrand }
func (i Integral) IntegralType() string { return i.typ }
func (i Integral) Domain() string       { return i.domain }
func (i Integral) SubdomainID() string  { return i.subdomainID }

// Metadata returns a copy of the compiler metadata.
func (i Integral) Metadata() map[string]string { return maps.Clone(i.metadata) }

// Reconstruct returns a copy of i carrying integrand instead of the original.
func (i Integral) Reconstruct(integrand expr.ID) Integral {
	out := i
	out.integrand = integrand
	out.metadata = maps.Clone(i.metadata)
	return out
}

// SameTags reports whether i and o agree on everything except the integrand.
func (i Integral) SameTags(o Integral) bool {
	return i.typ == o.typ &&
		i.domain == o.domain &&
		i.subdomainID == o.subdomainID &&
		maps.Equal(i.metadata, o.metadata)
}
