// Package snapshot persists the result of a strip: the stripped form plus the
// coordinate derivative chain, so a later run can reattach it.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"formc/internal/cdpass"
	"formc/internal/expr"
	"formc/internal/form"
	"formc/internal/formfile"
)

// SchemaVersion is bumped whenever the encoded layout changes.
const SchemaVersion uint16 = 1

var (
	ErrSchemaMismatch = errors.New("snapshot schema mismatch")
	ErrDigestMismatch = errors.New("snapshot content digest mismatch")
	ErrNotFound       = errors.New("snapshot not found")
)

// IntegralRecord is one stripped integral with its integrand in s-expression
// form.
type IntegralRecord struct {
	Type      string            `msgpack:"type"`
	Domain    string            `msgpack:"domain"`
	Subdomain string            `msgpack:"subdomain"`
	Metadata  map[string]string `msgpack:"metadata,omitempty"`
	Integrand string            `msgpack:"integrand"`
}

// ChainEntry is one marker parameter triple; absent parameters are
// formfile.Placeholder.
type ChainEntry struct {
	Direction   string `msgpack:"direction"`
	Coefficient string `msgpack:"coefficient"`
	Relation    string `msgpack:"relation"`
}

type Snapshot struct {
	Schema  uint16    `msgpack:"schema"`
	ID      uuid.UUID `msgpack:"id"`
	Created time.Time `msgpack:"created"`

	Source       string `msgpack:"source"`
	SourceDigest Digest `msgpack:"source_digest"`

	Integrals []IntegralRecord `msgpack:"integrals"`
	// HasChain separates "no chain" (zero integrals) from an empty chain.
	HasChain bool         `msgpack:"has_chain"`
	Chain    []ChainEntry `msgpack:"chain"`

	// Digest covers Integrals, HasChain and Chain.
	Digest Digest `msgpack:"digest"`
}

// New captures a stripped form and its chain. sourceData is the raw form
// file the strip started from.
func New(b *expr.Builder, source string, sourceData []byte, stripped *form.Form, chain *cdpass.Chain) (*Snapshot, error) {
	s := &Snapshot{
		Schema:       SchemaVersion,
		ID:           uuid.New(),
		Created:      time.Now().UTC(),
		Source:       source,
		SourceDigest: DigestOf(sourceData),
		Integrals:    make([]IntegralRecord, 0, stripped.Len()),
		HasChain:     !chain.IsNone(),
	}
	for _, itg := range stripped.Integrals() {
		s.Integrals = append(s.Integrals, IntegralRecord{
			Type:      itg.IntegralType(),
			Domain:    itg.Domain(),
			Subdomain: itg.SubdomainID(),
			Metadata:  itg.Metadata(),
			Integrand: b.Format(itg.Integrand()),
		})
	}
	if chain != nil {
		s.Chain = make([]ChainEntry, 0, chain.Len())
		for _, p := range chain.Params {
			s.Chain = append(s.Chain, ChainEntry{
				Direction:   b.Format(p.Direction),
				Coefficient: b.Format(p.Coefficient),
				Relation:    b.Format(p.Relation),
			})
		}
	}
	d, err := s.contentDigest()
	if err != nil {
		return nil, err
	}
	s.Digest = d
	return s, nil
}

type content struct {
	Integrals []IntegralRecord
	HasChain  bool
	Chain     []ChainEntry
}

func (s *Snapshot) contentDigest() (Digest, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(content{Integrals: s.Integrals, HasChain: s.HasChain, Chain: s.Chain}); err != nil {
		return Digest{}, fmt.Errorf("failed to encode snapshot content: %w", err)
	}
	return DigestOf(buf.Bytes()), nil
}

// Validate checks the schema version and the content digest.
func (s *Snapshot) Validate() error {
	if s.Schema != SchemaVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, s.Schema, SchemaVersion)
	}
	d, err := s.contentDigest()
	if err != nil {
		return err
	}
	if d != s.Digest {
		return fmt.Errorf("%w: recorded %s, computed %s", ErrDigestMismatch, s.Digest.Short(), d.Short())
	}
	return nil
}

// Restore rebuilds the stripped form and the chain in b.
func (s *Snapshot) Restore(b *expr.Builder) (*form.Form, *cdpass.Chain, error) {
	integrals := make([]form.Integral, 0, len(s.Integrals))
	for i, rec := range s.Integrals {
		id, err := formfile.ParseExpr(b, rec.Integrand)
		if err != nil {
			return nil, nil, fmt.Errorf("integral %d: %w", i, err)
		}
		integrals = append(integrals, form.NewIntegral(id, rec.Type, rec.Domain, rec.Subdomain, maps.Clone(rec.Metadata)))
	}
	f := form.New(integrals...)
	if !s.HasChain {
		return f, nil, nil
	}

	chain := cdpass.NewChain()
	for i, e := range s.Chain {
		var params [3]expr.ID
		for j, text := range []string{e.Direction, e.Coefficient, e.Relation} {
			id, err := parseParam(b, text)
			if err != nil {
				return nil, nil, fmt.Errorf("chain entry %d: %w", i, err)
			}
			params[j] = id
		}
		chain.Params = append(chain.Params, expr.MarkerParams{
			Direction:   params[0],
			Coefficient: params[1],
			Relation:    params[2],
		})
	}
	return f, chain, nil
}

func parseParam(b *expr.Builder, text string) (expr.ID, error) {
	if text == formfile.Placeholder {
		return expr.NoID, nil
	}
	return formfile.ParseExpr(b, text)
}
