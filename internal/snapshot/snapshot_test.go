package snapshot_test

import (
	"errors"
	"path/filepath"
	"testing"

	"formc/internal/cdpass"
	"formc/internal/expr"
	"formc/internal/form"
	"formc/internal/formfile"
	"formc/internal/snapshot"
)

const source = `
integral:
  - type: cell
    domain: mesh
    integrand: "(coordinate_derivative (coordinate_derivative (inner (grad u) (grad v)) w _ _) x#1 [0] (rel u))"
    metadata: {quadrature_degree: 4}
  - type: exterior_facet
    domain: mesh
    subdomain: "2"
    integrand: "(coordinate_derivative (coordinate_derivative (* u v) w _ _) x#1 [0] (rel u))"
`

func stripSource(t *testing.T, b *expr.Builder) (*form.Form, *form.Form, *cdpass.Chain) {
	t.Helper()
	f, err := formfile.Decode(b, "form.yaml", formfile.FormatYAML, []byte(source))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	stripped, chain, err := cdpass.StripForm(b, f)
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	return f, stripped, chain
}

func TestSaveLoadRestore(t *testing.T) {
	b := expr.NewBuilder(0)
	original, stripped, chain := stripSource(t, b)
	if chain.Len() != 2 {
		t.Fatalf("expected 2 markers, got %d", chain.Len())
	}

	snap, err := snapshot.New(b, "form.yaml", []byte(source), stripped, chain)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if snap.SourceDigest != snapshot.DigestOf([]byte(source)) {
		t.Fatalf("source digest not recorded")
	}

	store, err := snapshot.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	path, err := store.Save(snap)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	for _, ref := range []string{snap.ID.String(), path} {
		loaded, err := store.Load(ref)
		if err != nil {
			t.Fatalf("Load(%s): %v", ref, err)
		}
		if loaded.ID != snap.ID || loaded.Digest != snap.Digest || !loaded.Created.Equal(snap.Created) {
			t.Fatalf("loaded snapshot differs: %+v", loaded)
		}

		// restore into the same builder so the original stays comparable
		gotStripped, gotChain, err := loaded.Restore(b)
		if err != nil {
			t.Fatalf("Restore: %v", err)
		}
		if !form.Equal(b, gotStripped, stripped) {
			t.Fatalf("restored stripped form differs")
		}
		if err := cdpass.VerifyChains(b, []*cdpass.Chain{chain, gotChain}, cdpass.Strict(true)); err != nil {
			t.Fatalf("restored chain differs: %v", err)
		}
		if !form.Equal(b, cdpass.AttachForm(b, gotStripped, gotChain), original) {
			t.Fatalf("reattached form differs from original")
		}
	}

	ids, err := store.List()
	if err != nil || len(ids) != 1 || ids[0] != snap.ID {
		t.Fatalf("List = %v, %v", ids, err)
	}
}

func TestZeroIntegralsKeepNoneChain(t *testing.T) {
	b := expr.NewBuilder(0)
	snap, err := snapshot.New(b, "empty.toml", nil, form.New(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := filepath.Join(t.TempDir(), "empty"+snapshot.Ext)
	if err := snapshot.WriteFile(path, snap); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded, err := snapshot.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	f, chain, err := loaded.Restore(b)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if f.Len() != 0 || !chain.IsNone() {
		t.Fatalf("expected empty form and none chain, got %d integrals, chain %v", f.Len(), chain)
	}
}

func TestEmptyChainIsNotNone(t *testing.T) {
	b := expr.NewBuilder(0)
	u := b.NewTerminal("u", expr.NoLabel)
	f := form.New(form.NewIntegral(u, form.TypeCell, "mesh", "everywhere", nil))
	stripped, chain, err := cdpass.StripForm(b, f)
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	snap, err := snapshot.New(b, "plain.toml", nil, stripped, chain)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, got, err := snap.Restore(b)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got.IsNone() || got.Len() != 0 {
		t.Fatalf("expected empty, non-none chain, got %v", got)
	}
}

func TestReadFile_Rejects(t *testing.T) {
	b := expr.NewBuilder(0)
	_, stripped, chain := stripSource(t, b)
	dir := t.TempDir()

	tampered, err := snapshot.New(b, "form.yaml", []byte(source), stripped, chain)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tampered.Integrals[0].Integrand = "u"
	tamperedPath := filepath.Join(dir, "tampered"+snapshot.Ext)
	if err := snapshot.WriteFile(tamperedPath, tampered); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := snapshot.ReadFile(tamperedPath); !errors.Is(err, snapshot.ErrDigestMismatch) {
		t.Fatalf("expected digest mismatch, got %v", err)
	}

	old, err := snapshot.New(b, "form.yaml", []byte(source), stripped, chain)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	old.Schema = snapshot.SchemaVersion + 1
	oldPath := filepath.Join(dir, "old"+snapshot.Ext)
	if err := snapshot.WriteFile(oldPath, old); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := snapshot.ReadFile(oldPath); !errors.Is(err, snapshot.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}

	if _, err := snapshot.ReadFile(filepath.Join(dir, "missing"+snapshot.Ext)); !errors.Is(err, snapshot.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCombine(t *testing.T) {
	a := snapshot.DigestOf([]byte("a"))
	c := snapshot.DigestOf([]byte("c"))
	if snapshot.Combine(a, c) == snapshot.Combine(c, a) {
		t.Fatalf("Combine must be order sensitive")
	}
	if len(a.Short()) != 12 {
		t.Fatalf("Short() = %q", a.Short())
	}
}
