package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"formc/internal/cdpass"
	"formc/internal/expr"
	"formc/internal/form"
	"formc/internal/snapshot"
	"formc/internal/trace"
)

// Attach rebuilds the stripped form stored in snap in a fresh builder and
// reattaches its chain.
func Attach(ctx context.Context, snap *snapshot.Snapshot) (*expr.Builder, *form.Form, error) {
	ctx, span := trace.StartSpan(ctx, trace.ScopeFile, snap.Source)
	defer span.End("")

	b := expr.NewBuilder(0)
	_, restore := trace.StartSpan(ctx, trace.ScopePass, "restore")
	stripped, chain, err := snap.Restore(b)
	restore.End("")
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}

	_, attach := trace.StartSpan(ctx, trace.ScopePass, string(StageAttach))
	restored := cdpass.AttachForm(b, stripped, chain)
	attach.WithExtra("markers", strconv.Itoa(chain.Len())).End("")
	return b, restored, nil
}
