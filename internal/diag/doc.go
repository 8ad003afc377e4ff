// Package diag defines the diagnostic records emitted while reading and
// rewriting forms.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error.
//   - Code – numeric identifier with a stable string form (see codes.go).
//   - Message – short, actionable text.
//   - Location – form file plus the index of the integral concerned, if any.
//   - Notes – optional extra context lines.
//
// # Emitting diagnostics
//
// Producers report through a Reporter so emission stays decoupled from
// storage. BagReporter collects into a Bag, which supports sorting and
// deduplication; DedupReporter drops repeats before forwarding.
//
// Package diag performs no formatting for terminals and no IO. Rendering
// lives in internal/diagfmt.
package diag
