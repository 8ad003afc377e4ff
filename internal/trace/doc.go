// Package trace records what formc does while it reads forms and moves
// coordinate derivative markers around.
//
// Enable tracing via command-line flags:
//
//	formc check --trace=- --trace-level=detail forms/*.toml
//
// Tracer implementations:
//
//   - Nop: zero-overhead tracer used when tracing is off
//   - StreamTracer: writes every event immediately (file or stderr)
//   - RingTracer: keeps the last N events for dumping after a failure
//   - MultiTracer: fans events out to several tracers
//
// Scopes nest command > file > pass > integral > node. The level decides the
// deepest scope that is recorded: phase stops at passes, detail adds
// integrals, debug adds individual markers.
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "strip", parentID)
//	defer span.End("")
package trace
