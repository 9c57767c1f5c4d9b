// Package trace provides structured tracing for mdref.
//
// Resolution runs are long sequences of cache lookups; tracing shows which
// descriptors missed the caches, which assemblies were loaded and where a
// batch spent its time.
//
// # Usage
//
//	mdref resolve --trace=- --trace-level=detail requests.yaml
//
// # Tracers
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: in-memory circular buffer, dumped on failure
//   - MultiTracer: fan-out to several tracers
//
// # Levels and scopes
//
// Levels select which scopes are emitted:
//
//   - LevelPhase: ScopeCommand and ScopeBatch
//   - LevelDetail: adds ScopeLookup (cache misses, assembly loads)
//   - LevelDebug: adds ScopeMember (member scans, absent results)
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeBatch, "resolve", 0)
//	defer span.End("")
package trace
