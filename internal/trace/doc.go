// Package trace records the progress of a plbind run as span events.
//
// Enable tracing from the command line:
//
//	plbind gen --trace=- --trace-level=detail ./pkg
//
// Tracers are propagated through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFile, "file:a.go", parentID)
//	defer span.End("")
//
// Scopes nest driver, file and declaration. The level decides the deepest
// scope that is recorded: phase keeps driver events, detail adds files and
// debug adds individual declarations.
package trace
