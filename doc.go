// Package rendergraph is the client-facing entry point for the deferred
// GPU command scheduler described by spec.md: a RenderGraph accumulates
// passes across AddDrawPass/AddComputePass/AddCPUPass-style calls, and a
// single Execute call runs each pass's closure, compiles the accumulated
// graph (culling, dependency ordering, render-target merge - see package
// graph), and hands the result to a submit.Driver for backend submission.
//
// The lower-level packages (arena, handle, registry, usage, recorder,
// pass, graph, submit, backend) are usable independently; this package
// only wires them into the shape a caller with no GPU backend of its own
// (or the noop test backend) needs.
package rendergraph
