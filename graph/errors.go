package graph

import "errors"

// ErrEmptyGraph is returned by Compile when no passes were enqueued.
// Per spec.md §7, this is not a fatal condition: the caller's execute()
// completes immediately with a wait-token for the last submission, and
// presentation callbacks observe it as an EmptyRenderGraph failure.
var ErrEmptyGraph = errors.New("graph: no passes enqueued")
