package submit

import "errors"

// ErrEmptyRenderGraph is the failure payload presentation callbacks see
// when execute() is called on a graph with no enqueued passes (spec.md
// §7). It is never returned from Execute itself.
var ErrEmptyRenderGraph = errors.New("submit: render graph had no enqueued passes")
