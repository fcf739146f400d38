// Package backend defines the consumer contract a render graph hands
// compiled work to (spec.md §6): the ordered active-pass list, the
// projected dependency table, the used-resource set, and a per-queue wait
// vector. A backend is responsible for allocating transient resources,
// inserting barriers from the usage timeline, submitting in pass order,
// and invoking the completion callback exactly once.
//
// This mirrors the shape of hal.Device/hal.Queue in the teacher, narrowed
// from "create GPU objects and submit command buffers" down to "submit a
// compiled render graph and report completion".
package backend

import (
	"context"
	"errors"

	"github.com/gogpu/rendergraph/graph"
)

// ErrBackendGone is returned by WaitToken.Await when the backend reports
// the device/context was lost before the submission completed.
var ErrBackendGone = errors.New("backend: device lost before submission completed")

// WaitToken resolves when a submission reaches the Completed state
// (spec.md §4.7). Awaiting it is the only way a caller observes
// completion; there is no timeout or cancellation.
type WaitToken interface {
	// Await blocks until the submission this token was issued for
	// completes, and returns any backend failure reported for it.
	Await(ctx context.Context) error
}

// Backend is the interface the submission driver hands compiled work to.
type Backend interface {
	// Submit accepts one compiled frame and returns a token that resolves
	// on completion. Submit itself must not block on GPU completion; it
	// may block briefly on backend-side admission (e.g. a full command
	// queue).
	Submit(ctx context.Context, compiled *graph.Compiled) (WaitToken, error)
}
