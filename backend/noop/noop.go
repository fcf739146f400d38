// Package noop implements backend.Backend with no actual GPU access,
// matching the teacher's hal/noop package: every submission "succeeds"
// immediately with no barriers inserted and no resources allocated.
// Useful for compiler tests and for running the submission driver without
// a real device attached.
package noop

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gogpu/rendergraph/backend"
	"github.com/gogpu/rendergraph/graph"
)

// Backend is a trivial backend.Backend that completes every submission
// synchronously, as if the GPU finished instantly.
type Backend struct {
	submitted atomic.Uint64

	mu    sync.Mutex
	order []*graph.Compiled
}

// New creates a noop backend.
func New() *Backend {
	return &Backend{}
}

// Submit records the submission and returns an already-resolved token.
func (b *Backend) Submit(_ context.Context, compiled *graph.Compiled) (backend.WaitToken, error) {
	b.submitted.Add(1)
	b.mu.Lock()
	b.order = append(b.order, compiled)
	b.mu.Unlock()
	return &Token{}, nil
}

// SubmittedCount returns how many submissions this backend has accepted,
// for tests that want to assert on call count.
func (b *Backend) SubmittedCount() uint64 {
	return b.submitted.Load()
}

// Order returns every compiled frame this backend has received, in the
// order Submit was called - for tests asserting cross-graph submission
// ordering against a shared submit.Driver.
func (b *Backend) Order() []*graph.Compiled {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*graph.Compiled, len(b.order))
	copy(out, b.order)
	return out
}

// Token is backend.WaitToken for the noop backend: it is resolved the
// instant it is created, since there is no GPU work to wait on.
type Token struct{}

// Await returns immediately: nil, or ctx.Err() if ctx is already done.
func (t *Token) Await(ctx context.Context) error {
	return ctx.Err()
}
