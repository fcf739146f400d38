// Package submit implements the submission driver from spec.md §4.7: the
// component that takes one frame's accumulated graph, compiles it,
// enforces admission control against a configured in-flight limit, runs
// CPU passes in order, hands the compiled frame to a backend, and on
// completion tears down the frame's per-submission state.
//
// Submissions on different graphs are globally serialised through a
// single internal/thread.Thread (spec.md §5's "single submission
// stream"), reusing the teacher's dedicated-OS-thread call pattern
// instead of spawning a goroutine per submission.
package submit

import (
	"context"
	"sync"

	"github.com/gogpu/rendergraph/arena"
	"github.com/gogpu/rendergraph/backend"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/internal/diag"
	"github.com/gogpu/rendergraph/internal/thread"
)

// CompletionCallback observes a submission's terminal error, if any. Set
// to nil to skip.
type CompletionCallback func(err error)

// PresentationCallback observes the same terminal event as
// CompletionCallback, fired separately so a client can distinguish
// "stop waiting on the GPU" from "the frame may now be presented".
type PresentationCallback func(err error)

// Hooks bundles the per-frame teardown steps spec.md §4.7 assigns to the
// driver on backend completion. The submit package has no notion of
// resource registries or arenas itself; the caller (the client-facing
// rendergraph package) supplies these as closures over its own state.
type Hooks struct {
	// ClearActiveGraph clears this submission's bit from every persistent
	// resource referenced by compiled.UsedResources.
	ClearActiveGraph func(compiled *graph.Compiled)

	// AdvanceQueueWaitIndices updates the shared last-completed-index
	// state that registry.Persistent.IsKnownInUse consults.
	AdvanceQueueWaitIndices func(compiled *graph.Compiled)

	// FreeArenas releases the frame's graph-execution and usage-nodes
	// arena tags.
	FreeArenas func()

	// ResetTransientRegistries invalidates every transient handle issued
	// during this frame.
	ResetTransientRegistries func()
}

// Request is one frame's submission: the accumulated graph, the arena
// view backing its usage-merge allocations, the teardown hooks, and the
// caller's completion/presentation callbacks.
type Request struct {
	Graph          *graph.Graph
	UsageView      *arena.ThreadView
	Hooks          Hooks
	OnCompletion   CompletionCallback
	OnPresentation PresentationCallback
}

// Driver owns admission control and the serialised submission stream for
// one backend.
type Driver struct {
	backend backend.Backend
	stream  *thread.Thread

	admission chan struct{}

	mu        sync.Mutex
	lastToken backend.WaitToken
}

// NewDriver creates a driver over be, admitting at most maxInFlight
// concurrent submissions before Execute blocks the caller.
func NewDriver(be backend.Backend, maxInFlight int) *Driver {
	if maxInFlight <= 0 {
		diag.Fatalf("submit: maxInFlight must be positive, got %d", maxInFlight)
	}
	return &Driver{
		backend:   be,
		stream:    thread.New(),
		admission: make(chan struct{}, maxInFlight),
	}
}

// Close stops the driver's submission stream. Pending submissions already
// dispatched to the backend are unaffected; no new Execute calls may be
// made after Close.
func (d *Driver) Close() {
	d.stream.Stop()
}

// Execute runs req's graph through the full submission lifecycle and
// returns a token resolving at the Completed state. For an empty graph
// (no enqueued passes), Execute does not consume an admission slot: it
// fires req.OnPresentation with ErrEmptyRenderGraph and returns a token
// for the most recent real submission (or an already-resolved token if
// none has happened yet).
func (d *Driver) Execute(ctx context.Context, req Request) (backend.WaitToken, error) {
	if len(req.Graph.Passes()) == 0 {
		if req.OnPresentation != nil {
			req.OnPresentation(ErrEmptyRenderGraph)
		}
		return d.lastOrResolved(), nil
	}

	select {
	case d.admission <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	f := newFrame()

	var compiled *graph.Compiled
	var err error
	d.stream.CallVoid(func() {
		f.setState(StateCompiling)
		compiled, err = req.Graph.Compile(req.UsageView)
	})
	if err != nil {
		<-d.admission
		return nil, err
	}

	f.setState(StateCPUPasses)
	for _, p := range compiled.CPUPasses {
		if p.CPUExecute == nil {
			continue
		}
		if cpuErr := p.CPUExecute(ctx); cpuErr != nil {
			<-d.admission
			d.finish(f, cpuErr, req)
			f.setState(StateReset)
			return f, cpuErr
		}
	}

	var token backend.WaitToken
	d.stream.CallVoid(func() {
		f.setState(StateSubmitted)
		token, err = d.backend.Submit(ctx, compiled)
	})
	if err != nil {
		<-d.admission
		d.finish(f, err, req)
		f.setState(StateReset)
		return f, err
	}

	d.mu.Lock()
	d.lastToken = f
	d.mu.Unlock()

	go func() {
		submitErr := token.Await(context.Background())

		if req.Hooks.ClearActiveGraph != nil {
			req.Hooks.ClearActiveGraph(compiled)
		}
		if req.Hooks.AdvanceQueueWaitIndices != nil {
			req.Hooks.AdvanceQueueWaitIndices(compiled)
		}
		if req.Hooks.FreeArenas != nil {
			req.Hooks.FreeArenas()
		}
		if req.Hooks.ResetTransientRegistries != nil {
			req.Hooks.ResetTransientRegistries()
		}

		<-d.admission
		d.finish(f, submitErr, req)
		f.setState(StateReset)
	}()

	return f, nil
}

func (d *Driver) finish(f *frame, err error, req Request) {
	if req.OnCompletion != nil {
		req.OnCompletion(err)
	}
	if req.OnPresentation != nil {
		req.OnPresentation(err)
	}
	f.resolve(err)
}

type resolvedToken struct{}

func (resolvedToken) Await(ctx context.Context) error { return ctx.Err() }

func (d *Driver) lastOrResolved() backend.WaitToken {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastToken != nil {
		return d.lastToken
	}
	return resolvedToken{}
}
