package rendergraph

import (
	"context"
	"sync"

	"github.com/gogpu/rendergraph/arena"
	"github.com/gogpu/rendergraph/backend"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/pass"
	"github.com/gogpu/rendergraph/recorder"
	"github.com/gogpu/rendergraph/submit"
)

var (
	graphExecutionTag = arena.NewTag(arena.KindGraphExecution, 0)
	usageNodesTag     = arena.NewTag(arena.KindUsageNodes, 0)
)

// pendingPass is one add-pass call, queued until Execute runs its closure.
// Per spec.md's data-flow ("client -> add_pass -> queued record -> on
// execute: recorder runs per-pass"), nothing here touches an arena or a
// recorder until Execute.
type pendingPass struct {
	name    string
	kind    pass.Kind
	targets *pass.RenderTargets
	record  func(*Builder)
	cpu     func(ctx context.Context) error
}

// RegistryHooks lets a caller that owns persistent/transient resource
// registries wire their per-frame teardown into Execute, without this
// package needing to know about registry.Persistent/registry.Transient
// directly. Any field left nil is skipped.
type RegistryHooks struct {
	// ClearActiveGraph clears this submission's bit from every persistent
	// resource in compiled.UsedResources (spec.md §4.7).
	ClearActiveGraph func(compiled *graph.Compiled)

	// AdvanceQueueWaitIndices updates the shared last-completed-index state
	// registry.Persistent.IsKnownInUse consults.
	AdvanceQueueWaitIndices func(compiled *graph.Compiled)

	// ResetTransientRegistries invalidates every transient handle issued
	// during the completed frame.
	ResetTransientRegistries func()
}

// RenderGraph accumulates one frame's passes and drives them through
// compilation and submission. It is safe for concurrent AddXxxPass calls
// from the client thread while a previous Execute's backend submission is
// still in flight; per-graph state is guarded by a lock, per spec.md §5.
//
// spec.md §5 also requires that submissions on different graphs against
// the same backend be globally serialised through a single submission
// stream. A *RenderGraph does not get its own stream by default: New backs
// it with a fresh private submit.Driver only when the caller has exactly
// one graph. A caller driving several graphs against one backend (e.g. a
// primary frame graph plus an async-compute graph) must create one
// submit.Driver with submit.NewDriver and hand it to each graph via
// NewWithDriver, so every graph's Execute funnels through the same
// internal/thread.Thread.
type RenderGraph struct {
	config graph.Config
	driver *submit.Driver
	owns   bool
	hooks  RegistryHooks

	mu      sync.Mutex
	pending []*pendingPass
}

// New creates a RenderGraph backed by a private submit.Driver over be,
// admitting at most maxInFlight concurrent submissions. Use this only when
// be has a single RenderGraph submitting to it; otherwise use
// NewWithDriver so every graph against that backend shares one
// submission stream.
func New(be backend.Backend, config graph.Config, maxInFlight int, hooks RegistryHooks) *RenderGraph {
	g := NewWithDriver(submit.NewDriver(be, maxInFlight), config, hooks)
	g.owns = true
	return g
}

// NewWithDriver creates a RenderGraph over an existing driver, shared with
// any other RenderGraph constructed the same way. Sharing a driver is how
// spec.md §5's single-global-submission-stream guarantee is actually
// enforced across more than one graph: Close on a graph built this way
// does not stop the shared driver, since other graphs may still be using
// it - the driver's owner is responsible for calling driver.Close once no
// graph has any Execute in flight.
func NewWithDriver(driver *submit.Driver, config graph.Config, hooks RegistryHooks) *RenderGraph {
	return &RenderGraph{config: config, driver: driver, hooks: hooks}
}

// Close stops the graph's submission stream if New created it privately.
// A graph built with NewWithDriver leaves the shared driver running; no
// further Execute calls may be made on this graph afterward either way.
func (g *RenderGraph) Close() {
	if g.owns {
		g.driver.Close()
	}
}

// AddDrawPass queues a draw pass. targets describes the render-target
// attachments the compiler's merge stage (spec.md §4.6(e)) groups by.
func (g *RenderGraph) AddDrawPass(name string, targets *pass.RenderTargets, fn func(*Builder)) {
	g.enqueue(&pendingPass{name: name, kind: pass.KindDraw, targets: targets, record: fn})
}

// AddComputePass queues a compute pass.
func (g *RenderGraph) AddComputePass(name string, fn func(*Builder)) {
	g.enqueue(&pendingPass{name: name, kind: pass.KindCompute, record: fn})
}

// AddBlitPass queues a blit (copy) pass.
func (g *RenderGraph) AddBlitPass(name string, fn func(*Builder)) {
	g.enqueue(&pendingPass{name: name, kind: pass.KindBlit, record: fn})
}

// AddExternalPass queues a pass whose commands are opaque to the compiler
// (spec.md §4.5); it is always treated as a side effect.
func (g *RenderGraph) AddExternalPass(name string, fn func(*Builder)) {
	g.enqueue(&pendingPass{name: name, kind: pass.KindExternal, record: fn})
}

// AddAccelerationPass queues an acceleration-structure build/refit pass.
func (g *RenderGraph) AddAccelerationPass(name string, fn func(*Builder)) {
	g.enqueue(&pendingPass{name: name, kind: pass.KindAcceleration, record: fn})
}

// AddCPUPass queues a pass with no command stream: fn runs on the caller's
// context during the submission driver's CPU-passes stage, serially, in
// submission order (spec.md §4.7).
func (g *RenderGraph) AddCPUPass(name string, fn func(ctx context.Context) error) {
	g.enqueue(&pendingPass{name: name, kind: pass.KindCPU, cpu: fn})
}

func (g *RenderGraph) enqueue(p *pendingPass) {
	g.mu.Lock()
	g.pending = append(g.pending, p)
	g.mu.Unlock()
}

// Execute runs every queued pass's closure (non-CPU closures run
// concurrently, per spec.md §5), compiles the resulting graph, and submits
// it. It returns a wait-token resolving once the backend reports
// completion. Calling Execute with no queued passes is not an error: it
// resolves the OnPresentation callback with submit.ErrEmptyRenderGraph and
// returns a token for the previous real submission, per spec.md §7's
// empty-submission rule.
func (g *RenderGraph) Execute(ctx context.Context, onCompletion submit.CompletionCallback, onPresentation submit.PresentationCallback) (backend.WaitToken, error) {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	pool := arena.NewPool()
	usageView := pool.ThreadView(usageNodesTag)

	records := make([]*pass.Record, len(pending))
	var wg sync.WaitGroup
	for i, p := range pending {
		if p.kind == pass.KindCPU {
			records[i] = &pass.Record{
				Name:              p.name,
				Kind:              pass.KindCPU,
				Reads:             map[handle.Handle]struct{}{},
				Writes:            map[handle.Handle]struct{}{},
				CPUExecute:        p.cpu,
				RenderTargetGroup: -1,
			}
			continue
		}

		wg.Add(1)
		go func(i int, p *pendingPass) {
			defer wg.Done()
			view := pool.ThreadView(graphExecutionTag)
			rec := recorder.New(uint32(i), view)
			if p.record != nil {
				p.record(&Builder{rec: rec})
			}
			pr := pass.New(uint32(i), p.name, p.kind, rec)
			pr.RenderTargets = p.targets
			records[i] = pr
		}(i, p)
	}
	wg.Wait()

	gph := graph.New(g.config)
	for _, r := range records {
		gph.AddPass(r)
	}

	freeArenas := func() {
		for _, r := range records {
			if r.Recorder != nil {
				r.Recorder.Release()
			}
		}
		// graph-execution is only freed if some pass actually touched it;
		// freeing an untouched tag (an all-CPU frame) is fatal per
		// arena.Pool.Free's contract, as a tag that was never allocated.
		pool.Free(usageNodesTag)
		if hasNonCPUPass(pending) {
			pool.Free(graphExecutionTag)
		}
	}

	return g.driver.Execute(ctx, submit.Request{
		Graph:     gph,
		UsageView: usageView,
		Hooks: submit.Hooks{
			ClearActiveGraph:         g.hooks.ClearActiveGraph,
			AdvanceQueueWaitIndices:  g.hooks.AdvanceQueueWaitIndices,
			FreeArenas:               freeArenas,
			ResetTransientRegistries: g.hooks.ResetTransientRegistries,
		},
		OnCompletion:   onCompletion,
		OnPresentation: onPresentation,
	})
}

func hasNonCPUPass(pending []*pendingPass) bool {
	for _, p := range pending {
		if p.kind != pass.KindCPU {
			return true
		}
	}
	return false
}
