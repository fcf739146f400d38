package submit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gogpu/rendergraph/arena"
	"github.com/gogpu/rendergraph/backend"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/pass"
)

type stubToken struct {
	err error
}

func (s stubToken) Await(ctx context.Context) error { return s.err }

type stubBackend struct {
	submitCount atomic.Int32
	submitErr   error
	tokenErr    error
}

func (b *stubBackend) Submit(_ context.Context, _ *graph.Compiled) (backend.WaitToken, error) {
	b.submitCount.Add(1)
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	return stubToken{err: b.tokenErr}, nil
}

func newUsageView() *arena.ThreadView {
	pool := arena.NewPool()
	return pool.ThreadView(arena.NewTag(arena.KindUsageNodes, 0))
}

func sideEffectingGraph() *graph.Graph {
	g := graph.New(graph.Config{})
	tex := handle.Pack(handle.KindTexture, handle.FlagPersistent, 1, 0, 1)
	g.AddPass(&pass.Record{
		Kind:              pass.KindCompute,
		Writes:            map[handle.Handle]struct{}{tex: {}},
		Reads:             map[handle.Handle]struct{}{},
		RenderTargetGroup: -1,
	})
	return g
}

func TestExecuteRunsThroughCompletion(t *testing.T) {
	be := &stubBackend{}
	d := NewDriver(be, 2)
	defer d.Close()

	var completed bool
	token, err := d.Execute(context.Background(), Request{
		Graph:     sideEffectingGraph(),
		UsageView: newUsageView(),
		OnCompletion: func(err error) {
			completed = true
			if err != nil {
				t.Errorf("completion callback got err %v", err)
			}
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := token.Await(context.Background()); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if !completed {
		t.Fatal("completion callback was not invoked")
	}
	if be.submitCount.Load() != 1 {
		t.Fatalf("backend submitted %d times, want 1", be.submitCount.Load())
	}
}

func TestExecuteRunsCPUPassesInOrder(t *testing.T) {
	be := &stubBackend{}
	d := NewDriver(be, 2)
	defer d.Close()

	g := graph.New(graph.Config{})
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		g.AddPass(&pass.Record{
			Kind:              pass.KindCPU,
			Reads:             map[handle.Handle]struct{}{},
			Writes:            map[handle.Handle]struct{}{},
			RenderTargetGroup: -1,
			CPUExecute: func(ctx context.Context) error {
				order = append(order, i)
				return nil
			},
		})
	}

	token, err := d.Execute(context.Background(), Request{Graph: g, UsageView: newUsageView()})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := token.Await(context.Background()); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("cpu passes ran out of order: %v", order)
	}
}

func TestExecuteRunsTeardownHooksOnCompletion(t *testing.T) {
	be := &stubBackend{}
	d := NewDriver(be, 2)
	defer d.Close()

	var clearedActive, advancedWait, freedArenas, resetRegistries bool
	token, err := d.Execute(context.Background(), Request{
		Graph:     sideEffectingGraph(),
		UsageView: newUsageView(),
		Hooks: Hooks{
			ClearActiveGraph:         func(*graph.Compiled) { clearedActive = true },
			AdvanceQueueWaitIndices:  func(*graph.Compiled) { advancedWait = true },
			FreeArenas:               func() { freedArenas = true },
			ResetTransientRegistries: func() { resetRegistries = true },
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := token.Await(context.Background()); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if !clearedActive || !advancedWait || !freedArenas || !resetRegistries {
		t.Fatalf("teardown hooks incomplete: cleared=%v wait=%v arenas=%v registries=%v",
			clearedActive, advancedWait, freedArenas, resetRegistries)
	}
}

func TestExecuteEmptyGraphFiresPresentationFailureWithoutSubmitting(t *testing.T) {
	be := &stubBackend{}
	d := NewDriver(be, 2)
	defer d.Close()

	var presented error
	token, err := d.Execute(context.Background(), Request{
		Graph:     graph.New(graph.Config{}),
		UsageView: newUsageView(),
		OnPresentation: func(err error) {
			presented = err
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if presented != ErrEmptyRenderGraph {
		t.Fatalf("presentation callback got %v, want ErrEmptyRenderGraph", presented)
	}
	if be.submitCount.Load() != 0 {
		t.Fatal("empty graph must not reach the backend")
	}
	if err := token.Await(context.Background()); err != nil {
		t.Fatalf("Await on an already-resolved token: %v", err)
	}
}

func TestExecuteEmptyGraphReturnsPriorSubmissionToken(t *testing.T) {
	be := &stubBackend{}
	d := NewDriver(be, 2)
	defer d.Close()

	first, err := d.Execute(context.Background(), Request{Graph: sideEffectingGraph(), UsageView: newUsageView()})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := first.Await(context.Background()); err != nil {
		t.Fatalf("Await: %v", err)
	}

	second, err := d.Execute(context.Background(), Request{Graph: graph.New(graph.Config{}), UsageView: newUsageView()})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if second != first {
		t.Fatal("empty-graph submission should return the previous real submission's token")
	}
}

func TestExecuteAdmissionControlLimitsInFlight(t *testing.T) {
	be := &stubBackend{}
	d := NewDriver(be, 1)
	defer d.Close()

	blocked := make(chan struct{})
	release := make(chan struct{})
	_ = blocked

	be2 := &blockingBackend{release: release, started: make(chan struct{}, 1)}
	d2 := NewDriver(be2, 1)
	defer d2.Close()

	done := make(chan struct{})
	go func() {
		token, err := d2.Execute(context.Background(), Request{Graph: sideEffectingGraph(), UsageView: newUsageView()})
		if err != nil {
			t.Errorf("first Execute: %v", err)
		}
		token.Await(context.Background())
		close(done)
	}()

	<-be2.started

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	if _, err := d2.Execute(ctx, Request{Graph: sideEffectingGraph(), UsageView: newUsageView()}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Execute while at capacity: got err %v, want DeadlineExceeded", err)
	}

	close(release)
	<-done
}

type blockingBackend struct {
	release chan struct{}
	started chan struct{}
}

func (b *blockingBackend) Submit(_ context.Context, _ *graph.Compiled) (backend.WaitToken, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	return blockingToken{release: b.release}, nil
}

type blockingToken struct {
	release chan struct{}
}

func (t blockingToken) Await(ctx context.Context) error {
	select {
	case <-t.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
