package rendergraph

import (
	"context"
	"testing"

	"github.com/gogpu/rendergraph/backend/noop"
	"github.com/gogpu/rendergraph/command"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/pass"
	"github.com/gogpu/rendergraph/submit"
	"github.com/gogpu/rendergraph/usage"
)

func persistentTexture(slot uint32) handle.Handle {
	return handle.Pack(handle.KindTexture, handle.FlagPersistent, 1, 0, slot)
}

func TestExecuteRecordsAndSubmitsASidEffectingDrawPass(t *testing.T) {
	be := noop.New()
	g := New(be, graph.Config{}, 2, RegistryHooks{})
	defer g.Close()

	tex := persistentTexture(1)
	targets := pass.NewRenderTargets(1920, 1080, 1).WithColor(pass.ColorAttachment{
		Texture: tex, Load: pass.LoadClear, Store: pass.StoreStore,
	})

	var sawDraw bool
	g.AddDrawPass("opaque", targets, func(b *Builder) {
		idx := b.Draw(3, 1)
		b.Use(tex, usage.HintRenderTarget, usage.ColorAttachment, usage.StageFragment, usage.Full(), idx)
		sawDraw = true
	})

	var completed bool
	token, err := g.Execute(context.Background(), func(err error) {
		completed = true
		if err != nil {
			t.Errorf("completion callback got err %v", err)
		}
	}, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := token.Await(context.Background()); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if !sawDraw {
		t.Fatal("draw pass closure did not run")
	}
	if !completed {
		t.Fatal("completion callback was not invoked")
	}
	if be.SubmittedCount() != 1 {
		t.Fatalf("backend submitted %d times, want 1", be.SubmittedCount())
	}
}

func TestExecuteCullsUnconsumedTransientWrite(t *testing.T) {
	be := noop.New()
	g := New(be, graph.Config{}, 2, RegistryHooks{})
	defer g.Close()

	transient := handle.Pack(handle.KindBuffer, 0, 1, 0, 1)

	g.AddComputePass("unconsumed", func(b *Builder) {
		idx := b.Emit(command.OpDispatchThreads, 0)
		b.Use(transient, usage.HintShaderWrite, usage.Write, usage.StageCompute, usage.Full(), idx)
	})

	token, err := g.Execute(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := token.Await(context.Background()); err != nil {
		t.Fatalf("Await: %v", err)
	}
	// A pass writing only an unconsumed transient resource carries no side
	// effect and is culled entirely, but the frame itself was not empty
	// (one pass was enqueued): the backend still receives a submission, it
	// simply carries no active passes.
	if be.SubmittedCount() != 1 {
		t.Fatalf("backend submitted %d times, want 1 (submission with zero active passes)", be.SubmittedCount())
	}
}

func TestExecuteRunsCPUPassSeriallyBeforeSubmission(t *testing.T) {
	be := noop.New()
	g := New(be, graph.Config{}, 2, RegistryHooks{})
	defer g.Close()

	var ran bool
	g.AddCPUPass("housekeeping", func(ctx context.Context) error {
		ran = true
		return nil
	})

	var presented error
	token, err := g.Execute(context.Background(), nil, func(err error) { presented = err })
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := token.Await(context.Background()); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if !ran {
		t.Fatal("cpu pass closure did not run")
	}
	if presented != nil {
		t.Fatalf("presentation callback got %v, want nil", presented)
	}
}

func TestSharedDriverSerialisesTwoGraphsInCallOrder(t *testing.T) {
	be := noop.New()
	driver := submit.NewDriver(be, 4)

	primary := NewWithDriver(driver, graph.Config{}, RegistryHooks{})
	asyncCompute := NewWithDriver(driver, graph.Config{}, RegistryHooks{})

	primary.AddComputePass("primary-pass", func(b *Builder) {
		idx := b.Emit(command.OpDispatchThreads, 0)
		b.Use(handle.Pack(handle.KindTexture, handle.FlagPersistent, 1, 0, 1),
			usage.HintShaderWrite, usage.Write, usage.StageCompute, usage.Full(), idx)
	})
	asyncCompute.AddComputePass("async-pass", func(b *Builder) {
		idx := b.Emit(command.OpDispatchThreads, 0)
		b.Use(handle.Pack(handle.KindTexture, handle.FlagPersistent, 1, 0, 2),
			usage.HintShaderWrite, usage.Write, usage.StageCompute, usage.Full(), idx)
	})

	tok1, err := primary.Execute(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("primary Execute: %v", err)
	}
	tok2, err := asyncCompute.Execute(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("asyncCompute Execute: %v", err)
	}
	if err := tok1.Await(context.Background()); err != nil {
		t.Fatalf("primary Await: %v", err)
	}
	if err := tok2.Await(context.Background()); err != nil {
		t.Fatalf("asyncCompute Await: %v", err)
	}

	order := be.Order()
	if len(order) != 2 {
		t.Fatalf("backend saw %d submissions, want 2", len(order))
	}
	if order[0].ActivePasses[0].Name != "primary-pass" || order[1].ActivePasses[0].Name != "async-pass" {
		t.Fatal("submissions through a shared driver must reach the backend in call order")
	}

	// Neither graph owns the driver; Close must be a no-op for both and
	// leave it usable.
	primary.Close()
	asyncCompute.Close()
	driver.Close()
}

func TestExecuteWithNoPassesReportsEmptyRenderGraph(t *testing.T) {
	be := noop.New()
	g := New(be, graph.Config{}, 2, RegistryHooks{})
	defer g.Close()

	var presented error
	token, err := g.Execute(context.Background(), nil, func(err error) { presented = err })
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := token.Await(context.Background()); err != nil {
		t.Fatalf("Await on an already-resolved token: %v", err)
	}
	if presented == nil {
		t.Fatal("expected a non-nil presentation error for an empty graph")
	}
	if be.SubmittedCount() != 0 {
		t.Fatal("empty graph must not reach the backend")
	}
}
