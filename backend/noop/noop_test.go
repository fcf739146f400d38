package noop

import (
	"context"
	"testing"

	"github.com/gogpu/rendergraph/graph"
)

func TestSubmitResolvesImmediately(t *testing.T) {
	b := New()
	token, err := b.Submit(context.Background(), &graph.Compiled{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := token.Await(context.Background()); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if b.SubmittedCount() != 1 {
		t.Fatalf("SubmittedCount = %d, want 1", b.SubmittedCount())
	}
}

func TestAwaitRespectsCanceledContext(t *testing.T) {
	b := New()
	token, err := b.Submit(context.Background(), &graph.Compiled{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := token.Await(ctx); err == nil {
		t.Fatal("Await on a canceled context should return an error")
	}
}
