package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/BaSui01/opscrew/testutil/mocks"
	"github.com/BaSui01/opscrew/types"
)

func TestSequential_OrderAndHandoff(t *testing.T) {
	suffix := func(role string) types.Executor {
		return mocks.NewStubAgent(role, func(ctx context.Context, task string) (string, error) {
			return "output-" + role, nil
		})
	}

	w := NewSequential("pipeline", "deployment pipeline",
		[]types.Executor{suffix("A"), suffix("B"), suffix("C")}, nil)

	result, err := w.Execute(context.Background(), "deploy v2.1.0")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if len(result.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(result.Steps))
	}
	for i, role := range []string{"A", "B", "C"} {
		if result.Steps[i].AgentRole != role {
			t.Errorf("step %d: expected agent %s, got %s", i+1, role, result.Steps[i].AgentRole)
		}
		if result.Steps[i].Step != i+1 {
			t.Errorf("step %d: wrong index %d", i+1, result.Steps[i].Step)
		}
	}

	// Each step's input equals the previous step's output wrapped by
	// the fixed template.
	if result.Steps[0].Input != "deploy v2.1.0" {
		t.Errorf("step 1 input: %q", result.Steps[0].Input)
	}
	if result.Steps[1].Input != DefaultHandoff("output-A") {
		t.Errorf("step 2 input: %q", result.Steps[1].Input)
	}
	if result.Steps[2].Input != DefaultHandoff("output-B") {
		t.Errorf("step 3 input: %q", result.Steps[2].Input)
	}

	if result.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", result.Status)
	}
	if result.FinalResult == nil || *result.FinalResult != "output-C" {
		t.Errorf("final result: %v", result.FinalResult)
	}
	if result.Succeeded != 3 || result.Failed != 0 {
		t.Errorf("counts: %d/%d", result.Succeeded, result.Failed)
	}
}

func TestSequential_FailFast(t *testing.T) {
	failing := mocks.NewFailingAgent("A", errors.New("boom"))
	never := mocks.NewEchoAgent("B", "unreachable")

	w := NewSequential("pipeline", "", []types.Executor{failing, never}, nil)

	result, err := w.Execute(context.Background(), "task")
	if err == nil {
		t.Fatal("expected error")
	}
	if result == nil {
		t.Fatal("expected partial result alongside the error")
	}

	if len(result.Steps) != 1 {
		t.Fatalf("expected exactly 1 recorded step, got %d", len(result.Steps))
	}
	if result.Steps[0].Error == "" {
		t.Error("step 1 should record the failure")
	}
	if result.FinalResult != nil {
		t.Errorf("final result should be nil, got %q", *result.FinalResult)
	}
	if result.Status != StatusPartial {
		t.Errorf("expected partial, got %s", result.Status)
	}
	if never.Executions() != 0 {
		t.Error("remaining steps must not run after a failure")
	}
}

func TestSequential_MidPipelineFailure(t *testing.T) {
	ok := mocks.NewEchoAgent("A", "first done")
	failing := mocks.NewFailingAgent("B", errors.New("boom"))

	w := NewSequential("pipeline", "", []types.Executor{ok, failing}, nil)

	result, err := w.Execute(context.Background(), "task")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(result.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(result.Steps))
	}
	if result.FinalResult == nil || *result.FinalResult != "first done" {
		t.Errorf("final result should expose the last successful output, got %v", result.FinalResult)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("counts: %d/%d", result.Succeeded, result.Failed)
	}
}

func TestSequential_EmptyAgents(t *testing.T) {
	w := NewSequential("pipeline", "", nil, nil)
	_, err := w.Execute(context.Background(), "task")
	if !errors.Is(err, ErrNoAgents) {
		t.Fatalf("expected ErrNoAgents, got %v", err)
	}
}

func TestSequential_ContextCancellation(t *testing.T) {
	w := NewSequential("pipeline", "",
		[]types.Executor{mocks.NewEchoAgent("A", "x")}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := w.Execute(ctx, "task")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Status != StatusPartial {
		t.Errorf("expected partial, got %s", result.Status)
	}
}

func TestSequential_Deterministic(t *testing.T) {
	agents := []types.Executor{
		mocks.NewEchoAgent("A", "a"),
		mocks.NewEchoAgent("B", "b"),
		mocks.NewEchoAgent("C", "c"),
	}
	w := NewSequential("pipeline", "", agents, nil)

	var first []string
	for run := 0; run < 3; run++ {
		result, err := w.Execute(context.Background(), "task")
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		var order []string
		for _, s := range result.Steps {
			order = append(order, s.AgentRole)
		}
		if run == 0 {
			first = order
			continue
		}
		if fmt.Sprint(order) != fmt.Sprint(first) {
			t.Fatalf("run %d order %v differs from %v", run, order, first)
		}
	}
}
