package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/BaSui01/opscrew/testutil/mocks"
)

func incidentTable(security, performance, infra *mocks.StubAgent) DecisionTable {
	return DecisionTable{
		Branches: []Branch{
			{Label: "security_branch", Match: Keywords("security", "breach"), Target: security},
			{Label: "performance_branch", Match: Keywords("performance", "slow"), Target: performance},
		},
		DefaultLabel: "infrastructure_branch",
		Default:      infra,
	}
}

func TestConditional_Routing(t *testing.T) {
	cases := []struct {
		name       string
		assessment string
		wantPath   string
		wantAgent  string
	}{
		{"breach routes to security", "Possible data breach detected in access logs", "security_branch", "security"},
		{"slow routes to performance", "Response times are SLOW across the fleet", "performance_branch", "monitoring"},
		{"unmatched routes to default", "Disk utilization trending upward", "infrastructure_branch", "infrastructure"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			security := mocks.NewEchoAgent("security", "security handled")
			performance := mocks.NewEchoAgent("monitoring", "performance handled")
			infra := mocks.NewEchoAgent("infrastructure", "infra handled")
			assessor := mocks.NewEchoAgent("assessor", tc.assessment)

			w := NewConditional("incident", "incident response", assessor,
				incidentTable(security, performance, infra), nil)

			result, err := w.Execute(context.Background(), "production incident")
			if err != nil {
				t.Fatalf("execute failed: %v", err)
			}

			if len(result.PathTaken) != 1 || result.PathTaken[0] != tc.wantPath {
				t.Errorf("path taken %v, want [%s]", result.PathTaken, tc.wantPath)
			}
			if result.DecisionFactors != tc.assessment {
				t.Errorf("decision factors %q", result.DecisionFactors)
			}
			if result.FinalResult == nil {
				t.Fatal("missing final result")
			}

			// Exactly one branch executes, with the original task.
			total := security.Executions() + performance.Executions() + infra.Executions()
			if total != 1 {
				t.Errorf("expected exactly one branch execution, got %d", total)
			}
		})
	}
}

func TestConditional_BranchReceivesOriginalTask(t *testing.T) {
	var branchInput string
	infra := mocks.NewStubAgent("infrastructure", func(ctx context.Context, task string) (string, error) {
		branchInput = task
		return "done", nil
	})
	var assessorInput string
	assessor := mocks.NewStubAgent("assessor", func(ctx context.Context, task string) (string, error) {
		assessorInput = task
		return "nothing notable", nil
	})

	w := NewConditional("incident", "", assessor,
		DecisionTable{DefaultLabel: "infrastructure_branch", Default: infra}, nil)

	if _, err := w.Execute(context.Background(), "disk is filling up"); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if assessorInput != "Assess the situation: disk is filling up" {
		t.Errorf("assessor input %q", assessorInput)
	}
	if branchInput != "disk is filling up" {
		t.Errorf("branch must receive the original task, got %q", branchInput)
	}
}

func TestConditional_TableOrderTieBreak(t *testing.T) {
	first := mocks.NewEchoAgent("first", "first")
	second := mocks.NewEchoAgent("second", "second")
	assessor := mocks.NewEchoAgent("assessor", "both security and slow apply here")

	w := NewConditional("incident", "", assessor, DecisionTable{
		Branches: []Branch{
			{Label: "security_branch", Match: Keywords("security"), Target: first},
			{Label: "performance_branch", Match: Keywords("slow"), Target: second},
		},
		DefaultLabel: "default",
		Default:      second,
	}, nil)

	result, err := w.Execute(context.Background(), "task")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if result.PathTaken[0] != "security_branch" {
		t.Errorf("first matching branch in table order must win, got %v", result.PathTaken)
	}
	if second.Executions() != 0 {
		t.Error("later branches must not execute")
	}
}

func TestConditional_NoRouteNoDefault(t *testing.T) {
	branch := mocks.NewEchoAgent("security", "handled")
	assessor := mocks.NewEchoAgent("assessor", "nothing matches")

	w := NewConditional("incident", "", assessor, DecisionTable{
		Branches: []Branch{
			{Label: "security_branch", Match: Keywords("breach"), Target: branch},
		},
	}, nil)

	result, err := w.Execute(context.Background(), "task")
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
	if result.Status != StatusFailed {
		t.Errorf("routing error is an orchestration failure, got %s", result.Status)
	}
	if branch.Executions() != 0 {
		t.Error("no branch may run when routing fails")
	}
}

func TestConditional_AssessorFailure(t *testing.T) {
	branch := mocks.NewEchoAgent("security", "handled")
	assessor := mocks.NewFailingAgent("assessor", errors.New("provider down"))

	w := NewConditional("incident", "", assessor, DecisionTable{
		DefaultLabel: "default", Default: branch,
	}, nil)

	result, err := w.Execute(context.Background(), "task")
	if err == nil {
		t.Fatal("expected error")
	}
	if result.Status != StatusFailed {
		t.Errorf("expected failed, got %s", result.Status)
	}
	if branch.Executions() != 0 {
		t.Error("branch must not run without an assessment")
	}
}

func TestConditional_RoutingIsPure(t *testing.T) {
	table := DecisionTable{
		Branches: []Branch{
			{Label: "security_branch", Match: Keywords("breach"), Target: mocks.NewEchoAgent("s", "x")},
		},
		DefaultLabel: "default",
		Default:      mocks.NewEchoAgent("d", "y"),
	}

	for i := 0; i < 10; i++ {
		label, _, err := table.route("a possible breach was found")
		if err != nil || label != "security_branch" {
			t.Fatalf("iteration %d: label=%s err=%v", i, label, err)
		}
	}
}
