package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/opscrew/types"
)

// Predicate decides whether a branch matches an assessment text. It
// must be a pure function of its input so routing is reproducible.
// The text it receives is already case-normalized.
type Predicate func(assessment string) bool

// Keywords builds a predicate matching when any of the given keywords
// occurs as a substring of the assessment.
func Keywords(words ...string) Predicate {
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	return func(assessment string) bool {
		for _, w := range lowered {
			if strings.Contains(assessment, w) {
				return true
			}
		}
		return false
	}
}

// Branch pairs a predicate with a target agent.
type Branch struct {
	Label  string
	Match  Predicate
	Target types.Executor
}

// DecisionTable is an ordered list of branches plus a default target.
// Exactly one target is chosen per run: the first branch (in table
// order) whose predicate matches, else the default. The ordering is a
// deliberate tie-break policy.
type DecisionTable struct {
	Branches     []Branch
	DefaultLabel string
	Default      types.Executor
}

// route returns the selected branch for the normalized assessment, or
// ErrNoRoute when nothing matches and no default is configured.
func (t DecisionTable) route(assessment string) (string, types.Executor, error) {
	for _, b := range t.Branches {
		if b.Match != nil && b.Match(assessment) {
			return b.Label, b.Target, nil
		}
	}
	if t.Default != nil {
		return t.DefaultLabel, t.Default, nil
	}
	return "", nil, ErrNoRoute
}

// Conditional runs an initial assessment step, classifies the result
// against the decision table, and routes to exactly one branch agent.
// The two phases are strictly ordered; only one branch ever executes.
type Conditional struct {
	name        string
	description string
	assessor    types.Executor
	table       DecisionTable
	logger      *zap.Logger
}

// NewConditional creates a conditional workflow. The assessor is
// always run, unconditionally, as the routing signal.
func NewConditional(name, description string, assessor types.Executor, table DecisionTable, logger *zap.Logger) *Conditional {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conditional{
		name:        name,
		description: description,
		assessor:    assessor,
		table:       table,
		logger:      logger.With(zap.String("component", "conditional_workflow"), zap.String("workflow", name)),
	}
}

func (w *Conditional) Name() string        { return w.name }
func (w *Conditional) Description() string { return w.description }

// Execute assesses the task, routes, and runs the selected branch with
// the original task (not the assessment). A routing miss with no
// default aborts before any branch executes.
func (w *Conditional) Execute(ctx context.Context, task string) (*Result, error) {
	if w.assessor == nil {
		return nil, ErrNoAssessor
	}

	start := time.Now()
	result := &Result{
		Kind:      KindConditional,
		Status:    StatusCompleted,
		StartedAt: start,
	}

	assessment, err := w.assessor.Execute(ctx, "Assess the situation: "+task)
	if err != nil {
		result.Status = StatusFailed
		result.Failed++
		result.TotalAgents = 1
		result.Results = append(result.Results, AgentResult{
			AgentRole: w.assessor.Role(),
			Status:    AgentStatusError,
			Error:     err.Error(),
		})
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("assessment failed: %w", err)
	}
	result.DecisionFactors = assessment
	result.Results = append(result.Results, AgentResult{
		AgentRole: w.assessor.Role(),
		Status:    AgentStatusSuccess,
		Output:    assessment,
	})

	label, target, err := w.table.route(strings.ToLower(assessment))
	if err != nil {
		result.Status = StatusFailed
		result.TotalAgents = 1
		result.Succeeded = 1
		result.ExecutionTime = time.Since(start)
		return result, err
	}
	result.PathTaken = append(result.PathTaken, label)
	result.TotalAgents = 2

	w.logger.Debug("routed", zap.String("branch", label), zap.String("agent", target.Role()))

	output, err := target.Execute(ctx, task)
	if err != nil {
		result.Status = StatusPartial
		result.Succeeded = 1
		result.Failed = 1
		result.Results = append(result.Results, AgentResult{
			AgentRole: target.Role(),
			Status:    AgentStatusError,
			Error:     err.Error(),
		})
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("branch %s (%s) failed: %w", label, target.Role(), err)
	}

	result.Succeeded = 2
	result.Results = append(result.Results, AgentResult{
		AgentRole: target.Role(),
		Status:    AgentStatusSuccess,
		Output:    output,
	})
	result.FinalResult = strPtr(output)
	result.ExecutionTime = time.Since(start)

	w.logger.Info("conditional completed",
		zap.Strings("path_taken", result.PathTaken),
		zap.Duration("execution_time", result.ExecutionTime))
	return result, nil
}
