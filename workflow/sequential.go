package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/opscrew/types"
)

// Handoff derives the next step's input from the previous step's
// output. It is a fixed templating policy, not agent-specific.
type Handoff func(output string) string

// DefaultHandoff wraps the prior output as context framing for the
// next step.
func DefaultHandoff(output string) string {
	return fmt.Sprintf("Previous step result: %s\n\nContinue with next phase.", output)
}

// Sequential runs an ordered list of agents, threading each agent's
// output into the next agent's input. The policy is fail-fast: the
// first failing step aborts the remaining pipeline and the run is
// marked partial, returning all steps executed so far.
type Sequential struct {
	name        string
	description string
	agents      []types.Executor
	handoff     Handoff
	logger      *zap.Logger
}

// NewSequential creates a sequential pipeline over agents in the given
// order. A nil logger is replaced with a nop.
func NewSequential(name, description string, agents []types.Executor, logger *zap.Logger) *Sequential {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequential{
		name:        name,
		description: description,
		agents:      agents,
		handoff:     DefaultHandoff,
		logger:      logger.With(zap.String("component", "sequential_workflow"), zap.String("workflow", name)),
	}
}

func (w *Sequential) Name() string        { return w.name }
func (w *Sequential) Description() string { return w.description }

// SetHandoff overrides the step handoff template.
func (w *Sequential) SetHandoff(h Handoff) {
	if h != nil {
		w.handoff = h
	}
}

// Execute runs the pipeline. Step N+1 never starts before step N
// completes; step order is the caller-supplied agent order. On a step
// failure the partial result is returned together with the wrapped
// error so the caller can decide whether it is usable.
func (w *Sequential) Execute(ctx context.Context, initialTask string) (*Result, error) {
	if len(w.agents) == 0 {
		return nil, ErrNoAgents
	}

	start := time.Now()
	result := &Result{
		Kind:        KindSequential,
		Status:      StatusCompleted,
		TotalAgents: len(w.agents),
		StartedAt:   start,
	}

	currentInput := initialTask
	for i, ag := range w.agents {
		select {
		case <-ctx.Done():
			result.Status = StatusPartial
			result.ExecutionTime = time.Since(start)
			return result, ctx.Err()
		default:
		}

		w.logger.Debug("executing step", zap.Int("step", i+1), zap.String("agent", ag.Role()))

		stepStart := time.Now()
		output, err := ag.Execute(ctx, currentInput)
		step := StepResult{
			Step:      i + 1,
			AgentRole: ag.Role(),
			Input:     currentInput,
			Output:    output,
			Timestamp: stepStart,
			Duration:  time.Since(stepStart),
		}

		if err != nil {
			step.Output = ""
			step.Error = err.Error()
			result.Steps = append(result.Steps, step)
			result.Failed++
			result.Status = StatusPartial
			result.ExecutionTime = time.Since(start)
			w.logger.Warn("pipeline aborted",
				zap.Int("step", i+1),
				zap.String("agent", ag.Role()),
				zap.Error(err))
			return result, fmt.Errorf("step %d (%s) failed: %w", i+1, ag.Role(), err)
		}

		result.Steps = append(result.Steps, step)
		result.Succeeded++
		result.FinalResult = strPtr(output)
		currentInput = w.handoff(output)
	}

	result.ExecutionTime = time.Since(start)
	w.logger.Info("pipeline completed",
		zap.Int("steps", len(result.Steps)),
		zap.Duration("execution_time", result.ExecutionTime))
	return result, nil
}
