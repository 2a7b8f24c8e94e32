package workflow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/BaSui01/opscrew/types"
)

// Parallel runs all agents concurrently against the same task. This is
// an isolated fan-out: one agent's failure or timeout never affects or
// cancels the others, and the join waits for every agent to settle
// with no partial-result short-circuiting.
type Parallel struct {
	name        string
	description string
	agents      []types.Executor
	limit       int64
	logger      *zap.Logger
}

// NewParallel creates a parallel fan-out over agents. A nil logger is
// replaced with a nop.
func NewParallel(name, description string, agents []types.Executor, logger *zap.Logger) *Parallel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parallel{
		name:        name,
		description: description,
		agents:      agents,
		logger:      logger.With(zap.String("component", "parallel_workflow"), zap.String("workflow", name)),
	}
}

func (w *Parallel) Name() string        { return w.name }
func (w *Parallel) Description() string { return w.description }

// SetConcurrencyLimit bounds how many agents may execute at once.
// Zero or negative means unbounded.
func (w *Parallel) SetConcurrencyLimit(n int) {
	w.limit = int64(n)
}

// Execute dispatches the task to every agent and joins all of them.
// The result list preserves the input agent ordering regardless of
// completion order, so output is deterministic. The workflow itself
// always succeeds at the orchestration level; individual failures are
// embedded as per-agent outcomes.
func (w *Parallel) Execute(ctx context.Context, task string) (*Result, error) {
	if len(w.agents) == 0 {
		return nil, ErrNoAgents
	}

	w.logger.Debug("starting fan-out", zap.Int("agents", len(w.agents)))

	var sem *semaphore.Weighted
	if w.limit > 0 {
		sem = semaphore.NewWeighted(w.limit)
	}

	start := time.Now()
	outcomes := make([]AgentResult, len(w.agents))

	var wg sync.WaitGroup
	for i, ag := range w.agents {
		wg.Add(1)
		go func(idx int, ag types.Executor) {
			defer wg.Done()

			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					outcomes[idx] = AgentResult{AgentRole: ag.Role(), Status: AgentStatusError, Error: err.Error()}
					return
				}
				defer sem.Release(1)
			}

			output, err := ag.Execute(ctx, task)
			if err != nil {
				outcomes[idx] = AgentResult{AgentRole: ag.Role(), Status: AgentStatusError, Error: err.Error()}
				return
			}
			outcomes[idx] = AgentResult{AgentRole: ag.Role(), Status: AgentStatusSuccess, Output: output}
		}(i, ag)
	}
	wg.Wait()

	result := &Result{
		Kind:          KindParallel,
		Status:        StatusCompleted,
		Results:       outcomes,
		TotalAgents:   len(w.agents),
		StartedAt:     start,
		ExecutionTime: time.Since(start),
	}
	for _, o := range outcomes {
		if o.Status == AgentStatusSuccess {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	w.logger.Info("fan-out joined",
		zap.Int("successful_agents", result.Succeeded),
		zap.Int("failed_agents", result.Failed),
		zap.Duration("execution_time", result.ExecutionTime))
	return result, nil
}
