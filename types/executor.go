package types

import "context"

// Executor is the minimal agent execution contract shared by all agent
// variants in the engine (agent.Agent, crew members, test stubs).
// An executor maps a task text to a response text; how the response is
// produced is opaque to the orchestration layer.
type Executor interface {
	// Role returns the agent's role identifier, used for reporting and
	// for the conditional router's branch labels.
	Role() string
	// Execute runs the agent against the given task text.
	Execute(ctx context.Context, task string) (string, error)
}

// Named is an optional interface for executors that carry a
// human-readable display name distinct from their role.
type Named interface {
	Name() string
}
