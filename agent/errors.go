package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotSet is returned when an agent is constructed
	// without an LLM provider.
	ErrProviderNotSet = errors.New("llm provider not set")

	// ErrEmptyTask is returned when Execute receives an empty task.
	ErrEmptyTask = errors.New("empty task")
)

// ExecutionError reports a failed or timed-out agent invocation,
// carrying the role of the agent that failed.
type ExecutionError struct {
	Role  string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("agent %q execution failed: %v", e.Role, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
