package workflow

import "errors"

var (
	// ErrNoAgents is returned when a strategy is given an empty agent
	// set; the workflow cannot be assembled.
	ErrNoAgents = errors.New("no agents to execute")

	// ErrNoAssessor is returned when a conditional workflow is built
	// without an assessment agent.
	ErrNoAssessor = errors.New("assessor agent not set")

	// ErrNoRoute is returned when the decision table produces no match
	// and no default branch is configured. This is a configuration
	// error: an unrouted task must never silently run an arbitrary
	// branch.
	ErrNoRoute = errors.New("no decision table match and no default branch configured")
)
