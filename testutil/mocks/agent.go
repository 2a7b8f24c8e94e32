package mocks

import (
	"context"
	"sync/atomic"
)

// StubAgent is a deterministic types.Executor for workflow and crew
// tests. The handler receives the task text and returns the response.
type StubAgent struct {
	role    string
	handler func(ctx context.Context, task string) (string, error)
	count   atomic.Int64
}

// NewStubAgent creates a stub with a custom handler.
func NewStubAgent(role string, handler func(ctx context.Context, task string) (string, error)) *StubAgent {
	return &StubAgent{role: role, handler: handler}
}

// NewEchoAgent creates a stub that returns a fixed response regardless
// of input.
func NewEchoAgent(role, response string) *StubAgent {
	return NewStubAgent(role, func(ctx context.Context, task string) (string, error) {
		return response, nil
	})
}

// NewFailingAgent creates a stub that always fails with err.
func NewFailingAgent(role string, err error) *StubAgent {
	return NewStubAgent(role, func(ctx context.Context, task string) (string, error) {
		return "", err
	})
}

func (s *StubAgent) Role() string { return s.role }

func (s *StubAgent) Execute(ctx context.Context, task string) (string, error) {
	s.count.Add(1)
	return s.handler(ctx, task)
}

// Executions reports how many times the stub ran.
func (s *StubAgent) Executions() int64 { return s.count.Load() }
