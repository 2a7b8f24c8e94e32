// Package mocks provides scripted test doubles for the LLM provider
// and agent contracts. Responses, errors, and latency are injectable
// so orchestration behavior can be tested deterministically.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/opscrew/llm"
)

// Provider is a scripted llm.Provider implementation.
type Provider struct {
	mu sync.Mutex

	response string
	err      error
	delay    time.Duration

	// completionFunc, when set, overrides all other behavior.
	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	calls []*llm.ChatRequest
}

// NewProvider creates a mock provider with a fixed default response.
func NewProvider() *Provider {
	return &Provider{response: "mock response"}
}

// WithResponse sets the fixed response text.
func (p *Provider) WithResponse(text string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.response = text
	return p
}

// WithError makes every completion fail with err.
func (p *Provider) WithError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// WithDelay adds artificial latency before each completion settles.
func (p *Provider) WithDelay(d time.Duration) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
	return p
}

// WithCompletionFunc installs a custom completion handler.
func (p *Provider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completionFunc = fn
	return p
}

// Calls returns a copy of all requests seen so far.
func (p *Provider) Calls() []*llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*llm.ChatRequest, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *Provider) Name() string { return "mock" }

func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	fn, delay, err, response := p.completionFunc, p.delay, p.err, p.response
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	return &llm.ChatResponse{
		ID:    "mock-1",
		Model: req.Model,
		Choices: []llm.Choice{{
			Message:      llm.Message{Role: llm.RoleAssistant, Content: response},
			FinishReason: "stop",
		}},
		Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20},
	}, nil
}
