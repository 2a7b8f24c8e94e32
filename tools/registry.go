// Package tools models the named, parameterized operations agents may
// invoke against cloud resources: status queries, start/stop, snapshot
// creation. Results are JSON-shaped; the real cloud API is an external
// collaborator, represented here by a simulated inventory backend.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Tool is a named operation with a parameter map and a JSON result.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, params map[string]any) (json.RawMessage, error)
}

// Registry holds the tools available to agents.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger.With(zap.String("component", "tool_registry")),
	}
}

// Register adds a tool, replacing any previous tool of the same name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
	r.logger.Debug("registered tool", zap.String("tool", tool.Name()))
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Execute looks up and runs a tool in one call.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (json.RawMessage, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool.Execute(ctx, params)
}

// FuncTool wraps a function as a Tool.
type FuncTool struct {
	name        string
	description string
	fn          func(ctx context.Context, params map[string]any) (json.RawMessage, error)
}

// NewFuncTool creates a function-backed tool.
func NewFuncTool(name, description string, fn func(ctx context.Context, params map[string]any) (json.RawMessage, error)) *FuncTool {
	return &FuncTool{name: name, description: description, fn: fn}
}

func (t *FuncTool) Name() string        { return t.name }
func (t *FuncTool) Description() string { return t.description }

func (t *FuncTool) Execute(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	return t.fn(ctx, params)
}
