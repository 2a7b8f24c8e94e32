package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/opscrew/llm"
)

// Config describes an agent's identity and execution parameters.
// Identity fields are immutable after construction.
type Config struct {
	Role            string        `yaml:"role" json:"role"`
	Goal            string        `yaml:"goal" json:"goal"`
	Backstory       string        `yaml:"backstory" json:"backstory"`
	Model           string        `yaml:"model" json:"model"`
	Temperature     float32       `yaml:"temperature" json:"temperature"`
	MaxTokens       int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	AllowDelegation bool          `yaml:"allow_delegation" json:"allow_delegation"`
}

// DefaultConfig returns conservative execution parameters: low
// temperature for consistent responses, bounded output, bounded wait.
func DefaultConfig() Config {
	return Config{
		Temperature: 0.1,
		MaxTokens:   4000,
		Timeout:     30 * time.Second,
	}
}

// Agent is a specialized autonomous worker: a role/goal pair backed by
// a reasoning provider. Agents are safe for concurrent use.
type Agent struct {
	id       string
	config   Config
	provider llm.Provider
	logger   *zap.Logger
}

// New creates an agent. The provider is required; identity metadata
// comes from config.
func New(config Config, provider llm.Provider, logger *zap.Logger) (*Agent, error) {
	if provider == nil {
		return nil, ErrProviderNotSet
	}
	if config.Role == "" {
		return nil, fmt.Errorf("agent config: role is required")
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		id:       uuid.NewString(),
		config:   config,
		provider: provider,
		logger:   logger.With(zap.String("component", "agent"), zap.String("role", config.Role)),
	}, nil
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string { return a.id }

// Role returns the agent's role identifier.
func (a *Agent) Role() string { return a.config.Role }

// Goal returns the agent's goal statement.
func (a *Agent) Goal() string { return a.config.Goal }

// AllowDelegation reports whether the agent may act as a manager in
// hierarchical crews.
func (a *Agent) AllowDelegation() bool { return a.config.AllowDelegation }

// Execute runs the agent against the task text, blocking until the
// provider responds or the per-call timeout elapses. Failures and
// timeouts are reported as *ExecutionError.
func (a *Agent) Execute(ctx context.Context, task string) (string, error) {
	if strings.TrimSpace(task) == "" {
		return "", &ExecutionError{Role: a.config.Role, Cause: ErrEmptyTask}
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	req := &llm.ChatRequest{
		Model: a.config.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: a.systemPrompt()},
			{Role: llm.RoleUser, Content: task},
		},
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
	}

	start := time.Now()
	resp, err := a.provider.Completion(ctx, req)
	if err != nil {
		a.logger.Warn("execution failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return "", &ExecutionError{Role: a.config.Role, Cause: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ExecutionError{Role: a.config.Role, Cause: fmt.Errorf("empty response from provider %s", a.provider.Name())}
	}

	a.logger.Debug("execution completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}

// systemPrompt frames the agent's identity for the provider.
func (a *Agent) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s.", a.config.Role)
	if a.config.Goal != "" {
		fmt.Fprintf(&b, "\nGoal: %s", a.config.Goal)
	}
	if a.config.Backstory != "" {
		fmt.Fprintf(&b, "\nBackground: %s", a.config.Backstory)
	}
	b.WriteString("\nAlways gather comprehensive data before making recommendations, prioritize system stability and security, and explain your reasoning with step-by-step plans.")
	return b.String()
}
