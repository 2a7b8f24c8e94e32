// Package opscrew provides a top-level convenience entry point for
// assembling the standard operations crew with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/opscrew"
//
//	team, err := opscrew.NewCrew(provider)
//	team, err := opscrew.NewCrew(provider, opscrew.WithProcess(crew.ProcessFlat))
//
// The crew carries the four stock specialists (infrastructure,
// security, monitoring, deployment) and, in hierarchical mode, an
// operations manager. Callers who need different rosters build a
// [crew.Crew] directly.
package opscrew

import (
	"go.uber.org/zap"

	"github.com/BaSui01/opscrew/agent"
	"github.com/BaSui01/opscrew/crew"
	"github.com/BaSui01/opscrew/llm"
)

type options struct {
	name    string
	process crew.Process
	model   string
	logger  *zap.Logger
}

// Option configures the crew created by [NewCrew].
type Option func(*options)

// WithName sets the crew name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithProcess selects flat or hierarchical coordination.
func WithProcess(process crew.Process) Option {
	return func(o *options) { o.process = process }
}

// WithModel sets the model every member uses.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewCrew assembles the standard operations crew on top of the given
// provider. Defaults: hierarchical process, the provider's own default
// model, nop logger.
func NewCrew(provider llm.Provider, opts ...Option) (*crew.Crew, error) {
	o := options{
		name:    "operations",
		process: crew.ProcessHierarchical,
	}
	for _, opt := range opts {
		opt(&o)
	}

	team := crew.New(o.name, o.process, o.logger, nil)

	base := agent.DefaultConfig()
	base.Model = o.model

	for _, role := range crew.DefaultRoles {
		cfg := base
		cfg.Role = role.Name
		cfg.Goal = role.Goal
		cfg.Backstory = role.Backstory
		member, err := agent.New(cfg, provider, o.logger)
		if err != nil {
			return nil, err
		}
		team.AddMember(member, role)
	}

	if o.process == crew.ProcessHierarchical {
		cfg := base
		cfg.Role = crew.RoleManager.Name
		cfg.Goal = crew.RoleManager.Goal
		cfg.Backstory = crew.RoleManager.Backstory
		cfg.AllowDelegation = true
		manager, err := agent.New(cfg, provider, o.logger)
		if err != nil {
			return nil, err
		}
		team.SetManager(manager, crew.RoleManager)
	}
	return team, nil
}
