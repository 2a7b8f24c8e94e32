package crew

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Operational use cases the crew knows how to decompose.
const (
	UseCaseIncident     = "incident"
	UseCaseOptimization = "optimization"
	UseCaseAnalysis     = "analysis"
)

// ErrUnknownUseCase is returned for use case names outside the known
// set.
var ErrUnknownUseCase = errors.New("unknown use case")

// Handle decomposes the use case into one sub-task per member and runs
// the crew on it. Priority is advisory text carried into the task
// framing ("low", "medium", "high", "critical").
func (c *Crew) Handle(ctx context.Context, useCase, description, priority string) (*Report, error) {
	if len(c.members) == 0 {
		return nil, ErrNoMembers
	}
	tasks, err := c.decompose(useCase, description, priority)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, useCase, tasks)
}

// HandleIncident runs the incident response use case.
func (c *Crew) HandleIncident(ctx context.Context, description, severity string) (*Report, error) {
	return c.Handle(ctx, UseCaseIncident, description, severity)
}

// OptimizeInfrastructure runs the infrastructure optimization use case.
func (c *Crew) OptimizeInfrastructure(ctx context.Context, description string) (*Report, error) {
	return c.Handle(ctx, UseCaseOptimization, description, "medium")
}

// SystemAnalysis runs the system analysis use case.
func (c *Crew) SystemAnalysis(ctx context.Context, description string) (*Report, error) {
	return c.Handle(ctx, UseCaseAnalysis, description, "medium")
}

// decompose produces exactly one role-framed sub-task per roster
// member, in roster order, each defaulting to that member.
func (c *Crew) decompose(useCase, description, priority string) ([]*Task, error) {
	var frame func(role Role) (string, string)
	switch useCase {
	case UseCaseIncident:
		frame = func(role Role) (string, string) {
			return fmt.Sprintf(
					"Incident (severity: %s): %s\n\nAs the %s, analyze this incident from your specialty. Goal: %s. Report your findings and the immediate actions you recommend.",
					priority, description, role.Name, role.Goal),
				fmt.Sprintf("Findings and immediate remediation steps from the %s.", role.Name)
		}
	case UseCaseOptimization:
		frame = func(role Role) (string, string) {
			return fmt.Sprintf(
					"Optimization request: %s\n\nAs the %s, assess the current setup in your area. Goal: %s. Propose concrete improvements with expected impact.",
					description, role.Name, role.Goal),
				fmt.Sprintf("Prioritized optimization proposals from the %s.", role.Name)
		}
	case UseCaseAnalysis:
		frame = func(role Role) (string, string) {
			return fmt.Sprintf(
					"System analysis: %s\n\nAs the %s, review the environment from your perspective. Goal: %s. Summarize the current state and notable risks.",
					description, role.Name, role.Goal),
				fmt.Sprintf("State-of-the-system assessment from the %s.", role.Name)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownUseCase, useCase)
	}

	tasks := make([]*Task, 0, len(c.members))
	for _, m := range c.members {
		desc, expected := frame(m.Role)
		tasks = append(tasks, &Task{
			ID:          uuid.NewString(),
			Description: desc,
			Expected:    expected,
			AssignedTo:  m.ID,
			Priority:    priority,
		})
	}
	return tasks, nil
}

// KnownUseCase reports whether name is a use case the crew handles.
func KnownUseCase(name string) bool {
	switch name {
	case UseCaseIncident, UseCaseOptimization, UseCaseAnalysis:
		return true
	}
	return false
}
