// Package crew assembles agents into a team with named roles and runs
// operational use cases against it. A crew executes either flat, where
// every member works its own sub-task independently, or hierarchical,
// where a manager agent assigns sub-tasks and synthesizes the results.
package crew

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/opscrew/internal/metrics"
	"github.com/BaSui01/opscrew/types"
	"github.com/BaSui01/opscrew/workflow"
)

// Process selects how the crew coordinates its members.
type Process string

const (
	// ProcessFlat dispatches one sub-task per member, all in parallel,
	// with no coordination between them.
	ProcessFlat Process = "flat"
	// ProcessHierarchical routes every sub-task through the manager,
	// who assigns it to a member and synthesizes the combined results.
	ProcessHierarchical Process = "hierarchical"
)

var (
	// ErrNoMembers is returned when a crew with no members is asked to
	// handle a task.
	ErrNoMembers = errors.New("crew has no members")
	// ErrNoManager is returned when a hierarchical crew has no manager.
	ErrNoManager = errors.New("hierarchical crew requires a manager")
)

// Role describes a member's specialty. Goal and Backstory frame the
// sub-tasks decomposition hands to the member.
type Role struct {
	Name      string `yaml:"name" json:"name"`
	Goal      string `yaml:"goal" json:"goal"`
	Backstory string `yaml:"backstory" json:"backstory"`
}

// Member binds an executor to a role within the crew.
type Member struct {
	ID    string
	Role  Role
	Agent types.Executor
}

// Task is one unit of work dispatched to a member.
type Task struct {
	ID          string
	Description string
	Expected    string
	// AssignedTo holds the member id the task runs on. Decomposition
	// sets a default; the hierarchical manager may reassign it.
	AssignedTo string
	Priority   string
	Metadata   map[string]string
}

// Outcome is the settled result of one task.
type Outcome struct {
	TaskID    string        `json:"task_id"`
	AgentRole string        `json:"agent"`
	Status    string        `json:"status"`
	Output    string        `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Report is the aggregate result of one crew run. Outcomes follow the
// decomposition order regardless of completion order, one per task.
type Report struct {
	UseCase   string          `json:"use_case"`
	Process   Process         `json:"process"`
	Status    workflow.Status `json:"status"`
	Outcomes  []Outcome       `json:"outcomes"`
	Summary   string          `json:"summary,omitempty"`
	Succeeded int             `json:"successful_agents"`
	Failed    int             `json:"failed_agents"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

// Render flattens the report into readable text, one section per
// member outcome with the manager's summary appended last.
func (r *Report) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d sub-tasks succeeded\n", r.Succeeded, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Status == workflow.AgentStatusSuccess {
			fmt.Fprintf(&b, "\n## %s\n%s\n", o.AgentRole, o.Output)
		} else {
			fmt.Fprintf(&b, "\n## %s\n(failed: %s)\n", o.AgentRole, o.Error)
		}
	}
	if r.Summary != "" {
		fmt.Fprintf(&b, "\n## Coordinator Summary\n%s\n", r.Summary)
	}
	return b.String()
}

// Crew is an ordered team of members, optionally led by a manager.
type Crew struct {
	id      string
	name    string
	process Process
	members []*Member
	manager *Member
	logger  *zap.Logger
	metrics *metrics.Collector
}

// New creates an empty crew.
func New(name string, process Process, logger *zap.Logger, collector *metrics.Collector) *Crew {
	if logger == nil {
		logger = zap.NewNop()
	}
	if process == "" {
		process = ProcessFlat
	}
	return &Crew{
		id:      uuid.NewString(),
		name:    name,
		process: process,
		logger:  logger.With(zap.String("component", "crew"), zap.String("crew", name)),
		metrics: collector,
	}
}

// Name returns the crew's name.
func (c *Crew) Name() string { return c.name }

// Process returns the coordination mode.
func (c *Crew) Process() Process { return c.process }

// AddMember appends a member to the roster. Roster order is the order
// tasks are decomposed and reported in.
func (c *Crew) AddMember(agent types.Executor, role Role) *Member {
	m := &Member{ID: uuid.NewString(), Role: role, Agent: agent}
	c.members = append(c.members, m)
	c.logger.Debug("member added", zap.String("role", role.Name))
	return m
}

// SetManager installs the coordinating agent for hierarchical runs.
// The manager is not a roster member and receives no sub-task of its
// own.
func (c *Crew) SetManager(agent types.Executor, role Role) *Member {
	c.manager = &Member{ID: uuid.NewString(), Role: role, Agent: agent}
	return c.manager
}

// Members returns the roster in order.
func (c *Crew) Members() []*Member { return c.members }

func (c *Crew) memberByID(id string) *Member {
	for _, m := range c.members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (c *Crew) run(ctx context.Context, useCase string, tasks []*Task) (*Report, error) {
	if len(c.members) == 0 {
		return nil, ErrNoMembers
	}
	started := time.Now()

	var (
		report *Report
		err    error
	)
	switch c.process {
	case ProcessHierarchical:
		report, err = c.runHierarchical(ctx, tasks)
	default:
		report, err = c.runFlat(ctx, tasks)
	}
	if err != nil {
		c.metrics.RecordWorkflow(c.kind(), string(workflow.StatusFailed), time.Since(started))
		return nil, err
	}

	report.UseCase = useCase
	report.Process = c.process
	report.StartedAt = started.UTC()
	report.Duration = time.Since(started)
	for _, o := range report.Outcomes {
		if o.Status == workflow.AgentStatusSuccess {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	report.Status = workflow.StatusCompleted

	c.metrics.RecordWorkflow(c.kind(), string(report.Status), report.Duration)
	c.logger.Info("crew run finished",
		zap.String("use_case", useCase),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (c *Crew) kind() string {
	if c.process == ProcessHierarchical {
		return string(workflow.KindHierarchical)
	}
	return string(workflow.KindParallel)
}

// executeTasks fans the tasks out to their assigned members and joins.
// Failures are isolated: a failing member yields an error outcome and
// never disturbs its siblings. Outcomes land at the task's index.
func (c *Crew) executeTasks(ctx context.Context, tasks []*Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		member := c.memberByID(task.AssignedTo)
		if member == nil {
			outcomes[i] = Outcome{
				TaskID: task.ID,
				Status: workflow.AgentStatusError,
				Error:  fmt.Sprintf("no member assigned to task %s", task.ID),
			}
			continue
		}
		wg.Add(1)
		go func(i int, task *Task, member *Member) {
			defer wg.Done()
			outcomes[i] = c.executeOne(ctx, task, member)
		}(i, task, member)
	}
	wg.Wait()
	return outcomes
}

func (c *Crew) executeOne(ctx context.Context, task *Task, member *Member) Outcome {
	role := member.Role.Name
	c.metrics.AgentStarted(role)
	defer c.metrics.AgentFinished(role)

	begin := time.Now()
	output, err := member.Agent.Execute(ctx, task.Description)
	elapsed := time.Since(begin)

	if err != nil {
		c.metrics.RecordAgent(role, workflow.AgentStatusError, elapsed)
		c.logger.Warn("member failed",
			zap.String("role", role),
			zap.String("task_id", task.ID),
			zap.Error(err),
		)
		return Outcome{
			TaskID:    task.ID,
			AgentRole: role,
			Status:    workflow.AgentStatusError,
			Error:     err.Error(),
			Duration:  elapsed,
		}
	}
	c.metrics.RecordAgent(role, workflow.AgentStatusSuccess, elapsed)
	return Outcome{
		TaskID:    task.ID,
		AgentRole: role,
		Status:    workflow.AgentStatusSuccess,
		Output:    output,
		Duration:  elapsed,
	}
}

func (c *Crew) runFlat(ctx context.Context, tasks []*Task) (*Report, error) {
	return &Report{Outcomes: c.executeTasks(ctx, tasks)}, nil
}

func (c *Crew) runHierarchical(ctx context.Context, tasks []*Task) (*Report, error) {
	if c.manager == nil {
		return nil, ErrNoManager
	}

	for _, task := range tasks {
		c.delegate(ctx, task)
	}
	outcomes := c.executeTasks(ctx, tasks)

	report := &Report{Outcomes: outcomes}
	report.Summary = c.synthesize(ctx, outcomes)
	return report, nil
}

// delegate asks the manager which member should own the task and
// reassigns it when the reply names a roster role. An unusable reply
// keeps the default assignee from decomposition.
func (c *Crew) delegate(ctx context.Context, task *Task) {
	prompt := c.delegationPrompt(task)
	reply, err := c.manager.Agent.Execute(ctx, prompt)
	if err != nil {
		c.logger.Warn("delegation failed, keeping default assignee",
			zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	lowered := strings.ToLower(reply)
	for _, m := range c.members {
		if strings.Contains(lowered, strings.ToLower(m.Role.Name)) {
			task.AssignedTo = m.ID
			c.logger.Debug("task delegated",
				zap.String("task_id", task.ID),
				zap.String("role", m.Role.Name),
			)
			return
		}
	}
	c.logger.Debug("delegation reply named no member, keeping default",
		zap.String("task_id", task.ID))
}

func (c *Crew) delegationPrompt(task *Task) string {
	var b strings.Builder
	b.WriteString("You are coordinating a team. Assign the following task to the single best-suited member.\n\n")
	fmt.Fprintf(&b, "Task: %s\n", task.Description)
	if task.Priority != "" {
		fmt.Fprintf(&b, "Priority: %s\n", task.Priority)
	}
	b.WriteString("\nTeam members:\n")
	for _, m := range c.members {
		fmt.Fprintf(&b, "- %s: %s\n", m.Role.Name, m.Role.Goal)
	}
	b.WriteString("\nReply with the role name of the member you assign.")
	return b.String()
}

// synthesize asks the manager for an aggregate summary of the member
// results. A failed synthesis is non-fatal; the member outcomes stand
// on their own and the summary is simply absent.
func (c *Crew) synthesize(ctx context.Context, outcomes []Outcome) string {
	var b strings.Builder
	b.WriteString("Synthesize the following team results into a single coherent summary with the key findings and recommended next steps.\n")
	for _, o := range outcomes {
		if o.Status == workflow.AgentStatusSuccess {
			fmt.Fprintf(&b, "\n[%s]\n%s\n", o.AgentRole, o.Output)
		} else {
			fmt.Fprintf(&b, "\n[%s]\n(no result: %s)\n", o.AgentRole, o.Error)
		}
	}
	summary, err := c.manager.Agent.Execute(ctx, b.String())
	if err != nil {
		c.logger.Warn("synthesis failed, report carries member outcomes only", zap.Error(err))
		return ""
	}
	return summary
}
