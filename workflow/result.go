package workflow

import "time"

// Kind tags a Result with the strategy that produced it.
type Kind string

const (
	KindSequential   Kind = "sequential"
	KindParallel     Kind = "parallel"
	KindConditional  Kind = "conditional"
	KindHierarchical Kind = "hierarchical"
)

// Status is the overall orchestration outcome of a run.
type Status string

const (
	// StatusCompleted means every dispatched agent settled and the
	// strategy ran to its end (individual agents may still have failed
	// in isolated fan-out).
	StatusCompleted Status = "completed"
	// StatusPartial means the run was cut short by a failure but
	// carries usable results for the steps that did execute.
	StatusPartial Status = "partial"
	// StatusFailed means the strategy could not produce a result.
	StatusFailed Status = "failed"
)

// Agent outcome statuses.
const (
	AgentStatusSuccess = "success"
	AgentStatusError   = "error"
)

// StepResult records one step of a sequential pipeline.
type StepResult struct {
	Step      int           `json:"step"`
	AgentRole string        `json:"agent"`
	Input     string        `json:"input"`
	Output    string        `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// AgentResult records one agent's outcome in a fan-out or branch run.
type AgentResult struct {
	AgentRole string `json:"agent"`
	Status    string `json:"status"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the aggregate outcome of a workflow run.
type Result struct {
	Kind   Kind   `json:"workflow_type"`
	Status Status `json:"status"`

	// Steps is populated by sequential runs, in execution order.
	Steps []StepResult `json:"steps,omitempty"`

	// Results is populated by parallel, conditional, and hierarchical
	// runs. For parallel runs the order matches the input agent order,
	// independent of completion order.
	Results []AgentResult `json:"results,omitempty"`

	// PathTaken lists the branch labels traversed by a conditional run.
	PathTaken []string `json:"path_taken,omitempty"`
	// DecisionFactors carries the assessment text that drove routing.
	DecisionFactors string `json:"decision_factors,omitempty"`

	// FinalResult is the last successful output of the run; nil when
	// no agent produced one.
	FinalResult *string `json:"final_result"`

	TotalAgents   int           `json:"total_agents"`
	Succeeded     int           `json:"successful_agents"`
	Failed        int           `json:"failed_agents"`
	StartedAt     time.Time     `json:"started_at"`
	ExecutionTime time.Duration `json:"execution_time"`
}

func strPtr(s string) *string { return &s }
