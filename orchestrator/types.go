package orchestrator

import (
	"strings"
	"time"

	"github.com/rohanthewiz/serr"

	"propflow/agents"
)

// ExecutionStatus is the terminal status of a workflow run.
type ExecutionStatus string

const (
	StatusCompleted ExecutionStatus = "completed"
	StatusRejected  ExecutionStatus = "rejected"
	StatusFailed    ExecutionStatus = "failed"
)

// ApprovalState tracks the approval gate's state machine.
type ApprovalState string

const (
	ApprovalNotRequired ApprovalState = "not_required"
	ApprovalRequired    ApprovalState = "required"
	ApprovalAwaiting    ApprovalState = "awaiting_decision"
	ApprovalApproved    ApprovalState = "approved"
	ApprovalRejected    ApprovalState = "rejected"
	ApprovalModified    ApprovalState = "modified"
)

// DecisionAction is a human decision at the approval gate.
type DecisionAction string

const (
	DecisionApprove DecisionAction = "approve"
	DecisionReject  DecisionAction = "reject"
	DecisionModify  DecisionAction = "modify"
)

// Step is a single agent invocation within a plan. Index is the 1-based
// position; steps sharing a ParallelGroup may dispatch concurrently;
// DependsOn lists earlier step indices whose results this step reads.
type Step struct {
	Index         int    `json:"step"`
	Agent         string `json:"agent"`
	Action        string `json:"action"`
	ParallelGroup int    `json:"parallel_group"`
	DependsOn     []int  `json:"depends_on,omitempty"`
}

// Plan is an ordered, named sequence of steps generated for one request.
// It is immutable once approval begins.
type Plan struct {
	RunID            string            `json:"run_id"`
	PlanID           string            `json:"plan_id"`
	PlanName         string            `json:"plan_name"`
	Description      string            `json:"description,omitempty"`
	EstimatedTimeMS  int               `json:"estimated_time_ms"`
	EstimatedCostUSD float64           `json:"estimated_cost_usd"`
	AgentsRequired   []string          `json:"agents_required"`
	Steps            []Step            `json:"steps"`
	ParallelGroups   int               `json:"parallel_groups"`
	Entities         map[string]string `json:"entities_involved,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// StepOutcome records one executed step with the agent's verbatim result.
type StepOutcome struct {
	Step       int           `json:"step"`
	Agent      string        `json:"agent"`
	Action     string        `json:"action"`
	Result     agents.Result `json:"result"`
	DurationMS int64         `json:"duration_ms"`
}

// ExecutionResult is the terminal object produced by the step executor.
type ExecutionResult struct {
	Status         ExecutionStatus `json:"status"`
	StepsCompleted []StepOutcome   `json:"steps_completed"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
}

// Request is one query submission.
type Request struct {
	Query           string                 `json:"query"`
	Context         map[string]interface{} `json:"context,omitempty"`
	PlanID          string                 `json:"plan_id,omitempty"`
	RequireApproval bool                   `json:"require_approval"`
}

// PlanSummary is the reduced plan view carried in response envelopes.
type PlanSummary struct {
	PlanID         string   `json:"plan_id"`
	PlanName       string   `json:"plan_name"`
	AgentsRequired []string `json:"agents_required"`
	Steps          []Step   `json:"steps"`
}

// ExecutionSummary is the results section of a response envelope.
type ExecutionSummary struct {
	Status         ExecutionStatus `json:"status"`
	StepsCompleted []StepOutcome   `json:"steps_completed"`
	FailureReason  string          `json:"failure_reason,omitempty"`
}

// ResponseEnvelope is the final response for one request.
type ResponseEnvelope struct {
	Status  ExecutionStatus   `json:"status"`
	Message string            `json:"message,omitempty"`
	Plan    PlanSummary       `json:"plan"`
	Results *ExecutionSummary `json:"results,omitempty"`
}

// Normalize fills defaults: steps without a declared parallel group get
// their own group (sequential), and ParallelGroups is recomputed.
func (p *Plan) Normalize() {
	groups := make(map[int]bool)
	for i := range p.Steps {
		if p.Steps[i].ParallelGroup <= 0 {
			p.Steps[i].ParallelGroup = p.Steps[i].Index
		}
		groups[p.Steps[i].ParallelGroup] = true
	}
	p.ParallelGroups = len(groups)
}

// Validate enforces the plan invariants: non-empty contiguous steps,
// every step agent declared in AgentsRequired, parallel groups within
// bounds, and dependencies pointing at strictly earlier groups.
func (p *Plan) Validate() error {
	if len(p.Steps) == 0 {
		return serr.New("plan has no steps")
	}

	required := make(map[string]bool, len(p.AgentsRequired))
	for _, a := range p.AgentsRequired {
		required[strings.ToLower(a)] = true
	}

	groupOf := make(map[int]int, len(p.Steps))
	for i, s := range p.Steps {
		if s.Index != i+1 {
			return serr.New("step indices must be sequential from 1")
		}
		if s.Agent == "" {
			return serr.New("step has no agent")
		}
		if s.Action == "" {
			return serr.New("step has no action")
		}
		if !required[strings.ToLower(s.Agent)] {
			return serr.New("step agent not declared in agents_required: " + s.Agent)
		}
		if s.ParallelGroup < 1 || s.ParallelGroup > len(p.Steps) {
			return serr.New("step parallel_group out of range")
		}
		groupOf[s.Index] = s.ParallelGroup
	}

	for _, s := range p.Steps {
		for _, dep := range s.DependsOn {
			if dep < 1 || dep >= s.Index {
				return serr.New("step may only depend on earlier steps")
			}
			if groupOf[dep] >= s.ParallelGroup {
				return serr.New("step may not depend on its own or a later parallel group")
			}
		}
	}

	if p.ParallelGroups > len(p.Steps) {
		return serr.New("parallel_groups exceeds step count")
	}
	return nil
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	cp := *p
	cp.Steps = make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		cp.Steps[i] = s
		if len(s.DependsOn) > 0 {
			cp.Steps[i].DependsOn = append([]int(nil), s.DependsOn...)
		}
	}
	cp.AgentsRequired = append([]string(nil), p.AgentsRequired...)
	if p.Entities != nil {
		cp.Entities = make(map[string]string, len(p.Entities))
		for k, v := range p.Entities {
			cp.Entities[k] = v
		}
	}
	return &cp
}

// Summary returns the reduced plan view used in response envelopes.
func (p *Plan) Summary() PlanSummary {
	return PlanSummary{
		PlanID:         p.PlanID,
		PlanName:       p.PlanName,
		AgentsRequired: p.AgentsRequired,
		Steps:          p.Steps,
	}
}

// agentsFromSteps derives the distinct lowercase agent set, in first-use
// order. Used when a modification replaces the step list.
func agentsFromSteps(steps []Step) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range steps {
		name := strings.ToLower(s.Agent)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
