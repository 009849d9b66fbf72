package orchestrator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"github.com/xeipuuv/gojsonschema"
)

// Decision is a reviewer's verdict on a plan. ModifiedSteps carries the
// replacement step list when Action is DecisionModify.
type Decision struct {
	Action        DecisionAction  `json:"action"`
	ModifiedSteps json.RawMessage `json:"modified_steps,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

// DecisionProvider supplies the human (or automated) verdict for a plan
// that requires approval.
type DecisionProvider interface {
	Decide(ctx context.Context, plan *Plan) (Decision, error)
}

// ApprovalOutcome is the gate's final word on a plan. Plan points at the
// plan to execute, which differs from the input only after a modification.
type ApprovalOutcome struct {
	State  ApprovalState
	Plan   *Plan
	Reason string
}

// Gate runs the approval state machine. A plan that does not require
// approval passes straight through; one that does is suspended exactly
// once while the provider decides. No decision within the timeout, a
// provider failure, or an invalid modification all land on rejection.
type Gate struct {
	provider DecisionProvider
	timeout  time.Duration
}

func NewGate(provider DecisionProvider, timeout time.Duration) *Gate {
	return &Gate{provider: provider, timeout: timeout}
}

func (g *Gate) Evaluate(ctx context.Context, plan *Plan, required bool) ApprovalOutcome {
	if !required {
		return ApprovalOutcome{State: ApprovalNotRequired, Plan: plan}
	}
	if g.provider == nil {
		return ApprovalOutcome{State: ApprovalRejected, Plan: plan,
			Reason: "approval required but no decision provider is configured"}
	}

	logger.Info("Awaiting approval decision", "run_id", plan.RunID, "plan_id", plan.PlanID)

	type decisionResult struct {
		decision Decision
		err      error
	}
	ch := make(chan decisionResult, 1)
	go func() {
		d, err := g.provider.Decide(ctx, plan)
		ch <- decisionResult{d, err}
	}()

	var timeoutC <-chan time.Time
	if g.timeout > 0 {
		timer := time.NewTimer(g.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case <-ctx.Done():
		return ApprovalOutcome{State: ApprovalRejected, Plan: plan, Reason: ctx.Err().Error()}
	case <-timeoutC:
		logger.Warn("Approval timed out", "run_id", plan.RunID, "timeout", g.timeout.String())
		return ApprovalOutcome{State: ApprovalRejected, Plan: plan,
			Reason: "no decision within " + g.timeout.String()}
	case res := <-ch:
		if res.err != nil {
			logger.LogErr(res.err, "decision provider failed", "run_id", plan.RunID)
			return ApprovalOutcome{State: ApprovalRejected, Plan: plan,
				Reason: "decision provider failed: " + res.err.Error()}
		}
		return g.applyDecision(plan, res.decision)
	}
}

func (g *Gate) applyDecision(plan *Plan, d Decision) ApprovalOutcome {
	switch d.Action {
	case DecisionApprove:
		logger.Info("Plan approved", "run_id", plan.RunID)
		return ApprovalOutcome{State: ApprovalApproved, Plan: plan}
	case DecisionModify:
		modified, err := applyModification(plan, d.ModifiedSteps)
		if err != nil {
			logger.Warn("Plan modification invalid, rejecting",
				"run_id", plan.RunID, "error", err.Error())
			return ApprovalOutcome{State: ApprovalRejected, Plan: plan,
				Reason: "modification invalid: " + err.Error()}
		}
		logger.Info("Plan modified by reviewer", "run_id", plan.RunID,
			"steps", len(modified.Steps))
		return ApprovalOutcome{State: ApprovalModified, Plan: modified}
	case DecisionReject:
		fallthrough
	default:
		reason := d.Reason
		if reason == "" {
			reason = "rejected by reviewer"
		}
		logger.Info("Plan rejected", "run_id", plan.RunID, "reason", reason)
		return ApprovalOutcome{State: ApprovalRejected, Plan: plan, Reason: reason}
	}
}

const modifiedStepsSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["step", "agent", "action"],
		"properties": {
			"step": {"type": "integer", "minimum": 1},
			"agent": {"type": "string", "minLength": 1},
			"action": {"type": "string", "minLength": 1},
			"parallel_group": {"type": "integer", "minimum": 0},
			"depends_on": {"type": "array", "items": {"type": "integer", "minimum": 1}}
		},
		"additionalProperties": false
	}
}`

// applyModification swaps in the reviewer's step list, recomputing the
// required agents and estimates, and revalidates the result.
func applyModification(plan *Plan, raw json.RawMessage) (*Plan, error) {
	if len(raw) == 0 {
		return nil, serr.New("no modified steps supplied")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(modifiedStepsSchema),
		gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, serr.Wrap(err, "failed to validate modified steps")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, serr.New("modified steps rejected by schema: " + strings.Join(msgs, "; "))
	}

	var steps []Step
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, serr.Wrap(err, "failed to decode modified steps")
	}

	modified := plan.Clone()
	modified.Steps = steps
	modified.AgentsRequired = agentsFromSteps(steps)
	modified.Normalize()
	modified.EstimatedTimeMS, modified.EstimatedCostUSD = estimate(modified.Steps)
	if err := modified.Validate(); err != nil {
		return nil, err
	}
	return modified, nil
}

// ConsoleDecisionProvider prompts on a terminal. Unrecognized input is
// re-prompted rather than treated as a rejection.
type ConsoleDecisionProvider struct {
	In  io.Reader
	Out io.Writer
}

func NewConsoleDecisionProvider() *ConsoleDecisionProvider {
	return &ConsoleDecisionProvider{In: os.Stdin, Out: os.Stdout}
}

func (c *ConsoleDecisionProvider) Decide(_ context.Context, plan *Plan) (Decision, error) {
	fmt.Fprintf(c.Out, "\nPlan: %s (%s)\n", plan.PlanName, plan.PlanID)
	fmt.Fprintf(c.Out, "Agents: %s\n", strings.Join(plan.AgentsRequired, ", "))
	for _, s := range plan.Steps {
		fmt.Fprintf(c.Out, "  %d. [%s] %s\n", s.Index, s.Agent, s.Action)
	}
	fmt.Fprintf(c.Out, "Estimated: %dms, $%.2f\n", plan.EstimatedTimeMS, plan.EstimatedCostUSD)

	scanner := bufio.NewScanner(c.In)
	for {
		fmt.Fprint(c.Out, "Approve this plan? (yes/no/modify): ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return Decision{}, serr.Wrap(err, "failed to read decision")
			}
			return Decision{Action: DecisionReject, Reason: "input closed"}, nil
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "yes", "y", "proceed", "approve":
			return Decision{Action: DecisionApprove}, nil
		case "no", "n", "reject", "cancel":
			return Decision{Action: DecisionReject, Reason: "rejected at console"}, nil
		case "modify", "m", "edit":
			fmt.Fprint(c.Out, "Modified steps JSON (single line): ")
			if !scanner.Scan() {
				return Decision{Action: DecisionReject, Reason: "input closed"}, nil
			}
			return Decision{
				Action:        DecisionModify,
				ModifiedSteps: json.RawMessage(strings.TrimSpace(scanner.Text())),
			}, nil
		default:
			fmt.Fprintln(c.Out, "Please answer yes, no or modify.")
		}
	}
}

// StaticDecisionProvider returns a fixed decision, for automation and tests.
type StaticDecisionProvider struct {
	Decision Decision
	Err      error
}

func (s *StaticDecisionProvider) Decide(_ context.Context, _ *Plan) (Decision, error) {
	return s.Decision, s.Err
}
