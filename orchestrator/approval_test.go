package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func gatedPlan() *Plan {
	p := &Plan{
		RunID:    "run_gate",
		PlanID:   "PLAN-004",
		PlanName: "Pre-Valuation Research",
		Steps: []Step{
			{Index: 1, Agent: "scout", Action: "Retrieve property and street records", ParallelGroup: 1},
			{Index: 2, Agent: "scout", Action: "Search comparable properties in the postcode area", ParallelGroup: 1},
			{Index: 3, Agent: "content", Action: "Prepare the valuation briefing pack", ParallelGroup: 2, DependsOn: []int{1, 2}},
		},
	}
	p.AgentsRequired = agentsFromSteps(p.Steps)
	p.Normalize()
	p.EstimatedTimeMS, p.EstimatedCostUSD = estimate(p.Steps)
	return p
}

// TestGatePassThrough verifies that plans not requiring approval skip the
// gate untouched.
func TestGatePassThrough(t *testing.T) {
	plan := gatedPlan()
	out := NewGate(nil, 0).Evaluate(context.Background(), plan, false)

	if out.State != ApprovalNotRequired {
		t.Fatalf("Expected not_required, got %s", out.State)
	}
	if out.Plan != plan {
		t.Error("Expected the same plan back")
	}
}

// TestGateApprove verifies the approve decision.
func TestGateApprove(t *testing.T) {
	provider := &StaticDecisionProvider{Decision: Decision{Action: DecisionApprove}}
	out := NewGate(provider, time.Second).Evaluate(context.Background(), gatedPlan(), true)

	if out.State != ApprovalApproved {
		t.Fatalf("Expected approved, got %s", out.State)
	}
}

// TestGateReject verifies rejection and the short-circuited envelope.
func TestGateReject(t *testing.T) {
	provider := &StaticDecisionProvider{Decision: Decision{Action: DecisionReject, Reason: "too expensive"}}
	plan := gatedPlan()
	out := NewGate(provider, time.Second).Evaluate(context.Background(), plan, true)

	if out.State != ApprovalRejected {
		t.Fatalf("Expected rejected, got %s", out.State)
	}
	if out.Reason != "too expensive" {
		t.Errorf("Expected reason preserved, got %q", out.Reason)
	}

	env := AssembleEnvelope(plan, out, nil)
	if env.Status != StatusRejected {
		t.Errorf("Expected rejected envelope, got %s", env.Status)
	}
	if env.Message != "Plan rejected" {
		t.Errorf("Expected rejection message, got %q", env.Message)
	}
	if env.Results == nil || env.Results.StepsCompleted == nil || len(env.Results.StepsCompleted) != 0 {
		t.Errorf("Expected empty steps_completed, got %+v", env.Results)
	}
	if env.Plan.PlanID != "PLAN-004" {
		t.Errorf("Expected original plan in envelope, got %s", env.Plan.PlanID)
	}
}

// TestGateModify verifies a valid modification replaces the step list and
// recomputes agents and estimates.
func TestGateModify(t *testing.T) {
	raw := json.RawMessage(`[
		{"step": 1, "agent": "scout", "action": "Retrieve property record"},
		{"step": 2, "agent": "compliance", "action": "Verify EPC certificate validity", "depends_on": [1]}
	]`)
	provider := &StaticDecisionProvider{Decision: Decision{Action: DecisionModify, ModifiedSteps: raw}}

	original := gatedPlan()
	out := NewGate(provider, time.Second).Evaluate(context.Background(), original, true)

	if out.State != ApprovalModified {
		t.Fatalf("Expected modified, got %s (%s)", out.State, out.Reason)
	}
	if len(out.Plan.Steps) != 2 {
		t.Fatalf("Expected 2 steps after modification, got %d", len(out.Plan.Steps))
	}
	if len(original.Steps) != 3 {
		t.Error("Expected the original plan to be left alone")
	}

	wantAgents := []string{"scout", "compliance"}
	for i, a := range wantAgents {
		if out.Plan.AgentsRequired[i] != a {
			t.Errorf("Expected agents %v, got %v", wantAgents, out.Plan.AgentsRequired)
			break
		}
	}
	if out.Plan.EstimatedTimeMS != 2000 {
		t.Errorf("Expected recomputed estimate 2000ms, got %d", out.Plan.EstimatedTimeMS)
	}
	if diff := out.Plan.EstimatedCostUSD - 0.13; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected recomputed cost 0.13, got %v", out.Plan.EstimatedCostUSD)
	}
}

// TestGateModifyInvalid verifies that bad modification payloads reject the
// plan rather than executing something unchecked.
func TestGateModifyInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing fields", `[{"agent": "scout"}]`},
		{"not an array", `{"step": 1}`},
		{"empty array", `[]`},
		{"unknown field", `[{"step": 1, "agent": "scout", "action": "x", "retries": 3}]`},
		{"dependency on later step", `[
			{"step": 1, "agent": "scout", "action": "x", "depends_on": [2]},
			{"step": 2, "agent": "scout", "action": "y"}
		]`},
		{"non-contiguous indices", `[{"step": 5, "agent": "scout", "action": "x"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &StaticDecisionProvider{Decision: Decision{
				Action:        DecisionModify,
				ModifiedSteps: json.RawMessage(tc.raw),
			}}
			out := NewGate(provider, time.Second).Evaluate(context.Background(), gatedPlan(), true)
			if out.State != ApprovalRejected {
				t.Fatalf("Expected rejected, got %s", out.State)
			}
			if !strings.Contains(out.Reason, "modification invalid") {
				t.Errorf("Expected modification invalid reason, got %q", out.Reason)
			}
		})
	}
}

type blockingProvider struct{}

func (b *blockingProvider) Decide(ctx context.Context, _ *Plan) (Decision, error) {
	<-ctx.Done()
	return Decision{}, ctx.Err()
}

// TestGateTimeout verifies that silence becomes a rejection.
func TestGateTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := NewGate(&blockingProvider{}, 25*time.Millisecond).Evaluate(ctx, gatedPlan(), true)

	if out.State != ApprovalRejected {
		t.Fatalf("Expected rejected on timeout, got %s", out.State)
	}
	if !strings.Contains(out.Reason, "no decision within") {
		t.Errorf("Expected timeout reason, got %q", out.Reason)
	}
}

// TestGateProviderError verifies that a failing provider rejects the plan.
func TestGateProviderError(t *testing.T) {
	provider := &StaticDecisionProvider{Err: errors.New("console unavailable")}
	out := NewGate(provider, time.Second).Evaluate(context.Background(), gatedPlan(), true)

	if out.State != ApprovalRejected {
		t.Fatalf("Expected rejected, got %s", out.State)
	}
	if !strings.Contains(out.Reason, "console unavailable") {
		t.Errorf("Expected provider error in reason, got %q", out.Reason)
	}
}

// TestGateNoProvider verifies that requiring approval with no provider
// configured cannot silently execute.
func TestGateNoProvider(t *testing.T) {
	out := NewGate(nil, 0).Evaluate(context.Background(), gatedPlan(), true)

	if out.State != ApprovalRejected {
		t.Fatalf("Expected rejected, got %s", out.State)
	}
	if !strings.Contains(out.Reason, "no decision provider") {
		t.Errorf("Expected missing provider reason, got %q", out.Reason)
	}
}

// TestConsoleDecisionProvider exercises the terminal prompt loop.
func TestConsoleDecisionProvider(t *testing.T) {
	t.Run("approve after reprompt", func(t *testing.T) {
		var out bytes.Buffer
		p := &ConsoleDecisionProvider{In: strings.NewReader("maybe\nyes\n"), Out: &out}
		d, err := p.Decide(context.Background(), gatedPlan())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if d.Action != DecisionApprove {
			t.Errorf("Expected approve, got %s", d.Action)
		}
		if !strings.Contains(out.String(), "Please answer") {
			t.Error("Expected a reprompt for unrecognized input")
		}
	})

	t.Run("reject", func(t *testing.T) {
		var out bytes.Buffer
		p := &ConsoleDecisionProvider{In: strings.NewReader("no\n"), Out: &out}
		d, _ := p.Decide(context.Background(), gatedPlan())
		if d.Action != DecisionReject {
			t.Errorf("Expected reject, got %s", d.Action)
		}
	})

	t.Run("modify captures payload", func(t *testing.T) {
		var out bytes.Buffer
		steps := `[{"step":1,"agent":"scout","action":"x"}]`
		p := &ConsoleDecisionProvider{In: strings.NewReader("modify\n" + steps + "\n"), Out: &out}
		d, _ := p.Decide(context.Background(), gatedPlan())
		if d.Action != DecisionModify {
			t.Fatalf("Expected modify, got %s", d.Action)
		}
		if string(d.ModifiedSteps) != steps {
			t.Errorf("Expected payload %s, got %s", steps, d.ModifiedSteps)
		}
	})

	t.Run("closed input rejects", func(t *testing.T) {
		var out bytes.Buffer
		p := &ConsoleDecisionProvider{In: strings.NewReader(""), Out: &out}
		d, err := p.Decide(context.Background(), gatedPlan())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if d.Action != DecisionReject {
			t.Errorf("Expected reject on closed input, got %s", d.Action)
		}
	})
}
