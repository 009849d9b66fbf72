package orchestrator

import (
	"context"
	"strings"
	"testing"
)

func newTestResolver() *Resolver {
	cat := NewCatalogue()
	return NewResolver(cat, NewKeywordClassifier(cat))
}

// TestResolveValuationRequest verifies that a valuation request maps to
// the pre-valuation research plan with its scout/scout/content steps.
func TestResolveValuationRequest(t *testing.T) {
	r := newTestResolver()
	query := "New valuation request from Sarah Anderson for 47 Oak Road, M20 2QR"

	plan := r.Resolve(context.Background(), query, nil, "")

	if plan.PlanID != "PLAN-004" {
		t.Fatalf("Expected PLAN-004, got %s (%s)", plan.PlanID, plan.PlanName)
	}
	if len(plan.Steps) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(plan.Steps))
	}
	wantAgents := []string{"scout", "scout", "content"}
	for i, s := range plan.Steps {
		if s.Agent != wantAgents[i] {
			t.Errorf("Expected step %d agent %s, got %s", i+1, wantAgents[i], s.Agent)
		}
	}
	if plan.Entities["postcode"] != "M20 2QR" {
		t.Errorf("Expected postcode entity extracted, got %v", plan.Entities)
	}
	if plan.RunID == "" || !strings.HasPrefix(plan.RunID, "run_") {
		t.Errorf("Expected a run id, got %q", plan.RunID)
	}
}

// TestResolveEmptyQuery verifies the custom fallback plan for a query
// nothing matches.
func TestResolveEmptyQuery(t *testing.T) {
	r := newTestResolver()

	plan := r.Resolve(context.Background(), "", nil, "")

	if plan.PlanID != "CUSTOM" {
		t.Fatalf("Expected CUSTOM, got %s", plan.PlanID)
	}
	if plan.PlanName != "Custom Workflow" {
		t.Errorf("Expected Custom Workflow, got %s", plan.PlanName)
	}
	if len(plan.Steps) != 1 || plan.Steps[0].Agent != "orchestrator" {
		t.Fatalf("Expected one orchestrator step, got %+v", plan.Steps)
	}
	if len(plan.AgentsRequired) != 1 || plan.AgentsRequired[0] != "orchestrator" {
		t.Errorf("Expected agents [orchestrator], got %v", plan.AgentsRequired)
	}
	if plan.EstimatedTimeMS != 5000 {
		t.Errorf("Expected 5000ms estimate, got %d", plan.EstimatedTimeMS)
	}
	if diff := plan.EstimatedCostUSD - 0.10; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected 0.10 cost estimate, got %v", plan.EstimatedCostUSD)
	}
}

// TestResolveGibberish verifies that unmatchable text still resolves.
func TestResolveGibberish(t *testing.T) {
	r := newTestResolver()
	plan := r.Resolve(context.Background(), "zxqv wibble flurp", nil, "")

	if plan.PlanID != "CUSTOM" {
		t.Errorf("Expected CUSTOM, got %s", plan.PlanID)
	}
	if !strings.Contains(plan.Steps[0].Action, "zxqv wibble flurp") {
		t.Errorf("Expected query echoed into the step action, got %q", plan.Steps[0].Action)
	}
}

// TestResolveDeterministic verifies the same query resolves to the same
// template on resubmission.
func TestResolveDeterministic(t *testing.T) {
	r := newTestResolver()
	query := "Run AML check for VEN-001"

	first := r.Resolve(context.Background(), query, nil, "")
	second := r.Resolve(context.Background(), query, nil, "")

	if first.PlanID != "PLAN-009" || second.PlanID != "PLAN-009" {
		t.Fatalf("Expected PLAN-009 both times, got %s then %s", first.PlanID, second.PlanID)
	}
	if first.RunID == second.RunID {
		t.Error("Expected distinct run ids per resolution")
	}
}

// TestResolveExplicitPlan verifies pinning a template and context-driven
// substitution.
func TestResolveExplicitPlan(t *testing.T) {
	r := newTestResolver()

	plan := r.Resolve(context.Background(), "anything at all",
		map[string]interface{}{"vendor_id": "VEN-001"}, "PLAN-009")

	if plan.PlanID != "PLAN-009" {
		t.Fatalf("Expected pinned PLAN-009, got %s", plan.PlanID)
	}
	if !strings.Contains(plan.Steps[1].Action, "VEN-001") {
		t.Errorf("Expected vendor id substituted into action, got %q", plan.Steps[1].Action)
	}
}

// TestResolveUnknownExplicitPlan verifies an unknown pinned id falls back
// to classification instead of failing.
func TestResolveUnknownExplicitPlan(t *testing.T) {
	r := newTestResolver()

	plan := r.Resolve(context.Background(), "Verify the EPC for PROP-2024-5678", nil, "PLAN-999")

	if plan.PlanID != "PLAN-008" {
		t.Errorf("Expected fallback to classification (PLAN-008), got %s", plan.PlanID)
	}
	if plan.Entities["property_id"] != "PROP-2024-5678" {
		t.Errorf("Expected property entity, got %v", plan.Entities)
	}
}

// TestResolveContextOverridesEntities verifies caller context wins over
// ids extracted from the query text.
func TestResolveContextOverridesEntities(t *testing.T) {
	r := newTestResolver()

	plan := r.Resolve(context.Background(), "Match buyers to property PROP-2024-5678",
		map[string]interface{}{"property_id": "PROP-2024-5680"}, "")

	if plan.PlanID != "PLAN-012" {
		t.Fatalf("Expected PLAN-012, got %s", plan.PlanID)
	}
	if plan.Entities["property_id"] != "PROP-2024-5680" {
		t.Errorf("Expected context to override extracted id, got %v", plan.Entities)
	}
}
