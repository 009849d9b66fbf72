package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
)

// Resolver turns a query into an executable plan. Resolution never fails:
// when no template qualifies, or instantiation goes wrong, the caller gets
// the custom single-step fallback plan.
type Resolver struct {
	catalogue  *Catalogue
	classifier Classifier
}

func NewResolver(cat *Catalogue, classifier Classifier) *Resolver {
	if classifier == nil {
		classifier = NewKeywordClassifier(cat)
	}
	return &Resolver{catalogue: cat, classifier: classifier}
}

// Resolve produces the plan for a request. An explicit planID pins the
// template directly; otherwise the classifier picks one. Request context
// values override entities extracted from the query text.
func (r *Resolver) Resolve(ctx context.Context, query string, reqContext map[string]interface{}, planID string) *Plan {
	if planID != "" {
		vars := mergeVars(extractEntities(query), reqContext)
		plan, err := r.catalogue.Instantiate(planID, vars)
		if err == nil {
			logger.Info("Plan pinned by request", "plan_id", planID, "run_id", plan.RunID)
			return plan
		}
		logger.Warn("Requested plan not in catalogue, classifying instead", "plan_id", planID)
	}

	c, err := r.classifier.Classify(ctx, query)
	if err != nil {
		logger.LogErr(err, "classification failed, using custom plan")
		return r.customPlan(query, mergeVars(extractEntities(query), reqContext))
	}

	vars := mergeVars(c.Entities, reqContext)
	if c.TemplateID == "" {
		logger.Info("No template matched, using custom plan", "query_len", len(query))
		return r.customPlan(query, vars)
	}

	plan, err := r.catalogue.Instantiate(c.TemplateID, vars)
	if err != nil {
		logger.LogErr(err, "template instantiation failed, using custom plan", "plan_id", c.TemplateID)
		return r.customPlan(query, vars)
	}
	logger.Info("Plan resolved", "plan_id", plan.PlanID, "plan_name", plan.PlanName,
		"confidence", fmt.Sprintf("%.2f", c.Confidence), "run_id", plan.RunID)
	return plan
}

// customPlan is the universal fallback: one orchestrator step that handles
// the query directly.
func (r *Resolver) customPlan(query string, vars map[string]string) *Plan {
	action := strings.TrimSpace("Process query: " + query)
	plan := &Plan{
		RunID:          "run_" + uuid.New().String()[:8],
		PlanID:         "CUSTOM",
		PlanName:       "Custom Workflow",
		AgentsRequired: []string{"orchestrator"},
		Steps: []Step{
			{Index: 1, Agent: "orchestrator", Action: action, ParallelGroup: 1},
		},
		Entities:  vars,
		CreatedAt: time.Now(),
	}
	plan.Normalize()
	plan.EstimatedTimeMS, plan.EstimatedCostUSD = estimate(plan.Steps)
	return plan
}

// mergeVars folds scalar request-context values over extracted entities.
func mergeVars(entities map[string]string, reqContext map[string]interface{}) map[string]string {
	vars := make(map[string]string, len(entities)+len(reqContext))
	for k, v := range entities {
		vars[k] = v
	}
	for k, v := range reqContext {
		switch val := v.(type) {
		case string:
			vars[k] = val
		case int, int32, int64, float32, float64, bool:
			vars[k] = fmt.Sprintf("%v", val)
		}
	}
	return vars
}
