// Package orchestrator coordinates multi-agent workflows for a UK estate
// agency: it resolves a natural-language request to a plan, runs the plan
// through an approval gate, executes its steps across the agent team and
// assembles the response envelope.
package orchestrator

import (
	"context"
	"time"

	"github.com/rohanthewiz/logger"
	"propflow/agents"
	"propflow/llm"
	"propflow/store"
)

// Options configures an Orchestrator. Zero values get working defaults:
// a seeded demo store, the built-in catalogue, keyword classification and
// the stock agent team.
type Options struct {
	Store            store.Store
	LLM              llm.Client
	Registry         *agents.Registry
	Catalogue        *Catalogue
	Classifier       Classifier
	DecisionProvider DecisionProvider
	ApprovalTimeout  time.Duration
	MaxWorkers       int
	HistoryLimit     int
}

type Orchestrator struct {
	registry  *agents.Registry
	catalogue *Catalogue
	resolver  *Resolver
	gate      *Gate
	executor  *Executor
	history   *History
	metrics   *Metrics
	store     store.Store
}

func New(opts Options) *Orchestrator {
	st := opts.Store
	if st == nil {
		st = store.SeedDemo()
	}

	reg := opts.Registry
	if reg == nil {
		reg = agents.NewRegistry()
		reg.Register(agents.NewScout(st, opts.LLM))
		reg.Register(agents.NewIntelligence(st, opts.LLM))
		reg.Register(agents.NewContent(st, opts.LLM))
		reg.Register(agents.NewCompliance(st, opts.LLM))
	}
	if _, ok := reg.Get("orchestrator"); !ok {
		reg.Register(&coordinatorAgent{llm: opts.LLM})
	}

	cat := opts.Catalogue
	if cat == nil {
		cat = NewCatalogue()
	}

	classifier := opts.Classifier
	if classifier == nil {
		if opts.LLM != nil {
			classifier = NewLLMClassifier(opts.LLM, cat)
		} else {
			classifier = NewKeywordClassifier(cat)
		}
	}

	o := &Orchestrator{
		registry:  reg,
		catalogue: cat,
		resolver:  NewResolver(cat, classifier),
		gate:      NewGate(opts.DecisionProvider, opts.ApprovalTimeout),
		executor:  NewExecutor(reg, opts.MaxWorkers),
		history:   NewHistory(opts.HistoryLimit, st),
		metrics:   NewMetrics(),
		store:     st,
	}
	logger.Info("Orchestrator ready", "agents", len(reg.List()), "templates", cat.Len())
	return o
}

// ProcessQuery runs the full pipeline for one request: resolve, gate,
// execute, aggregate. It always returns an envelope; a rejected plan
// yields status rejected with no steps executed.
func (o *Orchestrator) ProcessQuery(ctx context.Context, req Request) ResponseEnvelope {
	start := time.Now()
	logger.Info("Processing query", "query", req.Query, "approval_required", req.RequireApproval)

	plan := o.resolver.Resolve(ctx, req.Query, req.Context, req.PlanID)
	approval := o.gate.Evaluate(ctx, plan, req.RequireApproval)

	var env ResponseEnvelope
	if approval.State == ApprovalRejected {
		env = AssembleEnvelope(plan, approval, nil)
	} else {
		exec := o.executor.Execute(ctx, approval.Plan, req.Context)
		env = AssembleEnvelope(approval.Plan, approval, &exec)
	}

	o.history.Record(req.Query, approval.Plan, env)
	o.metrics.RecordRun(env, time.Since(start))

	steps := 0
	if env.Results != nil {
		steps = len(env.Results.StepsCompleted)
	}
	logger.Info("Run finished", "run_id", approval.Plan.RunID,
		"status", string(env.Status), "steps_completed", steps,
		"elapsed", time.Since(start).String())
	return env
}

// InvokeAgent calls a single agent directly, bypassing planning and
// approval. Useful for diagnostics and scripted one-offs.
func (o *Orchestrator) InvokeAgent(ctx context.Context, name, action string, actx map[string]interface{}) (agents.Result, error) {
	if actx == nil {
		actx = map[string]interface{}{}
	}
	return o.registry.Execute(ctx, name, action, actx)
}

// Templates lists the catalogue in registration order.
func (o *Orchestrator) Templates() []Template {
	return o.catalogue.List()
}

// Template looks up one catalogue entry.
func (o *Orchestrator) Template(id string) (Template, bool) {
	return o.catalogue.Get(id)
}

// LoadTemplates merges operator templates from a YAML file.
func (o *Orchestrator) LoadTemplates(path string) (int, error) {
	return o.catalogue.LoadYAML(path)
}

// Agents describes the registered team in registration order.
func (o *Orchestrator) Agents() []agents.Info {
	return o.registry.List()
}

// History returns up to n recent runs, newest first.
func (o *Orchestrator) History(n int) []store.RunRecord {
	return o.history.Recent(n)
}

// Metrics returns a snapshot of run counters.
func (o *Orchestrator) Metrics() map[string]interface{} {
	return o.metrics.Snapshot()
}
