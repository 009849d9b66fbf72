package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"propflow/agents"
)

// Executor runs a plan's steps in ascending index order, honoring parallel
// group hints. Steps sharing a group run concurrently on a bounded pool;
// a group must drain completely before the next one starts.
//
// An agent returning an error-status result is business as usual: the
// outcome is recorded and the run continues. A dispatch fault (unknown
// agent, panic, nil result, transport error) aborts the run after the
// current group finishes.
type Executor struct {
	registry   *agents.Registry
	maxWorkers int
}

func NewExecutor(registry *agents.Registry, maxWorkers int) *Executor {
	if maxWorkers < 1 {
		maxWorkers = 4
	}
	return &Executor{registry: registry, maxWorkers: maxWorkers}
}

func (e *Executor) Execute(ctx context.Context, plan *Plan, reqContext map[string]interface{}) ExecutionResult {
	res := ExecutionResult{
		Status:         StatusCompleted,
		StepsCompleted: []StepOutcome{},
		StartedAt:      time.Now(),
	}

	base := buildBaseContext(plan, reqContext)
	results := make(map[int]agents.Result, len(plan.Steps))

	for _, grp := range groupSteps(plan.Steps) {
		if err := ctx.Err(); err != nil {
			res.Status = StatusFailed
			res.FailureReason = "run cancelled: " + err.Error()
			break
		}
		if len(grp.steps) > 1 {
			logger.Info("Executing parallel group", "run_id", plan.RunID,
				"group", grp.id, "steps", len(grp.steps))
		}

		outcomes, fault := e.runGroup(ctx, grp.steps, base, results)
		res.StepsCompleted = append(res.StepsCompleted, outcomes...)
		if fault != nil {
			logger.LogErr(fault, "plan execution aborted", "run_id", plan.RunID)
			res.Status = StatusFailed
			res.FailureReason = fault.Error()
			break
		}
	}

	res.CompletedAt = time.Now()
	return res
}

// runGroup executes one parallel group and returns its outcomes in step
// index order. The first dispatch fault by index is returned after every
// started step has finished.
func (e *Executor) runGroup(ctx context.Context, steps []Step, base map[string]interface{}, results map[int]agents.Result) ([]StepOutcome, error) {
	type slot struct {
		outcome StepOutcome
		err     error
		done    bool
	}
	slots := make([]slot, len(steps))

	run := func(i int, s Step) {
		actx := stepContext(base, s, results)
		logger.Debug("Executing step", "step", s.Index, "agent", s.Agent, "action", s.Action)

		start := time.Now()
		result, err := e.registry.Execute(ctx, s.Agent, s.Action, actx)
		if err != nil {
			slots[i] = slot{err: serr.Wrap(err, fmt.Sprintf("step %d (%s) failed", s.Index, s.Agent))}
			return
		}
		if result.IsError() {
			logger.Warn("Step returned an error result",
				"step", s.Index, "agent", s.Agent, "message", result.Message())
		}
		slots[i] = slot{
			outcome: StepOutcome{
				Step:       s.Index,
				Agent:      s.Agent,
				Action:     s.Action,
				Result:     result,
				DurationMS: time.Since(start).Milliseconds(),
			},
			done: true,
		}
	}

	if len(steps) == 1 {
		run(0, steps[0])
	} else {
		sem := make(chan struct{}, e.maxWorkers)
		var wg sync.WaitGroup
		for i, s := range steps {
			wg.Add(1)
			go func(i int, s Step) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				run(i, s)
			}(i, s)
		}
		wg.Wait()
	}

	outcomes := make([]StepOutcome, 0, len(steps))
	var fault error
	for i, s := range steps {
		if slots[i].err != nil {
			if fault == nil {
				fault = slots[i].err
			}
			continue
		}
		if slots[i].done {
			results[s.Index] = slots[i].outcome.Result
			outcomes = append(outcomes, slots[i].outcome)
		}
	}
	return outcomes, fault
}

// buildBaseContext merges plan entities under the caller's context, which
// wins on key collisions.
func buildBaseContext(plan *Plan, reqContext map[string]interface{}) map[string]interface{} {
	base := make(map[string]interface{}, len(reqContext)+len(plan.Entities))
	for k, v := range plan.Entities {
		base[k] = v
	}
	for k, v := range reqContext {
		base[k] = v
	}
	return base
}

// stepContext copies the base context and injects each declared
// dependency's result under its stable step_N_result key. Dependencies sit
// in earlier groups, so results reads here never race group writes.
func stepContext(base map[string]interface{}, s Step, results map[int]agents.Result) map[string]interface{} {
	actx := make(map[string]interface{}, len(base)+len(s.DependsOn))
	for k, v := range base {
		actx[k] = v
	}
	for _, dep := range s.DependsOn {
		if r, ok := results[dep]; ok {
			actx[fmt.Sprintf("step_%d_result", dep)] = r
		}
	}
	return actx
}

type stepGroup struct {
	id    int
	steps []Step
}

// groupSteps buckets steps by parallel group, ascending. Within a group
// the original index order is kept.
func groupSteps(steps []Step) []stepGroup {
	byID := make(map[int][]Step)
	ids := make([]int, 0, len(steps))
	for _, s := range steps {
		if _, seen := byID[s.ParallelGroup]; !seen {
			ids = append(ids, s.ParallelGroup)
		}
		byID[s.ParallelGroup] = append(byID[s.ParallelGroup], s)
	}
	sort.Ints(ids)

	out := make([]stepGroup, 0, len(ids))
	for _, id := range ids {
		out = append(out, stepGroup{id: id, steps: byID[id]})
	}
	return out
}
