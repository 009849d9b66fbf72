package orchestrator

// AssembleEnvelope folds a run's plan, approval outcome and execution
// result into the response envelope callers receive. exec is nil when the
// plan never ran.
func AssembleEnvelope(plan *Plan, approval ApprovalOutcome, exec *ExecutionResult) ResponseEnvelope {
	if approval.State == ApprovalRejected {
		return ResponseEnvelope{
			Status:  StatusRejected,
			Message: "Plan rejected",
			Plan:    plan.Summary(),
			Results: &ExecutionSummary{
				Status:         StatusRejected,
				StepsCompleted: []StepOutcome{},
				FailureReason:  approval.Reason,
			},
		}
	}

	env := ResponseEnvelope{
		Status: StatusCompleted,
		Plan:   plan.Summary(),
	}
	if exec != nil {
		env.Status = exec.Status
		env.Results = &ExecutionSummary{
			Status:         exec.Status,
			StepsCompleted: exec.StepsCompleted,
			FailureReason:  exec.FailureReason,
		}
	}
	return env
}
