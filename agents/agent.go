// Package agents provides the uniform capability boundary of the system:
// every agent takes an action string plus a context map and returns a flat
// result map. Business failures come back inside the result; a Go error
// from an agent is a dispatch fault and aborts the calling workflow.
package agents

import "context"

// Result is an agent response. It always carries a "status" of "success"
// or "error"; remaining fields are capability-specific.
type Result map[string]interface{}

// Status returns the result's status field.
func (r Result) Status() string {
	s, _ := r["status"].(string)
	return s
}

// Message returns the result's message field, set on error results.
func (r Result) Message() string {
	m, _ := r["message"].(string)
	return m
}

// IsError reports whether this is a business-error result.
func (r Result) IsError() bool {
	return r.Status() == "error"
}

// Success builds a success result from alternating key/value pairs.
func Success(kv ...interface{}) Result {
	r := Result{"status": "success"}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			r[k] = kv[i+1]
		}
	}
	return r
}

// Error builds a business-error result.
func Error(message string) Result {
	return Result{"status": "error", "message": message}
}

// Info describes an agent for rosters and summaries.
type Info struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Role  string `json:"role"`
}

// Agent is the uniform capability contract. Execute routes the action by
// keyword and returns a Result; a non-nil error means the dispatch itself
// failed, not that the business operation was declined.
type Agent interface {
	Info() Info
	Execute(ctx context.Context, action string, actx map[string]interface{}) (Result, error)
}
