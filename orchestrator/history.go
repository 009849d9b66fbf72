package orchestrator

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rohanthewiz/logger"
	"propflow/store"
)

// History keeps a bounded in-memory record of recent runs, newest first,
// and mirrors each entry to the store when one is attached. Store failures
// are logged, never surfaced: losing an audit row must not fail a run.
type History struct {
	mu    sync.RWMutex
	limit int
	runs  []store.RunRecord
	st    store.Store
}

func NewHistory(limit int, st store.Store) *History {
	if limit < 1 {
		limit = 100
	}
	return &History{limit: limit, st: st}
}

func (h *History) Record(query string, plan *Plan, env ResponseEnvelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		logger.LogErr(err, "failed to encode run envelope", "run_id", plan.RunID)
		raw = []byte("{}")
	}

	rec := store.RunRecord{
		ID:        plan.RunID,
		Query:     query,
		PlanID:    plan.PlanID,
		Status:    string(env.Status),
		Envelope:  raw,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.runs = append([]store.RunRecord{rec}, h.runs...)
	if len(h.runs) > h.limit {
		h.runs = h.runs[:h.limit]
	}
	h.mu.Unlock()

	if h.st != nil {
		if err := h.st.SaveRun(rec); err != nil {
			logger.LogErr(err, "failed to persist run record", "run_id", rec.ID)
		}
	}
}

// Recent returns up to n entries, newest first. n < 1 means all held.
func (h *History) Recent(n int) []store.RunRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n < 1 || n > len(h.runs) {
		n = len(h.runs)
	}
	out := make([]store.RunRecord, n)
	copy(out, h.runs[:n])
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.runs)
}
