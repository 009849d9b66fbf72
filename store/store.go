// Package store provides the record-store boundary: lookup by id, search
// by criteria, and execution-run persistence. Two implementations are
// provided, an in-memory store with demo seed data and a DuckDB store that
// reads the agency's entity CSVs.
package store

import (
	"encoding/json"
	"time"
)

// Record is a flat entity row keyed by column name.
type Record map[string]interface{}

// Criteria filters a search. Recognized keys per entity are documented on
// the Search* methods.
type Criteria map[string]interface{}

// SearchResult carries matching records in stable order.
type SearchResult struct {
	Count int      `json:"count"`
	Data  []Record `json:"data"`
}

// RunRecord is one persisted workflow execution.
type RunRecord struct {
	ID        string          `json:"run_id"`
	Query     string          `json:"query"`
	PlanID    string          `json:"plan_id"`
	Status    string          `json:"status"`
	Envelope  json.RawMessage `json:"envelope"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store is the data boundary used by agents and the orchestrator.
// Lookups return (nil, nil) when no record matches the id; a non-nil
// error always means a store fault, never "not found".
type Store interface {
	Property(id string) (Record, error)
	Vendor(id string) (Record, error)
	Buyer(id string) (Record, error)
	Employee(id string) (Record, error)
	Solicitor(id string) (Record, error)

	// SearchProperties recognizes min_price, max_price, bedrooms,
	// min_bedrooms, max_bedrooms, status, property_type, postcode_prefix.
	SearchProperties(c Criteria) (SearchResult, error)
	// SearchBuyers recognizes min_budget (max_budget >= value), max_budget
	// (max_budget <= value), buyer_type, priority_level, financial_status.
	SearchBuyers(c Criteria) (SearchResult, error)
	// SearchVendors recognizes aml_status, chain_status, timeline.
	SearchVendors(c Criteria) (SearchResult, error)

	SaveRun(run RunRecord) error
	RecentRuns(limit int) ([]RunRecord, error)

	Close() error
}

// toFloat coerces the numeric shapes that show up in CSV-derived records.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toString coerces record values to their string form for equality filters.
func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
