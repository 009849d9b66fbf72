package store

import (
	"strings"
	"sync"

	"github.com/rohanthewiz/serr"
)

// MemStore is an in-memory Store. Records keep insertion order so searches
// return stable results.
type MemStore struct {
	mu         sync.RWMutex
	properties []Record
	vendors    []Record
	buyers     []Record
	employees  []Record
	solicitors []Record
	runs       []RunRecord
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// AddProperty appends a property record.
func (m *MemStore) AddProperty(r Record) { m.add(&m.properties, r) }

// AddVendor appends a vendor record.
func (m *MemStore) AddVendor(r Record) { m.add(&m.vendors, r) }

// AddBuyer appends a buyer record.
func (m *MemStore) AddBuyer(r Record) { m.add(&m.buyers, r) }

// AddEmployee appends an employee record.
func (m *MemStore) AddEmployee(r Record) { m.add(&m.employees, r) }

// AddSolicitor appends a solicitor record.
func (m *MemStore) AddSolicitor(r Record) { m.add(&m.solicitors, r) }

func (m *MemStore) add(dst *[]Record, r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*dst = append(*dst, r)
}

// Property returns the property with the given id, or nil.
func (m *MemStore) Property(id string) (Record, error) {
	return m.lookup(&m.properties, "property_id", id)
}

// Vendor returns the vendor with the given id, or nil.
func (m *MemStore) Vendor(id string) (Record, error) {
	return m.lookup(&m.vendors, "vendor_id", id)
}

// Buyer returns the buyer with the given id, or nil.
func (m *MemStore) Buyer(id string) (Record, error) {
	return m.lookup(&m.buyers, "buyer_id", id)
}

// Employee returns the employee with the given id, or nil.
func (m *MemStore) Employee(id string) (Record, error) {
	return m.lookup(&m.employees, "employee_id", id)
}

// Solicitor returns the solicitor with the given id, or nil.
func (m *MemStore) Solicitor(id string) (Record, error) {
	return m.lookup(&m.solicitors, "solicitor_id", id)
}

func (m *MemStore) lookup(src *[]Record, idCol, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range *src {
		if toString(r[idCol]) == id {
			return cloneRecord(r), nil
		}
	}
	return nil, nil
}

// SearchProperties filters properties by the documented criteria keys.
func (m *MemStore) SearchProperties(c Criteria) (SearchResult, error) {
	return m.search(&m.properties, func(r Record) bool {
		if v, ok := c["min_price"]; ok && !numAtLeast(r["asking_price"], v) {
			return false
		}
		if v, ok := c["max_price"]; ok && !numAtMost(r["asking_price"], v) {
			return false
		}
		if v, ok := c["bedrooms"]; ok && !numEqual(r["bedrooms"], v) {
			return false
		}
		if v, ok := c["min_bedrooms"]; ok && !numAtLeast(r["bedrooms"], v) {
			return false
		}
		if v, ok := c["max_bedrooms"]; ok && !numAtMost(r["bedrooms"], v) {
			return false
		}
		if v, ok := c["status"]; ok && toString(r["status"]) != toString(v) {
			return false
		}
		if v, ok := c["property_type"]; ok && toString(r["property_type"]) != toString(v) {
			return false
		}
		if v, ok := c["postcode_prefix"]; ok && !strings.HasPrefix(toString(r["postcode"]), toString(v)) {
			return false
		}
		return true
	})
}

// SearchBuyers filters buyers by the documented criteria keys. Note that
// both budget bounds test the buyer's max_budget column.
func (m *MemStore) SearchBuyers(c Criteria) (SearchResult, error) {
	return m.search(&m.buyers, func(r Record) bool {
		if v, ok := c["min_budget"]; ok && !numAtLeast(r["max_budget"], v) {
			return false
		}
		if v, ok := c["max_budget"]; ok && !numAtMost(r["max_budget"], v) {
			return false
		}
		if v, ok := c["buyer_type"]; ok && toString(r["buyer_type"]) != toString(v) {
			return false
		}
		if v, ok := c["priority_level"]; ok && toString(r["priority_level"]) != toString(v) {
			return false
		}
		if v, ok := c["financial_status"]; ok && toString(r["financial_status"]) != toString(v) {
			return false
		}
		return true
	})
}

// SearchVendors filters vendors by the documented criteria keys.
func (m *MemStore) SearchVendors(c Criteria) (SearchResult, error) {
	return m.search(&m.vendors, func(r Record) bool {
		if v, ok := c["aml_status"]; ok && toString(r["aml_status"]) != toString(v) {
			return false
		}
		if v, ok := c["chain_status"]; ok && toString(r["chain_status"]) != toString(v) {
			return false
		}
		if v, ok := c["timeline"]; ok && toString(r["timeline"]) != toString(v) {
			return false
		}
		return true
	})
}

func (m *MemStore) search(src *[]Record, match func(Record) bool) (SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Record{}
	for _, r := range *src {
		if match(r) {
			out = append(out, cloneRecord(r))
		}
	}
	return SearchResult{Count: len(out), Data: out}, nil
}

// SaveRun appends an execution run.
func (m *MemStore) SaveRun(run RunRecord) error {
	if run.ID == "" {
		return serr.New("run id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (m *MemStore) RecentRuns(limit int) ([]RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}
	out := make([]RunRecord, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error { return nil }

func cloneRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func numAtLeast(have, want interface{}) bool {
	h, ok1 := toFloat(have)
	w, ok2 := toFloat(want)
	return ok1 && ok2 && h >= w
}

func numAtMost(have, want interface{}) bool {
	h, ok1 := toFloat(have)
	w, ok2 := toFloat(want)
	return ok1 && ok2 && h <= w
}

func numEqual(have, want interface{}) bool {
	h, ok1 := toFloat(have)
	w, ok2 := toFloat(want)
	return ok1 && ok2 && h == w
}
