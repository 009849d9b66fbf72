package store

import (
	"testing"
	"time"
)

// TestLookups verifies id lookups across the seeded record sets and the
// nil, nil miss contract.
func TestLookups(t *testing.T) {
	m := SeedDemo()

	prop, err := m.Property("PROP-2024-5678")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if prop == nil || prop["address_line1"] != "47 Oak Road" {
		t.Errorf("Expected 47 Oak Road, got %v", prop)
	}

	vendor, _ := m.Vendor("VEN-002")
	if vendor == nil || vendor["aml_status"] != "pending" {
		t.Errorf("Expected pending vendor, got %v", vendor)
	}

	emp, _ := m.Employee("EMP-001")
	if emp == nil || emp["first_name"] != "Laura" {
		t.Errorf("Expected Laura, got %v", emp)
	}

	sol, _ := m.Solicitor("SOL-001")
	if sol == nil || sol["firm_name"] != "Hartley & Dunn LLP" {
		t.Errorf("Expected firm name, got %v", sol)
	}

	missing, err := m.Property("PROP-0000-0000")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for a miss, got %v, %v", missing, err)
	}
}

// TestLookupReturnsCopy verifies callers cannot mutate stored records.
func TestLookupReturnsCopy(t *testing.T) {
	m := SeedDemo()

	first, _ := m.Property("PROP-2024-5678")
	first["asking_price"] = 1

	second, _ := m.Property("PROP-2024-5678")
	if second["asking_price"] != 425000 {
		t.Errorf("Expected stored record untouched, got %v", second["asking_price"])
	}
}

// TestSearchProperties verifies each documented criteria key.
func TestSearchProperties(t *testing.T) {
	m := SeedDemo()

	cases := []struct {
		name     string
		criteria Criteria
		want     int
	}{
		{"min price", Criteria{"min_price": 300000}, 2},
		{"max price", Criteria{"max_price": 300000}, 1},
		{"status active", Criteria{"status": "active"}, 2},
		{"postcode prefix", Criteria{"postcode_prefix": "M2"}, 2},
		{"bedrooms exact", Criteria{"bedrooms": 3}, 1},
		{"min bedrooms", Criteria{"min_bedrooms": 3}, 2},
		{"type detached", Criteria{"property_type": "detached"}, 1},
		{"combined", Criteria{"status": "active", "min_price": 300000}, 1},
		{"no criteria", Criteria{}, 3},
		{"no match", Criteria{"postcode_prefix": "SW1"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := m.SearchProperties(tc.criteria)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if res.Count != tc.want {
				t.Errorf("Expected %d matches, got %d", tc.want, res.Count)
			}
			if len(res.Data) != res.Count {
				t.Errorf("Expected data length to match count, got %d", len(res.Data))
			}
		})
	}
}

// TestSearchBuyers verifies budget-window and attribute filters.
func TestSearchBuyers(t *testing.T) {
	m := SeedDemo()

	cases := []struct {
		name     string
		criteria Criteria
		want     int
	}{
		{"budget window", Criteria{"min_budget": 382500.0, "max_budget": 510000.0}, 3},
		{"cash buyers", Criteria{"buyer_type": "chain_free_cash"}, 2},
		{"hot buyers", Criteria{"priority_level": "hot"}, 2},
		{"verified funds", Criteria{"financial_status": "proof_of_funds_verified"}, 2},
		{"all buyers", Criteria{}, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := m.SearchBuyers(tc.criteria)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if res.Count != tc.want {
				t.Errorf("Expected %d matches, got %d", tc.want, res.Count)
			}
		})
	}
}

// TestSearchVendors verifies AML and chain filters.
func TestSearchVendors(t *testing.T) {
	m := SeedDemo()

	res, err := m.SearchVendors(Criteria{"aml_status": "verified"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Count != 2 {
		t.Errorf("Expected 2 verified vendors, got %d", res.Count)
	}

	res, _ = m.SearchVendors(Criteria{"chain_status": "no_chain", "timeline": "asap"})
	if res.Count != 1 {
		t.Errorf("Expected 1 chain-free asap vendor, got %d", res.Count)
	}
}

// TestRunPersistence verifies SaveRun validation and newest-first reads.
func TestRunPersistence(t *testing.T) {
	m := NewMemStore()

	if err := m.SaveRun(RunRecord{}); err == nil {
		t.Error("Expected error for a run with no id")
	}

	for _, id := range []string{"run_a", "run_b", "run_c"} {
		err := m.SaveRun(RunRecord{ID: id, PlanID: "PLAN-004", Status: "completed", CreatedAt: time.Now()})
		if err != nil {
			t.Fatalf("Expected save to succeed, got %v", err)
		}
	}

	runs, err := m.RecentRuns(2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run_c" || runs[1].ID != "run_b" {
		t.Errorf("Expected newest two runs first, got %v", runs)
	}

	all, _ := m.RecentRuns(0)
	if len(all) != 3 {
		t.Errorf("Expected all runs for limit 0, got %d", len(all))
	}
}
