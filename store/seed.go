package store

// SeedDemo returns a MemStore preloaded with the demo agency records used
// by the CLI when no CSV data directory is configured.
func SeedDemo() *MemStore {
	m := NewMemStore()

	m.AddProperty(Record{
		"property_id": "PROP-2024-5678", "address_line1": "47 Oak Road",
		"postcode": "M20 2QR", "property_type": "semi_detached",
		"bedrooms": 3, "asking_price": 425000, "status": "active",
		"epc_rating": "C", "epc_expiry": "2027-03-14",
		"key_features":   "South-facing garden, refitted kitchen, off-road parking",
		"days_on_market": 12, "total_viewings": 8, "total_enquiries": 15,
		"vendor_id": "VEN-001",
	})
	m.AddProperty(Record{
		"property_id": "PROP-2024-5679", "address_line1": "12 Birch Avenue",
		"postcode": "M21 8TF", "property_type": "terraced",
		"bedrooms": 2, "asking_price": 285000, "status": "active",
		"epc_rating": "D", "epc_expiry": "2024-01-31",
		"key_features":   "Period features, close to tram stop",
		"days_on_market": 47, "total_viewings": 3, "total_enquiries": 6,
		"vendor_id": "VEN-002",
	})
	m.AddProperty(Record{
		"property_id": "PROP-2024-5680", "address_line1": "3 Willow Court",
		"postcode": "SK4 4DP", "property_type": "detached",
		"bedrooms": 4, "asking_price": 610000, "status": "under_offer",
		"epc_rating": "B", "epc_expiry": "2029-10-02",
		"key_features":   "Double garage, landscaped rear garden",
		"days_on_market": 23, "total_viewings": 11, "total_enquiries": 19,
		"vendor_id": "VEN-003",
	})

	m.AddVendor(Record{
		"vendor_id": "VEN-001", "first_name": "Sarah", "last_name": "Anderson",
		"aml_status": "verified", "pep_check": "clear", "sanctions_check": "clear",
		"aml_certificate_id": "AML-2024-9001",
		"chain_status":       "no_chain", "timeline": "asap",
	})
	m.AddVendor(Record{
		"vendor_id": "VEN-002", "first_name": "David", "last_name": "Hughes",
		"aml_status": "pending", "pep_check": "clear", "sanctions_check": "clear",
		"aml_certificate_id": "",
		"chain_status":       "in_chain", "timeline": "3_months",
	})
	m.AddVendor(Record{
		"vendor_id": "VEN-003", "first_name": "Priya", "last_name": "Sharma",
		"aml_status": "verified", "pep_check": "clear", "sanctions_check": "flagged",
		"aml_certificate_id": "AML-2024-9014",
		"chain_status":       "no_chain", "timeline": "flexible",
	})

	m.AddBuyer(Record{
		"buyer_id": "BUY-001", "first_name": "Emma", "last_name": "Clarke",
		"max_budget": 450000, "buyer_type": "chain_free_cash",
		"priority_level": "hot", "financial_status": "proof_of_funds_verified",
	})
	m.AddBuyer(Record{
		"buyer_id": "BUY-002", "first_name": "James", "last_name": "Wright",
		"max_budget": 430000, "buyer_type": "first_time_buyer",
		"priority_level": "hot", "financial_status": "mortgage_in_principle",
	})
	m.AddBuyer(Record{
		"buyer_id": "BUY-003", "first_name": "Olivia", "last_name": "Bennett",
		"max_budget": 400000, "buyer_type": "chain",
		"priority_level": "warm", "financial_status": "mortgage_in_principle",
	})
	m.AddBuyer(Record{
		"buyer_id": "BUY-004", "first_name": "Tom", "last_name": "Fletcher",
		"max_budget": 300000, "buyer_type": "first_time_buyer",
		"priority_level": "cold", "financial_status": "not_verified",
	})
	m.AddBuyer(Record{
		"buyer_id": "BUY-005", "first_name": "Hannah", "last_name": "Price",
		"max_budget": 650000, "buyer_type": "chain_free_cash",
		"priority_level": "warm", "financial_status": "proof_of_funds_verified",
	})

	m.AddEmployee(Record{
		"employee_id": "EMP-001", "first_name": "Laura", "last_name": "Mitchell",
		"role": "branch_manager", "branch": "Didsbury",
	})
	m.AddEmployee(Record{
		"employee_id": "EMP-002", "first_name": "Ryan", "last_name": "Connor",
		"role": "negotiator", "branch": "Didsbury",
	})

	m.AddSolicitor(Record{
		"solicitor_id": "SOL-001", "firm_name": "Hartley & Dunn LLP",
		"contact_name": "Mark Hartley",
	})

	return m
}
