package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// entityFiles maps view names to the CSV file expected in the data dir.
var entityFiles = map[string]string{
	"properties": "properties.csv",
	"vendors":    "vendors.csv",
	"buyers":     "buyers.csv",
	"employees":  "employees.csv",
	"solicitors": "solicitors.csv",
}

// idColumns maps view names to their id column.
var idColumns = map[string]string{
	"properties": "property_id",
	"vendors":    "vendor_id",
	"buyers":     "buyer_id",
	"employees":  "employee_id",
	"solicitors": "solicitor_id",
}

// DuckStore is a DuckDB-backed Store. Entity data comes from CSV files
// exposed as views via read_csv_auto; execution runs persist in a table.
type DuckStore struct {
	db    *sql.DB
	path  string
	views map[string]bool
}

// OpenDuck opens (or creates) the database at dbPath and, when dataDir is
// non-empty, registers a view over each entity CSV found there.
func OpenDuck(dbPath, dataDir string) (*DuckStore, error) {
	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, serr.Wrap(err, "failed to open database")
	}
	if err := conn.Ping(); err != nil {
		return nil, serr.Wrap(err, "failed to ping database")
	}

	s := &DuckStore{db: conn, path: dbPath, views: make(map[string]bool)}

	if err := s.createSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	if dataDir != "" {
		if err := s.registerViews(dataDir); err != nil {
			conn.Close()
			return nil, err
		}
	}

	logger.Info("Store opened", "path", dbPath, "views", len(s.views))
	return s, nil
}

func (s *DuckStore) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id VARCHAR PRIMARY KEY,
			query VARCHAR,
			plan_id VARCHAR,
			status VARCHAR,
			envelope JSON,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return serr.Wrap(err, "failed to create runs table")
	}
	return nil
}

func (s *DuckStore) registerViews(dataDir string) error {
	for view, file := range entityFiles {
		path := filepath.Join(dataDir, file)
		if _, err := os.Stat(path); err != nil {
			logger.Warn("Entity CSV not found, skipping", "view", view, "path", path)
			continue
		}
		// DuckDB takes the file path as a SQL string literal
		escaped := strings.ReplaceAll(path, "'", "''")
		stmt := fmt.Sprintf(
			"CREATE OR REPLACE VIEW %s AS SELECT * FROM read_csv_auto('%s', header=true)",
			view, escaped)
		if _, err := s.db.Exec(stmt); err != nil {
			return serr.Wrap(err, "failed to create view "+view)
		}
		s.views[view] = true
	}
	return nil
}

// Property returns the property with the given id, or nil.
func (s *DuckStore) Property(id string) (Record, error) { return s.lookup("properties", id) }

// Vendor returns the vendor with the given id, or nil.
func (s *DuckStore) Vendor(id string) (Record, error) { return s.lookup("vendors", id) }

// Buyer returns the buyer with the given id, or nil.
func (s *DuckStore) Buyer(id string) (Record, error) { return s.lookup("buyers", id) }

// Employee returns the employee with the given id, or nil.
func (s *DuckStore) Employee(id string) (Record, error) { return s.lookup("employees", id) }

// Solicitor returns the solicitor with the given id, or nil.
func (s *DuckStore) Solicitor(id string) (Record, error) { return s.lookup("solicitors", id) }

func (s *DuckStore) lookup(view, id string) (Record, error) {
	if !s.views[view] {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? LIMIT 1", view, idColumns[view])
	rows, err := s.db.Query(query, id)
	if err != nil {
		return nil, serr.Wrap(err, "lookup failed on "+view)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// SearchProperties filters properties by the documented criteria keys.
func (s *DuckStore) SearchProperties(c Criteria) (SearchResult, error) {
	clauses := []filterClause{
		{"min_price", "asking_price >= ?"},
		{"max_price", "asking_price <= ?"},
		{"bedrooms", "bedrooms = ?"},
		{"min_bedrooms", "bedrooms >= ?"},
		{"max_bedrooms", "bedrooms <= ?"},
		{"status", "status = ?"},
		{"property_type", "property_type = ?"},
		{"postcode_prefix", "starts_with(postcode, ?)"},
	}
	return s.searchView("properties", c, clauses)
}

// SearchBuyers filters buyers by the documented criteria keys.
func (s *DuckStore) SearchBuyers(c Criteria) (SearchResult, error) {
	clauses := []filterClause{
		{"min_budget", "max_budget >= ?"},
		{"max_budget", "max_budget <= ?"},
		{"buyer_type", "buyer_type = ?"},
		{"priority_level", "priority_level = ?"},
		{"financial_status", "financial_status = ?"},
	}
	return s.searchView("buyers", c, clauses)
}

// SearchVendors filters vendors by the documented criteria keys.
func (s *DuckStore) SearchVendors(c Criteria) (SearchResult, error) {
	clauses := []filterClause{
		{"aml_status", "aml_status = ?"},
		{"chain_status", "chain_status = ?"},
		{"timeline", "timeline = ?"},
	}
	return s.searchView("vendors", c, clauses)
}

type filterClause struct {
	key  string
	expr string
}

func (s *DuckStore) searchView(view string, c Criteria, clauses []filterClause) (SearchResult, error) {
	if !s.views[view] {
		return SearchResult{Data: []Record{}}, nil
	}

	where := []string{}
	args := []interface{}{}
	for _, cl := range clauses {
		if v, ok := c[cl.key]; ok {
			where = append(where, cl.expr)
			args = append(args, v)
		}
	}

	query := "SELECT * FROM " + view
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + idColumns[view]

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return SearchResult{}, serr.Wrap(err, "search failed on "+view)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Count: len(recs), Data: recs}, nil
}

// SaveRun upserts an execution run.
func (s *DuckStore) SaveRun(run RunRecord) error {
	if run.ID == "" {
		return serr.New("run id is required")
	}
	query := `
		INSERT INTO runs (id, query, plan_id, status, envelope)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			envelope = excluded.envelope
	`
	_, err := s.db.Exec(query, run.ID, run.Query, run.PlanID, run.Status, string(run.Envelope))
	if err != nil {
		return serr.Wrap(err, "failed to save run")
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *DuckStore) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, query, plan_id, status, envelope, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, serr.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var run RunRecord
		var envelope string
		if err := rows.Scan(&run.ID, &run.Query, &run.PlanID, &run.Status, &envelope, &run.CreatedAt); err != nil {
			return nil, serr.Wrap(err, "failed to scan run")
		}
		run.Envelope = []byte(envelope)
		out = append(out, run)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *DuckStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// scanRecords converts result rows into Records keyed by column name.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, serr.Wrap(err, "failed to read columns")
	}

	var out []Record
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, serr.Wrap(err, "failed to scan row")
		}
		rec := make(Record, len(cols))
		for i, col := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[col] = v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
