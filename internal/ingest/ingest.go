package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Kind selects the table shape and index set to build.
type Kind string

const (
	KindRecords Kind = "records"
	KindRules   Kind = "rules"
)

// Stats summarizes a completed load.
type Stats struct {
	Table              string
	DBPath             string
	Rows               int
	DistinctPatients   int
	DistinctCategories int
}

var indexColumns = map[Kind][]string{
	KindRecords: {"patient_id", "datetime", "condition"},
	KindRules:   {"rule_id", "category", "priority", "signal", "dedupe_key"},
}

// Load bulk-loads a CSV file into a SQLite table, replacing any previous
// contents, and builds the query indexes the pipeline depends on.
// Columns whose values all parse as numbers get REAL affinity so rules
// like vitals_HR > 120 compare numerically inside SQLite too.
func Load(csvPath, dbPath, table string, kind Kind) (*Stats, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV '%s': %w", csvPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV '%s': %w", csvPath, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV file '%s' is empty", csvPath)
	}
	header := rows[0]
	data := rows[1:]

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create database '%s': %w", dbPath, err)
	}
	defer db.Close()

	if err := createTable(db, table, header, data); err != nil {
		return nil, err
	}
	if err := insertRows(db, table, header, data); err != nil {
		return nil, err
	}

	for _, col := range indexColumns[kind] {
		if !contains(header, col) {
			continue
		}
		stmt := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s ON %s("%s")`, col, table, col)
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create index on %s: %w", col, err)
		}
	}

	return collectStats(db, table, dbPath, kind)
}

func createTable(db *sql.DB, table string, header []string, data [][]string) error {
	if _, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
		return fmt.Errorf("failed to drop old table: %w", err)
	}

	defs := make([]string, len(header))
	for i, col := range header {
		affinity := "TEXT"
		if columnIsNumeric(data, i) {
			affinity = "REAL"
		}
		defs[i] = fmt.Sprintf(`"%s" %s`, col, affinity)
	}

	stmt := fmt.Sprintf(`CREATE TABLE %s (%s)`, table, strings.Join(defs, ", "))
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// columnIsNumeric reports whether every non-empty value in the column
// parses as a float. Empty columns stay TEXT.
func columnIsNumeric(data [][]string, idx int) bool {
	seen := false
	for _, row := range data {
		if idx >= len(row) || row[idx] == "" {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

func insertRows(db *sql.DB, table string, header []string, data [][]string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	quoted := make([]string, len(header))
	marks := make([]string, len(header))
	for i, col := range header {
		quoted[i] = fmt.Sprintf(`"%s"`, col)
		marks[i] = "?"
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table, strings.Join(quoted, ", "), strings.Join(marks, ", ")))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range data {
		args := make([]interface{}, len(header))
		for i := range header {
			if i < len(row) && row[i] != "" {
				args[i] = row[i]
			} else {
				args[i] = nil // blank CSV cells become NULL
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func collectStats(db *sql.DB, table, dbPath string, kind Kind) (*Stats, error) {
	stats := &Stats{Table: table, DBPath: dbPath}

	if err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&stats.Rows); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	switch kind {
	case KindRecords:
		if err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(DISTINCT patient_id) FROM %s`, table)).Scan(&stats.DistinctPatients); err != nil {
			return nil, fmt.Errorf("failed to count patients: %w", err)
		}
	case KindRules:
		if err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(DISTINCT category) FROM %s`, table)).Scan(&stats.DistinctCategories); err != nil {
			return nil, fmt.Errorf("failed to count categories: %w", err)
		}
	}
	return stats, nil
}

func contains(cols []string, want string) bool {
	for _, c := range cols {
		if c == want {
			return true
		}
	}
	return false
}
