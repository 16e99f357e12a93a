package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wardline/handover/internal/core/model"
)

// Datetime layouts seen in the ingested CSVs. Tried in order.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDatetime(s string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime: %q", s)
}

// SQLiteRecordStore reads the medical_records table produced by the
// ingest tool. Columns beyond the fixed ones are exposed as named vitals
// when prefixed vitals_, so the schema can grow without code changes.
type SQLiteRecordStore struct {
	db    *sql.DB
	table string
}

func NewSQLiteRecordStore(path, table string) (*SQLiteRecordStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to reach record store %s: %w", path, err)
	}
	return &SQLiteRecordStore{db: db, table: table}, nil
}

func (s *SQLiteRecordStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteRecordStore) FetchRecords(ctx context.Context, patientID string) ([]model.PatientRecord, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE patient_id = ? ORDER BY datetime`, s.table)

	rows, err := queryWithRetry(ctx, s.db, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", model.ErrUnavailable, s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns: %v", model.ErrUnavailable, err)
	}

	var records []model.PatientRecord
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", model.ErrUnavailable, err)
		}

		rec := model.PatientRecord{Vitals: map[string]string{}}
		for i, col := range cols {
			if !values[i].Valid {
				continue
			}
			v := values[i].String
			switch {
			case col == "patient_id":
				rec.PatientID = v
			case col == "datetime":
				t, err := parseDatetime(v)
				if err != nil {
					return nil, fmt.Errorf("%w: row for %s: %v", model.ErrUnavailable, patientID, err)
				}
				rec.Datetime = t
			case col == "condition":
				rec.Condition = v
			case col == "medications":
				rec.Medications = v
			case strings.HasPrefix(col, "vitals_"):
				rec.Vitals[col] = v
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", model.ErrUnavailable, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, patientID)
	}
	return records, nil
}

// SQLitePolicyStore reads the clinical_rules table. Rows whose priority
// or operator cannot be parsed are skipped with a log line rather than
// silently evaluated wrong.
type SQLitePolicyStore struct {
	db    *sql.DB
	table string
}

func NewSQLitePolicyStore(path, table string) (*SQLitePolicyStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy store %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to reach policy store %s: %w", path, err)
	}
	return &SQLitePolicyStore{db: db, table: table}, nil
}

func (s *SQLitePolicyStore) Close() error {
	return s.db.Close()
}

func (s *SQLitePolicyStore) FetchAllRules(ctx context.Context) ([]model.Rule, error) {
	query := fmt.Sprintf(`SELECT rule_id, category, priority, signal, operator, value, unit, time_window_h, action, message, dedupe_key FROM %s`, s.table)

	rows, err := queryWithRetry(ctx, s.db, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", model.ErrUnavailable, s.table, err)
	}
	defer rows.Close()

	rules := []model.Rule{}
	for rows.Next() {
		var (
			ruleID, signal             string
			category, priority         sql.NullString
			operator, value, unit      sql.NullString
			action, message, dedupeKey sql.NullString
			timeWindowH                sql.NullFloat64
		)
		if err := rows.Scan(&ruleID, &category, &priority, &signal, &operator, &value, &unit, &timeWindowH, &action, &message, &dedupeKey); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", model.ErrUnavailable, err)
		}

		prio, err := model.ParsePriority(priority.String)
		if err != nil {
			log.Printf("skipping rule %s: %v", ruleID, err)
			continue
		}
		op, err := model.ParseOperator(operator.String)
		if err != nil {
			log.Printf("skipping rule %s: %v", ruleID, err)
			continue
		}

		rules = append(rules, model.Rule{
			RuleID:      ruleID,
			Category:    category.String,
			Priority:    prio,
			Signal:      signal,
			Operator:    op,
			Value:       value.String,
			Unit:        unit.String,
			TimeWindowH: timeWindowH.Float64,
			Action:      action.String,
			Message:     message.String,
			DedupeKey:   dedupeKey.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", model.ErrUnavailable, err)
	}
	return rules, nil
}

// queryWithRetry retries a read query once. Store queries are pure reads
// so a single retry is safe; anything more belongs to the caller.
func queryWithRetry(ctx context.Context, db *sql.DB, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err == nil || ctx.Err() != nil {
		return rows, err
	}
	return db.QueryContext(ctx, query, args...)
}
