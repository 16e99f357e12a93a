package ingest

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
)

// PrintSamples runs the same spot-check queries the original loader
// printed after each import, so an operator can eyeball the data.
func PrintSamples(dbPath, table string, kind Kind, w io.Writer) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database '%s': %w", dbPath, err)
	}
	defer db.Close()

	fmt.Fprintln(w, "--- Sample Queries ---")

	switch kind {
	case KindRecords:
		return printRecordSamples(db, table, w)
	case KindRules:
		return printRuleSamples(db, table, w)
	}
	return fmt.Errorf("unknown kind: %s", kind)
}

func printRecordSamples(db *sql.DB, table string, w io.Writer) error {
	if err := printQuery(db, w, "Records with high heart rate (>120)",
		fmt.Sprintf(`SELECT datetime, patient_id, vitals_HR FROM %s WHERE vitals_HR > 120 ORDER BY vitals_HR DESC LIMIT 3`, table)); err != nil {
		return err
	}
	return printQuery(db, w, "Unique medications used",
		fmt.Sprintf(`SELECT DISTINCT medications FROM %s WHERE medications IS NOT NULL LIMIT 5`, table))
}

func printRuleSamples(db *sql.DB, table string, w io.Writer) error {
	if err := printQuery(db, w, "High priority rules",
		fmt.Sprintf(`SELECT rule_id, signal, operator, value, message FROM %s WHERE priority = "High" ORDER BY rule_id LIMIT 5`, table)); err != nil {
		return err
	}
	if err := printQuery(db, w, "Rules by category",
		fmt.Sprintf(`SELECT category, COUNT(*) FROM %s GROUP BY category ORDER BY COUNT(*) DESC`, table)); err != nil {
		return err
	}
	return printQuery(db, w, "Time-sensitive rules",
		fmt.Sprintf(`SELECT rule_id, signal, time_window_h, action FROM %s WHERE time_window_h > 0 ORDER BY time_window_h`, table))
}

func printQuery(db *sql.DB, w io.Writer, title, query string) error {
	rows, err := db.Query(query)
	if err != nil {
		return fmt.Errorf("sample query %q: %w", title, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s:\n", title)
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = v.String
		}
		fmt.Fprintf(w, "   %s\n", strings.Join(parts, " | "))
	}
	return rows.Err()
}
