package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/wardline/handover/internal/ingest"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	csvPath := flag.String("csv", "", "path to the CSV file to load")
	dbPath := flag.String("db", "", "path for the SQLite database (default: CSV name with .db)")
	table := flag.String("table", "", "table name (default: medical_records or clinical_rules by kind)")
	kind := flag.String("kind", "records", "what the CSV contains: records or rules")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("missing -csv")
	}

	k := ingest.Kind(*kind)
	if k != ingest.KindRecords && k != ingest.KindRules {
		log.Fatalf("unknown -kind %q (want records or rules)", *kind)
	}

	if *dbPath == "" {
		base := strings.TrimSuffix(*csvPath, filepath.Ext(*csvPath))
		*dbPath = base + ".db"
	}
	if *table == "" {
		if k == ingest.KindRecords {
			*table = "medical_records"
		} else {
			*table = "clinical_rules"
		}
	}

	log.Printf("Reading CSV file: %s", *csvPath)
	stats, err := ingest.Load(*csvPath, *dbPath, *table, k)
	if err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}

	log.Printf("Database created: %s", stats.DBPath)
	log.Printf("Table: %s, rows: %d", stats.Table, stats.Rows)
	if k == ingest.KindRecords {
		log.Printf("Unique patients: %d", stats.DistinctPatients)
	} else {
		log.Printf("Rule categories: %d", stats.DistinctCategories)
	}

	if err := ingest.PrintSamples(stats.DBPath, stats.Table, k, os.Stdout); err != nil {
		log.Fatalf("Sample queries failed: %v", err)
	}
}
