package output

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/calibench/calibench/internal/preset"
)

const createRowsTable = `
CREATE TABLE IF NOT EXISTS preset_rows (
	phase             TEXT NOT NULL,
	profile           TEXT NOT NULL,
	url               TEXT NOT NULL,
	timestamp         TEXT NOT NULL,
	concurrency       INTEGER NOT NULL,
	total_requests    INTEGER,
	open_duration_sec REAL,
	warmup            REAL,
	repeat            INTEGER NOT NULL,
	open_target_rps   REAL,
	throughput_rps    REAL NOT NULL,
	p50_ms            REAL NOT NULL,
	p90_ms            REAL NOT NULL,
	p99_ms            REAL NOT NULL,
	errors            REAL NOT NULL
)`

const insertRow = `
INSERT INTO preset_rows (
	phase, profile, url, timestamp,
	concurrency, total_requests, open_duration_sec, warmup, repeat,
	open_target_rps, throughput_rps, p50_ms, p90_ms, p99_ms, errors
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// WriteSQLiteReport appends the report rows to a SQLite database, creating
// the table on first use. Unlike the CSV sink this one accumulates history
// across invocations.
func WriteSQLiteReport(path string, rows []preset.Row) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open report db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(createRowsTable); err != nil {
		return fmt.Errorf("create report table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertRow)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		var totalRequests, openDuration, openTarget interface{}
		switch r.Phase {
		case preset.PhaseClosedSweep:
			totalRequests = r.TotalRequests
		case preset.PhaseOpenLoop:
			openDuration = r.OpenDurationSec
			openTarget = r.OpenTargetRPS
		}
		if _, err := stmt.Exec(
			r.Phase, r.Profile, r.URL, r.Timestamp,
			r.Concurrency, totalRequests, openDuration, r.Warmup, r.Repeat,
			openTarget, r.ThroughputRPS, r.P50Ms, r.P90Ms, r.P99Ms, r.Errors,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert report row: %w", err)
		}
	}
	return tx.Commit()
}
