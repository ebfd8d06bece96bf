package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"k8s.io/klog/v2"
	_ "modernc.org/sqlite"
)

// Journal exports run reports to SQLite as they happen. It is write-only
// from the organizer's point of view and never consulted for decisions.
type Journal struct {
	db         *sql.DB
	writeChan  chan func(*sql.DB) error
	writerDone sync.WaitGroup
}

// OpenJournal opens or creates the report database
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		destination TEXT NOT NULL,
		dry_run INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER
	);
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT,
		destination TEXT,
		duplicate_of TEXT,
		size INTEGER,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	j := &Journal{
		db:        db,
		writeChan: make(chan func(*sql.DB) error, 1000),
	}

	// Single writer goroutine serializes all writes
	j.writerDone.Add(1)
	go j.writerLoop()

	return j, nil
}

func (j *Journal) writerLoop() {
	defer j.writerDone.Done()

	for write := range j.writeChan {
		if err := write(j.db); err != nil {
			// Export is best-effort, the run itself goes on
			klog.Warningf("Report export write failed: %v", err)
		}
	}
}

// Close flushes queued writes and closes the database
func (j *Journal) Close() error {
	if j.writeChan != nil {
		close(j.writeChan)
		j.writerDone.Wait()
		j.writeChan = nil
	}

	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// BeginRun queues the run header row
func (j *Journal) BeginRun(r *Report) {
	runID, source, dest, dryRun, started := r.RunID, r.SourceRoot, r.DestRoot, r.DryRun, r.Started.Unix()
	j.writeChan <- func(db *sql.DB) error {
		_, err := db.Exec(`
			INSERT INTO runs (id, source, destination, dry_run, started_at)
			VALUES (?, ?, ?, ?, ?)
		`, runID, source, dest, dryRun, started)
		return err
	}
}

// Record queues one outcome row. Blocks when the queue is full so no
// outcome is dropped.
func (j *Journal) Record(runID string, o MoveOutcome) {
	recorded := time.Now().Unix()
	j.writeChan <- func(db *sql.DB) error {
		_, err := db.Exec(`
			INSERT INTO outcomes
			(run_id, source, kind, reason, destination, duplicate_of, size, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, o.Source, o.Kind.String(), o.ReasonText(), o.Destination, o.DuplicateOf, o.Size, recorded)
		return err
	}
}

// FinishRun queues the run completion time
func (j *Journal) FinishRun(runID string, finished time.Time) {
	j.writeChan <- func(db *sql.DB) error {
		_, err := db.Exec("UPDATE runs SET finished_at = ? WHERE id = ?", finished.Unix(), runID)
		return err
	}
}

// Flush waits until every queued write has been applied
func (j *Journal) Flush() {
	done := make(chan struct{})
	j.writeChan <- func(*sql.DB) error {
		close(done)
		return nil
	}
	<-done
}

// RunStats returns per-kind outcome counts of a run; call Flush first
// to include queued rows
func (j *Journal) RunStats(runID string) (map[string]int64, error) {
	rows, err := j.db.Query(`
		SELECT kind, COUNT(*) FROM outcomes WHERE run_id = ? GROUP BY kind
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		stats[kind] = n
	}
	return stats, rows.Err()
}
