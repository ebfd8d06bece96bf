package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestJournalRecordsRun(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "reports", "runs.db"))
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	defer j.Close()

	r := NewReport(&Config{SourcePath: "/src", DestPath: "/dst"})
	j.BeginRun(r)
	j.Record(r.RunID, MoveOutcome{Source: "/src/a.jpg", Kind: OutcomeMoved, Destination: "/dst/2023/05/a.jpg", Size: 10})
	j.Record(r.RunID, MoveOutcome{Source: "/src/b.jpg", Kind: OutcomeRemoved, Reason: ReasonDuplicateRemoved, DuplicateOf: "/src/a.jpg"})
	j.Record(r.RunID, MoveOutcome{Source: "/src/c.txt", Kind: OutcomeSkipped, Reason: ReasonNotMediaExtension})
	j.Record(r.RunID, MoveOutcome{Source: "/src/d.txt", Kind: OutcomeSkipped, Reason: ReasonNotMediaExtension})
	j.FinishRun(r.RunID, time.Now())
	j.Flush()

	stats, err := j.RunStats(r.RunID)
	if err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	if stats["moved"] != 1 || stats["removed"] != 1 || stats["skipped"] != 2 {
		t.Errorf("stats = %v", stats)
	}

	var finished int64
	if err := j.db.QueryRow("SELECT finished_at FROM runs WHERE id = ?", r.RunID).Scan(&finished); err != nil {
		t.Fatalf("query run: %v", err)
	}
	if finished == 0 {
		t.Error("finished_at not recorded")
	}
}

func TestOrganizerExportsToJournal(t *testing.T) {
	fs := setupRoots(t)
	writeFile(t, fs, "/src/a.jpg", "a")
	writeFile(t, fs, "/src/b.txt", "b")

	j, err := OpenJournal(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	defer j.Close()

	config := &Config{SourcePath: "/src", DestPath: "/dst"}
	o := newTestOrganizer(fs, config, fakeExtractor{}, nil)
	o.SetJournal(j)

	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	j.Flush()

	stats, err := j.RunStats(report.RunID)
	if err != nil {
		t.Fatalf("RunStats: %v", err)
	}
	if stats["moved"] != 1 || stats["skipped"] != 1 {
		t.Errorf("stats = %v", stats)
	}
}
