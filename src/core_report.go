package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Report accumulates the outcome of every file visited in one run
type Report struct {
	RunID       string
	SourceRoot  string
	DestRoot    string
	DryRun      bool
	Started     time.Time
	Finished    time.Time
	DirsRemoved []string

	mu       sync.Mutex
	outcomes []MoveOutcome
}

func NewReport(config *Config) *Report {
	return &Report{
		RunID:      uuid.NewString(),
		SourceRoot: config.SourcePath,
		DestRoot:   config.DestPath,
		DryRun:     config.DryRun,
		Started:    time.Now(),
	}
}

// Add appends an outcome
func (r *Report) Add(o MoveOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

// Outcomes returns a copy of everything recorded so far
func (r *Report) Outcomes() []MoveOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MoveOutcome(nil), r.outcomes...)
}

// NotMoved returns removed and skipped outcomes in visit order
func (r *Report) NotMoved() []MoveOutcome {
	var out []MoveOutcome
	for _, o := range r.Outcomes() {
		if o.Kind != OutcomeMoved {
			out = append(out, o)
		}
	}
	return out
}

// Counts returns moved, removed and skipped totals
func (r *Report) Counts() (moved, removed, skipped int) {
	for _, o := range r.Outcomes() {
		switch o.Kind {
		case OutcomeMoved:
			moved++
		case OutcomeRemoved:
			removed++
		case OutcomeSkipped:
			skipped++
		}
	}
	return
}

// MovedBytes sums the size of moved files
func (r *Report) MovedBytes() int64 {
	var total int64
	for _, o := range r.Outcomes() {
		if o.Kind == OutcomeMoved {
			total += o.Size
		}
	}
	return total
}

// Print writes the final not-moved listing, its total and a summary line
func (r *Report) Print(w io.Writer) {
	header := color.New(color.Bold)
	reason := color.New(color.FgYellow)

	notMoved := r.NotMoved()
	header.Fprintln(w, "Files that were not moved:")
	for _, o := range notMoved {
		fmt.Fprintf(w, "File: %s, Reason: %s\n", r.displayPath(o.Source), reason.Sprint(o.ReasonText()))
	}
	header.Fprintf(w, "Total files not moved: %d\n", len(notMoved))

	moved, removed, _ := r.Counts()
	verb := "Moved"
	if r.DryRun {
		verb = "Would move"
	}
	fmt.Fprintf(w, "%s %d files (%s), removed %d duplicates, cleaned %d empty directories\n",
		verb, moved, humanize.Bytes(uint64(r.MovedBytes())), removed, len(r.DirsRemoved))
}

func (r *Report) displayPath(path string) string {
	if r.SourceRoot == "" {
		return path
	}
	if rel, err := filepath.Rel(r.SourceRoot, path); err == nil {
		return rel
	}
	return path
}
