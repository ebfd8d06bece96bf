package main

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"k8s.io/klog/v2"
)

var (
	ErrSourceNotDir = errors.New("source is not a directory")
	ErrDestNotDir   = errors.New("destination is not a directory")
	ErrSameRoot     = errors.New("source and destination are the same directory")
)

// Organizer owns all state of one run: the hash registry, the sequence
// counters and the report. It places each media file under
// dest/YYYY/MM/ and records what happened to every file it visits.
type Organizer struct {
	fs         afero.Fs
	config     *Config
	hashes     *HashStore
	counts     *PhotoCountIndex
	resolver   *MetadataResolver
	extractors map[MediaKind]TagExtractor
	quality    QualityScorer
	report     *Report
	journal    *Journal
	progress   chan<- Progress
	stats      Progress
}

// NewOrganizer builds a run context. geocoder and quality may be nil.
func NewOrganizer(fs afero.Fs, config *Config, geocoder Geocoder, quality QualityScorer) *Organizer {
	return &Organizer{
		fs:         fs,
		config:     config,
		hashes:     NewHashStore(fs),
		counts:     NewPhotoCountIndex(),
		resolver:   NewMetadataResolver(fs, geocoder),
		extractors: defaultExtractors(),
		quality:    quality,
		report:     NewReport(config),
	}
}

// SetJournal streams every outcome to j as it is recorded
func (o *Organizer) SetJournal(j *Journal) {
	o.journal = j
}

// SetProgress publishes progress snapshots on ch; sends never block
func (o *Organizer) SetProgress(ch chan<- Progress, total int) {
	o.progress = ch
	o.stats.Total = total
}

// Report returns the report of this run
func (o *Organizer) Report() *Report {
	return o.report
}

// Run validates both roots, processes the source tree and removes the
// directories emptied by the moves. Only root validation errors and
// cancellation are returned; per-file failures end up in the report.
func (o *Organizer) Run(ctx context.Context) (*Report, error) {
	if err := validateRoots(o.fs, o.config.SourcePath, o.config.DestPath); err != nil {
		return nil, err
	}

	if o.journal != nil {
		o.journal.BeginRun(o.report)
	}
	defer func() {
		o.report.Finished = time.Now()
		if o.journal != nil {
			o.journal.FinishRun(o.report.RunID, o.report.Finished)
		}
	}()

	walker := NewWalker(o.fs, o.config.DestPath)
	if err := o.Process(ctx, walker.Walk(o.config.SourcePath)); err != nil {
		return o.report, err
	}
	klog.V(1).Infof("Hashed %d distinct files", o.hashes.Len())

	if o.config.DryRun {
		return o.report, nil
	}

	removed, err := CleanupEmptyDirs(o.fs, o.config.SourcePath, o.config.DestPath)
	o.report.DirsRemoved = removed
	if err != nil {
		klog.Warningf("Cleanup of %s incomplete: %v", o.config.SourcePath, err)
	}
	return o.report, nil
}

// Process runs the per-file pipeline over a sequence of entries. It stops
// early only when ctx is cancelled.
func (o *Organizer) Process(ctx context.Context, entries iter.Seq2[Entry, error]) error {
	for entry, walkErr := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		var outcome MoveOutcome
		switch {
		case walkErr != nil:
			outcome = skipped(entry, ReasonUnreadableFile, walkErr.Error())
		case entry.Class == EntryOther:
			outcome = skipped(entry, ReasonNotMediaExtension, "")
		default:
			outcome = o.place(ctx, entry)
		}
		o.record(outcome)
	}
	return nil
}

// place walks one media file through
// hash -> duplicate check -> metadata -> quality -> name -> collision -> move
func (o *Organizer) place(ctx context.Context, entry Entry) MoveOutcome {
	digest, err := o.hashes.Hash(entry.Path)
	if err != nil {
		return skipped(entry, ReasonUnreadableFile, err.Error())
	}

	if first, dup := o.hashes.Claim(digest, entry.Path); dup {
		if !o.config.DryRun {
			if err := o.fs.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
				return skipped(entry, ReasonMoveFailed, fmt.Sprintf("remove duplicate: %v", err))
			}
		}
		return MoveOutcome{
			Source:      entry.Path,
			Kind:        OutcomeRemoved,
			Reason:      ReasonDuplicateRemoved,
			DuplicateOf: first,
			Size:        entry.Size,
		}
	}

	info := o.resolver.Resolve(ctx, entry.Path, o.extractTags(entry))

	if o.quality != nil && o.quality.Applies(entry.Path) {
		low, err := o.quality.IsLowQuality(o.fs, entry.Path)
		if err != nil {
			klog.Warningf("Quality check of %s failed, keeping file: %v", entry.Path, err)
		} else if low {
			return skipped(entry, ReasonLowQuality, "")
		}
	}

	name := SynthesizeFilename(info, filepath.Ext(entry.Name), o.counts)
	destDir := destinationDir(o.config.DestPath, info.CaptureDate)
	if !validDestination(destDir, name) {
		return skipped(entry, ReasonInvalidDestinationPath, filepath.Join(destDir, name))
	}

	if !o.config.DryRun {
		if err := o.fs.MkdirAll(destDir, 0755); err != nil {
			return skipped(entry, ReasonMoveFailed, err.Error())
		}
	}

	final, err := resolveCollision(o.fs, destDir, name)
	if err != nil {
		return skipped(entry, ReasonMoveFailed, err.Error())
	}
	destPath := filepath.Join(destDir, final)

	if !o.config.DryRun {
		if err := moveFile(o.fs, entry.Path, destPath); err != nil {
			return skipped(entry, ReasonMoveFailed, err.Error())
		}
	}

	return MoveOutcome{
		Source:      entry.Path,
		Kind:        OutcomeMoved,
		Destination: destPath,
		Size:        entry.Size,
	}
}

// extractTags picks the extractor for the entry's category; decoder
// failures only mean there are no tags to use
func (o *Organizer) extractTags(entry Entry) TagSet {
	extractor, ok := o.extractors[entry.Kind]
	if !ok {
		return TagSet{}
	}
	tags, err := extractor.Extract(o.fs, entry.Path)
	if err != nil {
		klog.V(2).Infof("No metadata from %s: %v", entry.Path, err)
	}
	if tags == nil {
		tags = TagSet{}
	}
	return tags
}

func (o *Organizer) record(outcome MoveOutcome) {
	o.report.Add(outcome)
	if o.journal != nil {
		o.journal.Record(o.report.RunID, outcome)
	}

	var event string
	switch outcome.Kind {
	case OutcomeMoved:
		o.stats.Moved++
		event = fmt.Sprintf("Moved %s to %s", outcome.Source, outcome.Destination)
		klog.Info(event)
	case OutcomeRemoved:
		o.stats.Removed++
		event = fmt.Sprintf("Removed duplicate file: %s", outcome.Source)
		klog.Info(event)
	case OutcomeSkipped:
		o.stats.Skipped++
		event = fmt.Sprintf("Skipped %s: %s", outcome.Source, outcome.ReasonText())
		if outcome.Reason == ReasonNotMediaExtension {
			klog.V(1).Info(event)
		} else {
			klog.Warning(event)
		}
	}

	o.stats.Processed++
	o.stats.CurrentFile = outcome.Source
	o.stats.LastEvent = event
	if o.progress != nil {
		select {
		case o.progress <- o.stats:
		default:
		}
	}
}

func skipped(entry Entry, reason Reason, detail string) MoveOutcome {
	return MoveOutcome{
		Source: entry.Path,
		Kind:   OutcomeSkipped,
		Reason: reason,
		Detail: detail,
		Size:   entry.Size,
	}
}

// validateRoots fails the run when either root is unusable
func validateRoots(fs afero.Fs, source, dest string) error {
	if ok, err := isDir(fs, source); err != nil {
		return fmt.Errorf("stat source %s: %w", source, err)
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotDir, source)
	}
	if _, err := afero.ReadDir(fs, source); err != nil {
		return fmt.Errorf("read source %s: %w", source, err)
	}

	if ok, err := isDir(fs, dest); err != nil {
		return fmt.Errorf("stat destination %s: %w", dest, err)
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrDestNotDir, dest)
	}

	if filepath.Clean(source) == filepath.Clean(dest) {
		return fmt.Errorf("%w: %s", ErrSameRoot, source)
	}
	return nil
}
