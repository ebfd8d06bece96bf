package main

import (
	"time"
)

// MediaKind represents the metadata category of a media file
type MediaKind int

const (
	KindPhoto MediaKind = iota
	KindVideo
	KindOther
)

func (mk MediaKind) String() string {
	return [...]string{"Photo", "Video", "Other"}[mk]
}

// unknownCamera is the sentinel for missing camera brand or model
const unknownCamera = "Unknown"

// Tag names understood by the metadata resolver
const (
	TagDateTimeOriginal  = "DateTimeOriginal"
	TagDateTimeDigitized = "DateTimeDigitized"
	TagMake              = "Make"
	TagModel             = "Model"
	TagGPSLatitude       = "GPSLatitude"
	TagGPSLatitudeRef    = "GPSLatitudeRef"
	TagGPSLongitude      = "GPSLongitude"
	TagGPSLongitudeRef   = "GPSLongitudeRef"
	TagCity              = "City"
)

// Rational is an unsigned or signed EXIF rational
type Rational struct {
	Num int64
	Den int64
}

// Float returns the rational as a float, false when the denominator is zero
func (r Rational) Float() (float64, bool) {
	if r.Den == 0 {
		return 0, false
	}
	return float64(r.Num) / float64(r.Den), true
}

// TagValue is one raw tag as handed over by a decoder
type TagValue struct {
	Text string
	Rats []Rational
	Raw  []byte
}

// TagSet maps tag name to raw value
type TagSet map[string]TagValue

// Text returns a non-empty textual tag
func (ts TagSet) Text(name string) (string, bool) {
	v, ok := ts[name]
	if !ok || v.Text == "" {
		return "", false
	}
	return v.Text, true
}

// Rationals returns a rational tag with at least one component
func (ts TagSet) Rationals(name string) ([]Rational, bool) {
	v, ok := ts[name]
	if !ok || len(v.Rats) == 0 {
		return nil, false
	}
	return v.Rats, true
}

// CaptureInfo is the normalized metadata used for naming a file
type CaptureInfo struct {
	CaptureDate time.Time
	CameraBrand string
	CameraModel string
	City        string
	FromModTime bool
}

// OutcomeKind is the terminal state of one processed file
type OutcomeKind int

const (
	OutcomeMoved OutcomeKind = iota
	OutcomeRemoved
	OutcomeSkipped
)

func (ok OutcomeKind) String() string {
	return [...]string{"moved", "removed", "skipped"}[ok]
}

// Reason explains why a file was not moved
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnreadableFile
	ReasonDuplicateRemoved
	ReasonLowQuality
	ReasonNotMediaExtension
	ReasonInvalidDestinationPath
	ReasonMoveFailed
)

func (r Reason) String() string {
	return [...]string{
		"",
		"unreadable file",
		"duplicate - removed",
		"low quality",
		"not a media file extension",
		"invalid destination path",
		"move failed",
	}[r]
}

// MoveOutcome is the result of processing one file; never mutated once recorded
type MoveOutcome struct {
	Source      string
	Kind        OutcomeKind
	Reason      Reason
	Detail      string
	Destination string
	DuplicateOf string
	Size        int64
}

// ReasonText renders the reason as shown in the final report
func (o MoveOutcome) ReasonText() string {
	switch {
	case o.Reason == ReasonMoveFailed && o.Detail != "":
		return o.Detail
	case o.Detail != "":
		return o.Reason.String() + ": " + o.Detail
	default:
		return o.Reason.String()
	}
}

// Progress tracks a running organization pass
type Progress struct {
	Total       int
	Processed   int
	Moved       int
	Removed     int
	Skipped     int
	CurrentFile string
	LastEvent   string
}

// Config holds application configuration
type Config struct {
	SourcePath          string
	DestPath            string
	OpenCageKey         string
	ReportDB            string
	QualityCheck        bool
	BrightnessThreshold float64
	DryRun              bool
}
