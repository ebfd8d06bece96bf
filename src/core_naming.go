package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// countKey groups the sequence counter by camera model and capture day.
// Brand is not part of the key.
type countKey struct {
	model string
	day   string
}

// PhotoCountIndex hands out per-camera-model, per-day sequence numbers
type PhotoCountIndex struct {
	mu     sync.Mutex
	counts map[countKey]int
}

func NewPhotoCountIndex() *PhotoCountIndex {
	return &PhotoCountIndex{counts: make(map[countKey]int)}
}

// Next increments and returns the counter for (model, date), starting at 1
func (p *PhotoCountIndex) Next(model string, date time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := countKey{model: model, day: date.Format("2006-01-02")}
	p.counts[key]++
	return p.counts[key]
}

// SynthesizeFilename builds YYYY_MM_DD[_brand]_model[_city]_NNN<ext> and
// strips every character outside the safe filename set
func SynthesizeFilename(info CaptureInfo, ext string, counts *PhotoCountIndex) string {
	model := info.CameraModel
	if model == "" {
		model = unknownCamera
	}

	parts := []string{info.CaptureDate.Format("2006_01_02")}
	if info.CameraBrand != "" && info.CameraBrand != unknownCamera {
		parts = append(parts, info.CameraBrand)
	}
	parts = append(parts, model)
	if info.City != "" {
		parts = append(parts, info.City)
	}
	seq := counts.Next(model, info.CaptureDate)
	parts = append(parts, fmt.Sprintf("%03d", seq))

	return sanitizeFilename(strings.Join(parts, "_") + ext)
}

// sanitizeFilename keeps only [A-Za-z0-9_.()- ]
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("_.()- ", r):
			return r
		}
		return -1
	}, name)
}

// destinationDir returns destRoot/YYYY/MM for a capture date
func destinationDir(destRoot string, date time.Time) string {
	return filepath.Join(destRoot, date.Format("2006"), date.Format("01"))
}

// validDestination rejects names that cannot be created inside dir
func validDestination(dir, name string) bool {
	if strings.ContainsRune(dir, 0) || strings.ContainsRune(name, 0) {
		return false
	}
	switch strings.Trim(name, " ") {
	case "", ".", "..":
		return false
	}
	return filepath.Base(name) == name
}
