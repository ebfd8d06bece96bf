package main

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

var mediaExtensions = map[string]MediaKind{
	".jpg": KindPhoto, ".jpeg": KindPhoto, ".png": KindPhoto,
	".gif": KindPhoto, ".tiff": KindPhoto, ".tif": KindPhoto,
	".mp4": KindVideo, ".avi": KindVideo, ".mov": KindVideo,
}

// EntryClass is the walk-time classification of a directory entry
type EntryClass int

const (
	EntryMedia EntryClass = iota
	EntryOther
	EntryDir
)

// Entry is one file visited by the walker
type Entry struct {
	Path    string
	Name    string
	Class   EntryClass
	Kind    MediaKind
	Size    int64
	ModTime time.Time
}

// detectMediaKind detects the metadata category from extension
func detectMediaKind(path string) MediaKind {
	if kind, ok := mediaExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return kind
	}
	return KindOther
}

// classifyEntry separates media files, other files and directories
func classifyEntry(name string, isDir bool) EntryClass {
	if isDir {
		return EntryDir
	}
	if detectMediaKind(name) == KindOther {
		return EntryOther
	}
	return EntryMedia
}

// Walker enumerates a source tree depth-first in lexicographic order
type Walker struct {
	fs   afero.Fs
	skip map[string]bool
}

// NewWalker returns a walker that never descends into the skip paths
func NewWalker(fs afero.Fs, skip ...string) *Walker {
	w := &Walker{fs: fs, skip: make(map[string]bool)}
	for _, p := range skip {
		if p != "" {
			w.skip[filepath.Clean(p)] = true
		}
	}
	return w
}

// Walk yields every file below root. A directory that cannot be listed is
// yielded once with its error and the walk continues with its siblings.
func (w *Walker) Walk(root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		w.walkDir(filepath.Clean(root), yield)
	}
}

func (w *Walker) walkDir(dir string, yield func(Entry, error) bool) bool {
	// afero.ReadDir returns entries sorted by name
	infos, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		return yield(Entry{Path: dir, Name: filepath.Base(dir), Class: EntryDir}, fmt.Errorf("read dir: %w", err))
	}

	for _, info := range infos {
		path := filepath.Join(dir, info.Name())
		if info.IsDir() {
			if w.skip[path] {
				continue
			}
			if !w.walkDir(path, yield) {
				return false
			}
			continue
		}

		entry := Entry{
			Path:    path,
			Name:    info.Name(),
			Class:   classifyEntry(info.Name(), false),
			Kind:    detectMediaKind(info.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if !yield(entry, nil) {
			return false
		}
	}
	return true
}

// CountEntries counts what Walk would yield, used to size progress bars
func (w *Walker) CountEntries(root string) int {
	count := 0
	for range w.Walk(root) {
		count++
	}
	return count
}

// isDir reports whether path exists and is a directory
func isDir(fs afero.Fs, path string) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
