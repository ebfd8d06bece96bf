package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"k8s.io/klog/v2"
)

// CleanupEmptyDirs removes, bottom-up, every directory below root that is
// empty once its children have been handled. root itself and the skip
// paths are never removed. Returns the removed directories.
func CleanupEmptyDirs(fs afero.Fs, root string, skip ...string) ([]string, error) {
	skipped := make(map[string]bool)
	for _, p := range skip {
		if p != "" {
			skipped[filepath.Clean(p)] = true
		}
	}

	var removed []string
	var visit func(dir string) (bool, error)
	visit = func(dir string) (bool, error) {
		infos, err := afero.ReadDir(fs, dir)
		if err != nil {
			return false, fmt.Errorf("read dir: %w", err)
		}

		remaining := len(infos)
		for _, info := range infos {
			if !info.IsDir() {
				continue
			}
			child := filepath.Join(dir, info.Name())
			if skipped[child] {
				continue
			}

			empty, err := visit(child)
			if err != nil {
				klog.Warningf("Cleanup skipped %s: %v", child, err)
				continue
			}
			if !empty {
				continue
			}
			if err := fs.Remove(child); err != nil {
				klog.Warningf("Failed to remove empty directory %s: %v", child, err)
				continue
			}
			klog.V(1).Infof("Removed empty directory %s", child)
			removed = append(removed, child)
			remaining--
		}
		return remaining == 0, nil
	}

	_, err := visit(filepath.Clean(root))
	return removed, err
}
