package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// resolveCollision returns name unchanged when it is free in dir. Otherwise
// it continues after the highest existing name_<N> suffix and probes until
// a free name is found.
func resolveCollision(fs afero.Fs, dir, name string) (string, error) {
	free, err := notExists(fs, filepath.Join(dir, name))
	if err != nil || free {
		return name, err
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	prefix := base + "_"

	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", dir, err)
	}

	counter := 1
	for _, info := range infos {
		if n, ok := numericSuffix(info.Name(), prefix); ok && n >= counter {
			counter = n + 1
		}
	}

	for {
		candidate := fmt.Sprintf("%s_%d%s", base, counter, ext)
		free, err := notExists(fs, filepath.Join(dir, candidate))
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
		counter++
	}
}

// numericSuffix parses N from prefix + N [+ .ext]
func numericSuffix(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	rest := name[len(prefix):]
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

func notExists(fs afero.Fs, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return false, nil
	}
	if os.IsNotExist(err) {
		return true, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
