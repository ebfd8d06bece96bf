package main

import (
	"sort"
	"testing"

	"github.com/spf13/afero"
)

func TestCleanupEmptyDirs(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, dir := range []string{
		"/src/a/b/c",
		"/src/d",
		"/src/keep/empty",
		"/src/out",
	} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, fs, "/src/keep/file.txt", "stay")

	removed, err := CleanupEmptyDirs(fs, "/src", "/src/out")
	if err != nil {
		t.Fatalf("CleanupEmptyDirs: %v", err)
	}

	sort.Strings(removed)
	want := []string{"/src/a", "/src/a/b", "/src/a/b/c", "/src/d", "/src/keep/empty"}
	if len(removed) != len(want) {
		t.Fatalf("removed = %v, want %v", removed, want)
	}
	for i := range want {
		if removed[i] != want[i] {
			t.Errorf("removed[%d] = %s, want %s", i, removed[i], want[i])
		}
	}

	assertExists(t, fs, "/src", true)
	assertExists(t, fs, "/src/keep/file.txt", true)
	assertExists(t, fs, "/src/out", true)
}

func TestCleanupKeepsEmptyRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/src", 0755); err != nil {
		t.Fatal(err)
	}

	removed, err := CleanupEmptyDirs(fs, "/src")
	if err != nil || len(removed) != 0 {
		t.Errorf("removed = %v, %v; want nothing", removed, err)
	}
	assertExists(t, fs, "/src", true)
}
