package main

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// crossDeviceFs rejects every rename like a mount boundary does
type crossDeviceFs struct {
	afero.Fs
}

func (crossDeviceFs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EXDEV}
}

func TestMoveFileRename(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/src/a.jpg", "content")
	if err := fs.MkdirAll("/dst", 0755); err != nil {
		t.Fatal(err)
	}

	if err := moveFile(fs, "/src/a.jpg", "/dst/b.jpg"); err != nil {
		t.Fatalf("moveFile: %v", err)
	}
	assertExists(t, fs, "/src/a.jpg", false)
	assertExists(t, fs, "/dst/b.jpg", true)
}

func TestMoveFileCrossDevice(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "/src/a.jpg", "content")
	mtime := time.Date(2020, 2, 29, 12, 0, 0, 0, time.UTC)
	if err := base.Chtimes("/src/a.jpg", mtime, mtime); err != nil {
		t.Fatal(err)
	}
	if err := base.MkdirAll("/dst", 0755); err != nil {
		t.Fatal(err)
	}
	fs := crossDeviceFs{base}

	if err := moveFile(fs, "/src/a.jpg", "/dst/b.jpg"); err != nil {
		t.Fatalf("moveFile: %v", err)
	}

	assertExists(t, fs, "/src/a.jpg", false)
	data, err := afero.ReadFile(fs, "/dst/b.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content" {
		t.Errorf("content = %q", data)
	}
	info, err := fs.Stat("/dst/b.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestMoveFileCrossDeviceNeverOverwrites(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "/src/a.jpg", "new")
	writeFile(t, base, "/dst/b.jpg", "old")
	fs := crossDeviceFs{base}

	err := moveFile(fs, "/src/a.jpg", "/dst/b.jpg")
	if err == nil {
		t.Fatal("expected error when destination exists")
	}
	if !errors.Is(err, os.ErrExist) {
		t.Errorf("err = %v, want exists error", err)
	}

	assertExists(t, fs, "/src/a.jpg", true)
	data, _ := afero.ReadFile(fs, "/dst/b.jpg")
	if string(data) != "old" {
		t.Errorf("destination overwritten: %q", data)
	}
}
