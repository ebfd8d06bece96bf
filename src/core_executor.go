package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/afero"
)

// moveFile moves a file, with fallback to copy+delete if cross-device
func moveFile(fs afero.Fs, src, dst string) error {
	// Try rename first (fast, atomic)
	err := fs.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := copyFile(fs, src, dst); err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	if err := fs.Remove(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}

	return nil
}

// copyFile copies a file preserving permissions and modification time. The
// destination must not exist; a partial copy is removed.
func copyFile(fs afero.Fs, src, dst string) (err error) {
	srcFile, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dstFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			fs.Remove(dst)
		}
	}()

	if _, err = io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	if err = dstFile.Sync(); err != nil {
		return err
	}

	return fs.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}
