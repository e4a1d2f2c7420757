// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// TemporarySuffix is appended to the target path to name the staging
// file. The staging file lives in the same directory so the final
// rename never crosses a filesystem.
const TemporarySuffix = ".tmp"

// WriteFile atomically replaces path with data. The parent directory
// must exist. The file is created with perm; an existing file's mode
// is not preserved.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	temporaryPath := path + TemporarySuffix

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming %s into place: %w", filepath.Base(path), err)
	}

	// Make the rename itself durable.
	if directory, err := os.Open(filepath.Dir(path)); err == nil {
		directory.Sync()
		directory.Close()
	}
	return nil
}

// RemoveStale deletes a temporary file left behind by a crash between
// create and rename. Missing files are not an error.
func RemoveStale(path string) error {
	if err := os.Remove(path + TemporarySuffix); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale temporary file: %w", err)
	}
	return nil
}
