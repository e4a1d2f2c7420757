// Copyright 2026 The cppticketer Authors
// SPDX-License-Identifier: Apache-2.0

// Package filelock provides an exclusive advisory lock on a file. The
// config store holds one for its lifetime so two cppticketer processes
// never rewrite the same config concurrently.
package filelock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("filelock: already locked by another process")

// Lock is a held lock. Release it with Unlock.
type Lock struct {
	file *os.File
	path string
}

// TryLock opens (creating if needed) path and takes a non-blocking
// exclusive flock on it.
func TryLock(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("filelock: opening %s: %w", path, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("filelock: locking %s: %w", path, err)
	}
	return &Lock{file: file, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Unlock releases the lock and closes the file. Idempotent.
func (l *Lock) Unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return fmt.Errorf("filelock: unlocking %s: %w", l.path, unlockErr)
	}
	return closeErr
}
