//go:build windows

package sqllog

import (
	"os"

	"golang.org/x/sys/windows"
)

// The whole-file lock is expressed as a one-byte range at offset 0; every
// writer uses the same range, so it behaves as a mutex on the file.

func lockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, ol)
}

func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
}
