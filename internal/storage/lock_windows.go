//go:build windows

package storage

import (
	"os"

	"golang.org/x/sys/windows"
)

const hasNativeLock = true

// lockRangeSentinel is the byte range covered by the mandatory lock. It is a
// fixed maximum value rather than the file's current size so that the file
// growing after acquisition never falls outside the locked region.
const lockRangeSentinel = 0xFFFFFFFF

// tryLockFile attempts a non-blocking mandatory LockFileEx lock. Mandatory
// range locks exclude non-cooperating processes too, unlike the advisory
// flock used on Unix.
func tryLockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	err := windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, lockRangeSentinel, lockRangeSentinel, ol,
	)
	if err == windows.ERROR_LOCK_VIOLATION {
		return errLockHeld
	}
	return err
}

func unlockFile(f *os.File) error {
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, lockRangeSentinel, lockRangeSentinel, new(windows.Overlapped))
}
