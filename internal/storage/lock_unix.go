//go:build unix

package storage

import (
	"os"
	"syscall"
)

const hasNativeLock = true

// tryLockFile attempts a non-blocking exclusive flock(2). The lock covers
// the whole open file description regardless of its current or future size,
// so the file growing after acquisition never falls outside the locked
// region.
func tryLockFile(f *os.File) error {
	err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == syscall.EWOULDBLOCK || err == syscall.EAGAIN {
		return errLockHeld
	}
	return err
}

func unlockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
