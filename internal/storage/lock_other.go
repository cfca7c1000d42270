//go:build !unix && !windows

package storage

import "os"

const hasNativeLock = false

// Without a native primitive, locking is only available through the
// explicitly enabled fallback path in PlatformLock; these stubs are never
// reached because NewPlatformLock refuses non-degraded operation.
func tryLockFile(_ *os.File) error { return ErrNativeLockUnavailable }

func unlockFile(_ *os.File) error { return nil }
