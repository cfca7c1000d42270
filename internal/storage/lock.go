package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/flywheel/pkg/models"
)

// lockSuffix names the sidecar lock file kept alongside the document. Locking
// a sidecar instead of the document itself means the lock can be taken before
// the document exists and is never clobbered by the atomic rename.
const lockSuffix = ".lock"

// Retry backoff bounds for contended lock acquisition.
const (
	lockRetryMin = 5 * time.Millisecond
	lockRetryMax = 200 * time.Millisecond
)

// PlatformLock acquires mandatory, whole-file, cross-process locks on the
// document's sidecar lock file. One value is shared by all operations of a
// store; each acquisition returns a LockHandle scoped to one critical
// section.
type PlatformLock struct {
	caps     PlatformCapabilities
	degraded bool
}

// NewPlatformLock validates the platform against the configuration and
// returns a lock factory.
//
// On platforms without native locking the constructor fails unless degraded
// mode was explicitly enabled, and always fails when strict locking is
// configured. Silent downgrades are forbidden.
func NewPlatformLock(caps PlatformCapabilities, cfg models.StorageConfig) (*PlatformLock, error) {
	l := &PlatformLock{caps: caps}
	if !caps.NativeLocking {
		if cfg.StrictLocking {
			return nil, fmt.Errorf("strict locking is enabled on %s: %w", caps.OS, ErrNativeLockUnavailable)
		}
		if !cfg.AllowDegradedLocking {
			return nil, fmt.Errorf("set FLYWHEEL_ALLOW_DEGRADED_LOCKING=1 to accept lock-file fallback on %s: %w",
				caps.OS, ErrNativeLockUnavailable)
		}
		l.degraded = true
	}
	return l, nil
}

// Degraded reports whether the lock runs in the insecure lock-file fallback.
func (l *PlatformLock) Degraded() bool { return l.degraded }

// LockHandle represents a live OS-level lock on a document's lock file. Its
// lifetime is scoped to one load-compute-save cycle; the holder must call
// Release exactly once.
type LockHandle struct {
	f        *os.File
	lockPath string
	degraded bool
}

// Acquire takes an exclusive cross-process lock for the document at path,
// retrying with bounded backoff until timeout elapses. The parent directory
// is created if missing; a directory concurrently created by another process
// is not an error.
func (l *PlatformLock) Acquire(ctx context.Context, path string, timeout time.Duration) (*LockHandle, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		// MkdirAll tolerates the directory already existing, so two
		// processes racing to create it cannot fail each other.
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}

	lockPath := path + lockSuffix
	deadline := time.Now().Add(timeout)

	if l.degraded {
		return l.acquireFallback(ctx, path, lockPath, deadline, timeout)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", lockPath, err)
	}

	backoff := lockRetryMin
	for {
		err := tryLockFile(f)
		if err == nil {
			return &LockHandle{f: f, lockPath: lockPath}, nil
		}
		if !errors.Is(err, errLockHeld) {
			_ = f.Close()
			return nil, fmt.Errorf("locking %s: %w", lockPath, err)
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("could not lock %s within %s: %w", path, timeout, ErrLockTimeout)
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, fmt.Errorf("locking %s: %w", path, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > lockRetryMax {
			backoff = lockRetryMax
		}
	}
}

// acquireFallback implements degraded mode: an O_EXCL lock file that exists
// for the duration of the critical section. Unlike the native locks it is
// not released by the OS if the holder crashes, which is why it requires an
// explicit opt-in.
func (l *PlatformLock) acquireFallback(ctx context.Context, path, lockPath string, deadline time.Time, timeout time.Duration) (*LockHandle, error) {
	backoff := lockRetryMin
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return &LockHandle{f: f, lockPath: lockPath, degraded: true}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("creating fallback lock file %s: %w", lockPath, err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("could not lock %s within %s: %w", path, timeout, ErrLockTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("locking %s: %w", path, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > lockRetryMax {
			backoff = lockRetryMax
		}
	}
}

// Release drops the OS-level lock and closes the underlying file. Safe to
// call only once per handle.
func (h *LockHandle) Release() error {
	if h.degraded {
		if err := h.f.Close(); err != nil {
			return fmt.Errorf("closing fallback lock file: %w", err)
		}
		if err := os.Remove(h.lockPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing fallback lock file: %w", err)
		}
		return nil
	}
	unlockErr := unlockFile(h.f)
	closeErr := h.f.Close()
	if unlockErr != nil {
		return fmt.Errorf("releasing file lock: %w", unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing lock file: %w", closeErr)
	}
	return nil
}
