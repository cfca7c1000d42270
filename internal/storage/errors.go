package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by store operations. Callers branch on these with
// errors.Is instead of matching error text.
var (
	// ErrLockTimeout is returned when neither the in-process mutex nor the
	// cross-process file lock could be acquired within the configured budget.
	// The caller must not assume ownership after receiving it.
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrMutexClosed is returned when acquiring a CompatMutex whose
	// scheduler has been shut down.
	ErrMutexClosed = errors.New("mutex has been closed")

	// ErrSymlinkRejected is returned when the document path resolves to a
	// symlink. The store never follows symlinks.
	ErrSymlinkRejected = errors.New("refusing to follow symlink")

	// ErrNativeLockUnavailable is returned at startup when the platform has
	// no native locking primitive and degraded mode was not explicitly
	// enabled, or strict mode forbids it.
	ErrNativeLockUnavailable = errors.New("native file locking unavailable on this platform")

	// ErrNotFound is returned when an operation references a todo ID that
	// is not present in the document.
	ErrNotFound = errors.New("todo not found")

	// errLockHeld signals a non-blocking lock attempt that lost to another
	// process; the acquire loop retries it with backoff.
	errLockHeld = errors.New("file lock held by another process")
)

// CorruptionError reports a document that could not be parsed or failed
// schema validation. The file on disk is left untouched; BackupPath names the
// most recent backup when one exists so the caller can restore from it.
type CorruptionError struct {
	Path       string
	BackupPath string
	Err        error
}

func (e *CorruptionError) Error() string {
	if e.BackupPath != "" {
		return fmt.Sprintf("corrupt document %s: %v (a backup exists at %s)", e.Path, e.Err, e.BackupPath)
	}
	return fmt.Sprintf("corrupt document %s: %v", e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// SizeLimitError reports a document whose bytes actually read exceeded the
// configured hard cap. The decision is made on read bytes, never on a
// preceding stat, so a file growing between check and use cannot slip past.
type SizeLimitError struct {
	Path  string
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("document %s exceeds the %d byte size limit", e.Path, e.Limit)
}
