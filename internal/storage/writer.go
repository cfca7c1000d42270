package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriter persists document bytes with crash consistency: the payload
// goes to a temp file in the target directory (guaranteeing the final rename
// stays on one filesystem), permissions are restricted before any payload
// byte is written, the bytes are fsynced, and a single rename replaces the
// target. On any failure the temp file is removed and the target is exactly
// as it was before the call.
type AtomicWriter struct {
	path     string
	backups  *BackupChain
	caps     PlatformCapabilities
	recorder EventRecorder
}

// NewAtomicWriter returns a writer for the given document path. backups may
// be nil to disable the backup step regardless of the per-call flag.
func NewAtomicWriter(path string, backups *BackupChain, caps PlatformCapabilities, recorder EventRecorder) *AtomicWriter {
	return &AtomicWriter{path: path, backups: backups, caps: caps, recorder: recorder}
}

// Write atomically replaces the target with data. When backup is true and a
// previous file exists, its bytes are first copied into the backup chain; a
// backup failure is recorded and ignored, never aborting the save.
func (w *AtomicWriter) Write(data []byte, backup bool) error {
	dir := filepath.Dir(w.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating directory for %s: %w", w.path, err)
		}
	}

	if backup && w.backups != nil {
		if path, err := w.backups.Capture(); err != nil {
			record(w.recorder, "backup.failed", "backup before overwrite failed",
				map[string]any{"path": w.path, "error": err.Error()})
		} else if path != "" {
			record(w.recorder, "backup.created", "backed up previous document",
				map[string]any{"path": path})
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	// Any failure below must leave no stray temp file behind.
	fail := func(step string, err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s for %s: %w", step, w.path, err)
	}

	// Restrict permissions before the first payload byte so looser default
	// permissions are never observable. Prefer the fd-level call; fall back
	// to the path-level call at the same point in the sequence where the
	// platform has no working fchmod.
	if w.caps.FdChmod {
		if err := tmp.Chmod(0o600); err != nil {
			return fail("restricting temp file permissions", err)
		}
	} else {
		if err := os.Chmod(tmpName, 0o600); err != nil {
			return fail("restricting temp file permissions", err)
		}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("writing temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file for %s: %w", w.path, err)
	}

	// Single rename syscall; atomic on POSIX and on Windows (os.Rename uses
	// MoveFileEx with replace semantics).
	if err := os.Rename(tmpName, w.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming temp file onto %s: %w", w.path, err)
	}
	return nil
}
