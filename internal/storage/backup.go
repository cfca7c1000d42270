package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// backupInfix separates the document name from the monotonic suffix, e.g.
// todo.json.bak.1756250000123456789.
const backupInfix = ".bak."

// Backup describes one retained snapshot of a previous document state.
type Backup struct {
	// Path is the full filesystem path of the snapshot.
	Path string `json:"path"`

	// Seq is the monotonic nanosecond timestamp suffix; larger is newer.
	Seq int64 `json:"seq"`

	// Size is the snapshot's size in bytes.
	Size int64 `json:"size"`
}

// Time returns the snapshot's creation time derived from its suffix.
func (b Backup) Time() time.Time { return time.Unix(0, b.Seq) }

// BackupChain manages the bounded set of previous document snapshots kept
// next to the target file. At most retain snapshots exist at a time; the
// oldest are deleted first.
type BackupChain struct {
	target string
	retain int
}

// NewBackupChain returns a chain for the given document path keeping at most
// retain snapshots (the default when retain is not positive).
func NewBackupChain(target string, retain int) *BackupChain {
	if retain <= 0 {
		retain = 3
	}
	return &BackupChain{target: target, retain: retain}
}

// Capture copies the current target contents into a new snapshot and prunes
// the chain to its retention bound. If the target does not exist yet (first
// save) no snapshot is created and Capture returns an empty path.
func (c *BackupChain) Capture() (string, error) {
	src, err := os.Open(c.target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("opening %s for backup: %w", c.target, err)
	}
	defer func() { _ = src.Close() }()

	// Nanosecond timestamps are monotonic in practice; the O_EXCL create
	// loop bumps the sequence on the rare collision so names never clash.
	seq := time.Now().UnixNano()
	var dst *os.File
	var path string
	for {
		path = c.target + backupInfix + strconv.FormatInt(seq, 10)
		dst, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("creating backup %s: %w", path, err)
		}
		seq++
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("copying %s to backup: %w", c.target, err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("closing backup %s: %w", path, err)
	}

	if err := c.prune(); err != nil {
		return path, fmt.Errorf("pruning backups for %s: %w", c.target, err)
	}
	return path, nil
}

// List returns the existing snapshots sorted oldest first. Files whose
// suffix is not a valid sequence number are ignored.
func (c *BackupChain) List() ([]Backup, error) {
	matches, err := filepath.Glob(c.target + backupInfix + "*")
	if err != nil {
		return nil, fmt.Errorf("globbing backups for %s: %w", c.target, err)
	}

	prefix := c.target + backupInfix
	backups := make([]Backup, 0, len(matches))
	for _, path := range matches {
		seq, err := strconv.ParseInt(strings.TrimPrefix(path, prefix), 10, 64)
		if err != nil {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		backups = append(backups, Backup{Path: path, Seq: seq, Size: info.Size()})
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].Seq < backups[j].Seq })
	return backups, nil
}

// Latest returns the newest snapshot path, if any exists.
func (c *BackupChain) Latest() (string, bool) {
	backups, err := c.List()
	if err != nil || len(backups) == 0 {
		return "", false
	}
	return backups[len(backups)-1].Path, true
}

// prune deletes the oldest snapshots until at most retain remain.
func (c *BackupChain) prune() error {
	backups, err := c.List()
	if err != nil {
		return err
	}
	for len(backups) > c.retain {
		if err := os.Remove(backups[0].Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing old backup %s: %w", backups[0].Path, err)
		}
		backups = backups[1:]
	}
	return nil
}
