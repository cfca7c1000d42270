//go:build !unix && !windows

package storage

import (
	"fmt"
	"os"
)

// openNoFollow approximates no-follow semantics where the platform offers no
// open-time flag: reject the path if lstat reports a symlink, then open it.
// The lstat-open gap is narrower than stat-then-read but not zero; platforms
// without O_NOFOLLOW already run in degraded locking mode and accept the
// weaker guarantee explicitly.
func openNoFollow(path string) (*os.File, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("opening %s: %w", path, ErrSymlinkRejected)
	}
	return os.Open(path)
}
