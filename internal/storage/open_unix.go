//go:build unix

package storage

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// openNoFollow opens path read-only with O_NOFOLLOW, so a symlink at the
// final path component fails inside the open syscall itself. There is no
// lstat-then-open window for an attacker to swap a symlink into.
func openNoFollow(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|syscall.O_NOFOLLOW, 0)
	if err != nil {
		var errno syscall.Errno
		// Linux reports a symlink target as ELOOP; some BSDs use EMLINK.
		if errors.As(err, &errno) && (errno == syscall.ELOOP || errno == syscall.EMLINK) {
			return nil, fmt.Errorf("opening %s: %w", path, ErrSymlinkRejected)
		}
		return nil, err
	}
	return f, nil
}
