package storage

import "runtime"

// PlatformCapabilities describes what the running platform supports. It is
// produced once at process startup and passed into NewPlatformLock and
// NewDocumentStore explicitly, so no package-level flag decides locking
// behavior at arbitrary times.
type PlatformCapabilities struct {
	// OS is the runtime.GOOS value the capabilities were detected for.
	OS string

	// NativeLocking reports whether an OS-enforced file lock primitive is
	// available (flock on Unix, LockFileEx on Windows).
	NativeLocking bool

	// FdChmod reports whether permissions can be set on an open file
	// descriptor. Where false, the writer issues the path-level call at the
	// same point in the save sequence instead.
	FdChmod bool
}

// DetectCapabilities inspects the running platform. hasNativeLock is a
// per-platform constant supplied by the lock_* build-tagged files.
func DetectCapabilities() PlatformCapabilities {
	return PlatformCapabilities{
		OS:            runtime.GOOS,
		NativeLocking: hasNativeLock,
		FdChmod:       runtime.GOOS != "windows",
	}
}
