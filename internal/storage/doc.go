// Package storage implements the concurrent, crash-consistent document store
// behind the flywheel task list.
//
// The store keeps the whole task list in one JSON file and makes it safe to
// share between processes and goroutines without a database engine. Three
// guards cooperate:
//
//   - CompatMutex serializes all in-process access, blocking or
//     context-suspended, through one lazily started scheduler goroutine.
//   - PlatformLock excludes other processes via flock(2) on Unix and a
//     mandatory LockFileEx range lock on Windows, with an explicit opt-in
//     fallback where neither exists.
//   - AtomicWriter and SafeReader make the file itself crash-consistent and
//     TOCTOU-safe: temp-file writes with fsync and a single rename, reads
//     that refuse symlinks and bound the bytes actually read.
//
// DocumentStore composes the guards so that every read-modify-write cycle,
// including gap-filling ID allocation, happens under both locks end to end.
package storage
