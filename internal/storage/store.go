package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/valter-silva-au/flywheel/pkg/models"
)

// slowLockThreshold is the mutex wait above which a lock_wait event is
// recorded. Short waits are normal contention and would only add noise.
const slowLockThreshold = 10 * time.Millisecond

// DocumentStore is the façade over the persistence core. It guards every
// operation with the in-process CompatMutex and the cross-process
// PlatformLock, reads through SafeReader, writes through AtomicWriter, and
// allocates record IDs with NextID.
//
// A read-modify-write operation (Add, Update, Remove, Restore) holds both
// guards for its entire load-compute-save duration, so two callers can never
// compute from the same snapshot and silently drop one another's update.
type DocumentStore struct {
	path     string
	cfg      models.StorageConfig
	mu       *CompatMutex
	flock    *PlatformLock
	reader   *SafeReader
	writer   *AtomicWriter
	backups  *BackupChain
	recorder EventRecorder

	// In-memory cache of the last document seen on disk, guarded by mu.
	// The mtime/size pair is a freshness heuristic for read paths only;
	// mutating paths always re-read under the file lock.
	cache      []models.Todo
	cacheValid bool
	cacheMtime time.Time
	cacheSize  int64
	dirty      bool
}

// NewDocumentStore builds a store for cfg.DBPath. caps must come from
// DetectCapabilities at startup; recorder may be nil to disable operation
// events.
func NewDocumentStore(cfg models.StorageConfig, caps PlatformCapabilities, recorder EventRecorder) (*DocumentStore, error) {
	path := cfg.DBPath
	if path == "" {
		path = ".todo.json"
	}
	if cfg.MaxJSONSize <= 0 {
		cfg.MaxJSONSize = models.DefaultMaxJSONSize
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = models.DefaultLockTimeout
	}

	flock, err := NewPlatformLock(caps, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing platform lock: %w", err)
	}

	backups := NewBackupChain(path, cfg.BackupCount)
	return &DocumentStore{
		path:     path,
		cfg:      cfg,
		mu:       NewCompatMutex(),
		flock:    flock,
		reader:   NewSafeReader(path, cfg.MaxJSONSize, backups),
		writer:   NewAtomicWriter(path, backups, caps, recorder),
		backups:  backups,
		recorder: recorder,
	}, nil
}

// Path returns the resolved document path.
func (s *DocumentStore) Path() string { return s.path }

// Degraded reports whether cross-process locking runs in the insecure
// lock-file fallback.
func (s *DocumentStore) Degraded() bool { return s.flock.Degraded() }

// MutexStats returns a snapshot of in-process lock contention counters.
func (s *DocumentStore) MutexStats() MutexStats { return s.mu.Stats() }

// Close shuts down the store's mutex scheduler. The store must not be used
// afterwards.
func (s *DocumentStore) Close() { s.mu.Close() }

// Load returns the current document. A missing file yields an empty
// document. The in-memory cache is served when the file is unchanged since
// it was populated.
func (s *DocumentStore) Load(ctx context.Context) ([]models.Todo, error) {
	if err := s.acquireMutex(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Release()

	if s.cacheValid && !s.dirty && s.cacheFresh() {
		return cloneTodos(s.cache), nil
	}

	h, err := s.flock.Acquire(ctx, s.path, s.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = h.Release() }()

	todos, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	return cloneTodos(todos), nil
}

// Save atomically replaces the whole document with todos.
//
// The dirty flag is set under the mutex, but the file I/O itself runs
// without it so in-process callers keep progressing; the platform lock
// still serializes against every other writer. The mutex is re-acquired
// only to commit the updated cache.
func (s *DocumentStore) Save(ctx context.Context, todos []models.Todo) error {
	data, err := marshalDocument(todos)
	if err != nil {
		return err
	}

	if err := s.acquireMutex(ctx); err != nil {
		return err
	}
	s.dirty = true
	s.mu.Release()

	h, err := s.flock.Acquire(ctx, s.path, s.cfg.LockTimeout)
	if err != nil {
		return err
	}
	writeErr := s.writer.Write(data, s.cfg.BackupEnabled)
	if relErr := h.Release(); writeErr == nil {
		writeErr = relErr
	}
	if writeErr != nil {
		return writeErr
	}

	if err := s.acquireMutex(ctx); err != nil {
		return err
	}
	s.commitCache(todos)
	s.mu.Release()

	record(s.recorder, "storage.save", "document saved",
		map[string]any{"path": s.path, "bytes": len(data), "records": len(todos)})
	return nil
}

// Add allocates the smallest free ID under both guards, builds the record
// via build, appends it, and saves — all in one critical section.
func (s *DocumentStore) Add(ctx context.Context, build func(id int) (models.Todo, error)) (models.Todo, error) {
	var added models.Todo
	err := s.withLocks(ctx, func() error {
		todos, err := s.readLocked()
		if err != nil {
			return err
		}
		id := NextID(todos)
		t, err := build(id)
		if err != nil {
			return err
		}
		t.ID = id
		if err := t.Validate(); err != nil {
			return fmt.Errorf("validating new todo: %w", err)
		}
		if err := s.writeLocked(append(todos, t)); err != nil {
			return err
		}
		added = t
		return nil
	})
	return added, err
}

// Update applies mutate to the record with the given ID and saves the
// document, holding both guards for the whole cycle.
func (s *DocumentStore) Update(ctx context.Context, id int, mutate func(t *models.Todo) error) (models.Todo, error) {
	var updated models.Todo
	err := s.withLocks(ctx, func() error {
		todos, err := s.readLocked()
		if err != nil {
			return err
		}
		i := indexOf(todos, id)
		if i < 0 {
			return fmt.Errorf("todo %d: %w", id, ErrNotFound)
		}
		if err := mutate(&todos[i]); err != nil {
			return err
		}
		if err := todos[i].Validate(); err != nil {
			return fmt.Errorf("validating todo %d: %w", id, err)
		}
		if err := s.writeLocked(todos); err != nil {
			return err
		}
		updated = todos[i]
		return nil
	})
	return updated, err
}

// Remove deletes the record with the given ID and saves the document.
func (s *DocumentStore) Remove(ctx context.Context, id int) error {
	return s.withLocks(ctx, func() error {
		todos, err := s.readLocked()
		if err != nil {
			return err
		}
		i := indexOf(todos, id)
		if i < 0 {
			return fmt.Errorf("todo %d: %w", id, ErrNotFound)
		}
		return s.writeLocked(append(todos[:i], todos[i+1:]...))
	})
}

// Backup snapshots the current document into the backup chain regardless of
// whether backups are enabled for saves, and returns the snapshot path.
func (s *DocumentStore) Backup(ctx context.Context) (string, error) {
	var path string
	err := s.withLocks(ctx, func() error {
		p, err := s.backups.Capture()
		if err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}
		if p == "" {
			return fmt.Errorf("nothing to back up: %s does not exist", s.path)
		}
		path = p
		record(s.recorder, "backup.created", "manual backup created", map[string]any{"path": p})
		return nil
	})
	return path, err
}

// Backups lists the retained snapshots, oldest first.
func (s *DocumentStore) Backups() ([]Backup, error) {
	return s.backups.List()
}

// Restore replaces the document with the contents of the named backup. The
// backup is read with the same symlink, size, and schema checks as the
// primary document, and the current contents are themselves backed up first
// when backups are enabled.
func (s *DocumentStore) Restore(ctx context.Context, backupPath string) error {
	if _, err := os.Lstat(backupPath); err != nil {
		return fmt.Errorf("restoring from %s: %w", backupPath, err)
	}
	return s.withLocks(ctx, func() error {
		todos, _, err := NewSafeReader(backupPath, s.cfg.MaxJSONSize, nil).Load()
		if err != nil {
			return fmt.Errorf("reading backup %s: %w", backupPath, err)
		}
		if err := s.writeLocked(todos); err != nil {
			return err
		}
		record(s.recorder, "backup.restored", "document restored from backup",
			map[string]any{"path": s.path, "backup": backupPath})
		return nil
	})
}

// Dirty reports whether the in-memory state is ahead of the file. Used by
// tests and the stats surface.
func (s *DocumentStore) Dirty() bool {
	if err := s.mu.Lock(); err != nil {
		return false
	}
	defer s.mu.Release()
	return s.dirty
}

// --- internals (all helpers below assume the mutex is held) ---

// withLocks runs fn holding the mutex and the cross-process file lock for
// fn's entire duration.
func (s *DocumentStore) withLocks(ctx context.Context, fn func() error) error {
	if err := s.acquireMutex(ctx); err != nil {
		return err
	}
	defer s.mu.Release()

	h, err := s.flock.Acquire(ctx, s.path, s.cfg.LockTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = h.Release() }()

	return fn()
}

func (s *DocumentStore) acquireMutex(ctx context.Context) error {
	start := time.Now()
	actx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()
	if err := s.mu.Acquire(actx); err != nil {
		return err
	}
	if wait := time.Since(start); wait >= slowLockThreshold {
		record(s.recorder, "storage.lock_wait", "waited for store mutex",
			map[string]any{"path": s.path, "wait_ms": wait.Milliseconds()})
	}
	return nil
}

// readLocked reads the document from disk and refreshes the cache. Mutating
// paths never trust the cache: another process may have written since it was
// populated.
func (s *DocumentStore) readLocked() ([]models.Todo, error) {
	todos, n, err := s.reader.Load()
	if err != nil {
		return nil, err
	}
	record(s.recorder, "storage.load", "document loaded",
		map[string]any{"path": s.path, "bytes": n, "records": len(todos)})
	s.commitCache(todos)
	return todos, nil
}

// writeLocked serializes todos and writes them atomically, then commits the
// cache.
func (s *DocumentStore) writeLocked(todos []models.Todo) error {
	data, err := marshalDocument(todos)
	if err != nil {
		return err
	}
	s.dirty = true
	if err := s.writer.Write(data, s.cfg.BackupEnabled); err != nil {
		return err
	}
	s.commitCache(todos)
	record(s.recorder, "storage.save", "document saved",
		map[string]any{"path": s.path, "bytes": len(data), "records": len(todos)})
	return nil
}

// commitCache replaces the cache with todos and records the file identity
// used by the freshness heuristic.
func (s *DocumentStore) commitCache(todos []models.Todo) {
	s.cache = cloneTodos(todos)
	s.cacheValid = true
	s.dirty = false
	s.cacheMtime = time.Time{}
	s.cacheSize = -1
	if info, err := os.Stat(s.path); err == nil {
		s.cacheMtime = info.ModTime()
		s.cacheSize = info.Size()
	} else if os.IsNotExist(err) {
		s.cacheSize = 0
	}
}

// cacheFresh reports whether the on-disk file still matches the identity
// recorded when the cache was populated. Purely an optimization: a stale
// answer only causes a re-read, never a security decision.
func (s *DocumentStore) cacheFresh() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return os.IsNotExist(err) && s.cacheSize == 0
	}
	return info.ModTime().Equal(s.cacheMtime) && info.Size() == s.cacheSize
}

func marshalDocument(todos []models.Todo) ([]byte, error) {
	if len(todos) == 0 {
		return []byte("[]"), nil
	}
	data, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return data, nil
}

func cloneTodos(todos []models.Todo) []models.Todo {
	out := make([]models.Todo, len(todos))
	copy(out, todos)
	for i := range out {
		if out[i].Tags != nil {
			out[i].Tags = append([]string(nil), out[i].Tags...)
		}
	}
	return out
}

func indexOf(todos []models.Todo, id int) int {
	for i := range todos {
		if todos[i].ID == id {
			return i
		}
	}
	return -1
}
