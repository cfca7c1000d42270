package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/valter-silva-au/flywheel/pkg/models"
)

// SafeReader loads the document without TOCTOU windows: the path is opened
// with symlink-following disabled, and the size decision is made on the
// bytes actually read in one bounded operation, never on a separate stat.
type SafeReader struct {
	path    string
	maxSize int64
	backups *BackupChain
}

// NewSafeReader returns a reader for the document at path with the given
// hard size cap. backups is consulted only to name a restore candidate in
// corruption errors; it may be nil.
func NewSafeReader(path string, maxSize int64, backups *BackupChain) *SafeReader {
	if maxSize <= 0 {
		maxSize = models.DefaultMaxJSONSize
	}
	return &SafeReader{path: path, maxSize: maxSize, backups: backups}
}

// Load reads and validates the document, returning the records and the
// number of bytes read. A missing file is not an error: it yields an empty
// document. Symlink targets, oversized files, and corrupt content each fail
// with their own distinct error type.
func (r *SafeReader) Load() ([]models.Todo, int64, error) {
	f, err := openNoFollow(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	// Read up to maxSize+1 bytes: one extra byte is enough to prove the
	// file is over the cap without trusting any stat result.
	data, err := io.ReadAll(io.LimitReader(f, r.maxSize+1))
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", r.path, err)
	}
	n := int64(len(data))
	if n > r.maxSize {
		return nil, n, &SizeLimitError{Path: r.path, Limit: r.maxSize}
	}
	if n == 0 {
		return nil, 0, nil
	}

	if err := validateDocument(data); err != nil {
		return nil, n, r.corruption(err)
	}

	var todos []models.Todo
	if err := json.Unmarshal(data, &todos); err != nil {
		return nil, n, r.corruption(fmt.Errorf("decoding records: %w", err))
	}

	seen := make(map[int]struct{}, len(todos))
	for _, t := range todos {
		if _, dup := seen[t.ID]; dup {
			return nil, n, r.corruption(fmt.Errorf("duplicate todo id %d", t.ID))
		}
		seen[t.ID] = struct{}{}
	}

	return todos, n, nil
}

// corruption wraps err as a CorruptionError, naming the newest backup when
// one exists so the user knows where to restore from.
func (r *SafeReader) corruption(err error) error {
	e := &CorruptionError{Path: r.path, Err: err}
	if r.backups != nil {
		if latest, ok := r.backups.Latest(); ok {
			e.BackupPath = latest
		}
	}
	return e
}
