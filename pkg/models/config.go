package models

import "time"

// Default storage limits. The size limit protects against loading
// attacker-inflated documents; the lock timeout bounds how long a caller
// waits for a contended store.
const (
	DefaultMaxJSONSize = 10 * 1024 * 1024
	DefaultLockTimeout = 30 * time.Second
	DefaultBackupCount = 3
)

// StorageConfig controls the behavior of the document store. It is produced
// once at startup by the configuration layer and passed down explicitly;
// nothing below the config layer reads environment variables.
type StorageConfig struct {
	// DBPath is the resolved path of the JSON document.
	DBPath string `yaml:"db_path"`

	// BackupEnabled turns on backup rotation before overwriting saves.
	BackupEnabled bool `yaml:"backup_enabled"`

	// BackupCount bounds the number of retained backups (oldest pruned first).
	BackupCount int `yaml:"backup_count"`

	// MaxJSONSize is the hard cap in bytes for a loaded document.
	MaxJSONSize int64 `yaml:"max_json_size"`

	// LockTimeout bounds both mutex and cross-process lock acquisition.
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// StrictLocking makes a missing native lock primitive a hard startup
	// error, overriding AllowDegradedLocking.
	StrictLocking bool `yaml:"strict_locking"`

	// AllowDegradedLocking opts into the insecure lock-file fallback on
	// platforms without native locking. Never enabled implicitly.
	AllowDegradedLocking bool `yaml:"allow_degraded_locking"`
}

// DefaultStorageConfig returns a StorageConfig with production defaults.
// The DB path is left empty; path resolution is the config layer's job.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		BackupCount: DefaultBackupCount,
		MaxJSONSize: DefaultMaxJSONSize,
		LockTimeout: DefaultLockTimeout,
	}
}
