// Package core contains the business logic for flywheel: todo management
// on top of the document store, configuration loading, and export.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/flywheel/internal/observability"
	"github.com/valter-silva-au/flywheel/pkg/models"
)

// Config is the full runtime configuration: storage behavior plus the
// observability wiring around it.
type Config struct {
	Storage      models.StorageConfig
	EventLogPath string
	SlackWebhook string
	Alerts       observability.AlertThresholds
}

// ConfigManager loads and validates flywheel configuration. Precedence:
// explicit flag > FLYWHEEL_* environment > .flywheel.yaml > defaults.
type ConfigManager interface {
	Load(explicitDB string) (*Config, error)
}

// viperConfigManager implements ConfigManager using Viper for the YAML
// config file and the FLYWHEEL_* environment namespace.
type viperConfigManager struct {
	// basePath is searched for .flywheel.yaml; when empty, the current
	// directory and the user's home directory are searched.
	basePath string
}

// NewConfigManager creates a ConfigManager that reads configuration files
// relative to basePath.
func NewConfigManager(basePath string) ConfigManager {
	return &viperConfigManager{basePath: basePath}
}

// Load reads configuration and resolves the database path. The environment
// is read exactly once here; nothing below the config layer consults it.
func (cm *viperConfigManager) Load(explicitDB string) (*Config, error) {
	defaults := models.DefaultStorageConfig()
	thresholds := observability.DefaultAlertThresholds()

	v := viper.New()
	v.SetConfigName(".flywheel")
	v.SetConfigType("yaml")
	if cm.basePath != "" {
		v.AddConfigPath(cm.basePath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	v.SetEnvPrefix("FLYWHEEL")
	v.AutomaticEnv()

	v.SetDefault("db", "")
	v.SetDefault("backup", true)
	v.SetDefault("backup_count", defaults.BackupCount)
	v.SetDefault("max_json_size", defaults.MaxJSONSize)
	v.SetDefault("lock_timeout", defaults.LockTimeout.String())
	v.SetDefault("strict_locking", false)
	v.SetDefault("allow_degraded_locking", false)
	v.SetDefault("event_log", "")
	v.SetDefault("slack_webhook", "")
	v.SetDefault("alerts.max_backup_failures", thresholds.MaxBackupFailures)
	v.SetDefault("alerts.slow_lock_wait_ms", thresholds.SlowLockWaitMs)
	v.SetDefault("alerts.size_warn_percent", thresholds.SizeWarnPercent)
	v.SetDefault("alerts.window_hours", thresholds.WindowHours)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .flywheel.yaml: %w", err)
		}
		// No config file; environment and defaults still apply.
	}

	lockTimeout, err := time.ParseDuration(v.GetString("lock_timeout"))
	if err != nil {
		return nil, fmt.Errorf("parsing lock_timeout %q: %w", v.GetString("lock_timeout"), err)
	}

	cfg := &Config{
		Storage: models.StorageConfig{
			DBPath:               ResolveDBPath(explicitDB, v.GetString("db")),
			BackupEnabled:        v.GetBool("backup"),
			BackupCount:          v.GetInt("backup_count"),
			MaxJSONSize:          v.GetInt64("max_json_size"),
			LockTimeout:          lockTimeout,
			StrictLocking:        v.GetBool("strict_locking"),
			AllowDegradedLocking: v.GetBool("allow_degraded_locking"),
		},
		EventLogPath: v.GetString("event_log"),
		SlackWebhook: v.GetString("slack_webhook"),
		Alerts: observability.AlertThresholds{
			MaxBackupFailures: v.GetInt("alerts.max_backup_failures"),
			SlowLockWaitMs:    v.GetInt64("alerts.slow_lock_wait_ms"),
			SizeWarnPercent:   v.GetInt("alerts.size_warn_percent"),
			WindowHours:       v.GetInt("alerts.window_hours"),
		},
	}

	if cfg.EventLogPath == "" {
		cfg.EventLogPath = defaultEventLogPath(cfg.Storage.DBPath)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveDBPath picks the document path. Precedence: the explicit flag, then
// the configured value (which includes FLYWHEEL_DB), then the XDG data
// directory, then the home fallback, then the current directory.
func ResolveDBPath(explicit, configured string) string {
	if explicit != "" {
		return explicit
	}
	if configured != "" {
		return configured
	}
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "flywheel", "todo.json")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "flywheel", "todo.json")
	}
	return ".todo.json"
}

// defaultEventLogPath puts the event log next to the document.
func defaultEventLogPath(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "events.jsonl")
}

// validateConfig checks the loaded configuration for invalid values and
// returns a clear error message identifying every problem at once.
func validateConfig(cfg *Config) error {
	var errs []string

	if cfg.Storage.BackupCount < 1 {
		errs = append(errs, fmt.Sprintf("backup_count must be at least 1, got %d", cfg.Storage.BackupCount))
	}
	if cfg.Storage.MaxJSONSize < 1 {
		errs = append(errs, fmt.Sprintf("max_json_size must be positive, got %d", cfg.Storage.MaxJSONSize))
	}
	if cfg.Storage.LockTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("lock_timeout must be positive, got %s", cfg.Storage.LockTimeout))
	}
	if cfg.Alerts.WindowHours < 1 {
		errs = append(errs, fmt.Sprintf("alerts.window_hours must be at least 1, got %d", cfg.Alerts.WindowHours))
	}
	if cfg.Alerts.SizeWarnPercent < 1 || cfg.Alerts.SizeWarnPercent > 100 {
		errs = append(errs, fmt.Sprintf("alerts.size_warn_percent must be between 1 and 100, got %d", cfg.Alerts.SizeWarnPercent))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
