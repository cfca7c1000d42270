// Package internal provides the App struct that wires the flywheel storage,
// core, and observability layers together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/flywheel/internal/cli"
	"github.com/valter-silva-au/flywheel/internal/core"
	"github.com/valter-silva-au/flywheel/internal/observability"
	"github.com/valter-silva-au/flywheel/internal/storage"
)

// App holds all service dependencies for a running flywheel process.
type App struct {
	Cfg *core.Config

	// Storage layer
	Store   *storage.DocumentStore
	Manager core.TodoManager

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine
	Notifier    observability.Notifier
}

// NewApp creates and wires all components. dbPath is the --db flag value and
// may be empty, in which case the configured or default document path is used.
func NewApp(dbPath string) (*App, error) {
	app := &App{}

	// --- Configuration ---
	cfg, err := core.NewConfigManager("").Load(dbPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Cfg = cfg

	// --- Observability ---
	// On a fresh install the data directory does not exist until the store's
	// first acquire creates it; the log must not lose the first run's events.
	if dir := filepath.Dir(cfg.EventLogPath); dir != "" && dir != "." {
		_ = os.MkdirAll(dir, 0o700)
	}
	app.EventLog, err = observability.NewJSONLEventLog(cfg.EventLogPath)
	if err != nil {
		// Non-fatal: the store runs without operation events.
		app.EventLog = nil
	}
	var recorder storage.EventRecorder
	if app.EventLog != nil {
		recorder = &eventRecorderAdapter{log: app.EventLog}
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, cfg.Alerts, cfg.Storage.MaxJSONSize)
	}
	if cfg.SlackWebhook != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.SlackWebhook, cfg.Storage.DBPath)
	}

	// --- Storage layer ---
	caps := storage.DetectCapabilities()
	app.Store, err = storage.NewDocumentStore(cfg.Storage, caps, recorder)
	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}

	// --- Core services ---
	app.Manager = core.NewTodoManager(app.Store)

	// --- Wire CLI package-level variables ---
	cli.Cfg = app.Cfg
	cli.Store = app.Store
	cli.Manager = app.Manager
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc
	cli.AlertEngine = app.AlertEngine
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App: the store's lock scheduler and
// the event log file handle. Safe to call when observability is disabled.
func (a *App) Close() error {
	if a.Store != nil {
		a.Store.Close()
	}
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// eventRecorderAdapter adapts observability.EventLog to storage.EventRecorder.
type eventRecorderAdapter struct {
	log observability.EventLog
}

func (a *eventRecorderAdapter) Record(eventType, msg string, data map[string]any) {
	level := "INFO"
	if eventType == "backup.failed" {
		level = "WARN"
	}
	// Recording failures never fail the storage operation being recorded.
	_ = a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   level,
		Type:    eventType,
		Message: msg,
		Data:    data,
	})
}
