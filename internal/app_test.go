package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/valter-silva-au/flywheel/internal/cli"
	"github.com/valter-silva-au/flywheel/internal/core"
	"github.com/valter-silva-au/flywheel/internal/observability"
)

// resetCLI restores the CLI package-level wiring mutated by NewApp.
func resetCLI(t *testing.T) {
	t.Helper()
	origCfg, origStore, origManager := cli.Cfg, cli.Store, cli.Manager
	origLog, origCalc, origEngine, origNotifier := cli.EventLog, cli.MetricsCalc, cli.AlertEngine, cli.Notifier
	t.Cleanup(func() {
		cli.Cfg, cli.Store, cli.Manager = origCfg, origStore, origManager
		cli.EventLog, cli.MetricsCalc, cli.AlertEngine, cli.Notifier = origLog, origCalc, origEngine, origNotifier
	})
}

func TestNewApp_WiresServices(t *testing.T) {
	resetCLI(t)
	t.Setenv("FLYWHEEL_ALLOW_DEGRADED_LOCKING", "true")

	dbPath := filepath.Join(t.TempDir(), "todo.json")
	app, err := NewApp(dbPath)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer func() { _ = app.Close() }()

	if app.Store == nil || app.Manager == nil {
		t.Fatal("expected store and manager to be wired")
	}
	if app.Store.Path() != dbPath {
		t.Errorf("store path = %q, want %q", app.Store.Path(), dbPath)
	}
	if app.EventLog == nil || app.MetricsCalc == nil || app.AlertEngine == nil {
		t.Error("expected observability services to be wired")
	}
	if cli.Manager == nil || cli.Store == nil {
		t.Error("expected CLI package vars to be wired")
	}
}

func TestNewApp_EndToEnd(t *testing.T) {
	resetCLI(t)
	t.Setenv("FLYWHEEL_ALLOW_DEGRADED_LOCKING", "true")

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "todo.json")
	app, err := NewApp(dbPath)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer func() { _ = app.Close() }()

	ctx := context.Background()
	added, err := app.Manager.Add(ctx, "wire everything", core.AddOptions{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.ID != 1 {
		t.Errorf("first todo ID = %d, want 1", added.ID)
	}

	todos, err := app.Manager.List(ctx, core.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(todos) != 1 {
		t.Fatalf("expected 1 todo, got %d", len(todos))
	}

	// The save above must have produced events in the log next to the db.
	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); err != nil {
		t.Errorf("expected event log beside the document: %v", err)
	}
}

func TestNewApp_FreshInstallKeepsEventLog(t *testing.T) {
	resetCLI(t)
	t.Setenv("FLYWHEEL_ALLOW_DEGRADED_LOCKING", "true")

	// The data directory does not exist yet, as on a first run against the
	// XDG default path. Event logging must still come up.
	dataDir := filepath.Join(t.TempDir(), "share", "flywheel")
	app, err := NewApp(filepath.Join(dataDir, "todo.json"))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer func() { _ = app.Close() }()

	if app.EventLog == nil {
		t.Fatal("event log disabled on fresh install")
	}
	if _, err := app.Manager.Add(context.Background(), "first ever", core.AddOptions{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	events, err := app.EventLog.Read(observability.EventFilter{Type: "storage.save"})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(events) == 0 {
		t.Error("first run produced no save events")
	}
	if _, err := os.Stat(filepath.Join(dataDir, "events.jsonl")); err != nil {
		t.Errorf("expected event log in the fresh data directory: %v", err)
	}
}

func TestEventRecorderAdapter_Levels(t *testing.T) {
	t.Setenv("FLYWHEEL_ALLOW_DEGRADED_LOCKING", "true")
	resetCLI(t)

	dir := t.TempDir()
	app, err := NewApp(filepath.Join(dir, "todo.json"))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer func() { _ = app.Close() }()

	rec := &eventRecorderAdapter{log: app.EventLog}
	rec.Record("backup.failed", "backup failed", nil)
	rec.Record("storage.save", "saved", map[string]any{"bytes": 12})

	events, err := app.EventLog.Read(observability.EventFilter{Type: "backup.failed"})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 backup.failed event, got %d", len(events))
	}
	if events[0].Level != "WARN" {
		t.Errorf("backup.failed level = %q, want WARN", events[0].Level)
	}
}
