package observability

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestLog(t *testing.T) EventLog {
	t.Helper()
	log, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestMetrics_Empty(t *testing.T) {
	log := newTestLog(t)

	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.EventCount != 0 || m.Loads != 0 || m.Saves != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
	if m.OldestEvent != nil || m.NewestEvent != nil {
		t.Error("expected nil event bounds for empty log")
	}
}

func TestMetrics_CountsStorageActivity(t *testing.T) {
	log := newTestLog(t)
	now := time.Now().UTC()

	events := []Event{
		{Time: now, Level: "INFO", Type: "storage.load", Message: "loaded",
			Data: map[string]any{"bytes": 100}},
		{Time: now.Add(time.Second), Level: "INFO", Type: "storage.save", Message: "saved",
			Data: map[string]any{"bytes": 150}},
		{Time: now.Add(2 * time.Second), Level: "INFO", Type: "storage.save", Message: "saved",
			Data: map[string]any{"bytes": 50}},
		{Time: now.Add(3 * time.Second), Level: "INFO", Type: "backup.created", Message: "backed up"},
		{Time: now.Add(4 * time.Second), Level: "WARN", Type: "backup.failed", Message: "backup failed"},
		{Time: now.Add(5 * time.Second), Level: "INFO", Type: "backup.restored", Message: "restored"},
		{Time: now.Add(6 * time.Second), Level: "INFO", Type: "storage.lock_wait", Message: "waited",
			Data: map[string]any{"wait_ms": 40}},
		{Time: now.Add(7 * time.Second), Level: "INFO", Type: "storage.lock_wait", Message: "waited",
			Data: map[string]any{"wait_ms": 120}},
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}

	if m.Loads != 1 || m.Saves != 2 {
		t.Errorf("Loads=%d Saves=%d, want 1 and 2", m.Loads, m.Saves)
	}
	if m.BytesRead != 100 {
		t.Errorf("BytesRead = %d, want 100", m.BytesRead)
	}
	if m.BytesWritten != 200 {
		t.Errorf("BytesWritten = %d, want 200", m.BytesWritten)
	}
	if m.BackupsCreated != 1 || m.BackupFailures != 1 || m.Restores != 1 {
		t.Errorf("backup counters = %d/%d/%d, want 1/1/1",
			m.BackupsCreated, m.BackupFailures, m.Restores)
	}
	if m.LockWaits != 2 || m.TotalLockWaitMs != 160 || m.MaxLockWaitMs != 120 {
		t.Errorf("lock wait counters = %d/%d/%d, want 2/160/120",
			m.LockWaits, m.TotalLockWaitMs, m.MaxLockWaitMs)
	}
	if m.EventCount != len(events) {
		t.Errorf("EventCount = %d, want %d", m.EventCount, len(events))
	}
	if m.OldestEvent == nil || m.NewestEvent == nil {
		t.Fatal("expected event bounds to be set")
	}
	if !m.NewestEvent.After(*m.OldestEvent) {
		t.Errorf("NewestEvent %v should be after OldestEvent %v", m.NewestEvent, m.OldestEvent)
	}
}

func TestMetrics_SinceFilter(t *testing.T) {
	log := newTestLog(t)
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	events := []Event{
		{Time: base, Level: "INFO", Type: "storage.save", Message: "old",
			Data: map[string]any{"bytes": 500}},
		{Time: base.Add(2 * time.Hour), Level: "INFO", Type: "storage.save", Message: "recent",
			Data: map[string]any{"bytes": 10}},
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	m, err := NewMetricsCalculator(log).Calculate(base.Add(time.Hour))
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.Saves != 1 || m.BytesWritten != 10 {
		t.Errorf("Saves=%d BytesWritten=%d, want only the recent save counted", m.Saves, m.BytesWritten)
	}
}

func TestMetrics_ToleratesMissingDataFields(t *testing.T) {
	log := newTestLog(t)
	now := time.Now().UTC()

	if err := log.Write(Event{Time: now, Level: "INFO", Type: "storage.save", Message: "no data"}); err != nil {
		t.Fatalf("writing event: %v", err)
	}
	m, err := NewMetricsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("calculating metrics: %v", err)
	}
	if m.Saves != 1 || m.BytesWritten != 0 {
		t.Errorf("Saves=%d BytesWritten=%d, want 1 and 0", m.Saves, m.BytesWritten)
	}
}
