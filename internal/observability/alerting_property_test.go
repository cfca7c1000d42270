package observability

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// The backup failure alert fires exactly when the number of failures inside
// the window reaches the threshold, for any failure count and threshold.
func TestAlertBackupFailureThresholdProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		el, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		failures := rapid.IntRange(0, 10).Draw(rt, "failures")
		threshold := rapid.IntRange(1, 10).Draw(rt, "threshold")

		now := time.Now().UTC()
		for i := 0; i < failures; i++ {
			event := Event{
				Time:    now.Add(-time.Duration(i+1) * time.Minute),
				Level:   "WARN",
				Type:    "backup.failed",
				Message: "backup failed",
			}
			if err := el.Write(event); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		thresholds := DefaultAlertThresholds()
		thresholds.MaxBackupFailures = threshold
		alerts, err := NewAlertEngine(el, thresholds, 0).Evaluate()
		if err != nil {
			rt.Fatalf("evaluating alerts: %v", err)
		}

		fired := findAlert(alerts, "backups_failing") != nil
		want := failures >= threshold
		if fired != want {
			rt.Errorf("alert fired=%v with %d failures and threshold %d, want %v",
				fired, failures, threshold, want)
		}
	})
}

// The lock contention alert fires exactly when at least one wait meets the
// slow threshold, for any set of wait durations.
func TestAlertSlowLockWaitProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		el, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		waits := rapid.SliceOfN(rapid.Int64Range(0, 5000), 0, 15).Draw(rt, "waits")
		now := time.Now().UTC()
		for i, wait := range waits {
			event := Event{
				Time:    now.Add(-time.Duration(i+1) * time.Minute),
				Level:   "INFO",
				Type:    "storage.lock_wait",
				Message: "waited",
				Data:    map[string]any{"wait_ms": wait},
			}
			if err := el.Write(event); err != nil {
				t.Fatalf("writing event %d: %v", i, err)
			}
		}

		thresholds := DefaultAlertThresholds()
		alerts, err := NewAlertEngine(el, thresholds, 0).Evaluate()
		if err != nil {
			rt.Fatalf("evaluating alerts: %v", err)
		}

		want := false
		for _, wait := range waits {
			if wait >= thresholds.SlowLockWaitMs {
				want = true
				break
			}
		}
		fired := findAlert(alerts, "lock_contention") != nil
		if fired != want {
			rt.Errorf("alert fired=%v for waits %v (threshold %dms), want %v",
				fired, waits, thresholds.SlowLockWaitMs, want)
		}
	})
}

// Every triggered alert carries an ID, a condition, a severity, and a
// trigger time, regardless of the event mix that produced it.
func TestAlertWellFormedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		el, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		numEvents := rapid.IntRange(0, 20).Draw(rt, "numEvents")
		eventTypes := []string{"backup.failed", "storage.lock_wait", "storage.save"}
		now := time.Now().UTC()
		for i := 0; i < numEvents; i++ {
			eventType := rapid.SampledFrom(eventTypes).Draw(rt, fmt.Sprintf("type_%d", i))
			data := map[string]any{}
			switch eventType {
			case "storage.lock_wait":
				data["wait_ms"] = rapid.Int64Range(0, 10000).Draw(rt, fmt.Sprintf("wait_%d", i))
			case "storage.save":
				data["bytes"] = rapid.Int64Range(0, 2000).Draw(rt, fmt.Sprintf("bytes_%d", i))
			}
			event := Event{
				Time:    now.Add(-time.Duration(i+1) * time.Minute),
				Level:   "INFO",
				Type:    eventType,
				Message: eventType,
				Data:    data,
			}
			if err := el.Write(event); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		alerts, err := NewAlertEngine(el, DefaultAlertThresholds(), 1000).Evaluate()
		if err != nil {
			rt.Fatalf("evaluating alerts: %v", err)
		}
		for _, alert := range alerts {
			if alert.ID == "" || alert.Condition == "" {
				rt.Errorf("alert missing identity: %+v", alert)
			}
			if alert.Severity != SeverityHigh && alert.Severity != SeverityMedium && alert.Severity != SeverityLow {
				rt.Errorf("alert has unknown severity: %+v", alert)
			}
			if alert.TriggeredAt.IsZero() {
				rt.Errorf("alert missing trigger time: %+v", alert)
			}
		}
	})
}
