package observability

import (
	"fmt"
	"time"
)

// IOMetrics holds storage activity counters derived from the event log.
type IOMetrics struct {
	Loads           int        `json:"loads"`
	Saves           int        `json:"saves"`
	BytesRead       int64      `json:"bytes_read"`
	BytesWritten    int64      `json:"bytes_written"`
	BackupsCreated  int        `json:"backups_created"`
	BackupFailures  int        `json:"backup_failures"`
	Restores        int        `json:"restores"`
	LockWaits       int        `json:"lock_waits"`
	TotalLockWaitMs int64      `json:"total_lock_wait_ms"`
	MaxLockWaitMs   int64      `json:"max_lock_wait_ms"`
	EventCount      int        `json:"event_count"`
	OldestEvent     *time.Time `json:"oldest_event,omitempty"`
	NewestEvent     *time.Time `json:"newest_event,omitempty"`
}

// MetricsCalculator derives I/O metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*IOMetrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into
// I/O metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*IOMetrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &IOMetrics{}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "storage.load":
			m.Loads++
			m.BytesRead += eventInt64(event, "bytes")
		case "storage.save":
			m.Saves++
			m.BytesWritten += eventInt64(event, "bytes")
		case "backup.created":
			m.BackupsCreated++
		case "backup.failed":
			m.BackupFailures++
		case "backup.restored":
			m.Restores++
		case "storage.lock_wait":
			m.LockWaits++
			wait := eventInt64(event, "wait_ms")
			m.TotalLockWaitMs += wait
			if wait > m.MaxLockWaitMs {
				m.MaxLockWaitMs = wait
			}
		}
	}

	return m, nil
}

// eventInt64 extracts a numeric data field. JSON decoding turns numbers into
// float64, but events written in-process may still carry int or int64.
func eventInt64(event Event, key string) int64 {
	switch v := event.Data[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
