package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when storage health alerts should fire.
type AlertThresholds struct {
	// MaxBackupFailures is the number of failed backups within the window
	// that triggers an alert.
	MaxBackupFailures int `yaml:"max_backup_failures" json:"max_backup_failures"`

	// SlowLockWaitMs flags lock waits longer than this many milliseconds.
	SlowLockWaitMs int64 `yaml:"slow_lock_wait_ms" json:"slow_lock_wait_ms"`

	// SizeWarnPercent fires when a saved document exceeds this percentage
	// of the configured size cap.
	SizeWarnPercent int `yaml:"size_warn_percent" json:"size_warn_percent"`

	// WindowHours bounds how far back events are considered.
	WindowHours int `yaml:"window_hours" json:"window_hours"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MaxBackupFailures: 3,
		SlowLockWaitMs:    1000,
		SizeWarnPercent:   80,
		WindowHours:       24,
	}
}

// AlertEngine evaluates storage health conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// alertEngine implements AlertEngine by reading events and checking thresholds.
type alertEngine struct {
	eventLog    EventLog
	thresholds  AlertThresholds
	maxDocBytes int64
}

// NewAlertEngine creates a new AlertEngine with the given EventLog and
// thresholds. maxDocBytes is the configured document size cap used for the
// size warning.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds, maxDocBytes int64) AlertEngine {
	return &alertEngine{
		eventLog:    eventLog,
		thresholds:  thresholds,
		maxDocBytes: maxDocBytes,
	}
}

// Evaluate reads recent events and checks all alert conditions, returning
// any triggered alerts.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := time.Now().UTC()
	since := now.Add(-time.Duration(ae.thresholds.WindowHours) * time.Hour)

	backupAlerts, err := ae.checkBackupFailures(now, since)
	if err != nil {
		return nil, fmt.Errorf("checking backup failures: %w", err)
	}
	alerts := backupAlerts

	lockAlerts, err := ae.checkSlowLockWaits(now, since)
	if err != nil {
		return nil, fmt.Errorf("checking lock waits: %w", err)
	}
	alerts = append(alerts, lockAlerts...)

	sizeAlerts, err := ae.checkDocumentSize(now, since)
	if err != nil {
		return nil, fmt.Errorf("checking document size: %w", err)
	}
	alerts = append(alerts, sizeAlerts...)

	return alerts, nil
}

// checkBackupFailures alerts when backups keep failing: saves continue, but
// the pre-overwrite safety net is gone.
func (ae *alertEngine) checkBackupFailures(now, since time.Time) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{Type: "backup.failed", Since: &since})
	if err != nil {
		return nil, err
	}
	if len(events) < ae.thresholds.MaxBackupFailures {
		return nil, nil
	}
	return []Alert{{
		ID:        "backup-failures",
		Condition: "backups_failing",
		Severity:  SeverityHigh,
		Message: fmt.Sprintf("%d backups failed in the last %dh; saves proceed without a safety net",
			len(events), ae.thresholds.WindowHours),
		TriggeredAt: now,
	}}, nil
}

// checkSlowLockWaits alerts on lock waits above the slow threshold, a sign
// of heavy contention or a stuck holder.
func (ae *alertEngine) checkSlowLockWaits(now, since time.Time) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{Type: "storage.lock_wait", Since: &since})
	if err != nil {
		return nil, err
	}

	slow := 0
	var worst int64
	for _, event := range events {
		if wait := eventInt64(event, "wait_ms"); wait >= ae.thresholds.SlowLockWaitMs {
			slow++
			if wait > worst {
				worst = wait
			}
		}
	}
	if slow == 0 {
		return nil, nil
	}
	return []Alert{{
		ID:        "slow-lock-waits",
		Condition: "lock_contention",
		Severity:  SeverityMedium,
		Message: fmt.Sprintf("%d lock waits over %dms in the last %dh (worst %dms)",
			slow, ae.thresholds.SlowLockWaitMs, ae.thresholds.WindowHours, worst),
		TriggeredAt: now,
	}}, nil
}

// checkDocumentSize alerts when saved documents approach the hard size cap,
// before loads start failing outright.
func (ae *alertEngine) checkDocumentSize(now, since time.Time) ([]Alert, error) {
	if ae.maxDocBytes <= 0 {
		return nil, nil
	}
	events, err := ae.eventLog.Read(EventFilter{Type: "storage.save", Since: &since})
	if err != nil {
		return nil, err
	}

	warnAt := ae.maxDocBytes * int64(ae.thresholds.SizeWarnPercent) / 100
	var largest int64
	for _, event := range events {
		if bytes := eventInt64(event, "bytes"); bytes > largest {
			largest = bytes
		}
	}
	if largest < warnAt {
		return nil, nil
	}
	return []Alert{{
		ID:        "document-size",
		Condition: "document_near_size_cap",
		Severity:  SeverityMedium,
		Message: fmt.Sprintf("document reached %d bytes, over %d%% of the %d byte cap",
			largest, ae.thresholds.SizeWarnPercent, ae.maxDocBytes),
		TriggeredAt: now,
	}}, nil
}
