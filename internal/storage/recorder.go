package storage

// EventRecorder receives structured operational events from the store
// (saves, loads, lock waits, backup outcomes). The concrete implementation
// lives in the observability package and is injected by the app wiring; a
// nil recorder disables recording. Recording failures never fail the
// operation being recorded.
type EventRecorder interface {
	Record(eventType, msg string, data map[string]any)
}

func record(r EventRecorder, eventType, msg string, data map[string]any) {
	if r != nil {
		r.Record(eventType, msg, data)
	}
}
