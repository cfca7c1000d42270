// Package observability provides event logging, I/O metrics, and storage
// health alerting for flywheel. Events are persisted as structured JSON
// Lines (JSONL) and metrics are derived on-demand from the event log.
package observability
