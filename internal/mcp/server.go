// Package mcp provides an MCP (Model Context Protocol) server that exposes
// flywheel's todo store as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/flywheel/internal/core"
	"github.com/valter-silva-au/flywheel/internal/observability"
	"github.com/valter-silva-au/flywheel/pkg/models"
)

// Server wraps flywheel services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	manager     core.TodoManager
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server with the given service dependencies.
// metricsCalc and alertEngine may be nil if observability is disabled.
func NewServer(manager core.TodoManager, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		manager:     manager,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "flywheel", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type addTodoInput struct {
	Text     string   `json:"text" jsonschema:"required,the todo text"`
	Due      string   `json:"due,omitempty" jsonschema:"optional due date in YYYY-MM-DD format"`
	Priority string   `json:"priority,omitempty" jsonschema:"optional priority (low, medium, high)"`
	Tags     []string `json:"tags,omitempty" jsonschema:"optional tags"`
}

type todoOutput struct {
	ID       int      `json:"id"`
	Text     string   `json:"text"`
	Done     bool     `json:"done"`
	Priority string   `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	DueDate  string   `json:"due_date,omitempty"`
	Overdue  bool     `json:"overdue,omitempty"`
	Created  string   `json:"created_at"`
	Updated  string   `json:"updated_at"`
}

type listTodosInput struct {
	Pending  bool   `json:"pending,omitempty" jsonschema:"only pending todos"`
	Done     bool   `json:"done,omitempty" jsonschema:"only completed todos"`
	Overdue  bool   `json:"overdue,omitempty" jsonschema:"only overdue todos"`
	Priority string `json:"priority,omitempty" jsonschema:"filter by priority (low, medium, high)"`
	Tag      string `json:"tag,omitempty" jsonschema:"filter by tag"`
}

type listTodosOutput struct {
	Todos []todoOutput `json:"todos"`
	Count int          `json:"count"`
}

type todoIDInput struct {
	ID int `json:"id" jsonschema:"required,the todo's numeric ID"`
}

type removeTodoOutput struct {
	Message string `json:"message"`
}

type getIOMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type ioMetricsOutput struct {
	Loads           int    `json:"loads"`
	Saves           int    `json:"saves"`
	BytesRead       int64  `json:"bytes_read"`
	BytesWritten    int64  `json:"bytes_written"`
	BackupsCreated  int    `json:"backups_created"`
	BackupFailures  int    `json:"backup_failures"`
	Restores        int    `json:"restores"`
	LockWaits       int    `json:"lock_waits"`
	TotalLockWaitMs int64  `json:"total_lock_wait_ms"`
	MaxLockWaitMs   int64  `json:"max_lock_wait_ms"`
	EventCount      int    `json:"event_count"`
	OldestEvent     string `json:"oldest_event,omitempty"`
	NewestEvent     string `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_todo",
		Description: "Add a new todo. Optionally set a due date (YYYY-MM-DD), a priority, and tags. Returns the created todo with its allocated ID.",
	}, s.handleAddTodo)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_todos",
		Description: "List todos with optional filters (pending, done, overdue, priority, tag). Returns an array of todos in document order.",
	}, s.handleListTodos)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "complete_todo",
		Description: "Mark a todo as completed by its numeric ID.",
	}, s.handleCompleteTodo)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "remove_todo",
		Description: "Delete a todo by its numeric ID. The ID becomes free for reuse.",
	}, s.handleRemoveTodo)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_io_metrics",
		Description: "Get aggregated storage metrics from the event log: load/save counts, bytes moved, backups, and lock wait statistics.",
	}, s.handleGetIOMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active storage health alerts (backup failures, slow lock waits, document size).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleAddTodo(ctx context.Context, _ *gomcp.CallToolRequest, input addTodoInput) (*gomcp.CallToolResult, todoOutput, error) {
	if input.Text == "" {
		return errorResult("text is required"), todoOutput{}, nil
	}

	todo, err := s.manager.Add(ctx, input.Text, core.AddOptions{
		Due:      input.Due,
		Priority: models.Priority(input.Priority),
		Tags:     input.Tags,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("adding todo: %s", err)), todoOutput{}, nil
	}

	return nil, todoToOutput(todo), nil
}

func (s *Server) handleListTodos(ctx context.Context, _ *gomcp.CallToolRequest, input listTodosInput) (*gomcp.CallToolResult, listTodosOutput, error) {
	todos, err := s.manager.List(ctx, core.ListFilter{
		Pending:  input.Pending,
		Done:     input.Done,
		Overdue:  input.Overdue,
		Priority: models.Priority(input.Priority),
		Tag:      input.Tag,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("listing todos: %s", err)), listTodosOutput{}, nil
	}

	out := listTodosOutput{
		Todos: make([]todoOutput, len(todos)),
		Count: len(todos),
	}
	for i, t := range todos {
		out.Todos[i] = todoToOutput(t)
	}

	return nil, out, nil
}

func (s *Server) handleCompleteTodo(ctx context.Context, _ *gomcp.CallToolRequest, input todoIDInput) (*gomcp.CallToolResult, todoOutput, error) {
	if input.ID < 1 {
		return errorResult("id must be a positive integer"), todoOutput{}, nil
	}

	todo, err := s.manager.Complete(ctx, input.ID)
	if err != nil {
		return errorResult(fmt.Sprintf("completing todo %d: %s", input.ID, err)), todoOutput{}, nil
	}

	return nil, todoToOutput(todo), nil
}

func (s *Server) handleRemoveTodo(ctx context.Context, _ *gomcp.CallToolRequest, input todoIDInput) (*gomcp.CallToolResult, removeTodoOutput, error) {
	if input.ID < 1 {
		return errorResult("id must be a positive integer"), removeTodoOutput{}, nil
	}

	if err := s.manager.Remove(ctx, input.ID); err != nil {
		return errorResult(fmt.Sprintf("removing todo %d: %s", input.ID, err)), removeTodoOutput{}, nil
	}

	return nil, removeTodoOutput{Message: fmt.Sprintf("todo %d removed", input.ID)}, nil
}

func (s *Server) handleGetIOMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getIOMetricsInput) (*gomcp.CallToolResult, ioMetricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), ioMetricsOutput{}, nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), ioMetricsOutput{}, nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), ioMetricsOutput{}, nil
	}

	out := ioMetricsOutput{
		Loads:           metrics.Loads,
		Saves:           metrics.Saves,
		BytesRead:       metrics.BytesRead,
		BytesWritten:    metrics.BytesWritten,
		BackupsCreated:  metrics.BackupsCreated,
		BackupFailures:  metrics.BackupFailures,
		Restores:        metrics.Restores,
		LockWaits:       metrics.LockWaits,
		TotalLockWaitMs: metrics.TotalLockWaitMs,
		MaxLockWaitMs:   metrics.MaxLockWaitMs,
		EventCount:      metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func todoToOutput(t models.Todo) todoOutput {
	return todoOutput{
		ID:       t.ID,
		Text:     t.Text,
		Done:     t.Done,
		Priority: string(t.Priority),
		Tags:     t.Tags,
		DueDate:  t.DueDate,
		Overdue:  t.IsOverdue(),
		Created:  t.CreatedAt,
		Updated:  t.UpdatedAt,
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
