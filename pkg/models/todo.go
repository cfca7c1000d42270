// Package models defines the data types shared across the flywheel system:
// the Todo record and the storage configuration.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Priority represents the urgency level of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities is the set of allowed Priority values.
var ValidPriorities = map[Priority]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
}

// dueDatePattern matches strict ISO 8601 calendar dates (YYYY-MM-DD).
// Formats like YYYY/MM/DD or full datetime strings are rejected.
var dueDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Todo represents a single task list entry. IDs are unique within a document
// but not necessarily contiguous; removed IDs are reused by the allocator.
//
// From the store's perspective a Todo is a value object: mutators return
// updated copies of whole collections rather than patching records in place
// on disk.
type Todo struct {
	ID        int      `json:"id" yaml:"id"`
	Text      string   `json:"text" yaml:"text"`
	Done      bool     `json:"done" yaml:"done"`
	Priority  Priority `json:"priority,omitempty" yaml:"priority,omitempty"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	DueDate   string   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	CreatedAt string   `json:"created_at" yaml:"created_at"`
	UpdatedAt string   `json:"updated_at" yaml:"updated_at"`
}

// utcNow returns the current UTC time formatted as RFC 3339.
func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NewTodo creates a Todo with the given ID and text, stamping creation and
// update times. The text is trimmed and must not be empty.
func NewTodo(id int, text string) (Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Todo{}, fmt.Errorf("todo text cannot be empty")
	}
	now := utcNow()
	return Todo{
		ID:        id,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkDone sets the completion flag and bumps the update timestamp.
func (t *Todo) MarkDone() {
	t.Done = true
	t.UpdatedAt = utcNow()
}

// MarkUndone clears the completion flag and bumps the update timestamp.
func (t *Todo) MarkUndone() {
	t.Done = false
	t.UpdatedAt = utcNow()
}

// Rename replaces the todo text. The new text is trimmed and must not be empty.
func (t *Todo) Rename(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("todo text cannot be empty")
	}
	t.Text = text
	t.UpdatedAt = utcNow()
	return nil
}

// SetDueDate sets the due date, which must be a valid YYYY-MM-DD calendar date.
func (t *Todo) SetDueDate(dateStr string) error {
	if !dueDatePattern.MatchString(dateStr) {
		return fmt.Errorf("invalid date format %q: expected YYYY-MM-DD", dateStr)
	}
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		return fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	t.DueDate = dateStr
	t.UpdatedAt = utcNow()
	return nil
}

// SetPriority sets the priority level, which must be one of low, medium, high.
func (t *Todo) SetPriority(p Priority) error {
	if !ValidPriorities[p] {
		return fmt.Errorf("invalid priority %q: must be one of low, medium, high", p)
	}
	t.Priority = p
	t.UpdatedAt = utcNow()
	return nil
}

// IsOverdue reports whether the todo has a due date in the past and is not
// done. Malformed due dates are treated as not overdue.
func (t *Todo) IsOverdue() bool {
	if t.DueDate == "" || t.Done {
		return false
	}
	due, err := time.Parse("2006-01-02", t.DueDate)
	if err != nil {
		return false
	}
	today, err := time.Parse("2006-01-02", time.Now().UTC().Format("2006-01-02"))
	if err != nil {
		return false
	}
	return due.Before(today)
}

// Validate checks the record's field invariants. It does not check ID
// uniqueness, which is a document-level invariant owned by the store.
func (t *Todo) Validate() error {
	if t.ID < 1 {
		return fmt.Errorf("todo id must be a positive integer, got %d", t.ID)
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("todo %d: text cannot be empty", t.ID)
	}
	if t.Priority != "" && !ValidPriorities[t.Priority] {
		return fmt.Errorf("todo %d: invalid priority %q", t.ID, t.Priority)
	}
	if t.DueDate != "" && !dueDatePattern.MatchString(t.DueDate) {
		return fmt.Errorf("todo %d: invalid due date %q", t.ID, t.DueDate)
	}
	return nil
}
