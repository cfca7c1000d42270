package core

import (
	"context"
	"fmt"

	"github.com/valter-silva-au/flywheel/internal/storage"
	"github.com/valter-silva-au/flywheel/pkg/models"
)

// AddOptions carries the optional fields of a new todo.
type AddOptions struct {
	Due      string
	Priority models.Priority
	Tags     []string
}

// ListFilter selects a subset of the document. Zero value means all records.
type ListFilter struct {
	Pending  bool
	Done     bool
	Overdue  bool
	Priority models.Priority
	Tag      string
}

// TodoManager defines the operations the CLI and MCP surfaces use. Every
// mutation goes through the store's guarded read-modify-write cycle.
type TodoManager interface {
	Add(ctx context.Context, text string, opts AddOptions) (models.Todo, error)
	List(ctx context.Context, filter ListFilter) ([]models.Todo, error)
	Get(ctx context.Context, id int) (models.Todo, error)
	Complete(ctx context.Context, id int) (models.Todo, error)
	Reopen(ctx context.Context, id int) (models.Todo, error)
	Rename(ctx context.Context, id int, text string) (models.Todo, error)
	SetDueDate(ctx context.Context, id int, date string) (models.Todo, error)
	SetPriority(ctx context.Context, id int, p models.Priority) (models.Todo, error)
	Remove(ctx context.Context, id int) error
}

// todoManager implements TodoManager on top of a DocumentStore.
type todoManager struct {
	store *storage.DocumentStore
}

// NewTodoManager creates a TodoManager backed by the given store.
func NewTodoManager(store *storage.DocumentStore) TodoManager {
	return &todoManager{store: store}
}

// Add creates a new todo. The ID is allocated inside the store's critical
// section, so concurrent adds never mint the same one.
func (m *todoManager) Add(ctx context.Context, text string, opts AddOptions) (models.Todo, error) {
	return m.store.Add(ctx, func(id int) (models.Todo, error) {
		t, err := models.NewTodo(id, text)
		if err != nil {
			return models.Todo{}, err
		}
		if opts.Due != "" {
			if err := t.SetDueDate(opts.Due); err != nil {
				return models.Todo{}, err
			}
		}
		if opts.Priority != "" {
			if err := t.SetPriority(opts.Priority); err != nil {
				return models.Todo{}, err
			}
		}
		if len(opts.Tags) > 0 {
			t.Tags = append([]string(nil), opts.Tags...)
		}
		return t, nil
	})
}

// List returns the records matching the filter, in document order.
func (m *todoManager) List(ctx context.Context, filter ListFilter) ([]models.Todo, error) {
	todos, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Todo
	for _, t := range todos {
		if filter.Pending && t.Done {
			continue
		}
		if filter.Done && !t.Done {
			continue
		}
		if filter.Overdue && !t.IsOverdue() {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if filter.Tag != "" && !hasTag(t, filter.Tag) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Get returns the record with the given ID.
func (m *todoManager) Get(ctx context.Context, id int) (models.Todo, error) {
	todos, err := m.store.Load(ctx)
	if err != nil {
		return models.Todo{}, err
	}
	for _, t := range todos {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Todo{}, fmt.Errorf("todo %d: %w", id, storage.ErrNotFound)
}

func (m *todoManager) Complete(ctx context.Context, id int) (models.Todo, error) {
	return m.store.Update(ctx, id, func(t *models.Todo) error {
		t.MarkDone()
		return nil
	})
}

func (m *todoManager) Reopen(ctx context.Context, id int) (models.Todo, error) {
	return m.store.Update(ctx, id, func(t *models.Todo) error {
		t.MarkUndone()
		return nil
	})
}

func (m *todoManager) Rename(ctx context.Context, id int, text string) (models.Todo, error) {
	return m.store.Update(ctx, id, func(t *models.Todo) error {
		return t.Rename(text)
	})
}

func (m *todoManager) SetDueDate(ctx context.Context, id int, date string) (models.Todo, error) {
	return m.store.Update(ctx, id, func(t *models.Todo) error {
		return t.SetDueDate(date)
	})
}

func (m *todoManager) SetPriority(ctx context.Context, id int, p models.Priority) (models.Todo, error) {
	return m.store.Update(ctx, id, func(t *models.Todo) error {
		return t.SetPriority(p)
	})
}

func (m *todoManager) Remove(ctx context.Context, id int) error {
	return m.store.Remove(ctx, id)
}

func hasTag(t models.Todo, tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}
