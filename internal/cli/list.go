package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/flywheel/internal/core"
	"github.com/valter-silva-au/flywheel/pkg/models"
)

var (
	listPending  bool
	listDone     bool
	listOverdue  bool
	listPriority string
	listTag      string
)

// List rendering styles.
var (
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	tagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	priHighStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	priMedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	priLowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List todos",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manager == nil {
			return fmt.Errorf("todo manager not initialized")
		}

		filter := core.ListFilter{
			Pending: listPending,
			Done:    listDone,
			Overdue: listOverdue,
			Tag:     listTag,
		}
		if listPriority != "" {
			filter.Priority = models.Priority(listPriority)
		}

		todos, err := Manager.List(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("listing todos: %w", err)
		}

		if Store != nil && Store.Degraded() {
			fmt.Println(degradedStyle.Render("! running with degraded file locking"))
		}
		if len(todos) == 0 {
			fmt.Println(dimStyle.Render("No todos."))
			return nil
		}

		for _, t := range todos {
			fmt.Println(renderTodoLine(t))
		}
		return nil
	},
}

// renderTodoLine formats one todo for terminal display.
func renderTodoLine(t models.Todo) string {
	var sb strings.Builder

	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	sb.WriteString(fmt.Sprintf("%s %s ", idStyle.Render(fmt.Sprintf("#%-3d", t.ID)), box))

	text := t.Text
	switch {
	case t.Done:
		text = doneStyle.Render(text)
	case t.IsOverdue():
		text = overdueStyle.Render(text)
	}
	sb.WriteString(text)

	switch t.Priority {
	case models.PriorityHigh:
		sb.WriteString(" " + priHighStyle.Render("(high)"))
	case models.PriorityMedium:
		sb.WriteString(" " + priMedStyle.Render("(medium)"))
	case models.PriorityLow:
		sb.WriteString(" " + priLowStyle.Render("(low)"))
	}

	if t.DueDate != "" {
		due := "due " + t.DueDate
		if t.IsOverdue() {
			sb.WriteString(" " + overdueStyle.Render(due))
		} else {
			sb.WriteString(" " + dimStyle.Render(due))
		}
	}
	for _, tag := range t.Tags {
		sb.WriteString(" " + tagStyle.Render("+"+tag))
	}
	return sb.String()
}

func init() {
	listCmd.Flags().BoolVar(&listPending, "pending", false, "Only pending todos")
	listCmd.Flags().BoolVar(&listDone, "done", false, "Only completed todos")
	listCmd.Flags().BoolVar(&listOverdue, "overdue", false, "Only overdue todos")
	listCmd.Flags().StringVarP(&listPriority, "priority", "p", "", "Filter by priority (low, medium, high)")
	listCmd.Flags().StringVarP(&listTag, "tag", "t", "", "Filter by tag")
	_ = listCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	rootCmd.AddCommand(listCmd)
}
