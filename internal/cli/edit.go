package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/flywheel/pkg/models"
)

var editCmd = &cobra.Command{
	Use:   "edit <id> <text>...",
	Short: "Replace a todo's text",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manager == nil {
			return fmt.Errorf("todo manager not initialized")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		todo, err := Manager.Rename(cmd.Context(), id, strings.Join(args[1:], " "))
		if err != nil {
			return fmt.Errorf("editing todo: %w", err)
		}
		fmt.Printf("Updated #%d: %s\n", todo.ID, todo.Text)
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due <id> <date>",
	Short: "Set a todo's due date (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manager == nil {
			return fmt.Errorf("todo manager not initialized")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		todo, err := Manager.SetDueDate(cmd.Context(), id, args[1])
		if err != nil {
			return fmt.Errorf("setting due date: %w", err)
		}
		fmt.Printf("#%d due %s\n", todo.ID, todo.DueDate)
		return nil
	},
}

var priorityCmd = &cobra.Command{
	Use:   "priority <id> <level>",
	Short: "Set a todo's priority (low, medium, high)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manager == nil {
			return fmt.Errorf("todo manager not initialized")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		todo, err := Manager.SetPriority(cmd.Context(), id, models.Priority(args[1]))
		if err != nil {
			return fmt.Errorf("setting priority: %w", err)
		}
		fmt.Printf("#%d priority %s\n", todo.ID, todo.Priority)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove a todo",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manager == nil {
			return fmt.Errorf("todo manager not initialized")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := Manager.Remove(cmd.Context(), id); err != nil {
			return fmt.Errorf("removing todo: %w", err)
		}
		fmt.Printf("Removed #%d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(priorityCmd)
	rootCmd.AddCommand(rmCmd)
}
