package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// parseID converts a command argument into a todo ID.
func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid todo id %q: expected a positive integer", arg)
	}
	return id, nil
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a todo as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manager == nil {
			return fmt.Errorf("todo manager not initialized")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		todo, err := Manager.Complete(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("completing todo: %w", err)
		}
		fmt.Printf("Done #%d: %s\n", todo.ID, todo.Text)
		return nil
	},
}

var undoneCmd = &cobra.Command{
	Use:   "undone <id>",
	Short: "Mark a completed todo as pending again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manager == nil {
			return fmt.Errorf("todo manager not initialized")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		todo, err := Manager.Reopen(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("reopening todo: %w", err)
		}
		fmt.Printf("Reopened #%d: %s\n", todo.ID, todo.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)
}
