package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/flywheel/internal/core"
	"github.com/valter-silva-au/flywheel/pkg/models"
)

var (
	addDue      string
	addPriority string
	addTags     []string
)

var addCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Add a new todo",
	Long: `Add a new todo. All arguments are joined into the todo text, so
quoting is optional: 'flywheel add buy milk' and 'flywheel add "buy milk"'
are equivalent.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manager == nil {
			return fmt.Errorf("todo manager not initialized")
		}

		opts := core.AddOptions{
			Due:  addDue,
			Tags: addTags,
		}
		if addPriority != "" {
			opts.Priority = models.Priority(addPriority)
		}

		todo, err := Manager.Add(cmd.Context(), strings.Join(args, " "), opts)
		if err != nil {
			return fmt.Errorf("adding todo: %w", err)
		}

		fmt.Printf("Added #%d: %s\n", todo.ID, todo.Text)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addDue, "due", "", "Due date (YYYY-MM-DD)")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "Priority (low, medium, high)")
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "Tag (repeatable)")
	_ = addCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	rootCmd.AddCommand(addCmd)
}
