package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/flywheel/internal/core"
)

// completeTodoIDs returns a completion function that lists todo IDs matching
// the given filter, with the todo text as the completion description.
func completeTodoIDs(filter core.ListFilter) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 || Manager == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		todos, err := Manager.List(context.Background(), filter)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var ids []string
		for _, t := range todos {
			id := strconv.Itoa(t.ID)
			if toComplete == "" || strings.HasPrefix(id, toComplete) {
				ids = append(ids, id+"\t"+t.Text)
			}
		}

		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completePriorities returns completion candidates for priority values.
func completePriorities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"high\tDo first",
		"medium\tDo soon",
		"low\tDo eventually",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeExportFormats returns completion candidates for export formats.
func completeExportFormats(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"json", "yaml", "csv", "markdown"}, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	doneCmd.ValidArgsFunction = completeTodoIDs(core.ListFilter{Pending: true})
	undoneCmd.ValidArgsFunction = completeTodoIDs(core.ListFilter{Done: true})
	editCmd.ValidArgsFunction = completeTodoIDs(core.ListFilter{})
	dueCmd.ValidArgsFunction = completeTodoIDs(core.ListFilter{})
	priorityCmd.ValidArgsFunction = completeTodoIDs(core.ListFilter{})
	rmCmd.ValidArgsFunction = completeTodoIDs(core.ListFilter{})
}
