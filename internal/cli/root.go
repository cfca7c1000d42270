package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// dbPathFlag is the --db persistent flag value.
var dbPathFlag string

var rootCmd = &cobra.Command{
	Use:   "flywheel",
	Short: "flywheel - a concurrency-safe todo list",
	Long: `flywheel keeps a todo list in a single JSON document guarded against
concurrent and cross-process corruption.

Every mutation takes both an in-process lock and an OS-level file lock,
writes go through an atomic temp-file-and-rename sequence, and the
previous document state is kept in a bounded backup chain.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if InitServices == nil {
			return nil
		}
		return InitServices(dbPathFlag)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flywheel %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Path to the todo database (default: FLYWHEEL_DB or the XDG data directory)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
