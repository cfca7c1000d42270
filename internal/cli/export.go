package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/flywheel/internal/core"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export todos as json, yaml, csv, or markdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manager == nil {
			return fmt.Errorf("todo manager not initialized")
		}

		todos, err := Manager.List(cmd.Context(), core.ListFilter{})
		if err != nil {
			return fmt.Errorf("loading todos: %w", err)
		}

		data, err := core.Export(todos, core.ExportFormat(exportFormat))
		if err != nil {
			return err
		}

		if exportOut == "" || exportOut == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", exportOut, err)
		}
		fmt.Printf("Exported %d todos to %s\n", len(todos), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format (json, yaml, csv, markdown)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: stdout)")
	_ = exportCmd.RegisterFlagCompletionFunc("format", completeExportFormats)
	rootCmd.AddCommand(exportCmd)
}
