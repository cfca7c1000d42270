package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:     "metrics",
	Aliases: []string{"stats"},
	Short:   "Display storage I/O metrics",
	Long: `Display aggregated storage metrics derived from the event log.

Metrics include load/save counts, bytes moved, backup activity, restores,
and lock wait statistics, plus the current process's mutex counters.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			out := map[string]any{"io": metrics}
			if Store != nil {
				out["mutex"] = Store.MutexStats()
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		// Table format.
		fmt.Printf("Storage metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Loads:", metrics.Loads)
		fmt.Printf("  %-24s %d\n", "Saves:", metrics.Saves)
		fmt.Printf("  %-24s %d\n", "Bytes read:", metrics.BytesRead)
		fmt.Printf("  %-24s %d\n", "Bytes written:", metrics.BytesWritten)
		fmt.Printf("  %-24s %d\n", "Backups created:", metrics.BackupsCreated)
		fmt.Printf("  %-24s %d\n", "Backup failures:", metrics.BackupFailures)
		fmt.Printf("  %-24s %d\n", "Restores:", metrics.Restores)

		if metrics.LockWaits > 0 {
			fmt.Println("\n  Lock waits:")
			fmt.Printf("    %-22s %d\n", "count:", metrics.LockWaits)
			fmt.Printf("    %-22s %dms\n", "total:", metrics.TotalLockWaitMs)
			fmt.Printf("    %-22s %dms\n", "worst:", metrics.MaxLockWaitMs)
		}

		if Store != nil {
			stats := Store.MutexStats()
			fmt.Println("\n  In-process mutex:")
			fmt.Printf("    %-22s %d\n", "acquisitions:", stats.TotalWaits)
			fmt.Printf("    %-22s %s\n", "total wait:", stats.TotalWaitTime)
			fmt.Printf("    %-22s %s\n", "max wait:", stats.MaxWait)
		}

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
