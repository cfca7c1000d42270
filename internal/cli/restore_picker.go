package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// pickBackup shows an interactive list of retained backups and returns the
// selected backup path. Returns an error if no backups exist or the user
// cancels.
func pickBackup() (string, error) {
	if Store == nil {
		return "", fmt.Errorf("store not initialized")
	}

	backups, err := Store.Backups()
	if err != nil {
		return "", fmt.Errorf("listing backups: %w", err)
	}
	if len(backups) == 0 {
		return "", fmt.Errorf("no backups found (use 'flywheel backup' to create one)")
	}

	// Newest first so the most likely restore target is option 1.
	for i, j := 0, len(backups)-1; i < j; i, j = i+1, j-1 {
		backups[i], backups[j] = backups[j], backups[i]
	}

	fmt.Println("\nAvailable backups:")
	fmt.Println()
	fmt.Printf("  %-4s %-25s %-10s %s\n", "#", "CREATED", "SIZE", "PATH")
	fmt.Printf("  %-4s %-25s %-10s %s\n", "---", "-------", "----", "----")
	for i, b := range backups {
		fmt.Printf("  %-4d %-25s %-10d %s\n",
			i+1, b.Time().UTC().Format(time.RFC3339), b.Size, b.Path)
	}
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("Select backup [1-%d] (or 'q' to cancel): ", len(backups))
		input, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "q" || input == "Q" {
			return "", fmt.Errorf("cancelled")
		}

		num, err := strconv.Atoi(input)
		if err != nil || num < 1 || num > len(backups) {
			fmt.Printf("  Invalid selection. Enter a number between 1 and %d.\n", len(backups))
			continue
		}

		return backups[num-1].Path, nil
	}
}
