package main

import (
	"fmt"
	"os"

	app "github.com/valter-silva-au/flywheel/internal"
	"github.com/valter-silva-au/flywheel/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)

	// Services come up lazily, after flag parsing, so commands like version
	// and completion work without touching the document or its locks.
	var running *app.App
	cli.InitServices = func(dbPath string) error {
		a, err := app.NewApp(dbPath)
		if err != nil {
			return err
		}
		running = a
		return nil
	}

	err := cli.Execute()
	if running != nil {
		_ = running.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
