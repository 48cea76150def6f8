package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <db-path>",
	Short: "Write the index to a SQLite snapshot",
	Long:  "Loads the input and exports every build's symbols, references, files, and diagnostics to a SQLite database.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	start := time.Now()

	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError("export", err)
	}

	dbPath := args[0]
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return outputError("export", fmt.Errorf("creating %s: %w", dir, err))
		}
	}

	if err := x.Export(cmd.Context(), dbPath); err != nil {
		return outputError("export", err)
	}

	builds := x.Builds()
	nodes := 0
	for _, b := range builds {
		nodes += b.NodeCount()
	}
	fmt.Fprintf(os.Stderr, "Exported %d builds (%d nodes) in %s\n",
		len(builds), nodes, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)

	return nil
}
