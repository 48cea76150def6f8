package main

import (
	"github.com/spf13/cobra"
)

var flagFiles bool

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List the builds in an AST dump",
	Long:  "Loads the input and reports each build: id, compiler version, format, file and node counts.",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&flagFiles, "files", false, "list source registry entries instead of build summaries")
}

func runInspect(cmd *cobra.Command, args []string) error {
	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError("inspect", err)
	}

	if flagFiles {
		var cliFiles []CLIFile
		for _, b := range x.Builds() {
			for _, f := range b.Sources().Files() {
				cliFiles = append(cliFiles, CLIFile{
					BuildID: b.ID(),
					Index:   f.Index,
					Path:    f.Path,
				})
			}
		}
		fileCount := len(cliFiles)
		return outputResult(CLIResult{
			Command:    "inspect",
			Results:    cliFiles,
			TotalCount: &fileCount,
		})
	}

	builds := x.Builds()
	cliBuilds := make([]CLIBuild, len(builds))
	for i, b := range builds {
		cliBuilds[i] = CLIBuild{
			ID:          b.ID(),
			Version:     b.Version(),
			Language:    b.Language(),
			Format:      string(b.Format()),
			Files:       b.Sources().Len(),
			Nodes:       b.NodeCount(),
			Diagnostics: len(b.Diagnostics()),
		}
	}

	buildCount := len(cliBuilds)
	return outputResult(CLIResult{
		Command:    "inspect",
		Results:    cliBuilds,
		TotalCount: &buildCount,
	})
}
