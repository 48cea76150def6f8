package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/solgraph/internal/logging"
)

var (
	flagInput     string
	flagConfig    string
	flagFormat    string
	flagLogFormat string
	flagVerbose   bool
	flagStrict    bool
	flagSerial    bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "solgraph",
	Short:         "Cross-reference queries over Solidity AST dumps",
	Long:          "Solgraph loads the AST JSON the Solidity compiler and build tools emit and answers definition, reference, and symbol queries against it.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyConfig(cmd); err != nil {
			return err
		}
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		ctx := logging.Setup(cmd.Context(), os.Stderr, logging.Options{
			Format:  flagLogFormat,
			Verbose: flagVerbose,
		})
		cmd.SetContext(ctx)
		return nil
	},
	// No Run; prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagInput, "input", "", "AST dump to load: a JSON file or a directory of them")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .solgraph.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "log format on stderr: text|json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagStrict, "strict", false, "fail loading on any malformed input instead of skipping it")
	rootCmd.PersistentFlags().BoolVar(&flagSerial, "serial", false, "parse source files one at a time")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exportCmd)
}
