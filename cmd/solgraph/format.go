package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// formatBuildsText formats CLIBuild results as aligned columns.
func formatBuildsText(w io.Writer, builds []CLIBuild) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVERSION\tLANGUAGE\tFORMAT\tFILES\tNODES\tDIAGS")
	for _, b := range builds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			b.ID, b.Version, b.Language, b.Format, b.Files, b.Nodes, b.Diagnostics)
	}
	tw.Flush()
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tPATH\tBUILD")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", f.Index, f.Path, f.BuildID)
	}
	tw.Flush()
}

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tPATH\tOFFSET\tREFS")
	for _, s := range syms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n",
			s.ID, s.Name, s.Kind, s.Path, s.Offset, s.RefCount)
	}
	tw.Flush()
}

// formatLocationsText formats CLILocation results as "path:line:col" lines.
func formatLocationsText(w io.Writer, locs []CLILocation) {
	for _, loc := range locs {
		fmt.Fprintf(w, "%s:%d:%d\n", loc.Path, loc.StartLine, loc.StartCol)
	}
}

// formatReferencesText formats CLIReference results as aligned columns.
func formatReferencesText(w io.Writer, refs []CLIReference) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tPATH\tLINE\tCOL")
	for _, r := range refs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n",
			r.NodeID, r.Location.Path, r.Location.StartLine, r.Location.StartCol)
	}
	tw.Flush()
}

// formatDiagnosticsText formats CLIDiagnostic results as compiler-style lines.
func formatDiagnosticsText(w io.Writer, diags []CLIDiagnostic) {
	for _, d := range diags {
		if d.Path != "" {
			fmt.Fprintf(w, "%s: %s (%s, bytes %d-%d): %s\n",
				d.Severity, d.Path, d.Code, d.Start, d.End, d.Message)
			continue
		}
		fmt.Fprintf(w, "%s (%s): %s\n", d.Severity, d.Code, d.Message)
	}
}

// formatHierarchyText formats a CLIHierarchy as readable text.
func formatHierarchyText(w io.Writer, h CLIHierarchy) {
	fmt.Fprintf(w, "%s %s (#%d)\n", h.Symbol.Kind, h.Symbol.Name, h.Symbol.ID)
	if len(h.Bases) > 0 {
		fmt.Fprintln(w, "Bases:")
		for _, b := range h.Bases {
			fmt.Fprintf(w, "  %s %s (#%d)\n", b.Kind, b.Name, b.ID)
		}
	}
	if len(h.Derived) > 0 {
		fmt.Fprintln(w, "Derived:")
		for _, d := range h.Derived {
			fmt.Fprintf(w, "  %s %s (#%d)\n", d.Kind, d.Name, d.ID)
		}
	}
}

// formatCallEdgesText formats CLICallEdge results as aligned columns.
func formatCallEdgesText(w io.Writer, edges []CLICallEdge) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CALLER\tCALLEE\tSITE")
	for _, e := range edges {
		caller := fmt.Sprintf("%s (#%d)", e.CallerName, e.CallerID)
		callee := fmt.Sprintf("%s (#%d)", e.CalleeName, e.CalleeID)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", caller, callee, e.Site)
	}
	tw.Flush()
}

// formatImportsText formats CLIImportEdge results as aligned columns.
func formatImportsText(w io.Writer, edges []CLIImportEdge) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tTO\tALIAS")
	for _, e := range edges {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.From, e.To, e.UnitAlias)
	}
	tw.Flush()
}

// formatCyclesText formats CLICycle results, one chain per line.
func formatCyclesText(w io.Writer, cycles []CLICycle) {
	for _, c := range cycles {
		fmt.Fprintln(w, strings.Join(c.Paths, " -> "))
	}
}

// outputResultText dispatches to the appropriate text formatter based on
// the result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []CLIBuild:
		formatBuildsText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case CLISymbol:
		formatSymbolsText(w, []CLISymbol{v})
	case []CLILocation:
		formatLocationsText(w, v)
	case CLILocation:
		formatLocationsText(w, []CLILocation{v})
	case []CLIReference:
		formatReferencesText(w, v)
	case []CLIDiagnostic:
		formatDiagnosticsText(w, v)
	case CLIHierarchy:
		formatHierarchyText(w, v)
	case []CLICallEdge:
		formatCallEdgesText(w, v)
	case []CLIImportEdge:
		formatImportsText(w, v)
	case []CLICycle:
		formatCyclesText(w, v)
	case nil:
		// No output for nil results.
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}

	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIBuild:
		return len(r)
	case []CLIFile:
		return len(r)
	case []CLISymbol:
		return len(r)
	case []CLILocation:
		return len(r)
	case []CLIReference:
		return len(r)
	case []CLIDiagnostic:
		return len(r)
	case []CLICallEdge:
		return len(r)
	case []CLIImportEdge:
		return len(r)
	case []CLICycle:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so
// RunE can propagate it to Cobra. In JSON mode the error is written to
// stdout as a CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
