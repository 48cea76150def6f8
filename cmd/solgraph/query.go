package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/solgraph"
)

var (
	flagBuild  string
	flagLimit  int
	flagOffset int
	flagSort   string
	flagOrder  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a loaded AST dump",
	Long:  "Run cross-reference queries against the input. All line and column numbers are 0-based; columns count bytes unless --utf16 is given.",
}

func init() {
	queryCmd.PersistentFlags().StringVar(&flagBuild, "build", "", "build id to query (default: the only build in the input)")
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	queryCmd.PersistentFlags().StringVar(&flagSort, "sort", "", "sort field: name|kind|path")
	queryCmd.PersistentFlags().StringVar(&flagOrder, "order", "asc", "sort order: asc|desc")

	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(defAtCmd)
	queryCmd.AddCommand(diagnosticsCmd)
	queryCmd.AddCommand(hierarchyCmd)
	queryCmd.AddCommand(callersCmd)
	queryCmd.AddCommand(calleesCmd)
	queryCmd.AddCommand(importsCmd)
	queryCmd.AddCommand(cyclesCmd)
}

// --- Helpers ---

// loadIndex builds an index from the --input flag (file or directory).
func loadIndex(ctx context.Context) (*solgraph.Index, error) {
	if flagInput == "" {
		return nil, fmt.Errorf("no input: pass --input or set input in %s", defaultConfigPath)
	}
	info, err := os.Stat(flagInput)
	if err != nil {
		return nil, fmt.Errorf("input not found: %s", flagInput)
	}

	x := solgraph.NewIndex(
		solgraph.WithStrict(flagStrict),
		solgraph.WithParallel(!flagSerial),
	)
	if info.IsDir() {
		_, err = x.LoadDirectory(ctx, flagInput)
	} else {
		_, err = x.LoadFile(ctx, flagInput)
	}
	if err != nil {
		return nil, err
	}
	return x, nil
}

// selectBuild picks the build named by --build, or the input's only build.
func selectBuild(x *solgraph.Index) (*solgraph.Build, error) {
	if flagBuild != "" {
		return x.Build(flagBuild)
	}
	builds := x.Builds()
	switch len(builds) {
	case 0:
		return nil, fmt.Errorf("input contains no builds")
	case 1:
		return builds[0], nil
	}
	ids := make([]string, len(builds))
	for i, b := range builds {
		ids[i] = b.ID()
	}
	return nil, fmt.Errorf("input contains %d builds; pick one with --build (%s)",
		len(builds), strings.Join(ids, ", "))
}

// parseIntArg parses a positional argument as a non-negative integer.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	return n, nil
}

// parseIDArg parses a positional argument as a declaration or node id.
func parseIDArg(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be an integer", value)
	}
	return id, nil
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() solgraph.Pagination {
	limit := flagLimit
	return solgraph.Pagination{
		Limit:  &limit,
		Offset: flagOffset,
	}
}

// buildSort creates a Sort from CLI flags.
func buildSort() solgraph.Sort {
	var field solgraph.SortField
	switch flagSort {
	case "kind":
		field = solgraph.SortByKind
	case "path":
		field = solgraph.SortByPath
	default:
		field = solgraph.SortByName
	}

	var order solgraph.SortOrder
	switch flagOrder {
	case "desc":
		order = solgraph.SortDesc
	default:
		order = solgraph.SortAsc
	}

	return solgraph.Sort{Field: field, Order: order}
}

// symbolToCLI converts a solgraph.SymbolInfo to a CLISymbol.
func symbolToCLI(sym solgraph.SymbolInfo) CLISymbol {
	return CLISymbol{
		ID:        sym.ID,
		Name:      sym.Name,
		Kind:      string(sym.Kind),
		Qualified: sym.Qualified(),
		BuildID:   sym.BuildID,
		Path:      sym.Path,
		Offset:    sym.Span.Start,
		Length:    sym.Span.Length,
		RefCount:  sym.RefCount,
	}
}

// locationToCLI converts a solgraph.Location to a CLILocation.
func locationToCLI(loc solgraph.Location) CLILocation {
	return CLILocation{
		Path:      loc.Path,
		StartLine: loc.Start.Line,
		StartCol:  loc.Start.Column,
		EndLine:   loc.End.Line,
		EndCol:    loc.End.Column,
	}
}

// diagnosticToCLI converts a solgraph.Diagnostic to a CLIDiagnostic.
func diagnosticToCLI(d solgraph.Diagnostic) CLIDiagnostic {
	return CLIDiagnostic{
		Severity: string(d.Severity),
		Code:     d.Code,
		Message:  d.Message,
		Path:     d.Path,
		Start:    d.Start,
		End:      d.End,
	}
}

// declName fetches just the name of a declaration, "" when absent.
func declName(b *solgraph.Build, id int64) string {
	if decl, ok := b.Declaration(id); ok {
		return decl.Name
	}
	return ""
}

// callEdgeToCLI converts a solgraph.CallEdge, hydrating endpoint names.
func callEdgeToCLI(b *solgraph.Build, e solgraph.CallEdge) CLICallEdge {
	return CLICallEdge{
		CallerID:   e.CallerID,
		CallerName: declName(b, e.CallerID),
		CalleeID:   e.CalleeID,
		CalleeName: declName(b, e.CalleeID),
		Site:       e.Site.String(),
	}
}

// --- Symbol Listing ---

var (
	flagKinds string
	flagName  string
	flagPath  string
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List declarations in a build",
	Args:  cobra.NoArgs,
	RunE:  runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&flagKinds, "kind", "", "comma-separated kind filter (e.g. contract,function)")
	symbolsCmd.Flags().StringVar(&flagName, "name", "", "name filter, * wildcards allowed")
	symbolsCmd.Flags().StringVar(&flagPath, "path", "", "file path filter (exact or suffix)")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError("symbols", err)
	}
	b, err := selectBuild(x)
	if err != nil {
		return outputError("symbols", err)
	}

	filter := solgraph.SymbolFilter{
		Name: flagName,
		Path: flagPath,
	}
	if flagKinds != "" {
		for _, k := range strings.Split(flagKinds, ",") {
			k = strings.TrimSpace(k)
			if k != "" {
				filter.Kinds = append(filter.Kinds, solgraph.SymbolKind(k))
			}
		}
	}

	page, err := x.ListSymbols(b.ID(), filter, buildSort(), buildPagination())
	if err != nil {
		return outputError("symbols", err)
	}

	cliSyms := make([]CLISymbol, len(page.Items))
	for i, sym := range page.Items {
		cliSyms[i] = symbolToCLI(sym)
	}

	return outputResult(CLIResult{
		Command:    "symbols",
		Results:    cliSyms,
		TotalCount: &page.TotalCount,
	})
}

// --- Definition and References ---

var definitionCmd = &cobra.Command{
	Use:   "definition <decl-id>",
	Short: "Find where a declaration is defined",
	Args:  cobra.ExactArgs(1),
	RunE:  runDefinition,
}

func runDefinition(cmd *cobra.Command, args []string) error {
	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError("definition", err)
	}
	b, err := selectBuild(x)
	if err != nil {
		return outputError("definition", err)
	}
	id, err := parseIDArg(args[0])
	if err != nil {
		return outputError("definition", err)
	}

	loc, err := x.GetDefinition(b.ID(), id)
	if err != nil {
		return outputError("definition", err)
	}

	one := 1
	return outputResult(CLIResult{
		Command:    "definition",
		Results:    locationToCLI(loc),
		TotalCount: &one,
	})
}

var referencesCmd = &cobra.Command{
	Use:   "references <decl-id>",
	Short: "Find all references to a declaration",
	Args:  cobra.ExactArgs(1),
	RunE:  runReferences,
}

func runReferences(cmd *cobra.Command, args []string) error {
	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError("references", err)
	}
	b, err := selectBuild(x)
	if err != nil {
		return outputError("references", err)
	}
	id, err := parseIDArg(args[0])
	if err != nil {
		return outputError("references", err)
	}

	refs, err := x.FindReferences(b.ID(), id)
	if err != nil {
		return outputError("references", err)
	}

	cliRefs := make([]CLIReference, len(refs))
	for i, ref := range refs {
		cliRefs[i] = CLIReference{
			NodeID:   ref.NodeID,
			Location: locationToCLI(ref.Location),
		}
	}

	refCount := len(cliRefs)
	return outputResult(CLIResult{
		Command:    "references",
		Results:    cliRefs,
		TotalCount: &refCount,
	})
}

// --- Position-Based Lookup ---

var flagUTF16 bool

var defAtCmd = &cobra.Command{
	Use:   "def-at <file> <line> <col>",
	Short: "Find the definition of the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runDefAt,
}

func init() {
	defAtCmd.Flags().BoolVar(&flagUTF16, "utf16", false, "treat col as UTF-16 code units instead of bytes")
}

func runDefAt(cmd *cobra.Command, args []string) error {
	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError("def-at", err)
	}
	b, err := selectBuild(x)
	if err != nil {
		return outputError("def-at", err)
	}

	path := args[0]
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return outputError("def-at", err)
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return outputError("def-at", err)
	}

	pos := solgraph.Position{Line: line, Column: col}
	if flagUTF16 {
		f, ok := b.Sources().FileByPath(path)
		if !ok {
			return outputError("def-at", fmt.Errorf("no index entry for %s", path))
		}
		offset, err := f.UTF16Offset(pos)
		if err != nil {
			return outputError("def-at", err)
		}
		pos, err = f.Position(offset)
		if err != nil {
			return outputError("def-at", err)
		}
	}

	loc, err := x.DefinitionAt(b.ID(), path, pos)
	if err != nil {
		return outputError("def-at", err)
	}

	one := 1
	return outputResult(CLIResult{
		Command:    "def-at",
		Results:    locationToCLI(loc),
		TotalCount: &one,
	})
}

// --- Diagnostics ---

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "List compiler messages attached to a build",
	Args:  cobra.NoArgs,
	RunE:  runDiagnostics,
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError("diagnostics", err)
	}
	b, err := selectBuild(x)
	if err != nil {
		return outputError("diagnostics", err)
	}

	diags, err := x.Diagnostics(b.ID())
	if err != nil {
		return outputError("diagnostics", err)
	}

	cliDiags := make([]CLIDiagnostic, len(diags))
	for i, d := range diags {
		cliDiags[i] = diagnosticToCLI(d)
	}

	diagCount := len(cliDiags)
	return outputResult(CLIResult{
		Command:    "diagnostics",
		Results:    cliDiags,
		TotalCount: &diagCount,
	})
}

// --- Hierarchy ---

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <contract-id>",
	Short: "Show base and derived contracts",
	Args:  cobra.ExactArgs(1),
	RunE:  runHierarchy,
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError("hierarchy", err)
	}
	b, err := selectBuild(x)
	if err != nil {
		return outputError("hierarchy", err)
	}
	id, err := parseIDArg(args[0])
	if err != nil {
		return outputError("hierarchy", err)
	}

	h, err := x.ContractHierarchy(b.ID(), id)
	if err != nil {
		return outputError("hierarchy", err)
	}
	if h == nil {
		return outputError("hierarchy", fmt.Errorf("declaration %d is not a contract, interface, or library", id))
	}

	cli := CLIHierarchy{
		Symbol:  symbolToCLI(h.Symbol),
		Bases:   make([]CLISymbol, len(h.Bases)),
		Derived: make([]CLISymbol, len(h.Derived)),
	}
	for i, s := range h.Bases {
		cli.Bases[i] = symbolToCLI(s)
	}
	for i, s := range h.Derived {
		cli.Derived[i] = symbolToCLI(s)
	}

	one := 1
	return outputResult(CLIResult{
		Command:    "hierarchy",
		Results:    cli,
		TotalCount: &one,
	})
}

// --- Call Graph ---

var flagDepth int

var callersCmd = &cobra.Command{
	Use:   "callers <decl-id>",
	Short: "Find callers of a function",
	Args:  cobra.ExactArgs(1),
	RunE:  runCallers,
}

var calleesCmd = &cobra.Command{
	Use:   "callees <decl-id>",
	Short: "Find functions called by a function",
	Args:  cobra.ExactArgs(1),
	RunE:  runCallees,
}

func init() {
	callersCmd.Flags().IntVar(&flagDepth, "depth", 1, "traversal depth, 1 for direct callers only")
	calleesCmd.Flags().IntVar(&flagDepth, "depth", 1, "traversal depth, 1 for direct callees only")
}

func runCallers(cmd *cobra.Command, args []string) error {
	return runCallEdges(cmd, args, "callers")
}

func runCallees(cmd *cobra.Command, args []string) error {
	return runCallEdges(cmd, args, "callees")
}

func runCallEdges(cmd *cobra.Command, args []string, command string) error {
	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError(command, err)
	}
	b, err := selectBuild(x)
	if err != nil {
		return outputError(command, err)
	}
	id, err := parseIDArg(args[0])
	if err != nil {
		return outputError(command, err)
	}

	var edges []solgraph.CallEdge
	if flagDepth > 1 {
		var g *solgraph.CallGraph
		if command == "callers" {
			g, err = x.TransitiveCallers(b.ID(), id, flagDepth)
		} else {
			g, err = x.TransitiveCallees(b.ID(), id, flagDepth)
		}
		if err != nil {
			return outputError(command, err)
		}
		if g != nil {
			edges = g.Edges
		}
	} else {
		if command == "callers" {
			edges, err = x.Callers(b.ID(), id)
		} else {
			edges, err = x.Callees(b.ID(), id)
		}
		if err != nil {
			return outputError(command, err)
		}
	}

	cliEdges := make([]CLICallEdge, len(edges))
	for i, e := range edges {
		cliEdges[i] = callEdgeToCLI(b, e)
	}

	edgeCount := len(cliEdges)
	return outputResult(CLIResult{
		Command:    command,
		Results:    cliEdges,
		TotalCount: &edgeCount,
	})
}

// --- Imports ---

var flagReverse bool

var importsCmd = &cobra.Command{
	Use:   "imports [path]",
	Short: "List import edges, optionally for one file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImports,
}

func init() {
	importsCmd.Flags().BoolVar(&flagReverse, "reverse", false, "list files importing the path instead of its imports")
}

func runImports(cmd *cobra.Command, args []string) error {
	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError("imports", err)
	}
	b, err := selectBuild(x)
	if err != nil {
		return outputError("imports", err)
	}

	var edges []solgraph.ImportEdge
	if len(args) == 1 {
		if flagReverse {
			edges, err = x.FileImporters(b.ID(), args[0])
		} else {
			edges, err = x.FileImports(b.ID(), args[0])
		}
	} else {
		var g *solgraph.FileGraph
		g, err = x.ImportGraph(b.ID())
		if g != nil {
			edges = g.Edges
		}
	}
	if err != nil {
		return outputError("imports", err)
	}

	cliEdges := make([]CLIImportEdge, len(edges))
	for i, e := range edges {
		cliEdges[i] = CLIImportEdge{
			From:      e.FromPath,
			To:        e.ToPath,
			UnitAlias: e.UnitAlias,
		}
	}

	edgeCount := len(cliEdges)
	return outputResult(CLIResult{
		Command:    "imports",
		Results:    cliEdges,
		TotalCount: &edgeCount,
	})
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Find circular import chains",
	Args:  cobra.NoArgs,
	RunE:  runCycles,
}

func runCycles(cmd *cobra.Command, args []string) error {
	x, err := loadIndex(cmd.Context())
	if err != nil {
		return outputError("cycles", err)
	}
	b, err := selectBuild(x)
	if err != nil {
		return outputError("cycles", err)
	}

	cycles, err := x.ImportCycles(b.ID())
	if err != nil {
		return outputError("cycles", err)
	}

	cliCycles := make([]CLICycle, len(cycles))
	for i, c := range cycles {
		cliCycles[i] = CLICycle{Paths: c}
	}

	cycleCount := len(cliCycles)
	return outputResult(CLIResult{
		Command:    "cycles",
		Results:    cliCycles,
		TotalCount: &cycleCount,
	})
}
