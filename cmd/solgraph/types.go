package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIBuild is a JSON-friendly build summary.
type CLIBuild struct {
	ID          string `json:"id"`
	Version     string `json:"version,omitempty"`
	Language    string `json:"language,omitempty"`
	Format      string `json:"format"`
	Files       int    `json:"files"`
	Nodes       int    `json:"nodes"`
	Diagnostics int    `json:"diagnostics"`
}

// CLIFile is one source registry entry.
type CLIFile struct {
	BuildID string `json:"build_id"`
	Index   int    `json:"index"`
	Path    string `json:"path"`
}

// CLISymbol is a JSON-friendly declaration row.
type CLISymbol struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Qualified string `json:"qualified,omitempty"`
	BuildID   string `json:"build_id"`
	Path      string `json:"path,omitempty"`
	Offset    int    `json:"offset"`
	Length    int    `json:"length"`
	RefCount  int    `json:"ref_count"`
}

// CLILocation is a resolved source location. Lines and columns are 0-based.
type CLILocation struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// CLIReference is one use site of a declaration.
type CLIReference struct {
	NodeID   int64       `json:"node_id"`
	Location CLILocation `json:"location"`
}

// CLIDiagnostic is a compiler message.
type CLIDiagnostic struct {
	Severity string `json:"severity"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
}

// CLIHierarchy is the inheritance view around one contract.
type CLIHierarchy struct {
	Symbol  CLISymbol   `json:"symbol"`
	Bases   []CLISymbol `json:"bases"`
	Derived []CLISymbol `json:"derived"`
}

// CLICallEdge is one call site.
type CLICallEdge struct {
	CallerID   int64  `json:"caller_id"`
	CallerName string `json:"caller_name,omitempty"`
	CalleeID   int64  `json:"callee_id"`
	CalleeName string `json:"callee_name,omitempty"`
	Site       string `json:"site"`
}

// CLIImportEdge is one import directive.
type CLIImportEdge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	UnitAlias string `json:"unit_alias,omitempty"`
}

// CLICycle is one circular import chain.
type CLICycle struct {
	Paths []string `json:"paths"`
}
