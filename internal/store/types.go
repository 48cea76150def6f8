package store

import "time"

// Build is one exported build header row.
type Build struct {
	ID           string
	Version      string
	Language     string
	SourceFormat string
	NodeCount    int64
	ExportedAt   time.Time
}

// File maps a build-scoped file index to its source path.
type File struct {
	BuildID   string
	FileIndex int64
	Path      string
}

// Symbol is one declaration row. StartLine and StartCol are nullable:
// they can only be computed when source text was available at export time.
type Symbol struct {
	BuildID     string
	ID          int64
	Name        string
	Kind        string
	Qualified   string
	Path        string
	StartOffset int64
	Length      int64
	StartLine   *int64
	StartCol    *int64
	RefCount    int64
}

// Reference is one use site pointing at a declaration.
type Reference struct {
	BuildID     string
	NodeID      int64
	DeclID      int64
	Path        string
	StartOffset int64
	StartLine   *int64
	StartCol    *int64
}

// Diagnostic is one compiler message attached to a build.
type Diagnostic struct {
	ID          int64
	BuildID     string
	Severity    string
	Code        string
	Message     string
	Path        string
	StartOffset int64
	EndOffset   int64
}
