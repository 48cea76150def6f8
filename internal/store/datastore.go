package store

// SnapshotStore is the interface for snapshot persistence and read-back.
// Store (SQLite) is the only implementation today; the interface keeps the
// export path testable against a fake.
type SnapshotStore interface {
	// Writes.
	WriteBuild(snap *BuildSnapshot) error
	DeleteBuildData(buildID string) error

	// Read-back queries.
	Builds() ([]*Build, error)
	BuildByID(id string) (*Build, error)
	FilesByBuild(buildID string) ([]*File, error)
	SymbolsByBuild(buildID string) ([]*Symbol, error)
	SymbolsByName(buildID, name string) ([]*Symbol, error)
	SymbolsByKind(buildID, kind string) ([]*Symbol, error)
	SymbolByID(buildID string, id int64) (*Symbol, error)
	SymbolsByIDs(buildID string, ids []int64) ([]*Symbol, error)
	ReferencesByDecl(buildID string, declID int64) ([]*Reference, error)
	DiagnosticsByBuild(buildID string) ([]*Diagnostic, error)
}

// Compile-time check: *Store satisfies SnapshotStore.
var _ SnapshotStore = (*Store)(nil)
