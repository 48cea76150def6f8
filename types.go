package solgraph

import "github.com/jward/solgraph/internal/store"

// Public type aliases for internal store types surfaced by the export API.
// These are Go type aliases (=), identical to the internal types at compile
// time, so consumers reading snapshots back need no conversion.

type Store = store.Store
type BuildSnapshot = store.BuildSnapshot
type SnapshotBuild = store.Build
type SnapshotFile = store.File
type SnapshotSymbol = store.Symbol
type SnapshotReference = store.Reference
type SnapshotDiagnostic = store.Diagnostic

// OpenSnapshot opens (or creates) a snapshot database and ensures its
// schema exists. Callers own the returned store and must Close it.
func OpenSnapshot(dbPath string) (*Store, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
