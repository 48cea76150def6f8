package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

// testSnapshot builds a small two-symbol snapshot for a build id.
func testSnapshot(buildID string) *BuildSnapshot {
	return &BuildSnapshot{
		Build: Build{
			ID:           buildID,
			Version:      "0.8.24+commit.e11b9ed9.Linux.g++",
			Language:     "Solidity",
			SourceFormat: "combined",
			NodeCount:    50,
			ExportedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		Files: []File{
			{BuildID: buildID, FileIndex: 0, Path: "src/Pool.sol"},
			{BuildID: buildID, FileIndex: 1, Path: "src/Router.sol"},
		},
		Symbols: []Symbol{
			{
				BuildID: buildID, ID: 4805, Name: "State", Kind: "struct",
				Qualified: "Pool.State", Path: "src/Pool.sol",
				StartOffset: 200, Length: 120,
				StartLine: ptr(int64(2)), StartCol: ptr(int64(0)),
				RefCount: 1,
			},
			{
				BuildID: buildID, ID: 4810, Name: "Pool", Kind: "contract",
				Qualified: "Pool", Path: "src/Pool.sol",
				StartOffset: 100, Length: 400,
			},
		},
		References: []Reference{
			{
				BuildID: buildID, NodeID: 5001, DeclID: 4805, Path: "src/Router.sol",
				StartOffset: 5243, StartLine: ptr(int64(52)), StartCol: ptr(int64(43)),
			},
		},
		Diagnostics: []Diagnostic{
			{
				BuildID: buildID, Severity: "warning", Code: "2018",
				Message: "Function state mutability can be restricted to view",
				Path:    "src/Pool.sol", StartOffset: 210, EndOffset: 230,
			},
		},
	}
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"builds", "files", "symbols", "refs", "diagnostics"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	// Running migrate again should not error.
	require.NoError(t, s.Migrate())
}

func TestNewStore_UnwritablePath(t *testing.T) {
	t.Parallel()
	_, err := NewStore(filepath.Join(t.TempDir(), "missing-dir", "test.db"))
	require.Error(t, err)
}

// =============================================================================
// WriteBuild
// =============================================================================

func TestWriteBuild_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.WriteBuild(testSnapshot("b1")))

	b, err := s.BuildByID("b1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "0.8.24+commit.e11b9ed9.Linux.g++", b.Version)
	assert.Equal(t, "Solidity", b.Language)
	assert.Equal(t, "combined", b.SourceFormat)
	assert.Equal(t, int64(50), b.NodeCount)
	assert.WithinDuration(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), b.ExportedAt, time.Second)

	files, err := s.FilesByBuild("b1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, int64(0), files[0].FileIndex)
	assert.Equal(t, "src/Pool.sol", files[0].Path)
	assert.Equal(t, "src/Router.sol", files[1].Path)

	symbols, err := s.SymbolsByBuild("b1")
	require.NoError(t, err)
	require.Len(t, symbols, 2)
	// Ordered by id.
	assert.Equal(t, int64(4805), symbols[0].ID)
	assert.Equal(t, "Pool.State", symbols[0].Qualified)
	assert.Equal(t, int64(1), symbols[0].RefCount)
	require.NotNil(t, symbols[0].StartLine)
	assert.Equal(t, int64(2), *symbols[0].StartLine)
	assert.Equal(t, int64(4810), symbols[1].ID)

	refs, err := s.ReferencesByDecl("b1", 4805)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, int64(5001), refs[0].NodeID)
	assert.Equal(t, "src/Router.sol", refs[0].Path)

	diags, err := s.DiagnosticsByBuild("b1")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "warning", diags[0].Severity)
	assert.Equal(t, "2018", diags[0].Code)
}

func TestWriteBuild_ReplacesExistingRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.WriteBuild(testSnapshot("b1")))

	// Second export of the same build carries fewer rows; the old ones
	// must not linger.
	snap := testSnapshot("b1")
	snap.Symbols = snap.Symbols[:1]
	snap.Diagnostics = nil
	require.NoError(t, s.WriteBuild(snap))

	builds, err := s.Builds()
	require.NoError(t, err)
	assert.Len(t, builds, 1)

	symbols, err := s.SymbolsByBuild("b1")
	require.NoError(t, err)
	assert.Len(t, symbols, 1)

	diags, err := s.DiagnosticsByBuild("b1")
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestWriteBuild_IsolatesBuilds(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.WriteBuild(testSnapshot("b1")))
	require.NoError(t, s.WriteBuild(testSnapshot("b2")))

	builds, err := s.Builds()
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "b1", builds[0].ID)
	assert.Equal(t, "b2", builds[1].ID)

	// Same symbol ids exist in both builds without clashing.
	sym1, err := s.SymbolByID("b1", 4805)
	require.NoError(t, err)
	require.NotNil(t, sym1)
	sym2, err := s.SymbolByID("b2", 4805)
	require.NoError(t, err)
	require.NotNil(t, sym2)
}

func TestDeleteBuildData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.WriteBuild(testSnapshot("b1")))
	require.NoError(t, s.WriteBuild(testSnapshot("b2")))

	require.NoError(t, s.DeleteBuildData("b1"))

	b, err := s.BuildByID("b1")
	require.NoError(t, err)
	assert.Nil(t, b)
	symbols, err := s.SymbolsByBuild("b1")
	require.NoError(t, err)
	assert.Empty(t, symbols)

	// The other build is untouched.
	b, err = s.BuildByID("b2")
	require.NoError(t, err)
	assert.NotNil(t, b)
}

// =============================================================================
// Queries
// =============================================================================

func TestBuildByID_Missing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	b, err := s.BuildByID("nope")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestSymbolByID_Missing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.WriteBuild(testSnapshot("b1")))

	sym, err := s.SymbolByID("b1", 99999)
	require.NoError(t, err)
	assert.Nil(t, sym)
}

func TestSymbolsByName(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.WriteBuild(testSnapshot("b1")))

	symbols, err := s.SymbolsByName("b1", "State")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, int64(4805), symbols[0].ID)

	symbols, err = s.SymbolsByName("b1", "Missing")
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestSymbolsByKind(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.WriteBuild(testSnapshot("b1")))

	symbols, err := s.SymbolsByKind("b1", "contract")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Pool", symbols[0].Name)
}

func TestSymbolsByIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.WriteBuild(testSnapshot("b1")))

	symbols, err := s.SymbolsByIDs("b1", []int64{4810, 4805, 12345})
	require.NoError(t, err)
	require.Len(t, symbols, 2, "unknown ids are skipped")
	assert.Equal(t, int64(4805), symbols[0].ID)
	assert.Equal(t, int64(4810), symbols[1].ID)

	symbols, err = s.SymbolsByIDs("b1", nil)
	require.NoError(t, err)
	assert.Nil(t, symbols)
}

func TestNullableLineColumns(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	snap := testSnapshot("b1")
	snap.Symbols[0].StartLine = nil
	snap.Symbols[0].StartCol = nil
	require.NoError(t, s.WriteBuild(snap))

	sym, err := s.SymbolByID("b1", 4805)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Nil(t, sym.StartLine)
	assert.Nil(t, sym.StartCol)
	assert.Equal(t, int64(200), sym.StartOffset, "byte offset survives without source text")
}

// =============================================================================
// Helpers
// =============================================================================

func TestPlaceholderList(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", placeholderList(0))
	assert.Equal(t, "?", placeholderList(1))
	assert.Equal(t, "?,?,?", placeholderList(3))
}
