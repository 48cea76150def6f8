package solgraph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/solgraph/internal/store"
)

func exportToTempStore(t *testing.T, x *Index) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, x.Export(context.Background(), dbPath))
	st, err := store.NewStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestExport_RoundTrip(t *testing.T) {
	x, buildID := newGoldenIndex(t)
	st := exportToTempStore(t, x)

	b, err := st.BuildByID(buildID)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "0.8.24+commit.e11b9ed9.Linux.g++", b.Version)
	assert.Equal(t, "combined", b.SourceFormat)
	assert.Equal(t, int64(50), b.NodeCount)

	files, err := st.FilesByBuild(buildID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, goldenSafeMath, files[0].Path)
	assert.Equal(t, goldenToken, files[1].Path)

	symbols, err := st.SymbolsByBuild(buildID)
	require.NoError(t, err)
	assert.Len(t, symbols, 14)

	sym, err := st.SymbolByID(buildID, gidTotalSupply)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, "totalSupply", sym.Name)
	assert.Equal(t, "variable", sym.Kind)
	assert.Equal(t, "Token.totalSupply", sym.Qualified)
	assert.Equal(t, goldenToken, sym.Path)
	assert.Equal(t, int64(105), sym.StartOffset)
	assert.Equal(t, int64(26), sym.Length)
	assert.Equal(t, int64(2), sym.RefCount)

	// Fixture sources sit on disk, so line and column fill in.
	require.NotNil(t, sym.StartLine)
	assert.Equal(t, int64(6), *sym.StartLine)
	require.NotNil(t, sym.StartCol)
	assert.Equal(t, int64(4), *sym.StartCol)

	refs, err := st.ReferencesByDecl(buildID, gidTotalSupply)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, int64(34), refs[0].NodeID)
	assert.Equal(t, int64(37), refs[1].NodeID)
	assert.Equal(t, goldenToken, refs[0].Path)

	diags, err := st.DiagnosticsByBuild(buildID)
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestExport_Reexport(t *testing.T) {
	x, buildID := newGoldenIndex(t)

	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, x.Export(context.Background(), dbPath))
	require.NoError(t, x.Export(context.Background(), dbPath))

	st, err := store.NewStore(dbPath)
	require.NoError(t, err)
	defer st.Close()

	builds, err := st.Builds()
	require.NoError(t, err)
	assert.Len(t, builds, 1, "re-export replaces, never duplicates")

	symbols, err := st.SymbolsByBuild(buildID)
	require.NoError(t, err)
	assert.Len(t, symbols, 14)
}

func TestExport_MultipleBuilds(t *testing.T) {
	x := NewIndex()
	_, err := x.LoadFile(context.Background(), "testdata/buildinfo/counter.json")
	require.NoError(t, err)
	st := exportToTempStore(t, x)

	builds, err := st.Builds()
	require.NoError(t, err)
	require.Len(t, builds, 2)

	// Build-scoped symbol spaces stay separate in the snapshot.
	sym, err := st.SymbolByID("2cc2a38e", 36)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, "Counter", sym.Name)

	sym, err = st.SymbolByID("7b1d0eaf", 36)
	require.NoError(t, err)
	assert.Nil(t, sym)
	sym, err = st.SymbolByID("7b1d0eaf", 136)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, "Counter", sym.Name)
}

func TestExport_DiagnosticsRows(t *testing.T) {
	x := NewIndex()
	builds, err := x.LoadFile(context.Background(), "testdata/combined/version-old.json")
	require.NoError(t, err)
	require.Len(t, builds, 1)
	st := exportToTempStore(t, x)

	diags, err := st.DiagnosticsByBuild(builds[0].ID())
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "warning", diags[0].Severity)
	assert.Equal(t, "version", diags[0].Code)
}

func TestExport_LineColNullWithoutSource(t *testing.T) {
	// A build whose file exists only in the registry: offsets export,
	// lines stay NULL.
	doc := `{
		"sourceList": ["Ghost.sol"],
		"sources": {"Ghost.sol": {"AST": {
			"id": 2, "nodeType": "SourceUnit", "src": "0:100:0",
			"nodes": [{"id": 1, "nodeType": "ContractDefinition", "name": "Ghost", "contractKind": "contract", "src": "10:80:0", "nodes": []}]
		}}},
		"version": "0.8.24+commit.e11b9ed9.Linux.g++"
	}`
	x := NewIndex()
	b, err := x.LoadCombined(context.Background(), []byte(doc))
	require.NoError(t, err)
	st := exportToTempStore(t, x)

	sym, err := st.SymbolByID(b.ID(), 1)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Equal(t, int64(10), sym.StartOffset)
	assert.Nil(t, sym.StartLine)
	assert.Nil(t, sym.StartCol)
}

func TestExport_Cancelled(t *testing.T) {
	x, _ := newGoldenIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := x.Export(ctx, filepath.Join(t.TempDir(), "snapshot.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExport_BadPath(t *testing.T) {
	x, _ := newGoldenIndex(t)

	err := x.Export(context.Background(), filepath.Join(t.TempDir(), "missing", "snapshot.db"))
	require.Error(t, err)
}
