package solgraph

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat([]byte(`{"build_infos": [], "sources": {}}`))
	require.NoError(t, err)
	assert.Equal(t, FormatBuildInfo, format)

	format, err = DetectFormat([]byte(`{"sources": {}, "sourceList": [], "version": "0.8.24"}`))
	require.NoError(t, err)
	assert.Equal(t, FormatCombined, format)

	_, err = DetectFormat([]byte(`{"contracts": {}}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))

	_, err = DetectFormat([]byte(`{broken`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
}

// twoFileDoc holds a contract at byte 100 of the second file, so spans with
// file index 1 must resolve through sourceList order.
const twoFileDoc = `{
	"version": "0.8.21+commit.d9974bed.Linux.g++",
	"sourceList": ["A.sol", "B.sol"],
	"sources": {
		"A.sol": {"AST": {
			"id": 1, "nodeType": "SourceUnit", "src": "0:60:0", "absolutePath": "A.sol",
			"nodes": [{"id": 2, "nodeType": "PragmaDirective", "src": "0:24:0", "literals": ["solidity", "^", "0.8", ".21"]}]
		}},
		"B.sol": {"AST": {
			"id": 3, "nodeType": "SourceUnit", "src": "0:200:1", "absolutePath": "B.sol",
			"nodes": [{"id": 4, "nodeType": "ContractDefinition", "src": "100:5:1", "name": "B", "contractKind": "contract", "nodes": []}]
		}}
	}
}`

func TestParseCombined_SpanResolvesThroughSourceList(t *testing.T) {
	b, err := ParseCombined(context.Background(), []byte(twoFileDoc), ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, FormatCombined, b.Format())
	assert.Equal(t, "0.8.21+commit.d9974bed.Linux.g++", b.Version())
	assert.Equal(t, 4, b.NodeCount())
	assert.Equal(t, 2, b.Sources().Len())

	n, ok := b.Node(4)
	require.True(t, ok)
	sp, err := n.Span()
	require.NoError(t, err)
	assert.Equal(t, Span{Start: 100, Length: 5, FileIndex: 1}, sp)

	path, err := b.Sources().ResolvePath(sp.FileIndex)
	require.NoError(t, err)
	assert.Equal(t, "B.sol", path)
}

func TestParseCombined_LowercaseASTKey(t *testing.T) {
	doc := `{
		"version": "0.8.24",
		"sourceList": ["A.sol"],
		"sources": {"A.sol": {"ast": {"id": 1, "nodeType": "SourceUnit", "src": "0:10:0", "nodes": []}}}
	}`
	b, err := ParseCombined(context.Background(), []byte(doc), ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.NodeCount())
}

func TestParseCombined_MissingTopLevelKeys(t *testing.T) {
	_, err := ParseCombined(context.Background(), []byte(`{"sourceList": []}`), ParseOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema), "missing sources")

	_, err = ParseCombined(context.Background(), []byte(`{"sources": {}}`), ParseOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema), "missing sourceList")

	_, err = ParseCombined(context.Background(), []byte(`not json`), ParseOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestParseCombined_PartialSkipsBadSource(t *testing.T) {
	doc := `{
		"version": "0.8.24",
		"sourceList": ["Good.sol", "Bad.sol"],
		"sources": {
			"Good.sol": {"AST": {"id": 1, "nodeType": "SourceUnit", "src": "0:10:0", "nodes": []}},
			"Bad.sol": {"AST": {"note": "no nodes in here"}}
		}
	}`
	b, err := ParseCombined(context.Background(), []byte(doc), ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.NodeCount(), "bad entry skipped, good one kept")

	_, err = ParseCombined(context.Background(), []byte(doc), ParseOptions{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestParseCombined_EntryWithoutAST(t *testing.T) {
	doc := `{
		"version": "0.8.24",
		"sourceList": ["A.sol", "B.sol"],
		"sources": {
			"A.sol": {"AST": {"id": 1, "nodeType": "SourceUnit", "src": "0:10:0", "nodes": []}},
			"B.sol": {}
		}
	}`
	b, err := ParseCombined(context.Background(), []byte(doc), ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.NodeCount())

	_, err = ParseCombined(context.Background(), []byte(doc), ParseOptions{Strict: true})
	require.Error(t, err)
}

func TestParseCombined_DuplicateIDAbortsEvenPartial(t *testing.T) {
	doc := `{
		"version": "0.8.24",
		"sourceList": ["A.sol", "B.sol"],
		"sources": {
			"A.sol": {"AST": {"id": 7, "nodeType": "SourceUnit", "src": "0:10:0", "nodes": []}},
			"B.sol": {"AST": {"id": 7, "nodeType": "SourceUnit", "src": "0:10:1", "nodes": []}}
		}
	}`
	_, err := ParseCombined(context.Background(), []byte(doc), ParseOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))
}

func TestParseCombined_DuplicateSourceListIndex(t *testing.T) {
	doc := `{
		"version": "0.8.24",
		"sourceList": ["A.sol", "A.sol"],
		"sources": {"A.sol": {"AST": {"id": 1, "nodeType": "SourceUnit", "src": "0:10:0"}}}
	}`
	// Both list positions register; a repeated path is two indexes onto
	// the same file, which some flattened outputs produce.
	b, err := ParseCombined(context.Background(), []byte(doc), ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Sources().Len())
}

func TestParseCombined_NameLocationSegmentMismatch(t *testing.T) {
	doc := `{
		"version": "0.8.24",
		"sourceList": ["A.sol"],
		"sources": {"A.sol": {"AST": {
			"id": 1, "nodeType": "SourceUnit", "src": "0:50:0",
			"nodes": [{"id": 2, "nodeType": "IdentifierPath", "src": "10:10:0", "name": "Pool.State", "nameLocations": ["10:4:0"]}]
		}}}
	}`
	_, err := ParseCombined(context.Background(), []byte(doc), ParseOptions{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema), "one location for two segments")

	// Partial mode drops the file; the document still yields its build.
	b, err := ParseCombined(context.Background(), []byte(doc), ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, b.NodeCount())
}

func TestParseCombined_Deterministic(t *testing.T) {
	parse := func() *Build {
		b, err := ParseCombined(context.Background(), []byte(twoFileDoc), ParseOptions{})
		require.NoError(t, err)
		return b
	}
	b1, b2 := parse(), parse()

	assert.Equal(t, b1.NodeCount(), b2.NodeCount())

	ids1 := make([]int64, 0)
	for _, d := range b1.Declarations() {
		ids1 = append(ids1, d.ID)
	}
	ids2 := make([]int64, 0)
	for _, d := range b2.Declarations() {
		ids2 = append(ids2, d.ID)
	}
	assert.Equal(t, ids1, ids2)

	roots1 := b1.Roots()
	roots2 := b2.Roots()
	require.Equal(t, len(roots1), len(roots2))
	for i := range roots1 {
		assert.Equal(t, roots1[i].ID, roots2[i].ID)
	}
}

func TestParseCombined_ChildOrderFollowsDocument(t *testing.T) {
	// Keys deliberately out of alphabetical order: children must come out
	// in document order, not key order.
	doc := `{
		"version": "0.8.24",
		"sourceList": ["A.sol"],
		"sources": {"A.sol": {"AST": {
			"id": 1, "nodeType": "SourceUnit", "src": "0:50:0",
			"second": {"id": 3, "nodeType": "PragmaDirective", "src": "0:5:0"},
			"first": {"id": 2, "nodeType": "PragmaDirective", "src": "6:5:0"}
		}}}
	}`
	b, err := ParseCombined(context.Background(), []byte(doc), ParseOptions{})
	require.NoError(t, err)

	children := b.Children(1)
	require.Len(t, children, 2)
	assert.Equal(t, int64(3), children[0].ID)
	assert.Equal(t, int64(2), children[1].ID)
}

func TestParseCombined_WrapperObjectsKeepOuterParent(t *testing.T) {
	// typeDescriptions-style wrappers are not nodes; nodes nested inside
	// them hang off the nearest real ancestor.
	doc := `{
		"version": "0.8.24",
		"sourceList": ["A.sol"],
		"sources": {"A.sol": {"AST": {
			"id": 1, "nodeType": "SourceUnit", "src": "0:50:0",
			"wrapper": {"deep": {"id": 2, "nodeType": "StructDefinition", "name": "S", "src": "10:20:0"}}
		}}}
	}`
	b, err := ParseCombined(context.Background(), []byte(doc), ParseOptions{})
	require.NoError(t, err)

	parent := b.Parent(2)
	require.NotNil(t, parent)
	assert.Equal(t, int64(1), parent.ID)
	assert.Equal(t, 2, b.NodeCount(), "wrapper itself is not a node")
}

func TestParseCombined_LiftedAndRawAttributes(t *testing.T) {
	doc := `{
		"version": "0.8.24",
		"sourceList": ["A.sol"],
		"sources": {"A.sol": {"AST": {
			"id": 1, "nodeType": "SourceUnit", "src": "0:50:0",
			"nodes": [{
				"id": 2, "src": "10:6:0", "name": "amount",
				"referencedDeclaration": 42,
				"typeDescriptions": {"typeIdentifier": "t_uint256", "typeString": "uint256"},
				"overloadedDeclarations": []
			}]
		}}}
	}`
	b, err := ParseCombined(context.Background(), []byte(doc), ParseOptions{})
	require.NoError(t, err)

	n, ok := b.Node(2)
	require.True(t, ok)
	assert.Equal(t, "Unknown", n.NodeType, "missing nodeType defaults")
	assert.Equal(t, "amount", n.Name)
	require.NotNil(t, n.ReferencedDeclaration)
	assert.Equal(t, int64(42), *n.ReferencedDeclaration)

	assert.NotNil(t, n.Attr("typeDescriptions"))
	assert.NotNil(t, n.Attr("overloadedDeclarations"))
	assert.Nil(t, n.Attr("name"), "lifted fields leave Attrs")
	assert.Nil(t, n.Attr("src"))
}

func TestParseCombined_OldVersionDiagnostic(t *testing.T) {
	data, err := os.ReadFile("testdata/combined/version-old.json")
	require.NoError(t, err)

	b, err := ParseCombined(context.Background(), data, ParseOptions{})
	require.NoError(t, err, "old output still indexes")

	diags := b.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, "version", diags[0].Code)
	assert.Equal(t, 2, b.NodeCount())
}
