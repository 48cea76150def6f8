package solgraph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// declNode builds a declaring node with raw attributes, linked under an
// optional parent.
func declNode(id int64, nodeType, name, src string, parent *int64, attrs map[string]string) *ASTNode {
	n := &ASTNode{
		ID:       id,
		NodeType: nodeType,
		Name:     name,
		Src:      src,
		ParentID: parent,
		Attrs:    map[string]json.RawMessage{},
	}
	for k, v := range attrs {
		n.Attrs[k] = json.RawMessage(v)
	}
	return n
}

func id64(v int64) *int64 { return &v }

func TestNodeGraph_RegisterDuplicate(t *testing.T) {
	g := newNodeGraph()
	require.NoError(t, g.register(&ASTNode{ID: 1, NodeType: "SourceUnit"}))

	err := g.register(&ASTNode{ID: 1, NodeType: "ContractDefinition"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))
}

func TestNodeGraph_MergeCollision(t *testing.T) {
	a := newNodeGraph()
	require.NoError(t, a.register(&ASTNode{ID: 5, NodeType: "SourceUnit"}))

	b := newNodeGraph()
	require.NoError(t, b.register(&ASTNode{ID: 5, NodeType: "SourceUnit"}))

	err := a.merge(b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateID))
}

func TestNodeGraph_MergePreservesOrder(t *testing.T) {
	a := newNodeGraph()
	require.NoError(t, a.register(&ASTNode{ID: 1, NodeType: "SourceUnit"}))
	a.addRoot(1)

	b := newNodeGraph()
	require.NoError(t, b.register(&ASTNode{ID: 10, NodeType: "SourceUnit"}))
	require.NoError(t, b.register(&ASTNode{ID: 2, NodeType: "PragmaDirective"}))
	b.addRoot(10)

	require.NoError(t, a.merge(b))
	assert.Equal(t, []int64{1, 10, 2}, a.order)
	assert.Equal(t, []int64{1, 10}, a.roots)
	assert.Equal(t, 3, a.Len())
}

func buildDeclGraph(t *testing.T) *NodeGraph {
	t.Helper()
	g := newNodeGraph()

	unit := declNode(1, "SourceUnit", "", "0:100:0", nil, nil)
	contract := declNode(2, "ContractDefinition", "Pool", "10:80:0", id64(1),
		map[string]string{"contractKind": `"contract"`})
	fn := declNode(3, "FunctionDefinition", "swap", "20:40:0", id64(2),
		map[string]string{"kind": `"function"`})
	param := declNode(4, "VariableDeclaration", "amount", "30:14:0", id64(3), nil)
	use := declNode(5, "Identifier", "amount", "50:6:0", id64(3), nil)
	use.ReferencedDeclaration = id64(4)

	for _, n := range []*ASTNode{unit, contract, fn, param, use} {
		require.NoError(t, g.register(n))
	}
	unit.ChildIDs = []int64{2}
	contract.ChildIDs = []int64{3}
	fn.ChildIDs = []int64{4, 5}
	g.addRoot(1)
	g.finalize()
	return g
}

func TestNodeGraph_DeclarationIndex(t *testing.T) {
	g := buildDeclGraph(t)

	decls := g.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, []int64{2, 3, 4}, []int64{decls[0].ID, decls[1].ID, decls[2].ID},
		"declarations in registration order")

	pool, ok := g.Declaration(2)
	require.True(t, ok)
	assert.Equal(t, KindContract, pool.Kind)
	assert.Equal(t, []string{"Pool"}, pool.QualifiedName)

	swap, ok := g.Declaration(3)
	require.True(t, ok)
	assert.Equal(t, KindFunction, swap.Kind)
	assert.Equal(t, []string{"Pool", "swap"}, swap.QualifiedName)
	assert.Equal(t, "Pool.swap", swap.Qualified())

	amount, ok := g.Declaration(4)
	require.True(t, ok)
	assert.Equal(t, KindVariable, amount.Kind)
	assert.Equal(t, []string{"Pool", "swap", "amount"}, amount.QualifiedName)

	// The identifier node references but does not declare.
	_, ok = g.Declaration(5)
	assert.False(t, ok)
	_, ok = g.Declaration(99)
	assert.False(t, ok)
}

func TestNodeGraph_ReferencesTo(t *testing.T) {
	g := buildDeclGraph(t)

	assert.Equal(t, []int64{5}, g.ReferencesTo(4))
	assert.Empty(t, g.ReferencesTo(3), "nothing references the function")
}

func TestNodeGraph_ParentChildNavigation(t *testing.T) {
	g := buildDeclGraph(t)

	children := g.Children(3)
	require.Len(t, children, 2)
	assert.Equal(t, int64(4), children[0].ID)
	assert.Equal(t, int64(5), children[1].ID)

	parent := g.Parent(4)
	require.NotNil(t, parent)
	assert.Equal(t, int64(3), parent.ID)

	assert.Nil(t, g.Parent(1), "roots have no parent")

	roots := g.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, int64(1), roots[0].ID)
}

func TestDeclarationKind_Variants(t *testing.T) {
	interfaceNode := declNode(1, "ContractDefinition", "IPool", "0:1:0", nil,
		map[string]string{"contractKind": `"interface"`})
	kind, ok := declarationKind(interfaceNode)
	require.True(t, ok)
	assert.Equal(t, KindInterface, kind)

	libraryNode := declNode(2, "ContractDefinition", "Math", "0:1:0", nil,
		map[string]string{"contractKind": `"library"`})
	kind, _ = declarationKind(libraryNode)
	assert.Equal(t, KindLibrary, kind)

	ctor := declNode(3, "FunctionDefinition", "", "0:1:0", nil,
		map[string]string{"kind": `"constructor"`})
	kind, _ = declarationKind(ctor)
	assert.Equal(t, KindConstructor, kind)

	imp := declNode(4, "ImportDirective", "", "0:1:0", nil,
		map[string]string{"absolutePath": `"src/A.sol"`, "unitAlias": `""`})
	kind, _ = declarationKind(imp)
	assert.Equal(t, KindImport, kind)

	// Expression nodes declare nothing.
	_, ok = declarationKind(&ASTNode{ID: 5, NodeType: "BinaryOperation"})
	assert.False(t, ok)
}

func TestDeclarationName_Fallbacks(t *testing.T) {
	ctor := declNode(1, "FunctionDefinition", "", "0:1:0", nil,
		map[string]string{"kind": `"constructor"`})
	assert.Equal(t, "constructor", declarationName(ctor))

	aliased := declNode(2, "ImportDirective", "", "0:1:0", nil,
		map[string]string{"absolutePath": `"src/A.sol"`, "unitAlias": `"A"`})
	assert.Equal(t, "A", declarationName(aliased))

	plain := declNode(3, "ImportDirective", "", "0:1:0", nil,
		map[string]string{"absolutePath": `"src/A.sol"`, "unitAlias": `""`})
	assert.Equal(t, "src/A.sol", declarationName(plain))

	named := declNode(4, "StructDefinition", "State", "0:1:0", nil, nil)
	assert.Equal(t, "State", declarationName(named))
}
