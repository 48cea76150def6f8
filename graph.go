package solgraph

import (
	"gitlab.com/tozd/go/errors"
)

// NodeGraph holds every node of one build keyed by id, plus the declaration
// index and the reverse reference index derived from them. Construction is
// two passes: the adapter registers nodes and links parent/child as it
// walks the documents, then finalize derives the indexes. After that the
// graph is frozen and safe for concurrent readers.
type NodeGraph struct {
	nodes map[int64]*ASTNode
	order []int64

	roots []int64

	decls     map[int64]*DeclarationSymbol
	declOrder []int64

	refsByDecl map[int64][]int64
}

func newNodeGraph() *NodeGraph {
	return &NodeGraph{
		nodes: make(map[int64]*ASTNode),
	}
}

// register adds a node under its id. A second node claiming the same id
// fails with ErrDuplicateID; the namespace would be ambiguous, so the
// caller must abandon the build.
func (g *NodeGraph) register(n *ASTNode) error {
	if _, ok := g.nodes[n.ID]; ok {
		return errors.Errorf("%w: %d (%s)", ErrDuplicateID, n.ID, n.NodeType)
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

func (g *NodeGraph) addRoot(id int64) {
	g.roots = append(g.roots, id)
}

// merge moves another graph's nodes and roots into this one. Adapters walk
// each source document into its own staging graph, then merge the survivors
// in document order; a file that failed mid-walk never leaves stray nodes
// behind. Merge is where ids colliding across files surface.
func (g *NodeGraph) merge(src *NodeGraph) error {
	for _, id := range src.order {
		if err := g.register(src.nodes[id]); err != nil {
			return err
		}
	}
	g.roots = append(g.roots, src.roots...)
	return nil
}

// finalize derives the declaration index and the reverse reference index.
// Both iterate registration order, so derived slices are deterministic for
// identical input.
func (g *NodeGraph) finalize() {
	g.decls = make(map[int64]*DeclarationSymbol)
	g.refsByDecl = make(map[int64][]int64)
	for _, id := range g.order {
		n := g.nodes[id]
		if kind, ok := declarationKind(n); ok {
			g.decls[id] = &DeclarationSymbol{
				ID:            id,
				Name:          declarationName(n),
				Kind:          kind,
				QualifiedName: g.qualifiedName(n),
			}
			g.declOrder = append(g.declOrder, id)
		}
		if n.ReferencedDeclaration != nil {
			target := *n.ReferencedDeclaration
			g.refsByDecl[target] = append(g.refsByDecl[target], id)
		}
	}
}

// qualifiedName walks the parent chain collecting enclosing declaration
// names, outermost first.
func (g *NodeGraph) qualifiedName(n *ASTNode) []string {
	var reversed []string
	reversed = append(reversed, declarationName(n))
	for p := n.ParentID; p != nil; {
		parent, ok := g.nodes[*p]
		if !ok {
			break
		}
		if _, isDecl := declarationKind(parent); isDecl {
			if name := declarationName(parent); name != "" {
				reversed = append(reversed, name)
			}
		}
		p = parent.ParentID
	}
	qualified := make([]string, len(reversed))
	for i, name := range reversed {
		qualified[len(reversed)-1-i] = name
	}
	return qualified
}

// Node returns the node with the given id.
func (g *NodeGraph) Node(id int64) (*ASTNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Declaration returns the declaration index entry for an id.
func (g *NodeGraph) Declaration(id int64) (*DeclarationSymbol, bool) {
	d, ok := g.decls[id]
	return d, ok
}

// Children returns a node's direct children in document order. Unknown ids
// yield nil.
func (g *NodeGraph) Children(id int64) []*ASTNode {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	children := make([]*ASTNode, 0, len(n.ChildIDs))
	for _, cid := range n.ChildIDs {
		if c, ok := g.nodes[cid]; ok {
			children = append(children, c)
		}
	}
	return children
}

// Parent returns a node's parent, nil for roots and unknown ids.
func (g *NodeGraph) Parent(id int64) *ASTNode {
	n, ok := g.nodes[id]
	if !ok || n.ParentID == nil {
		return nil
	}
	return g.nodes[*n.ParentID]
}

// Roots lists the source-unit roots in the order their documents were
// walked.
func (g *NodeGraph) Roots() []*ASTNode {
	roots := make([]*ASTNode, 0, len(g.roots))
	for _, id := range g.roots {
		roots = append(roots, g.nodes[id])
	}
	return roots
}

// Declarations lists the declaration index in registration order.
func (g *NodeGraph) Declarations() []*DeclarationSymbol {
	decls := make([]*DeclarationSymbol, 0, len(g.declOrder))
	for _, id := range g.declOrder {
		decls = append(decls, g.decls[id])
	}
	return decls
}

// ReferencesTo lists the ids of nodes whose referencedDeclaration points at
// declID, in registration order.
func (g *NodeGraph) ReferencesTo(declID int64) []int64 {
	return g.refsByDecl[declID]
}

// Len is the number of registered nodes.
func (g *NodeGraph) Len() int {
	return len(g.order)
}

// walk visits every node reachable from id in document order, depth first,
// id's own node included.
func (g *NodeGraph) walk(id int64, visit func(*ASTNode) bool) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	if !visit(n) {
		return
	}
	for _, cid := range n.ChildIDs {
		g.walk(cid, visit)
	}
}
