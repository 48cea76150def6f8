package solgraph

import (
	"gitlab.com/tozd/go/errors"
)

// CallEdge is one call site: the function-like declaration the call sits
// in, the declaration it targets, and the referencing node marking the
// site.
type CallEdge struct {
	CallerID int64 `json:"callerId"`
	CalleeID int64 `json:"calleeId"`
	SiteID   int64 `json:"siteId"`
	Site     Span  `json:"site"`
}

// CallGraph is a transitive call graph rooted at one declaration.
type CallGraph struct {
	Root  int64           `json:"root"`
	Nodes []CallGraphNode `json:"nodes"`
	Edges []CallEdge      `json:"edges"`
	Depth int             `json:"depth"`
}

// CallGraphNode is a declaration in the call graph with its BFS distance
// from the root.
type CallGraphNode struct {
	Symbol SymbolInfo `json:"symbol"`
	Depth  int        `json:"depth"`
}

// callEdges derives the build's call edges: every reference sitting inside
// a function, constructor, or modifier whose target is callable. Emit and
// revert statements count, since events and custom errors resolve through
// the same reference links. Edges come out in document order.
func callEdges(b *Build) []CallEdge {
	var edges []CallEdge
	for _, id := range b.graph.order {
		n := b.graph.nodes[id]
		if n.ReferencedDeclaration == nil {
			continue
		}
		target, ok := b.graph.Declaration(*n.ReferencedDeclaration)
		if !ok || !calleeKind(target.Kind) {
			continue
		}
		caller := b.enclosingCallable(n)
		if caller == nil {
			continue
		}
		sp, _ := n.Span()
		edges = append(edges, CallEdge{CallerID: caller.ID, CalleeID: target.ID, SiteID: id, Site: sp})
	}
	return edges
}

func callerKind(k SymbolKind) bool {
	switch k {
	case KindFunction, KindConstructor, KindModifier:
		return true
	}
	return false
}

func calleeKind(k SymbolKind) bool {
	switch k {
	case KindFunction, KindConstructor, KindModifier, KindEvent, KindError:
		return true
	}
	return false
}

// enclosingCallable walks the parent chain to the function, constructor,
// or modifier a node sits in, nil for nodes outside any callable, such as
// state variable initializers.
func (b *Build) enclosingCallable(n *ASTNode) *DeclarationSymbol {
	for p := b.graph.Parent(n.ID); p != nil; p = b.graph.Parent(p.ID) {
		if kind, ok := declarationKind(p); ok && callerKind(kind) {
			if decl, ok := b.graph.Declaration(p.ID); ok {
				return decl
			}
		}
	}
	return nil
}

// Callers lists the direct call edges targeting a declaration, in document
// order. Returns nil with no error when the id is not a declaration in the
// build.
func (x *Index) Callers(buildID string, declID int64) ([]CallEdge, error) {
	b, err := x.Build(buildID)
	if err != nil {
		return nil, err
	}
	if _, ok := b.Declaration(declID); !ok {
		return nil, nil
	}
	edges := []CallEdge{}
	for _, e := range callEdges(b) {
		if e.CalleeID == declID {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

// Callees lists the direct call edges originating in a declaration, in
// document order. Returns nil with no error when the id is not a
// declaration in the build.
func (x *Index) Callees(buildID string, declID int64) ([]CallEdge, error) {
	b, err := x.Build(buildID)
	if err != nil {
		return nil, err
	}
	if _, ok := b.Declaration(declID); !ok {
		return nil, nil
	}
	edges := []CallEdge{}
	for _, e := range callEdges(b) {
		if e.CallerID == declID {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

// TransitiveCallers returns all transitive callers of a declaration up to
// maxDepth, walking the reverse adjacency with BFS over bulk-derived
// edges. maxDepth of 0 returns only the root; negative is an error; capped
// at 100. Returns nil, nil when the id is not a declaration in the build.
func (x *Index) TransitiveCallers(buildID string, declID int64, maxDepth int) (*CallGraph, error) {
	return x.transitiveCalls(buildID, declID, maxDepth, false)
}

// TransitiveCallees returns all transitive callees of a declaration up to
// maxDepth. Same contract as TransitiveCallers, walking forward edges.
func (x *Index) TransitiveCallees(buildID string, declID int64, maxDepth int) (*CallGraph, error) {
	return x.transitiveCalls(buildID, declID, maxDepth, true)
}

func (x *Index) transitiveCalls(buildID string, declID int64, maxDepth int, forward bool) (*CallGraph, error) {
	if maxDepth < 0 {
		return nil, errors.Errorf("solgraph: transitive calls: maxDepth must be non-negative, got %d", maxDepth)
	}
	if maxDepth > 100 {
		maxDepth = 100
	}
	b, err := x.Build(buildID)
	if err != nil {
		return nil, err
	}
	root, ok := b.Declaration(declID)
	if !ok {
		return nil, nil
	}

	result := &CallGraph{
		Root:  declID,
		Nodes: []CallGraphNode{{Symbol: x.symbolInfo(b, root), Depth: 0}},
		Edges: []CallEdge{},
	}
	if maxDepth == 0 {
		return result, nil
	}

	edges := callEdges(b)
	adjacency := make(map[int64][]int64)
	for _, e := range edges {
		if forward {
			adjacency[e.CallerID] = append(adjacency[e.CallerID], e.CalleeID)
		} else {
			adjacency[e.CalleeID] = append(adjacency[e.CalleeID], e.CallerID)
		}
	}

	type bfsEntry struct {
		id    int64
		depth int
	}
	visited := map[int64]int{declID: 0}
	var visitOrder []int64
	queue := []bfsEntry{{id: declID, depth: 0}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= maxDepth {
			continue
		}
		for _, next := range adjacency[current.id] {
			if _, seen := visited[next]; seen {
				continue
			}
			depth := current.depth + 1
			visited[next] = depth
			visitOrder = append(visitOrder, next)
			if depth > result.Depth {
				result.Depth = depth
			}
			queue = append(queue, bfsEntry{id: next, depth: depth})
		}
	}

	for _, id := range visitOrder {
		if decl, ok := b.Declaration(id); ok {
			result.Nodes = append(result.Nodes, CallGraphNode{Symbol: x.symbolInfo(b, decl), Depth: visited[id]})
		}
	}
	for _, e := range edges {
		_, callerSeen := visited[e.CallerID]
		_, calleeSeen := visited[e.CalleeID]
		if callerSeen && calleeSeen {
			result.Edges = append(result.Edges, e)
		}
	}
	return result, nil
}
