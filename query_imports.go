package solgraph

import (
	"sort"
	"strings"
)

// FileGraph is the file-to-file import graph of one build.
type FileGraph struct {
	Files []FileNode   `json:"files"`
	Edges []ImportEdge `json:"edges"`
}

// FileNode is one source file in the import graph with its fan-out and
// fan-in.
type FileNode struct {
	Index     int    `json:"index"`
	Path      string `json:"path"`
	Imports   int    `json:"imports"`
	Importers int    `json:"importers"`
}

// ImportEdge is one import directive: the file holding the directive, the
// file it pulls in, and the directive node.
type ImportEdge struct {
	FromPath  string `json:"fromPath"`
	ToPath    string `json:"toPath"`
	UnitAlias string `json:"unitAlias,omitempty"`
	NodeID    int64  `json:"nodeId"`
}

// ImportGraph returns a build's import graph, derived from its import
// directives. The compiler records each directive's resolved target in
// absolutePath, so edges need no path guessing. Edges sort by from-path
// then to-path; files list in file-index order.
func (x *Index) ImportGraph(buildID string) (*FileGraph, error) {
	b, err := x.Build(buildID)
	if err != nil {
		return nil, err
	}

	edges := []ImportEdge{}
	for _, decl := range b.Declarations() {
		if decl.Kind != KindImport {
			continue
		}
		n, ok := b.Node(decl.ID)
		if !ok {
			continue
		}
		to := n.attrString("absolutePath")
		if to == "" {
			continue
		}
		sp, err := n.Span()
		if err != nil {
			continue
		}
		from, err := b.sources.ResolvePath(sp.FileIndex)
		if err != nil {
			continue
		}
		edges = append(edges, ImportEdge{
			FromPath:  from,
			ToPath:    to,
			UnitAlias: n.attrString("unitAlias"),
			NodeID:    n.ID,
		})
	}
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].FromPath != edges[j].FromPath {
			return edges[i].FromPath < edges[j].FromPath
		}
		return edges[i].ToPath < edges[j].ToPath
	})

	outCount := map[string]int{}
	inCount := map[string]int{}
	for _, e := range edges {
		outCount[e.FromPath]++
		inCount[e.ToPath]++
	}
	files := []FileNode{}
	for _, f := range b.Sources().Files() {
		files = append(files, FileNode{
			Index:     f.Index,
			Path:      f.Path,
			Imports:   outCount[f.Path],
			Importers: inCount[f.Path],
		})
	}
	return &FileGraph{Files: files, Edges: edges}, nil
}

// FileImports lists the edges leaving a file; path matches exactly or by
// suffix.
func (x *Index) FileImports(buildID, path string) ([]ImportEdge, error) {
	return x.fileEdges(buildID, path, func(e ImportEdge) string { return e.FromPath })
}

// FileImporters lists the edges arriving at a file; path matches exactly
// or by suffix.
func (x *Index) FileImporters(buildID, path string) ([]ImportEdge, error) {
	return x.fileEdges(buildID, path, func(e ImportEdge) string { return e.ToPath })
}

func (x *Index) fileEdges(buildID, path string, side func(ImportEdge) string) ([]ImportEdge, error) {
	graph, err := x.ImportGraph(buildID)
	if err != nil {
		return nil, err
	}
	edges := []ImportEdge{}
	for _, e := range graph.Edges {
		p := side(e)
		if p == path || strings.HasSuffix(p, path) {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

// ImportCycles detects import cycles in a build with Tarjan's strongly
// connected components. Each cycle lists its file paths with the first
// repeated at the end. Acyclic builds return an empty list, not nil.
// Solidity tolerates import cycles, so these are reported, not errors.
func (x *Index) ImportCycles(buildID string) ([][]string, error) {
	graph, err := x.ImportGraph(buildID)
	if err != nil {
		return nil, err
	}

	adj := map[string][]string{}
	selfLoops := map[string]bool{}
	for _, e := range graph.Edges {
		if e.FromPath == e.ToPath {
			selfLoops[e.FromPath] = true
		}
		adj[e.FromPath] = append(adj[e.FromPath], e.ToPath)
	}

	type nodeInfo struct {
		index   int
		lowlink int
		onStack bool
	}
	info := map[string]*nodeInfo{}
	index := 0
	var stack []string
	var result [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		ni := &nodeInfo{index: index, lowlink: index, onStack: true}
		info[v] = ni
		index++
		stack = append(stack, v)

		for _, w := range adj[v] {
			wInfo, visited := info[w]
			if !visited {
				strongconnect(w)
				wInfo = info[w]
				if wInfo.lowlink < ni.lowlink {
					ni.lowlink = wInfo.lowlink
				}
			} else if wInfo.onStack {
				if wInfo.index < ni.lowlink {
					ni.lowlink = wInfo.index
				}
			}
		}

		if ni.lowlink == ni.index {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				info[w].onStack = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			if len(scc) > 1 || selfLoops[scc[0]] {
				// Tarjan pops in reverse; flip for a natural cycle order.
				for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
					scc[i], scc[j] = scc[j], scc[i]
				}
				scc = append(scc, scc[0])
				result = append(result, scc)
			}
		}
	}

	for _, f := range graph.Files {
		if _, visited := info[f.Path]; !visited {
			strongconnect(f.Path)
		}
	}

	if result == nil {
		result = [][]string{}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i][0] < result[j][0]
	})
	return result, nil
}
