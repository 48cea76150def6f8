package solgraph

import (
	"sort"

	"github.com/rs/xid"
	"gitlab.com/tozd/go/errors"
)

// SourceFormat names the input document shape a build came from.
type SourceFormat string

const (
	// FormatCombined is direct compiler output: top-level sources keyed by
	// path with a sourceList array fixing file indexes.
	FormatCombined SourceFormat = "combined"

	// FormatBuildInfo is build-tool output: a build_infos array where each
	// entry carries its own source_id_to_path table.
	FormatBuildInfo SourceFormat = "build-info"
)

// Build is one compilation unit: a frozen node graph, its source registry,
// and the diagnostics the compiler attached. Node and declaration ids are
// scoped to the build; the same id in two builds names unrelated nodes.
//
// A build never mutates after construction, so any number of goroutines may
// query it concurrently. There is no update path: callers replace a build
// by loading fresh compiler output.
type Build struct {
	id       string
	version  string
	language string
	format   SourceFormat

	graph    *NodeGraph
	sources  *SourceRegistry
	diags    []Diagnostic
	posIndex *positionIndex
}

// newBuildID mints an id for builds whose input carries none; direct
// compiler output has no build identity of its own.
func newBuildID() string {
	return "build-" + xid.New().String()
}

// ID is the build identifier: the build-tool's id verbatim for build-info
// input, a generated "build-" id for combined input.
func (b *Build) ID() string { return b.id }

// Version is the compiler version recorded in the input, "" when absent.
func (b *Build) Version() string { return b.version }

// Language is the source language recorded by the build tool, "" for
// combined input.
func (b *Build) Language() string { return b.language }

// Format reports which adapter produced the build.
func (b *Build) Format() SourceFormat { return b.format }

// Sources is the build's file-index registry.
func (b *Build) Sources() *SourceRegistry { return b.sources }

// Node returns the node with the given id.
func (b *Build) Node(id int64) (*ASTNode, bool) { return b.graph.Node(id) }

// Declaration returns the declaration index entry for an id.
func (b *Build) Declaration(id int64) (*DeclarationSymbol, bool) { return b.graph.Declaration(id) }

// Children returns a node's direct children in document order.
func (b *Build) Children(id int64) []*ASTNode { return b.graph.Children(id) }

// Parent returns a node's parent, nil for source-unit roots.
func (b *Build) Parent(id int64) *ASTNode { return b.graph.Parent(id) }

// Roots lists the build's source-unit nodes.
func (b *Build) Roots() []*ASTNode { return b.graph.Roots() }

// Declarations lists the declaration index in document order.
func (b *Build) Declarations() []*DeclarationSymbol { return b.graph.Declarations() }

// NodeCount is the number of nodes in the graph.
func (b *Build) NodeCount() int { return b.graph.Len() }

// Diagnostics lists compiler messages attached to this build.
func (b *Build) Diagnostics() []Diagnostic {
	diags := make([]Diagnostic, len(b.diags))
	copy(diags, b.diags)
	return diags
}

// NodeAtOffset returns the innermost node covering a byte offset in the
// given file: the deepest node whose span contains the offset. The second
// return is false when no node covers it.
func (b *Build) NodeAtOffset(fileIndex, offset int) (*ASTNode, bool) {
	id, ok := b.posIndex.innermost(fileIndex, offset)
	if !ok {
		return nil, false
	}
	return b.graph.Node(id)
}

// NodeAtPosition is NodeAtOffset addressed by path and position instead of
// file index and byte offset.
func (b *Build) NodeAtPosition(path string, pos Position) (*ASTNode, error) {
	f, ok := b.sources.FileByPath(path)
	if !ok {
		return nil, errors.Errorf("%w: no index entry for %s", ErrNoSource, path)
	}
	offset, err := f.Offset(pos)
	if err != nil {
		return nil, err
	}
	n, ok := b.NodeAtOffset(f.Index, offset)
	if !ok {
		return nil, nil
	}
	return n, nil
}

// freeze finalizes the graph, builds the position index, and wraps
// everything into an immutable Build.
func freeze(id, version, language string, format SourceFormat, graph *NodeGraph, sources *SourceRegistry, diags []Diagnostic) *Build {
	graph.finalize()
	return &Build{
		id:       id,
		version:  version,
		language: language,
		format:   format,
		graph:    graph,
		sources:  sources,
		diags:    diags,
		posIndex: buildPositionIndex(graph),
	}
}

// --- Position index ---

type posEntry struct {
	start, end int
	depth      int
	id         int64
}

// positionIndex maps byte offsets to nodes, per file. Entries sort by start
// offset so innermost lookup can stop scanning at the first entry past the
// target.
type positionIndex struct {
	byFile map[int][]posEntry
}

func buildPositionIndex(g *NodeGraph) *positionIndex {
	px := &positionIndex{byFile: make(map[int][]posEntry)}
	for _, id := range g.order {
		n := g.nodes[id]
		sp, err := ParseSpan(n.Src)
		if err != nil || sp.Length < 0 {
			continue
		}
		px.byFile[sp.FileIndex] = append(px.byFile[sp.FileIndex], posEntry{
			start: sp.Start,
			end:   sp.End(),
			depth: n.depth,
			id:    id,
		})
	}
	for fi, entries := range px.byFile {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].start != entries[j].start {
				return entries[i].start < entries[j].start
			}
			return entries[i].depth > entries[j].depth
		})
		px.byFile[fi] = entries
	}
	return px
}

// innermost returns the deepest node whose span contains the offset. Ties
// on depth break toward the earliest start, which keeps repeated lookups
// stable.
func (px *positionIndex) innermost(fileIndex, offset int) (int64, bool) {
	entries := px.byFile[fileIndex]
	var (
		best  posEntry
		found bool
	)
	for _, e := range entries {
		if e.start > offset {
			break
		}
		if offset >= e.end {
			continue
		}
		if !found || e.depth > best.depth {
			best = e
			found = true
		}
	}
	return best.id, found
}
