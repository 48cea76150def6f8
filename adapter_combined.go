package solgraph

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"gitlab.com/tozd/go/errors"
)

// combinedDocument is direct compiler output: solc --combined-json ast or a
// standard-JSON result written to one file. sourceList fixes the file
// indexes spans count with; sources holds one AST per path.
type combinedDocument struct {
	Version    string                    `json:"version"`
	SourceList []string                  `json:"sourceList"`
	Sources    map[string]combinedSource `json:"sources"`
}

type combinedSource struct {
	// combined-json spells the key AST; standard JSON spells it ast.
	Upper json.RawMessage `json:"AST"`
	Lower json.RawMessage `json:"ast"`
}

func (s combinedSource) ast() json.RawMessage {
	if s.Upper != nil {
		return s.Upper
	}
	return s.Lower
}

// ParseCombined decodes direct compiler output into a single build. The
// whole document is one compilation, so it yields exactly one build with a
// generated id.
//
// In partial mode (the default), a source entry that fails to decode is
// logged and skipped and the rest of the document still indexes; strict
// mode fails on the first bad entry. Duplicate node ids abort either way,
// since the one build the document describes is unusable.
func ParseCombined(ctx context.Context, data []byte, opts ParseOptions) (*Build, error) {
	var doc combinedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Errorf("solgraph: parse combined: %w: %v", ErrSchema, err)
	}
	if doc.Sources == nil {
		return nil, errors.Errorf("solgraph: parse combined: %w: missing sources", ErrSchema)
	}
	if doc.SourceList == nil {
		return nil, errors.Errorf("solgraph: parse combined: %w: missing sourceList", ErrSchema)
	}

	registry := newSourceRegistry()
	for i, path := range doc.SourceList {
		if err := registry.add(i, path); err != nil {
			return nil, errors.Errorf("solgraph: parse combined: %w", err)
		}
	}

	var diags []Diagnostic
	if err := checkVersion(doc.Version); err != nil {
		slog.WarnContext(ctx, "compiler version below supported minimum", "build.version", doc.Version)
		diags = append(diags, versionDiagnostic(err))
	}

	jobs := make([]walkJob, 0, len(doc.Sources))
	for _, path := range orderedSourcePaths(doc) {
		jobs = append(jobs, walkJob{path: path, ast: doc.Sources[path].ast()})
	}
	results, err := walkAll(ctx, jobs, opts)
	if err != nil {
		return nil, errors.Errorf("solgraph: parse combined: %w", err)
	}

	graph := newNodeGraph()
	skipped := 0
	for i, res := range results {
		if res.err != nil {
			// A duplicate id poisons the one build this document holds, so
			// it aborts even in partial mode.
			if errors.Is(res.err, ErrDuplicateID) {
				return nil, errors.Errorf("solgraph: parse combined: %w", res.err)
			}
			skipped++
			slog.WarnContext(ctx, "skipping source file", "adapter.file", jobs[i].path, "err", res.err)
			continue
		}
		if err := graph.merge(res.graph); err != nil {
			return nil, errors.Errorf("solgraph: parse combined: source %s: %w", jobs[i].path, err)
		}
	}

	build := freeze(newBuildID(), doc.Version, "", FormatCombined, graph, registry, diags)
	slog.DebugContext(ctx, "combined document indexed",
		"build.id", build.ID(),
		"build.files", registry.Len(),
		"build.nodes", build.NodeCount(),
		"build.skipped", skipped)
	return build, nil
}

// orderedSourcePaths fixes the processing order for the sources map:
// sourceList order first, then any stragglers the list does not mention in
// sorted order. Indexing the same input twice must walk files identically.
func orderedSourcePaths(doc combinedDocument) []string {
	paths := make([]string, 0, len(doc.Sources))
	seen := make(map[string]bool, len(doc.Sources))
	for _, p := range doc.SourceList {
		if _, ok := doc.Sources[p]; ok && !seen[p] {
			paths = append(paths, p)
			seen[p] = true
		}
	}
	var extra []string
	for p := range doc.Sources {
		if !seen[p] {
			extra = append(extra, p)
		}
	}
	sort.Strings(extra)
	return append(paths, extra...)
}
