package solgraph

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

// buildInfoDocument is build-tool output: forge's combined AST dump. One
// document can hold several compilations; build_infos declares them and
// every source entry names its build with build_id.
type buildInfoDocument struct {
	BuildInfos []buildInfoEntry            `json:"build_infos"`
	Sources    map[string][]buildSourceRef `json:"sources"`
	Errors     []json.RawMessage           `json:"errors"`
}

type buildInfoEntry struct {
	ID             string            `json:"id"`
	SourceIDToPath map[string]string `json:"source_id_to_path"`
	Language       string            `json:"language"`
}

type buildSourceRef struct {
	SourceFile *struct {
		ID  *int            `json:"id"`
		AST json.RawMessage `json:"ast"`
	} `json:"source_file"`
	Version string `json:"version"`
	BuildID string `json:"build_id"`
	Profile string `json:"profile"`
}

// ParseBuildOutput decodes build-tool output into one Build per build_infos
// entry. Entries are never merged: node ids repeat freely across builds, so
// each entry gets its own graph and registry keyed by the tool's build id.
//
// Partial mode skips source entries that fail to decode; a duplicate node
// id inside one build drops that whole build and the rest still load.
// Strict mode fails on the first problem of either kind.
func ParseBuildOutput(ctx context.Context, data []byte, opts ParseOptions) ([]*Build, error) {
	var doc buildInfoDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Errorf("solgraph: parse build output: %w: %v", ErrSchema, err)
	}
	if doc.BuildInfos == nil {
		return nil, errors.Errorf("solgraph: parse build output: %w: missing build_infos", ErrSchema)
	}

	type assembly struct {
		entry    buildInfoEntry
		registry *SourceRegistry
		graph    *NodeGraph
		version  string
		diags    []Diagnostic
		failed   bool
	}
	assemblies := make(map[string]*assembly, len(doc.BuildInfos))
	order := make([]string, 0, len(doc.BuildInfos))
	for i, entry := range doc.BuildInfos {
		if entry.ID == "" {
			return nil, errors.Errorf("solgraph: parse build output: %w: build info %d missing id", ErrSchema, i)
		}
		if entry.SourceIDToPath == nil {
			return nil, errors.Errorf("solgraph: parse build output: %w: build %s missing source_id_to_path", ErrSchema, entry.ID)
		}
		if _, ok := assemblies[entry.ID]; ok {
			return nil, errors.Errorf("solgraph: parse build output: %w: build id %s declared twice", ErrSchema, entry.ID)
		}
		registry, err := buildRegistry(entry.SourceIDToPath)
		if err != nil {
			return nil, errors.Errorf("solgraph: parse build output: build %s: %w", entry.ID, err)
		}
		assemblies[entry.ID] = &assembly{entry: entry, registry: registry, graph: newNodeGraph()}
		order = append(order, entry.ID)
	}

	// One walk job per source entry, spanning all builds so parallel mode
	// saturates regardless of how entries distribute across builds.
	var (
		jobs      []walkJob
		jobBuild  []string
		jobRef    []buildSourceRef
		skipEntry = func(path string, err error) error {
			if opts.Strict {
				return errors.Errorf("solgraph: parse build output: source %s: %w", path, err)
			}
			slog.WarnContext(ctx, "skipping source entry", "adapter.file", path, "err", err)
			return nil
		}
	)
	paths := make([]string, 0, len(doc.Sources))
	for p := range doc.Sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, path := range paths {
		for _, ref := range doc.Sources[path] {
			if _, ok := assemblies[ref.BuildID]; !ok {
				if err := skipEntry(path, errors.Errorf("%w: entry names unknown build %q", ErrSchema, ref.BuildID)); err != nil {
					return nil, err
				}
				continue
			}
			var ast json.RawMessage
			if ref.SourceFile != nil {
				ast = ref.SourceFile.AST
			}
			jobs = append(jobs, walkJob{path: path, ast: ast})
			jobBuild = append(jobBuild, ref.BuildID)
			jobRef = append(jobRef, ref)
		}
	}

	results, err := walkAll(ctx, jobs, opts)
	if err != nil {
		return nil, errors.Errorf("solgraph: parse build output: %w", err)
	}

	for i, res := range results {
		asm := assemblies[jobBuild[i]]
		if asm.failed {
			continue
		}
		err := res.err
		if err == nil {
			if err = asm.graph.merge(res.graph); err != nil {
				err = errors.Errorf("source %s: %w", jobs[i].path, err)
			}
		}
		switch {
		case err == nil:
			if asm.version == "" {
				asm.version = jobRef[i].Version
			}
		case errors.Is(err, ErrDuplicateID):
			// Fatal for this build only; the document's other builds have
			// their own id namespaces and still load.
			if opts.Strict {
				return nil, errors.Errorf("solgraph: parse build output: build %s: %w", jobBuild[i], err)
			}
			asm.failed = true
			slog.ErrorContext(ctx, "dropping build", "build.id", jobBuild[i], "err", err)
		default:
			slog.WarnContext(ctx, "skipping source entry",
				"adapter.file", jobs[i].path, "build.id", jobBuild[i], "err", err)
		}
	}

	// Compiler diagnostics attach to every build that knows the path;
	// forge reports them once per document, not per build.
	for _, diag := range parseDiagnostics(doc.Errors) {
		attached := false
		for _, id := range order {
			asm := assemblies[id]
			if asm.registry.Contains(diag.Path) {
				asm.diags = append(asm.diags, diag)
				attached = true
			}
		}
		if !attached {
			slog.DebugContext(ctx, "diagnostic names unknown path", "adapter.file", diag.Path)
		}
	}

	builds := make([]*Build, 0, len(order))
	for _, id := range order {
		asm := assemblies[id]
		if asm.failed {
			continue
		}
		bctx := slogctx.With(ctx, "build.id", id)
		if err := checkVersion(asm.version); err != nil {
			slog.WarnContext(bctx, "compiler version below supported minimum", "build.version", asm.version)
			asm.diags = append(asm.diags, versionDiagnostic(err))
		}
		b := freeze(id, asm.version, asm.entry.Language, FormatBuildInfo, asm.graph, asm.registry, asm.diags)
		slog.DebugContext(bctx, "build indexed",
			"build.files", b.Sources().Len(),
			"build.nodes", b.NodeCount(),
			"build.version", b.Version())
		builds = append(builds, b)
	}
	return builds, nil
}

// buildRegistry decodes a source_id_to_path table, whose file indexes
// arrive as JSON object keys and therefore as strings.
func buildRegistry(sourceIDToPath map[string]string) (*SourceRegistry, error) {
	keys := make([]int, 0, len(sourceIDToPath))
	byKey := make(map[int]string, len(sourceIDToPath))
	for k, path := range sourceIDToPath {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, errors.Errorf("%w: file index %q is not an integer", ErrSchema, k)
		}
		keys = append(keys, idx)
		byKey[idx] = path
	}
	sort.Ints(keys)
	registry := newSourceRegistry()
	for _, idx := range keys {
		if err := registry.add(idx, byKey[idx]); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
