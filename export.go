package solgraph

import (
	"context"
	"log/slog"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/jward/solgraph/internal/store"
)

// Export writes every build in the index to a SQLite snapshot at dbPath,
// creating the schema if needed. Re-exporting a build id replaces its rows.
//
// Line and column columns are filled best-effort: they need source text,
// so symbols in files that are neither seeded nor readable from disk get
// NULL there while their byte offsets are always present.
func (x *Index) Export(ctx context.Context, dbPath string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return errors.Errorf("solgraph: export: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return errors.Errorf("solgraph: export: %w", err)
	}
	return x.ExportTo(ctx, st)
}

// ExportTo writes every build to an already opened snapshot store. The
// store must be migrated.
func (x *Index) ExportTo(ctx context.Context, st store.SnapshotStore) error {
	for _, b := range x.Builds() {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := snapshotBuild(b)
		if err := st.WriteBuild(snap); err != nil {
			return errors.Errorf("solgraph: export build %s: %w", b.ID(), err)
		}
		slog.DebugContext(ctx, "build exported",
			"build.id", b.ID(),
			"export.symbols", len(snap.Symbols),
			"export.refs", len(snap.References))
	}
	return nil
}

// snapshotBuild flattens one build into snapshot rows: header, file
// registry, declaration index with reference counts, reference links, and
// diagnostics.
func snapshotBuild(b *Build) *store.BuildSnapshot {
	snap := &store.BuildSnapshot{
		Build: store.Build{
			ID:           b.ID(),
			Version:      b.Version(),
			Language:     b.Language(),
			SourceFormat: string(b.Format()),
			NodeCount:    int64(b.NodeCount()),
			ExportedAt:   time.Now().UTC(),
		},
	}

	for _, f := range b.Sources().Files() {
		snap.Files = append(snap.Files, store.File{
			BuildID:   b.ID(),
			FileIndex: int64(f.Index),
			Path:      f.Path,
		})
	}

	for _, decl := range b.Declarations() {
		refs := b.graph.ReferencesTo(decl.ID)
		row := store.Symbol{
			BuildID:   b.ID(),
			ID:        decl.ID,
			Name:      decl.Name,
			Kind:      string(decl.Kind),
			Qualified: decl.Qualified(),
			RefCount:  int64(len(refs)),
		}
		if n, ok := b.Node(decl.ID); ok {
			if sp, err := definerSpan(n); err == nil {
				row.StartOffset = int64(sp.Start)
				row.Length = int64(sp.Length)
				if path, err := b.sources.ResolvePath(sp.FileIndex); err == nil {
					row.Path = path
				}
				row.StartLine, row.StartCol = exportLineCol(b.sources, sp)
			}
		}
		snap.Symbols = append(snap.Symbols, row)

		for _, nodeID := range refs {
			ref := store.Reference{
				BuildID: b.ID(),
				NodeID:  nodeID,
				DeclID:  decl.ID,
			}
			if n, ok := b.Node(nodeID); ok {
				if sp, err := n.Span(); err == nil {
					ref.StartOffset = int64(sp.Start)
					if path, err := b.sources.ResolvePath(sp.FileIndex); err == nil {
						ref.Path = path
					}
					ref.StartLine, ref.StartCol = exportLineCol(b.sources, sp)
				}
			}
			snap.References = append(snap.References, ref)
		}
	}

	for _, d := range b.Diagnostics() {
		snap.Diagnostics = append(snap.Diagnostics, store.Diagnostic{
			BuildID:     b.ID(),
			Severity:    string(d.Severity),
			Code:        d.Code,
			Message:     d.Message,
			Path:        d.Path,
			StartOffset: int64(d.Start),
			EndOffset:   int64(d.End),
		})
	}
	return snap
}

// exportLineCol converts a span start to line and column when the file's
// text is available, nil otherwise.
func exportLineCol(reg *SourceRegistry, sp Span) (*int64, *int64) {
	pos, err := reg.Position(sp.FileIndex, sp.Start)
	if err != nil {
		return nil, nil
	}
	line, col := int64(pos.Line), int64(pos.Column)
	return &line, &col
}
