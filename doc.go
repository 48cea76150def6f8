// Package solgraph builds a cross-reference index over Solidity AST dumps.
// It decodes the JSON the compiler and build tools emit, links every node
// into a parent/child graph, and answers the editor-style questions those
// dumps encode: where is this symbol defined, who references it, what does
// a file import, who calls this function.
//
// # Pipeline
//
// Loading runs in three phases per build:
//
//  1. Adapt: detect the document format (direct compiler output with a
//     sourceList, or build-tool output with build_infos) and walk each
//     source AST into a staging graph, in document order.
//
//  2. Link: merge the staging graphs, indexing declarations and collecting
//     reference edges. A duplicate node id is corrupt input and drops the
//     affected build.
//
//  3. Freeze: finalize the graph and position index into an immutable
//     [Build]. Builds never mutate; reloading compiler output replaces
//     them wholesale, so concurrent readers need no locks.
//
// # Usage
//
// Create an Index, load compiler output, and query:
//
//	x := solgraph.NewIndex()
//
//	ctx := context.Background()
//	builds, err := x.LoadFile(ctx, "out/build-info/abc.json")
//	if err != nil { ... }
//
//	loc, err := x.GetDefinition(builds[0].ID(), 4805)
//	refs, err := x.FindReferences(builds[0].ID(), 4805)
//
// # Query API
//
// All queries take a build id; node and declaration ids only have meaning
// inside one build.
//
//   - [Index.GetDefinition]: where a declaration id is defined.
//   - [Index.FindReferences]: every node referencing a declaration.
//   - [Index.DefinitionAt]: go-to-definition from a file position.
//   - [Index.ListSymbols]: filtered, sorted, paginated declaration listing.
//   - [Index.ContractHierarchy]: base and derived contracts.
//   - [Index.Callers], [Index.Callees]: call graph edges around a function.
//   - [Index.ImportGraph], [Index.ImportCycles]: file dependency structure.
//
// # Spans and positions
//
// The compiler locates nodes with "start:length:fileIndex" spans measured
// in bytes. [ParseSpan] decodes them; a build's [SourceRegistry] maps file
// indexes back to paths and, when source text is available, converts byte
// offsets to line/column positions, including the UTF-16 columns editors
// speak.
//
// # Snapshots
//
// [Index.Export] writes the queryable surface of every build to a SQLite
// file: symbols, references, file registries, and diagnostics. Snapshots
// serve tooling that wants cross-reference data without re-parsing AST
// dumps.
package solgraph
