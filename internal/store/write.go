package store

import (
	"database/sql"
	"fmt"
)

// BuildSnapshot bundles every row exported for one build. Symbol and
// reference ids come straight from the AST, so no id remapping happens
// at write time.
type BuildSnapshot struct {
	Build       Build
	Files       []File
	Symbols     []Symbol
	References  []Reference
	Diagnostics []Diagnostic
}

// WriteBuild replaces all stored data for snap.Build.ID within a single
// transaction. Existing rows for the same build id are deleted first, so
// re-exporting a build is idempotent.
//
// Insert order respects FK dependencies:
//  1. Build header (everything else references builds.id)
//  2. Files
//  3. Symbols
//  4. References
//  5. Diagnostics
func (s *Store) WriteBuild(snap *BuildSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("write build: begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteBuildTx(tx, snap.Build.ID); err != nil {
		return fmt.Errorf("write build: %w", err)
	}

	if err := insertBuildTx(tx, &snap.Build); err != nil {
		return fmt.Errorf("write build %q: %w", snap.Build.ID, err)
	}
	for _, f := range snap.Files {
		if err := insertFileTx(tx, &f); err != nil {
			return fmt.Errorf("write build: file %q: %w", f.Path, err)
		}
	}
	for _, sym := range snap.Symbols {
		if err := insertSymbolTx(tx, &sym); err != nil {
			return fmt.Errorf("write build: symbol %q: %w", sym.Name, err)
		}
	}
	for _, ref := range snap.References {
		if err := insertReferenceTx(tx, &ref); err != nil {
			return fmt.Errorf("write build: reference %d: %w", ref.NodeID, err)
		}
	}
	for _, d := range snap.Diagnostics {
		if err := insertDiagnosticTx(tx, &d); err != nil {
			return fmt.Errorf("write build: diagnostic: %w", err)
		}
	}

	return tx.Commit()
}

// --- Transaction-scoped insert helpers ---

func insertBuildTx(tx *sql.Tx, b *Build) error {
	_, err := tx.Exec(
		`INSERT INTO builds (id, version, language, source_format, node_count, exported_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Version, b.Language, b.SourceFormat, b.NodeCount, b.ExportedAt,
	)
	return err
}

func insertFileTx(tx *sql.Tx, f *File) error {
	_, err := tx.Exec(
		`INSERT INTO files (build_id, file_index, path) VALUES (?, ?, ?)`,
		f.BuildID, f.FileIndex, f.Path,
	)
	return err
}

func insertSymbolTx(tx *sql.Tx, sym *Symbol) error {
	_, err := tx.Exec(
		`INSERT INTO symbols (build_id, id, name, kind, qualified, path,
			start_offset, length, start_line, start_col, ref_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.BuildID, sym.ID, sym.Name, sym.Kind, sym.Qualified, sym.Path,
		sym.StartOffset, sym.Length, sym.StartLine, sym.StartCol, sym.RefCount,
	)
	return err
}

func insertReferenceTx(tx *sql.Tx, ref *Reference) error {
	_, err := tx.Exec(
		`INSERT INTO refs (build_id, node_id, decl_id, path, start_offset, start_line, start_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ref.BuildID, ref.NodeID, ref.DeclID, ref.Path,
		ref.StartOffset, ref.StartLine, ref.StartCol,
	)
	return err
}

func insertDiagnosticTx(tx *sql.Tx, d *Diagnostic) error {
	_, err := tx.Exec(
		`INSERT INTO diagnostics (build_id, severity, code, message, path, start_offset, end_offset)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.BuildID, d.Severity, d.Code, d.Message, d.Path, d.StartOffset, d.EndOffset,
	)
	return err
}
