package store

import (
	"database/sql"
	"fmt"
)

// --- Build operations ---

const buildCols = `id, version, language, source_format, node_count, exported_at`

func (s *Store) scanBuild(scanner interface{ Scan(...any) error }) (*Build, error) {
	b := &Build{}
	err := scanner.Scan(&b.ID, &b.Version, &b.Language, &b.SourceFormat, &b.NodeCount, &b.ExportedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) Builds() ([]*Build, error) {
	rows, err := s.db.Query("SELECT " + buildCols + " FROM builds ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("builds: %w", err)
	}
	defer rows.Close()
	var builds []*Build
	for rows.Next() {
		b, err := s.scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

func (s *Store) BuildByID(id string) (*Build, error) {
	b, err := s.scanBuild(s.db.QueryRow(
		"SELECT "+buildCols+" FROM builds WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("build by id: %w", err)
	}
	return b, nil
}

// --- File operations ---

func (s *Store) FilesByBuild(buildID string) ([]*File, error) {
	rows, err := s.db.Query(
		"SELECT build_id, file_index, path FROM files WHERE build_id = ? ORDER BY file_index", buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("files by build: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.BuildID, &f.FileIndex, &f.Path); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Symbol operations ---

const symbolCols = `build_id, id, name, kind, qualified, path,
	start_offset, length, start_line, start_col, ref_count`

func (s *Store) scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	err := scanner.Scan(
		&sym.BuildID, &sym.ID, &sym.Name, &sym.Kind, &sym.Qualified, &sym.Path,
		&sym.StartOffset, &sym.Length, &sym.StartLine, &sym.StartCol, &sym.RefCount,
	)
	if err != nil {
		return nil, err
	}
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := s.scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

func (s *Store) SymbolsByBuild(buildID string) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+" FROM symbols WHERE build_id = ? ORDER BY id", buildID,
	)
}

func (s *Store) SymbolsByName(buildID, name string) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+" FROM symbols WHERE build_id = ? AND name = ? ORDER BY id",
		buildID, name,
	)
}

func (s *Store) SymbolsByKind(buildID, kind string) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+symbolCols+" FROM symbols WHERE build_id = ? AND kind = ? ORDER BY id",
		buildID, kind,
	)
}

func (s *Store) SymbolByID(buildID string, id int64) (*Symbol, error) {
	sym, err := s.scanSymbol(s.db.QueryRow(
		"SELECT "+symbolCols+" FROM symbols WHERE build_id = ? AND id = ?", buildID, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by id: %w", err)
	}
	return sym, nil
}

// SymbolsByIDs fetches a set of symbols in one query. Useful for hydrating
// graph results without a round trip per node.
func (s *Store) SymbolsByIDs(buildID string, ids []int64) ([]*Symbol, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := append([]any{buildID}, int64sToArgs(ids)...)
	return s.querySymbols(
		"SELECT "+symbolCols+" FROM symbols WHERE build_id = ? AND id IN ("+placeholderList(len(ids))+") ORDER BY id",
		args...,
	)
}

// --- Reference operations ---

func (s *Store) ReferencesByDecl(buildID string, declID int64) ([]*Reference, error) {
	rows, err := s.db.Query(
		`SELECT build_id, node_id, decl_id, path, start_offset, start_line, start_col
		 FROM refs WHERE build_id = ? AND decl_id = ? ORDER BY node_id`,
		buildID, declID,
	)
	if err != nil {
		return nil, fmt.Errorf("references by decl: %w", err)
	}
	defer rows.Close()
	var refs []*Reference
	for rows.Next() {
		ref := &Reference{}
		if err := rows.Scan(
			&ref.BuildID, &ref.NodeID, &ref.DeclID, &ref.Path,
			&ref.StartOffset, &ref.StartLine, &ref.StartCol,
		); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// --- Diagnostic operations ---

func (s *Store) DiagnosticsByBuild(buildID string) ([]*Diagnostic, error) {
	rows, err := s.db.Query(
		`SELECT id, build_id, severity, code, message, path, start_offset, end_offset
		 FROM diagnostics WHERE build_id = ? ORDER BY id`,
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("diagnostics by build: %w", err)
	}
	defer rows.Close()
	var diags []*Diagnostic
	for rows.Next() {
		d := &Diagnostic{}
		if err := rows.Scan(
			&d.ID, &d.BuildID, &d.Severity, &d.Code, &d.Message,
			&d.Path, &d.StartOffset, &d.EndOffset,
		); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}
