package solgraph

import (
	"gitlab.com/tozd/go/errors"
)

// Reference is one use site of a declaration: the referencing node and
// where it sits in source.
type Reference struct {
	BuildID  string   `json:"buildId"`
	NodeID   int64    `json:"nodeId"`
	Location Location `json:"location"`
}

// GetDefinition resolves a declaration id to its definition site. The id is
// scoped to the named build; the same number in another build is a
// different symbol.
func (x *Index) GetDefinition(buildID string, declarationID int64) (Location, error) {
	b, err := x.Build(buildID)
	if err != nil {
		return Location{}, err
	}
	return b.DefinitionLocation(declarationID)
}

// FindReferences lists every node whose reference link targets the given
// declaration, in document order. A declaration nothing points at yields an
// empty slice. Nodes whose spans cannot be placed in a registered file are
// reported without a location rather than dropped.
func (x *Index) FindReferences(buildID string, declarationID int64) ([]Reference, error) {
	b, err := x.Build(buildID)
	if err != nil {
		return nil, err
	}
	if _, ok := b.Declaration(declarationID); !ok {
		return nil, errors.Errorf("%w: declaration %d not in build %s", ErrUnresolvedReference, declarationID, buildID)
	}
	ids := b.graph.ReferencesTo(declarationID)
	refs := make([]Reference, 0, len(ids))
	for _, id := range ids {
		ref := Reference{BuildID: buildID, NodeID: id}
		if loc, err := b.NodeLocation(id); err == nil {
			ref.Location = loc
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// DefinitionAt is the editor flow in one call: find the innermost node at a
// position, resolve its reference, and return the definition site. Position
// columns count bytes; use Build.Sources to convert UTF-16 editor columns
// first.
func (x *Index) DefinitionAt(buildID, path string, pos Position) (Location, error) {
	b, err := x.Build(buildID)
	if err != nil {
		return Location{}, err
	}
	n, err := b.NodeAtPosition(path, pos)
	if err != nil {
		return Location{}, err
	}
	if n == nil {
		return Location{}, errors.Errorf("%w: no node at %s:%d:%d", ErrUnresolvedReference, path, pos.Line, pos.Column)
	}
	decl, err := b.ResolveReference(n.ID)
	if err != nil {
		return Location{}, err
	}
	return b.DefinitionLocation(decl.ID)
}

// NodeAt returns the innermost node covering a position, nil when nothing
// covers it.
func (x *Index) NodeAt(buildID, path string, pos Position) (*ASTNode, error) {
	b, err := x.Build(buildID)
	if err != nil {
		return nil, err
	}
	return b.NodeAtPosition(path, pos)
}

// Diagnostics lists the compiler messages attached to a build.
func (x *Index) Diagnostics(buildID string) ([]Diagnostic, error) {
	b, err := x.Build(buildID)
	if err != nil {
		return nil, err
	}
	return b.Diagnostics(), nil
}

// SeedSource installs source text for a path in every build that registers
// it, so position conversion uses the buffer instead of reading from disk.
// Returns how many builds accepted the seed.
func (x *Index) SeedSource(path string, text []byte) int {
	seeded := 0
	for _, b := range x.Builds() {
		if b.Sources().SeedText(path, text) {
			seeded++
		}
	}
	return seeded
}
